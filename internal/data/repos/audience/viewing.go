package audience

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/movierec-backend/internal/data/db"
	types "github.com/yungbote/movierec-backend/internal/domain"
	"github.com/yungbote/movierec-backend/internal/platform/dbctx"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
)

type ViewingRepo interface {
	Create(dbc dbctx.Context, row *types.Viewing) error
	ListByCustomer(dbc dbctx.Context, customerID string, limit int) ([]*types.Viewing, error)
}

type viewingRepo struct {
	conn db.Conn
	log  *logger.Logger
}

func NewViewingRepo(conn db.Conn, baseLog *logger.Logger) ViewingRepo {
	return &viewingRepo{conn: conn, log: baseLog.With("repo", "ViewingRepo")}
}

func (r *viewingRepo) handle(dbc dbctx.Context) (*gorm.DB, error) {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx), nil
	}
	return r.conn.DB(dbc.Ctx)
}

func (r *viewingRepo) Create(dbc dbctx.Context, row *types.Viewing) error {
	if row == nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	gdb, err := r.handle(dbc)
	if err != nil {
		return err
	}
	return gdb.Create(row).Error
}

// ListByCustomer returns the newest viewings first.
func (r *viewingRepo) ListByCustomer(dbc dbctx.Context, customerID string, limit int) ([]*types.Viewing, error) {
	gdb, err := r.handle(dbc)
	if err != nil {
		return nil, err
	}
	q := gdb.Where("customer_id = ?", customerID).Order("viewed_at DESC").Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*types.Viewing
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
