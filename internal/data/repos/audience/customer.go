package audience

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/movierec-backend/internal/data/db"
	types "github.com/yungbote/movierec-backend/internal/domain"
	"github.com/yungbote/movierec-backend/internal/platform/dbctx"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
)

var ErrCustomerNotFound = errors.New("customer not found")

type CustomerRepo interface {
	GetByID(dbc dbctx.Context, id string) (*types.Customer, error)
	// PushViewing prepends rec to the customer's history, keeping at most limit
	// entries. With upsert the customer row is created when missing; without it
	// a missing customer yields ErrCustomerNotFound.
	PushViewing(dbc dbctx.Context, customerID string, rec types.ViewingRecord, limit int, upsert bool) error
}

type customerRepo struct {
	conn db.Conn
	log  *logger.Logger
}

func NewCustomerRepo(conn db.Conn, baseLog *logger.Logger) CustomerRepo {
	return &customerRepo{conn: conn, log: baseLog.With("repo", "CustomerRepo")}
}

func (r *customerRepo) handle(dbc dbctx.Context) (*gorm.DB, error) {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx), nil
	}
	return r.conn.DB(dbc.Ctx)
}

func (r *customerRepo) GetByID(dbc dbctx.Context, id string) (*types.Customer, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	gdb, err := r.handle(dbc)
	if err != nil {
		return nil, err
	}
	var row types.Customer
	if err := gdb.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *customerRepo) PushViewing(dbc dbctx.Context, customerID string, rec types.ViewingRecord, limit int, upsert bool) error {
	gdb, err := r.handle(dbc)
	if err != nil {
		return err
	}
	if upsert {
		seed := &types.Customer{ID: customerID, ViewedMovies: []types.ViewingRecord{}}
		if err := gdb.Clauses(clause.OnConflict{DoNothing: true}).Create(seed).Error; err != nil {
			return err
		}
	}
	return gdb.Transaction(func(tx *gorm.DB) error {
		var row types.Customer
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", customerID).
			First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCustomerNotFound
		}
		if err != nil {
			return err
		}
		row.ViewedMovies = types.PushHistory(row.ViewedMovies, rec, limit)
		return tx.Model(&types.Customer{}).
			Where("id = ?", customerID).
			Updates(map[string]interface{}{
				"viewed_movies": row.ViewedMovies,
				"updated_at":    time.Now().UTC(),
			}).Error
	})
}
