package catalog

import (
	"errors"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/movierec-backend/internal/data/db"
	types "github.com/yungbote/movierec-backend/internal/domain"
	"github.com/yungbote/movierec-backend/internal/platform/dbctx"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
)

type MovieRepo interface {
	GetByID(dbc dbctx.Context, id string) (*types.Movie, error)
	// GetByIDs returns the movies found, in the order of ids. Missing ids are skipped.
	GetByIDs(dbc dbctx.Context, ids []string) ([]*types.Movie, error)
	Upsert(dbc dbctx.Context, rows []*types.Movie) error
	SetSimilarCandidates(dbc dbctx.Context, id string, candidates []string, at time.Time) error
	// ListForEmbedding pages by id. Without force only movies lacking an embedding are returned.
	ListForEmbedding(dbc dbctx.Context, afterID string, limit int, force bool) ([]*types.Movie, error)
	// SetEmbeddingIfPlotUnchanged writes the embedding only when fullplot still
	// equals plot, reporting whether a row was updated.
	SetEmbeddingIfPlotUnchanged(dbc dbctx.Context, id, plot string, embedding []float32) (bool, error)
}

type movieRepo struct {
	conn db.Conn
	log  *logger.Logger
}

func NewMovieRepo(conn db.Conn, baseLog *logger.Logger) MovieRepo {
	return &movieRepo{conn: conn, log: baseLog.With("repo", "MovieRepo")}
}

func (r *movieRepo) handle(dbc dbctx.Context) (*gorm.DB, error) {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx), nil
	}
	return r.conn.DB(dbc.Ctx)
}

func (r *movieRepo) GetByID(dbc dbctx.Context, id string) (*types.Movie, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	gdb, err := r.handle(dbc)
	if err != nil {
		return nil, err
	}
	var row types.Movie
	if err := gdb.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *movieRepo) GetByIDs(dbc dbctx.Context, ids []string) ([]*types.Movie, error) {
	if len(ids) == 0 {
		return []*types.Movie{}, nil
	}
	gdb, err := r.handle(dbc)
	if err != nil {
		return nil, err
	}
	var rows []*types.Movie
	if err := gdb.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]*types.Movie, len(rows))
	for _, m := range rows {
		byID[m.ID] = m
	}
	out := make([]*types.Movie, 0, len(rows))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			out = append(out, m)
			delete(byID, id)
		}
	}
	return out, nil
}

func (r *movieRepo) Upsert(dbc dbctx.Context, rows []*types.Movie) error {
	if len(rows) == 0 {
		return nil
	}
	gdb, err := r.handle(dbc)
	if err != nil {
		return err
	}
	for _, m := range rows {
		if m.Type == "" {
			m.Type = types.TypeMovie
		}
	}
	return gdb.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"type", "title", "year", "genres", "cast", "directors",
			"rated", "poster", "fullplot", "fullplot_embedding", "updated_at",
		}),
	}).Create(rows).Error
}

func (r *movieRepo) SetSimilarCandidates(dbc dbctx.Context, id string, candidates []string, at time.Time) error {
	gdb, err := r.handle(dbc)
	if err != nil {
		return err
	}
	return gdb.Model(&types.Movie{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"similar_candidates": datatypes.NewJSONSlice(candidates),
			"similar_updated_at": at.UTC(),
		}).Error
}

func (r *movieRepo) ListForEmbedding(dbc dbctx.Context, afterID string, limit int, force bool) ([]*types.Movie, error) {
	gdb, err := r.handle(dbc)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	q := gdb.Where("type = ?", types.TypeMovie).Where("fullplot <> ''")
	if afterID != "" {
		q = q.Where("id > ?", afterID)
	}
	if !force {
		q = q.Where("fullplot_embedding IS NULL OR CAST(fullplot_embedding AS TEXT) IN ('[]', 'null')")
	}
	var rows []*types.Movie
	if err := q.Order("id ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *movieRepo) SetEmbeddingIfPlotUnchanged(dbc dbctx.Context, id, plot string, embedding []float32) (bool, error) {
	gdb, err := r.handle(dbc)
	if err != nil {
		return false, err
	}
	res := gdb.Model(&types.Movie{}).
		Where("id = ? AND fullplot = ?", id, plot).
		Updates(map[string]interface{}{
			"fullplot_embedding": datatypes.NewJSONSlice(embedding),
			"updated_at":         time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
