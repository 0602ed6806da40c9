package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yungbote/movierec-backend/internal/data/repos"
	types "github.com/yungbote/movierec-backend/internal/domain"
	"github.com/yungbote/movierec-backend/internal/platform/apierr"
	"github.com/yungbote/movierec-backend/internal/platform/dbctx"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
)

// RecordViewingInput is a validated-on-Record viewing event. A zero ViewedAt
// is replaced by the current time.
type RecordViewingInput struct {
	CustomerID string
	MovieID    string
	ViewedAt   time.Time
	Completed  bool
	Rating     int
}

type ViewingConfig struct {
	HistoryLimit    int  `yaml:"history_limit"`
	UpsertCustomers bool `yaml:"upsert_customers"`
}

func DefaultViewingConfig() ViewingConfig {
	return ViewingConfig{HistoryLimit: types.DefaultHistoryLimit, UpsertCustomers: true}
}

type ViewingService interface {
	Record(ctx context.Context, in RecordViewingInput) (*types.Viewing, error)
}

type viewingService struct {
	log       *logger.Logger
	viewings  repos.ViewingRepo
	customers repos.CustomerRepo
	cfg       ViewingConfig
	now       func() time.Time
}

func NewViewingService(log *logger.Logger, viewings repos.ViewingRepo, customers repos.CustomerRepo, cfg ViewingConfig) ViewingService {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = types.DefaultHistoryLimit
	}
	return &viewingService{
		log:       log.With("service", "ViewingService"),
		viewings:  viewings,
		customers: customers,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *viewingService) Record(ctx context.Context, in RecordViewingInput) (*types.Viewing, error) {
	in.CustomerID = strings.TrimSpace(in.CustomerID)
	in.MovieID = strings.TrimSpace(in.MovieID)
	if in.CustomerID == "" {
		return nil, apierr.Validation("Bad Request: Missing customerId")
	}
	if in.MovieID == "" {
		return nil, apierr.Validation("Bad Request: Missing movieId")
	}
	if !types.ValidRating(in.Rating) {
		return nil, apierr.Validation("Bad Request: rating must be -1, 0 or 1")
	}
	if in.ViewedAt.IsZero() {
		in.ViewedAt = s.now()
	}

	row := &types.Viewing{
		CustomerID: in.CustomerID,
		MovieID:    in.MovieID,
		ViewedAt:   in.ViewedAt.UTC(),
		Completed:  in.Completed,
		Rating:     in.Rating,
	}
	dbc := dbctx.New(ctx)
	if err := s.viewings.Create(dbc, row); err != nil {
		s.log.Error("insert viewing failed", "customer_id", in.CustomerID, "movie_id", in.MovieID, "error", err)
		return nil, apierr.Storage("insert viewing", err)
	}

	// The audit row stays if this fails; the two writes are not transactional.
	err := s.customers.PushViewing(dbc, in.CustomerID, row.Record(), s.cfg.HistoryLimit, s.cfg.UpsertCustomers)
	if errors.Is(err, repos.ErrCustomerNotFound) {
		return nil, apierr.NotFound(apierr.CodeNotFound, "Customer not found")
	}
	if err != nil {
		s.log.Error("push viewing history failed", "customer_id", in.CustomerID, "movie_id", in.MovieID, "error", err)
		return nil, apierr.Storage("push viewing history", err)
	}
	return row, nil
}
