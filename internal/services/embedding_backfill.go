package services

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/movierec-backend/internal/data/repos"
	types "github.com/yungbote/movierec-backend/internal/domain"
	"github.com/yungbote/movierec-backend/internal/observability"
	"github.com/yungbote/movierec-backend/internal/platform/dbctx"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
	"github.com/yungbote/movierec-backend/internal/platform/vectorstore"
	"github.com/yungbote/movierec-backend/internal/platform/voyage"
)

type BackfillOptions struct {
	// Force re-embeds movies that already have an embedding.
	Force       bool
	BatchSize   int
	Concurrency int
	// Limit caps the number of movies scanned; 0 means all.
	Limit            int
	EnsureCollection bool
}

type BackfillReport struct {
	Scanned   int `json:"scanned"`
	Embedded  int `json:"embedded"`
	Stale     int `json:"stale"`
	Upserted  int `json:"upserted"`
	UpsertErr int `json:"upsert_errors"`
}

type EmbeddingBackfill interface {
	Backfill(ctx context.Context, opts BackfillOptions) (BackfillReport, error)
}

type embeddingBackfill struct {
	log       *logger.Logger
	movies    repos.MovieRepo
	gateway   EmbeddingGateway
	index     VectorIndex
	namespace string
}

func NewEmbeddingBackfill(log *logger.Logger, movies repos.MovieRepo, gateway EmbeddingGateway, index VectorIndex, namespace string) EmbeddingBackfill {
	if namespace == "" {
		namespace = DefaultRetrievalConfig().Namespace
	}
	return &embeddingBackfill{
		log:       log.With("service", "EmbeddingBackfill"),
		movies:    movies,
		gateway:   gateway,
		index:     index,
		namespace: namespace,
	}
}

func (b *embeddingBackfill) Backfill(ctx context.Context, opts BackfillOptions) (BackfillReport, error) {
	var report BackfillReport
	if opts.BatchSize <= 0 {
		opts.BatchSize = 64
	}
	if opts.BatchSize > 128 {
		opts.BatchSize = 128
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 4
	}

	if opts.EnsureCollection && b.index != nil {
		if cm, ok := b.index.(vectorstore.CollectionManager); ok {
			if err := cm.EnsureCollection(ctx, []string{PayloadType, PayloadMovieID}); err != nil {
				return report, fmt.Errorf("ensure collection: %w", err)
			}
		}
	}

	var embedded, stale, upserted, upsertErrs int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	afterID := ""
	for {
		if gctx.Err() != nil {
			break
		}
		limit := opts.BatchSize
		if opts.Limit > 0 {
			if report.Scanned >= opts.Limit {
				break
			}
			if remaining := opts.Limit - report.Scanned; remaining < limit {
				limit = remaining
			}
		}
		page, err := b.movies.ListForEmbedding(dbctx.New(gctx), afterID, limit, opts.Force)
		if err != nil {
			_ = g.Wait()
			return report, fmt.Errorf("list movies after %q: %w", afterID, err)
		}
		if len(page) == 0 {
			break
		}
		report.Scanned += len(page)
		afterID = page[len(page)-1].ID

		batch := page
		g.Go(func() error {
			res, err := b.embedBatch(gctx, batch)
			atomic.AddInt64(&embedded, int64(res.embedded))
			atomic.AddInt64(&stale, int64(res.stale))
			atomic.AddInt64(&upserted, int64(res.upserted))
			if res.upsertFailed {
				atomic.AddInt64(&upsertErrs, 1)
			}
			return err
		})
		if len(page) < limit {
			break
		}
	}

	err := g.Wait()
	report.Embedded = int(embedded)
	report.Stale = int(stale)
	report.Upserted = int(upserted)
	report.UpsertErr = int(upsertErrs)
	b.log.Info("embedding backfill finished",
		"scanned", report.Scanned,
		"embedded", report.Embedded,
		"stale", report.Stale,
		"upserted", report.Upserted,
		"upsert_errors", report.UpsertErr,
	)
	return report, err
}

type batchResult struct {
	embedded     int
	stale        int
	upserted     int
	upsertFailed bool
}

func (b *embeddingBackfill) embedBatch(ctx context.Context, movies []*types.Movie) (batchResult, error) {
	var res batchResult
	texts := make([]string, len(movies))
	for i, m := range movies {
		texts[i] = strings.TrimSpace(m.FullPlot)
	}
	vecs, err := b.gateway.Embed(ctx, texts, voyage.InputDocument)
	if err != nil {
		observability.Current().IncBackfill("failed")
		return res, fmt.Errorf("embed batch starting at %s: %w", movies[0].ID, err)
	}
	if len(vecs) != len(movies) {
		return res, fmt.Errorf("embedding count mismatch (got %d want %d)", len(vecs), len(movies))
	}

	points := make([]vectorstore.Vector, 0, len(movies))
	for i, m := range movies {
		// the plot is compared as read so an edit since then wins
		ok, err := b.movies.SetEmbeddingIfPlotUnchanged(dbctx.New(ctx), m.ID, m.FullPlot, vecs[i])
		if err != nil {
			return res, fmt.Errorf("store embedding %s: %w", m.ID, err)
		}
		if !ok {
			res.stale++
			observability.Current().IncBackfill("stale")
			b.log.Debug("plot changed during embedding, skipped", "movie_id", m.ID)
			continue
		}
		res.embedded++
		observability.Current().IncBackfill("embedded")
		points = append(points, vectorstore.Vector{
			ID:     m.ID,
			Values: vecs[i],
			Metadata: map[string]any{
				PayloadType:    m.Type,
				PayloadMovieID: m.ID,
			},
		})
	}

	if b.index == nil || len(points) == 0 {
		return res, nil
	}
	if err := b.index.Upsert(ctx, b.namespace, points); err != nil {
		// rows keep their embedding; a forced rerun re-indexes them
		res.upsertFailed = true
		b.log.Warn("vector upsert failed (continuing)", "namespace", b.namespace, "count", len(points), "error", err)
		return res, nil
	}
	res.upserted = len(points)
	return res, nil
}
