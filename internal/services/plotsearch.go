package services

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/movierec-backend/internal/data/repos"
	types "github.com/yungbote/movierec-backend/internal/domain"
	"github.com/yungbote/movierec-backend/internal/observability"
	"github.com/yungbote/movierec-backend/internal/platform/apierr"
	"github.com/yungbote/movierec-backend/internal/platform/dbctx"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
	"github.com/yungbote/movierec-backend/internal/platform/vectorstore"
	"github.com/yungbote/movierec-backend/internal/platform/voyage"
)

// PlotMatch is a movie annotated with its vector and rerank scores.
// RerankPosition is 1-based.
type PlotMatch struct {
	types.Movie
	Score          float64 `json:"score"`
	RerankScore    float64 `json:"rerankScore"`
	RerankPosition int     `json:"rerankPosition"`
}

type PlotSearchResult struct {
	Query      string      `json:"query"`
	TopMatch   PlotMatch   `json:"topMatch"`
	AllMatches []PlotMatch `json:"allMatches"`
}

type PlotSearchService interface {
	SearchByPlot(ctx context.Context, text string) (*PlotSearchResult, error)
}

type plotSearchService struct {
	log     *logger.Logger
	movies  repos.MovieRepo
	index   VectorIndex
	gateway EmbeddingGateway
	cfg     RetrievalConfig
}

func NewPlotSearchService(log *logger.Logger, movies repos.MovieRepo, index VectorIndex, gateway EmbeddingGateway, cfg RetrievalConfig) PlotSearchService {
	return &plotSearchService{
		log:     log.With("service", "PlotSearchService"),
		movies:  movies,
		index:   index,
		gateway: gateway,
		cfg:     cfg.withDefaults(),
	}
}

func (s *plotSearchService) SearchByPlot(ctx context.Context, text string) (*PlotSearchResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apierr.Validation("Plot text is required")
	}
	ctx, span := observability.StartSpan(ctx, "plotsearch.search")
	defer span.End()

	vecs, err := s.gateway.Embed(ctx, []string{text}, voyage.InputDocument)
	if err != nil {
		span.RecordError(err)
		return nil, apierr.Upstream("embed plot", err)
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return nil, apierr.Upstream("embed plot", errEmptyEmbedding)
	}

	matches, err := s.index.Search(ctx, s.cfg.Namespace, vectorstore.Query{
		Vector:        vecs[0],
		TopK:          s.cfg.TopK,
		NumCandidates: s.cfg.NumCandidates,
		Filter:        map[string]any{PayloadType: types.TypeMovie},
	})
	if err != nil {
		span.RecordError(err)
		return nil, apierr.Upstream("vector search", err)
	}

	scores := make(map[string]float64, len(matches))
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
		scores[m.ID] = m.Score
	}
	found, err := s.movies.GetByIDs(dbctx.New(ctx), ids)
	if err != nil {
		return nil, apierr.Storage("load matches", err)
	}
	usable := make([]*types.Movie, 0, len(found))
	docs := make([]string, 0, len(found))
	for _, m := range found {
		if strings.TrimSpace(m.FullPlot) == "" {
			continue
		}
		usable = append(usable, m)
		docs = append(docs, m.FullPlot)
	}
	if len(usable) == 0 {
		s.log.Info("no movies matched plot", "matches", len(matches))
		return nil, apierr.NotFound(apierr.CodeNoMatches, "No matching movies found")
	}

	ranked, err := s.gateway.Rerank(ctx, text, docs)
	if err != nil {
		span.RecordError(err)
		return nil, apierr.Upstream("rerank", err)
	}
	out := make([]PlotMatch, 0, len(ranked))
	for _, r := range ranked {
		if r.Index < 0 || r.Index >= len(usable) {
			continue
		}
		m := usable[r.Index]
		out = append(out, PlotMatch{
			Movie:          m.Public(),
			Score:          scores[m.ID],
			RerankScore:    r.RelevanceScore,
			RerankPosition: len(out) + 1,
		})
	}
	if len(out) == 0 {
		return nil, apierr.NotFound(apierr.CodeNoMatches, "No matching movies found")
	}
	span.SetAttributes(attribute.Int("matches", len(out)))
	return &PlotSearchResult{Query: text, TopMatch: out[0], AllMatches: out}, nil
}
