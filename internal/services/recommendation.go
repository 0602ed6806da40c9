package services

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/movierec-backend/internal/data/repos"
	types "github.com/yungbote/movierec-backend/internal/domain"
	"github.com/yungbote/movierec-backend/internal/observability"
	"github.com/yungbote/movierec-backend/internal/platform/apierr"
	"github.com/yungbote/movierec-backend/internal/platform/dbctx"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
	"github.com/yungbote/movierec-backend/internal/platform/vectorstore"
	"github.com/yungbote/movierec-backend/internal/services/simcache"
)

type RecommendationConfig struct {
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Cache     simcache.Config `yaml:"cache"`
}

// Recommendation is returned to clients; both movies have their embedding stripped.
type Recommendation struct {
	Favourite      types.Movie `json:"favourite"`
	Recommendation types.Movie `json:"recommendation"`
	FromCache      bool        `json:"-"`
}

type RecommendationService interface {
	Recommend(ctx context.Context, customerID string) (*Recommendation, error)
}

type recommendationService struct {
	log        *logger.Logger
	favourites FavouriteSelector
	movies     repos.MovieRepo
	index      VectorIndex
	gateway    EmbeddingGateway
	cache      simcache.Cache
	cfg        RecommendationConfig
}

// NewRecommendationService wires the engine. cache may be nil, which behaves
// like the disabled mode.
func NewRecommendationService(
	log *logger.Logger,
	favourites FavouriteSelector,
	movies repos.MovieRepo,
	index VectorIndex,
	gateway EmbeddingGateway,
	cache simcache.Cache,
	cfg RecommendationConfig,
) RecommendationService {
	cfg.Retrieval = cfg.Retrieval.withDefaults()
	if cache == nil {
		cfg.Cache.Mode = simcache.ModeDisabled
	}
	return &recommendationService{
		log:        log.With("service", "RecommendationService"),
		favourites: favourites,
		movies:     movies,
		index:      index,
		gateway:    gateway,
		cache:      cache,
		cfg:        cfg,
	}
}

func (s *recommendationService) Recommend(ctx context.Context, customerID string) (*Recommendation, error) {
	ctx, span := observability.StartSpan(ctx, "recommendation.recommend",
		attribute.String("cache.mode", string(s.cfg.Cache.Mode)),
	)
	defer span.End()

	out, err := s.recommend(ctx, customerID)
	switch {
	case err == nil && out.FromCache:
		observability.Current().IncRecommendation(observability.OutcomeCacheHit)
	case err == nil:
		observability.Current().IncRecommendation(observability.OutcomeCacheMiss)
	case apierr.IsNotFound(err):
		observability.Current().IncRecommendation(observability.OutcomeNotFound)
	default:
		observability.Current().IncRecommendation(observability.OutcomeError)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if err == nil {
		span.SetAttributes(attribute.Bool("cache.hit", out.FromCache))
	}
	return out, err
}

func (s *recommendationService) recommend(ctx context.Context, customerID string) (*Recommendation, error) {
	fav, err := s.favourites.Select(ctx, customerID)
	if err != nil {
		return nil, err
	}
	log := s.log.With("customer_id", customerID, "favourite_id", fav.Movie.ID)

	caching := s.cfg.Cache.Enabled()
	key := simcache.Key(s.cfg.Cache.Mode, customerID, fav.Movie.ID)
	refreshing := false

	if caching {
		res, err := s.cache.Lookup(ctx, key)
		if err != nil {
			log.Warn("similarity cache lookup failed, searching instead", "error", err)
		} else if res.Hit {
			rec, err := s.firstResolvable(ctx, res.Candidates, fav.Viewed)
			if err != nil {
				return nil, err
			}
			if rec != nil {
				return &Recommendation{Favourite: fav.Movie.Public(), Recommendation: rec.Public(), FromCache: true}, nil
			}
			if s.cfg.Cache.ExhaustedPolicy != simcache.PolicyRefresh {
				return nil, apierr.NotFound(apierr.CodeNoRecommend, "No recommendation available")
			}
			log.Debug("cached candidates all viewed, refreshing")
			refreshing = true
		}
	}

	// a refresh always excludes the whole viewed set
	exclude := []string{fav.Movie.ID}
	if s.cfg.Cache.Mode != simcache.ModeShared || refreshing {
		exclude = types.SortedIDs(fav.Viewed)
	}
	matches, err := s.search(ctx, fav.Movie.Embedding, exclude)
	if err != nil {
		return nil, err
	}

	kept := matches[:0]
	for _, m := range matches {
		if m.Score >= s.cfg.Retrieval.Threshold {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		log.Info("no candidates above similarity threshold", "matches", len(matches), "threshold", s.cfg.Retrieval.Threshold)
		return nil, apierr.NotFound(apierr.CodeNoMatches, "No similar movies found")
	}

	ranked, err := s.rerank(ctx, fav.Movie, kept)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return nil, apierr.NotFound(apierr.CodeNoMatches, "No similar movies found")
	}

	var pick *types.Movie
	if caching {
		ids := make([]string, len(ranked))
		for i, m := range ranked {
			ids[i] = m.ID
		}
		// the refreshed list is filtered by this customer's history and must
		// not replace the shared entry
		if refreshing && s.cfg.Cache.Mode == simcache.ModeShared {
			log.Debug("skipping shared cache store for refreshed list")
		} else if err := s.cache.Store(ctx, key, ids); err != nil {
			log.Warn("similarity cache store failed", "error", err)
		}
		for _, m := range ranked {
			if _, seen := fav.Viewed[m.ID]; !seen {
				pick = m
				break
			}
		}
		if pick == nil {
			return nil, apierr.NotFound(apierr.CodeNoRecommend, "No recommendation available")
		}
	} else {
		pick = ranked[0]
	}

	log.Debug("recommendation selected", "movie_id", pick.ID, "candidates", len(ranked))
	return &Recommendation{Favourite: fav.Movie.Public(), Recommendation: pick.Public()}, nil
}

func (s *recommendationService) search(ctx context.Context, vector []float32, exclude []string) ([]vectorstore.Match, error) {
	ctx, span := observability.StartSpan(ctx, "recommendation.vector_search")
	defer span.End()

	filter := map[string]any{PayloadType: types.TypeMovie}
	if len(exclude) > 0 {
		filter[PayloadMovieID] = map[string]any{"$nin": exclude}
	}
	matches, err := s.index.Search(ctx, s.cfg.Retrieval.Namespace, vectorstore.Query{
		Vector:        vector,
		TopK:          s.cfg.Retrieval.TopK,
		NumCandidates: s.cfg.Retrieval.NumCandidates,
		Filter:        filter,
	})
	if err != nil {
		span.RecordError(err)
		return nil, apierr.Upstream("vector search", err)
	}
	span.SetAttributes(attribute.Int("matches", len(matches)))
	return matches, nil
}

// rerank loads the candidate movies and orders them by relevance to the
// favourite's plot. Candidates missing from the catalog or without a plot are dropped.
func (s *recommendationService) rerank(ctx context.Context, fav *types.Movie, matches []vectorstore.Match) ([]*types.Movie, error) {
	ctx, span := observability.StartSpan(ctx, "recommendation.rerank")
	defer span.End()

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	found, err := s.movies.GetByIDs(dbctx.New(ctx), ids)
	if err != nil {
		return nil, apierr.Storage("load candidates", err)
	}
	candidates := make([]*types.Movie, 0, len(found))
	docs := make([]string, 0, len(found))
	for _, m := range found {
		if strings.TrimSpace(m.FullPlot) == "" {
			continue
		}
		candidates = append(candidates, m)
		docs = append(docs, m.FullPlot)
	}
	if len(candidates) < len(ids) {
		s.log.Warn("dropped vector candidates", "requested", len(ids), "usable", len(candidates))
	}
	if len(candidates) == 0 || strings.TrimSpace(fav.FullPlot) == "" {
		return candidates, nil
	}

	results, err := s.gateway.Rerank(ctx, fav.FullPlot, docs)
	if err != nil {
		span.RecordError(err)
		return nil, apierr.Upstream("rerank", err)
	}
	out := make([]*types.Movie, 0, len(results))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(candidates) {
			continue
		}
		out = append(out, candidates[r.Index])
	}
	return out, nil
}

// firstResolvable returns the first unviewed cached candidate that still exists
// in the catalog, or nil when none does.
func (s *recommendationService) firstResolvable(ctx context.Context, ids []string, viewed map[string]struct{}) (*types.Movie, error) {
	for _, id := range ids {
		if _, seen := viewed[id]; seen {
			continue
		}
		m, err := s.movies.GetByID(dbctx.New(ctx), id)
		if err != nil {
			return nil, apierr.Storage("load recommendation", err)
		}
		if m == nil {
			s.log.Warn("cached candidate missing from catalog", "movie_id", id)
			continue
		}
		return m, nil
	}
	return nil, nil
}
