package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/clinicore/consult-api/config"
	"github.com/clinicore/consult-api/internal/model"
	"github.com/clinicore/consult-api/internal/repository"
	apperrors "github.com/clinicore/consult-api/pkg/errors"
	"github.com/clinicore/consult-api/pkg/metrics"
)

// Service searches the diagnosis-code catalog. Results are cached per
// normalized query so type-ahead bursts hit the database once.
type Service struct {
	repo       repository.CatalogRepository
	cache      *cache.Cache
	maxResults int
	metrics    *metrics.Metrics
}

func NewService(repo repository.CatalogRepository, cfg config.CatalogConfig, m *metrics.Metrics) *Service {
	return &Service{
		repo:       repo,
		cache:      cache.New(cfg.CacheTTL, cfg.CleanupInterval),
		maxResults: cfg.MaxResults,
		metrics:    m,
	}
}

func (s *Service) Search(ctx context.Context, query string) ([]*model.CatalogCode, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, apperrors.Validation("search query must be at least 2 characters")
	}

	s.metrics.CatalogSearches.Inc()
	key := strings.ToLower(query)
	if cached, found := s.cache.Get(key); found {
		s.metrics.CatalogCacheHits.Inc()
		return cached.([]*model.CatalogCode), nil
	}

	start := time.Now()
	results, err := s.repo.Search(ctx, query, s.maxResults)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	s.metrics.CatalogSearchTime.Observe(time.Since(start).Seconds())

	s.cache.Set(key, results, cache.DefaultExpiration)
	return results, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (*model.CatalogCode, error) {
	c, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("diagnosis code", err)
		}
		return nil, apperrors.Persistence(err)
	}
	return c, nil
}
