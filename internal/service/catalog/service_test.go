package catalog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/consult-api/config"
	"github.com/clinicore/consult-api/internal/model"
	"github.com/clinicore/consult-api/internal/repository"
	apperrors "github.com/clinicore/consult-api/pkg/errors"
	"github.com/clinicore/consult-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("catalog_test")

type countingCatalogRepo struct {
	mu       sync.Mutex
	searches int
	codes    map[string]*model.CatalogCode
}

func (r *countingCatalogRepo) Search(_ context.Context, query string, limit int) ([]*model.CatalogCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searches++
	var out []*model.CatalogCode
	for _, c := range r.codes {
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *countingCatalogRepo) GetByCode(_ context.Context, code string) (*model.CatalogCode, error) {
	c, ok := r.codes[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func newTestService(repo *countingCatalogRepo) *Service {
	return NewService(repo, config.CatalogConfig{
		CacheTTL:        time.Minute,
		CleanupInterval: 5 * time.Minute,
		MaxResults:      20,
	}, testMetrics)
}

func TestSearchCachesRepeatedQueries(t *testing.T) {
	repo := &countingCatalogRepo{codes: map[string]*model.CatalogCode{
		"I10": {Code: "I10", Description: "Essential hypertension"},
	}}
	svc := newTestService(repo)
	ctx := context.Background()

	first, err := svc.Search(ctx, "hyper")
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Same query again, and case-insensitively
	_, err = svc.Search(ctx, "hyper")
	require.NoError(t, err)
	_, err = svc.Search(ctx, "HYPER")
	require.NoError(t, err)

	assert.Equal(t, 1, repo.searches)
}

func TestSearchRejectsShortQueries(t *testing.T) {
	svc := newTestService(&countingCatalogRepo{codes: map[string]*model.CatalogCode{}})

	_, err := svc.Search(context.Background(), "a")
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	_, err = svc.Search(context.Background(), "  x  ")
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestGetByCode(t *testing.T) {
	repo := &countingCatalogRepo{codes: map[string]*model.CatalogCode{
		"E11": {Code: "E11", Description: "Type 2 diabetes mellitus"},
	}}
	svc := newTestService(repo)

	c, err := svc.GetByCode(context.Background(), "E11")
	require.NoError(t, err)
	assert.Equal(t, "Type 2 diabetes mellitus", c.Description)

	_, err = svc.GetByCode(context.Background(), "ZZ00")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
