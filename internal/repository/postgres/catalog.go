package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/clinicore/consult-api/internal/model"
	"github.com/clinicore/consult-api/internal/repository"
)

type catalogRepository struct {
	BaseRepository
}

func NewCatalogRepository(db *sqlx.DB) repository.CatalogRepository {
	return &catalogRepository{BaseRepository: NewBaseRepository(db)}
}

// Search matches the query against code prefixes and description
// substrings. Read-only; tolerates duplicate bursts by construction.
func (r *catalogRepository) Search(ctx context.Context, query string, limit int) ([]*model.CatalogCode, error) {
	sqlQuery := `
		SELECT code, description
		FROM diagnosis_catalog
		WHERE code ILIKE $1 OR description ILIKE $2
		ORDER BY code ASC
		LIMIT $3
	`
	var codes []*model.CatalogCode
	if err := r.db.SelectContext(ctx, &codes, sqlQuery, query+"%", "%"+query+"%", limit); err != nil {
		return nil, fmt.Errorf("failed to search diagnosis catalog: %w", err)
	}
	return codes, nil
}

func (r *catalogRepository) GetByCode(ctx context.Context, code string) (*model.CatalogCode, error) {
	query := `
		SELECT code, description
		FROM diagnosis_catalog
		WHERE code = $1
	`
	var c model.CatalogCode
	if err := r.db.GetContext(ctx, &c, query, code); err != nil {
		return nil, mapNotFound(err)
	}
	return &c, nil
}
