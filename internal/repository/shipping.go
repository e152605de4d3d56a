package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/tkivila/craftshop/internal/domain/shipping"
)

const (
	listProvidersSQL = `SELECT id, name, addresses, options FROM shipping_providers ORDER BY name`

	getProviderByIDSQL = `SELECT id, name, addresses, options FROM shipping_providers WHERE id = $1`
)

var _ shipping.Repository = (*ShippingRepository)(nil)

// ShippingRepository implements shipping.Repository backed by PostgreSQL.
type ShippingRepository struct {
	db DB
}

// NewShippingRepository returns a ShippingRepository that uses the given pool.
func NewShippingRepository(db DB) *ShippingRepository {
	return &ShippingRepository{db: db}
}

// List returns all shipping providers.
func (r *ShippingRepository) List(ctx context.Context) ([]shipping.Provider, error) {
	rows, err := r.db.Query(ctx, listProvidersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing shipping providers: %w", err)
	}
	return pgx.CollectRows(rows, scanProvider)
}

// GetByID returns a single provider by its identifier.
func (r *ShippingRepository) GetByID(ctx context.Context, id string) (*shipping.Provider, error) {
	rows, err := r.db.Query(ctx, getProviderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting shipping provider %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProvider)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shipping.ErrProviderNotFound
		}
		return nil, fmt.Errorf("getting shipping provider %q: %w", id, err)
	}
	return &p, nil
}

func scanProvider(row pgx.CollectableRow) (shipping.Provider, error) {
	var p shipping.Provider
	// Options come from a JSONB array and keep their stored order, which is
	// what makes the cheapest-option tie-break stable.
	err := row.Scan(&p.ID, &p.Name, &p.Addresses, &p.Options)
	return p, err
}
