// Package market fetches bazaar quotes and keeps them cached.
package market

import (
	"context"

	"github.com/napolitain/solver-mutations/internal/models"
)

// Source supplies current prices. Returned maps must be treated as read-only.
type Source interface {
	Prices(ctx context.Context) (models.Prices, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context) (models.Prices, error)

func (f SourceFunc) Prices(ctx context.Context) (models.Prices, error) {
	return f(ctx)
}

// Static always returns the same prices, used offline and in tests
type Static models.Prices

func (s Static) Prices(context.Context) (models.Prices, error) {
	return models.Prices(s), nil
}
