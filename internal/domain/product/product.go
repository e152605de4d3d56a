package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Localized maps a language code ("en", "rus", "est") to translated text.
type Localized map[string]string

// Get returns the text for lang, falling back to English when the requested
// language has no translation.
func (l Localized) Get(lang string) string {
	if v, ok := l[lang]; ok && v != "" {
		return v
	}
	return l["en"]
}

// Product represents a catalog item available for purchase. Title and price
// are copied into order lines at purchase time; later catalog edits never
// change a placed order.
type Product struct {
	ID        string
	Title     Localized
	Price     decimal.Decimal
	Available bool
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}
