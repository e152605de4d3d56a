package shipping

import (
	"context"
	"slices"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrProviderNotFound is returned when a shipping provider does not exist.
	ErrProviderNotFound = errors.New("shipping provider not found")
	// ErrInvalidAddress is returned when the delivery address is not one of
	// the provider's registered addresses.
	ErrInvalidAddress = errors.New("address not served by shipping provider")
	// ErrNoOptions is returned when a provider has no price options configured.
	ErrNoOptions = errors.New("shipping provider has no options")
)

// Option is a named delivery price offered by a provider.
type Option struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Provider is a delivery company with its registered pickup addresses and
// price options. Read-only to the order workflow.
type Provider struct {
	ID        string
	Name      string
	Addresses []string
	Options   []Option
}

// Selection captures the delivery choice made at order time. The provider's
// later price changes never alter a placed order.
type Selection struct {
	ProviderID   string          `json:"providerId"`
	ProviderName string          `json:"providerName"`
	OptionName   string          `json:"optionName"`
	Price        decimal.Decimal `json:"price"`
	Address      string          `json:"address"`
}

// Repository defines read operations for shipping providers.
type Repository interface {
	List(ctx context.Context) ([]Provider, error)
	GetByID(ctx context.Context, id string) (*Provider, error)
}

// Select validates the delivery address against the provider's registered
// list and picks the cheapest option. Ties go to the first option in stored
// order; the options slice is scanned, never re-sorted.
func Select(p *Provider, address string) (Selection, error) {
	if !slices.Contains(p.Addresses, address) {
		return Selection{}, ErrInvalidAddress
	}
	if len(p.Options) == 0 {
		return Selection{}, ErrNoOptions
	}

	cheapest := p.Options[0]
	for _, opt := range p.Options[1:] {
		if opt.Price.LessThan(cheapest.Price) {
			cheapest = opt
		}
	}

	return Selection{
		ProviderID:   p.ID,
		ProviderName: p.Name,
		OptionName:   cheapest.Name,
		Price:        cheapest.Price,
		Address:      address,
	}, nil
}
