package order

import (
	"github.com/shopspring/decimal"

	"github.com/tkivila/craftshop/internal/domain/product"
)

// ItemRequest is one requested product/quantity pair.
type ItemRequest struct {
	ProductID string
	Quantity  int
}

// PriceLines builds order lines from the requested items and their catalog
// snapshots and returns the exact decimal subtotal. Each line total is
// price × quantity; no binary floating point is involved at any step, so
// values like 3×6.67 + 2×3.33 come out to exactly 26.67.
//
// Line titles are captured in lang (falling back to English) so later
// translation edits never change a placed order.
func PriceLines(items []ItemRequest, byID map[string]product.Product, lang string) ([]Line, decimal.Decimal, error) {
	lines := make([]Line, len(items))
	subtotal := decimal.Zero

	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, decimal.Zero, &InvalidQuantityError{ProductID: item.ProductID}
		}

		p := byID[item.ProductID]
		total := p.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		lines[i] = Line{
			ProductID: p.ID,
			Title:     p.Title.Get(lang),
			Price:     p.Price,
			Quantity:  item.Quantity,
			Total:     total,
		}
		subtotal = subtotal.Add(total)
	}

	return lines, subtotal.Round(2), nil
}
