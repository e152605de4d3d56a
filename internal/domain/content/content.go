// Package content holds localized text entries used to build outbound
// messages. Entries are keyed by (group, handle), e.g. ("mail",
// "order_complete_mail") for the order confirmation template.
package content

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/tkivila/craftshop/internal/domain/product"
)

// ErrNotFound is returned when no entry exists for a (group, handle) pair.
var ErrNotFound = errors.New("content not found")

// Entry is a localized content block. Title and Paragraphs may contain
// {{orderId}} and {{amount}} placeholders.
type Entry struct {
	ID         string
	Group      string
	Handle     string
	Title      product.Localized
	Paragraphs []product.Localized
}

// Repository defines read operations for content entries.
type Repository interface {
	GetByHandle(ctx context.Context, group, handle string) (*Entry, error)
}
