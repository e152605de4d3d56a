package order

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tkivila/craftshop/internal/domain/shipping"
)

// Status is an order's lifecycle state.
type Status string

const (
	StatusNew       Status = "NEW"
	StatusPaid      Status = "PAID"
	StatusSent      Status = "SENT"
	StatusReceived  Status = "RECEIVED"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusNew, StatusPaid, StatusSent, StatusReceived, StatusCancelled:
		return Status(s), true
	}
	return "", false
}

// CanTransitionTo reports whether next is a legal transition. The happy path
// is linear (NEW → PAID → SENT → RECEIVED); CANCELLED is reachable from any
// non-terminal state. Terminal states never change.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusNew:
		return next == StatusPaid || next == StatusCancelled
	case StatusPaid:
		return next == StatusSent || next == StatusCancelled
	case StatusSent:
		return next == StatusReceived || next == StatusCancelled
	default:
		return false
	}
}

// Line is one product/quantity pair in an order. Title and unit price are
// snapshots taken at purchase time.
type Line struct {
	ProductID string          `json:"productId"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

// Order is a placed customer order. Number is the human-readable identifier
// "{year}-{sequence}" built from the per-year invoice counter.
type Order struct {
	ID         string
	Number     string
	Status     Status
	Subtotal   decimal.Decimal
	Total      decimal.Decimal
	Lines      []Line
	Shipping   shipping.Selection
	UserID     string
	Phone      string
	ClientName string
	CreatedAt  time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	// AttachToUser appends the order to the user's history. Must be
	// idempotent so the placement workflow can retry it to convergence.
	AttachToUser(ctx context.Context, userID, orderID string) error
	GetByNumber(ctx context.Context, number string) (*Order, error)
	UpdateStatus(ctx context.Context, number string, status Status) error
}

// SequenceAllocator hands out per-year invoice numbers. Implementations must
// be atomic: two concurrent calls for the same year never return the same
// number, and numbers within a year are strictly increasing starting at 1.
type SequenceAllocator interface {
	Next(ctx context.Context, year int) (int64, error)
}

// Sentinel and typed errors for order validation.
var ErrEmptyItems = fmt.Errorf("items required")

// ErrNotFound is returned when no order matches the lookup key.
var ErrNotFound = fmt.Errorf("order not found")

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// IncompleteCatalogError indicates fewer products were found than requested,
// i.e. at least one identifier is deleted or invalid.
type IncompleteCatalogError struct {
	Requested int
	Found     int
}

func (e *IncompleteCatalogError) Error() string {
	return fmt.Sprintf("requested %d products, found %d", e.Requested, e.Found)
}

// InvalidTransitionError indicates an illegal status change.
type InvalidTransitionError struct {
	From, To Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}
