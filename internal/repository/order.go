package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/tkivila/craftshop/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, number, status, subtotal, total, lines, shipping, user_id, phone, client_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	attachOrderSQL = `INSERT INTO user_orders (user_id, order_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`

	getOrderByNumberSQL = `SELECT id, number, status, subtotal, total, lines, shipping, user_id, phone, client_name, created_at
		FROM orders WHERE number = $1`

	updateOrderStatusSQL = `UPDATE orders SET status = $2 WHERE number = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	db DB
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(db DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create persists a new order. Lines and the shipping selection are
// serialized to JSON for storage in JSONB columns.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	linesJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("marshaling order lines: %w", err)
	}
	shippingJSON, err := json.Marshal(o.Shipping)
	if err != nil {
		return fmt.Errorf("marshaling shipping selection: %w", err)
	}

	_, err = r.db.Exec(ctx, createOrderSQL,
		o.ID, o.Number, string(o.Status), o.Subtotal, o.Total,
		linesJSON, shippingJSON, o.UserID, o.Phone, o.ClientName,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.Number, err)
	}
	return nil
}

// AttachToUser appends the order to the user's history. The ON CONFLICT
// clause makes the write idempotent so it can be retried safely.
func (r *OrderRepository) AttachToUser(ctx context.Context, userID, orderID string) error {
	if _, err := r.db.Exec(ctx, attachOrderSQL, userID, orderID); err != nil {
		return fmt.Errorf("attaching order %q to user %q: %w", orderID, userID, err)
	}
	return nil
}

// GetByNumber returns an order by its human-readable number.
func (r *OrderRepository) GetByNumber(ctx context.Context, number string) (*order.Order, error) {
	var (
		o            order.Order
		status       string
		linesJSON    []byte
		shippingJSON []byte
	)
	err := r.db.QueryRow(ctx, getOrderByNumberSQL, number).Scan(
		&o.ID, &o.Number, &status, &o.Subtotal, &o.Total,
		&linesJSON, &shippingJSON, &o.UserID, &o.Phone, &o.ClientName, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", number, err)
	}

	o.Status = order.Status(status)
	if err := json.Unmarshal(linesJSON, &o.Lines); err != nil {
		return nil, fmt.Errorf("unmarshaling order lines: %w", err)
	}
	if err := json.Unmarshal(shippingJSON, &o.Shipping); err != nil {
		return nil, fmt.Errorf("unmarshaling shipping selection: %w", err)
	}
	return &o, nil
}

// UpdateStatus sets the order's status. Transition legality is checked by
// the order service.
func (r *OrderRepository) UpdateStatus(ctx context.Context, number string, status order.Status) error {
	tag, err := r.db.Exec(ctx, updateOrderStatusSQL, number, string(status))
	if err != nil {
		return fmt.Errorf("updating order %q status: %w", number, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}
