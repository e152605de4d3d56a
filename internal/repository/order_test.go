package repository

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkivila/craftshop/internal/domain/order"
	"github.com/tkivila/craftshop/internal/domain/shipping"
)

func testOrder() *order.Order {
	return &order.Order{
		ID:       "o1",
		Number:   "2025-1",
		Status:   order.StatusNew,
		Subtotal: decimal.RequireFromString("26.67"),
		Total:    decimal.RequireFromString("30.17"),
		Lines: []order.Line{{
			ProductID: "p1",
			Title:     "Wool socks",
			Price:     decimal.RequireFromString("6.67"),
			Quantity:  3,
			Total:     decimal.RequireFromString("20.01"),
		}},
		Shipping: shipping.Selection{
			ProviderID:   "sp1",
			ProviderName: "Omniva",
			OptionName:   "Parcel machine",
			Price:        decimal.RequireFromString("3.50"),
			Address:      "Tallinn",
		},
		UserID:     "u1",
		Phone:      "+3725551234",
		ClientName: "Mari Maasikas",
	}
}

func TestOrderRepository_Create(t *testing.T) {
	mock := newMockPool(t)
	repo := NewOrderRepository(mock)
	o := testOrder()

	mock.ExpectExec(regexp.QuoteMeta(createOrderSQL)).
		WithArgs(o.ID, o.Number, "NEW", o.Subtotal, o.Total,
			pgxmock.AnyArg(), pgxmock.AnyArg(), o.UserID, o.Phone, o.ClientName).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), o))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_AttachToUserIdempotent(t *testing.T) {
	mock := newMockPool(t)
	repo := NewOrderRepository(mock)
	pattern := regexp.QuoteMeta(attachOrderSQL)

	mock.ExpectExec(pattern).WithArgs("u1", "o1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, repo.AttachToUser(context.Background(), "u1", "o1"))

	// A retry hits ON CONFLICT DO NOTHING and still succeeds.
	mock.ExpectExec(pattern).WithArgs("u1", "o1").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	require.NoError(t, repo.AttachToUser(context.Background(), "u1", "o1"))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByNumber(t *testing.T) {
	mock := newMockPool(t)
	repo := NewOrderRepository(mock)
	want := testOrder()

	linesJSON, err := json.Marshal(want.Lines)
	require.NoError(t, err)
	shippingJSON, err := json.Marshal(want.Shipping)
	require.NoError(t, err)
	created := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(getOrderByNumberSQL)).
		WithArgs("2025-1").
		WillReturnRows(pgxmock.
			NewRows([]string{"id", "number", "status", "subtotal", "total", "lines", "shipping", "user_id", "phone", "client_name", "created_at"}).
			AddRow(want.ID, want.Number, "NEW", want.Subtotal, want.Total,
				linesJSON, shippingJSON, want.UserID, want.Phone, want.ClientName, created))

	got, err := repo.GetByNumber(context.Background(), "2025-1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusNew, got.Status)
	assert.True(t, want.Total.Equal(got.Total))
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "Wool socks", got.Lines[0].Title)
	assert.Equal(t, "Parcel machine", got.Shipping.OptionName)
	assert.Equal(t, created, got.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByNumberNotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewOrderRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(getOrderByNumberSQL)).
		WithArgs("2025-404").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByNumber(context.Background(), "2025-404")
	require.ErrorIs(t, err, order.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	mock := newMockPool(t)
	repo := NewOrderRepository(mock)
	pattern := regexp.QuoteMeta(updateOrderStatusSQL)

	mock.ExpectExec(pattern).WithArgs("2025-1", "PAID").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, repo.UpdateStatus(context.Background(), "2025-1", order.StatusPaid))

	mock.ExpectExec(pattern).WithArgs("2025-404", "PAID").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	err := repo.UpdateStatus(context.Background(), "2025-404", order.StatusPaid)
	require.ErrorIs(t, err, order.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
