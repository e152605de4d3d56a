// Package handler exposes the shop's JSON HTTP API.
package handler

import (
	"context"
	"net/http"

	"github.com/tkivila/craftshop/internal/auth"
	"github.com/tkivila/craftshop/internal/domain/order"
	"github.com/tkivila/craftshop/internal/domain/product"
	"github.com/tkivila/craftshop/internal/domain/shipping"
)

// OrderService is the slice of the order service the handlers need.
type OrderService interface {
	PlaceOrder(ctx context.Context, req order.PlaceOrderRequest) (*order.PlaceOrderResult, error)
	GetByNumber(ctx context.Context, number string) (*order.Order, error)
	UpdateStatus(ctx context.Context, number string, next order.Status) (*order.Order, error)
}

// Handler routes API requests to the domain services.
type Handler struct {
	orders    OrderService
	products  product.Repository
	providers shipping.Repository
	tokens    *auth.TokenCodec
}

// New constructs a Handler with the required domain dependencies.
func New(
	orders OrderService,
	products product.Repository,
	providers shipping.Repository,
	tokens *auth.TokenCodec,
) *Handler {
	return &Handler{
		orders:    orders,
		products:  products,
		providers: providers,
		tokens:    tokens,
	}
}

// Routes registers every API endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/orders", h.PlaceOrder)
	mux.HandleFunc("GET /api/orders/{number}", h.GetOrder)
	mux.HandleFunc("PATCH /api/orders/{number}", h.requireAdmin(h.UpdateOrderStatus))
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.HandleFunc("GET /api/shipping-providers", h.ListShippingProviders)
}
