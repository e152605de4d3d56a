package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/tkivila/craftshop/internal/domain/order"
	"github.com/tkivila/craftshop/internal/domain/shipping"
)

// placeOrderRequest is the wire shape of POST /api/orders.
type placeOrderRequest struct {
	Email              string `json:"email"`
	Phone              string `json:"phone"`
	Client             string `json:"client"`
	Language           string `json:"language"`
	ShippingProviderID string `json:"shippingProviderId"`
	ShippingAddress    string `json:"shippingAddress"`
	Items              []struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
}

// PlaceOrder handles POST /api/orders. Placement is public; the caller gets
// either the persisted order (with follow-up status) or an explicit failure.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		respondError(w, http.StatusBadRequest, "email required")
		return
	}

	items := make([]order.ItemRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = order.ItemRequest{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	result, err := h.orders.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		Email:      req.Email,
		Phone:      req.Phone,
		ClientName: req.Client,
		Language:   req.Language,
		ProviderID: req.ShippingProviderID,
		Address:    req.ShippingAddress,
		Items:      items,
	})
	if err != nil {
		h.respondOrderError(w, r, err)
		return
	}

	respond(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeOrder(e, result.Order, &result.FollowUps)
	})
}

// GetOrder handles GET /api/orders/{number}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetByNumber(r.Context(), r.PathValue("number"))
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			respondError(w, http.StatusNotFound, "order not found")
			return
		}
		h.respondOrderError(w, r, err)
		return
	}
	respond(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, o, nil)
	})
}

// UpdateOrderStatus handles PATCH /api/orders/{number}. Admin only.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status, ok := order.ParseStatus(req.Status)
	if !ok {
		respondError(w, http.StatusBadRequest, "unknown status")
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), r.PathValue("number"), status)
	if err != nil {
		var itErr *order.InvalidTransitionError
		switch {
		case errors.Is(err, order.ErrNotFound):
			respondError(w, http.StatusNotFound, "order not found")
		case errors.As(err, &itErr):
			respondError(w, http.StatusBadRequest, itErr.Error())
		default:
			h.respondOrderError(w, r, err)
		}
		return
	}
	respond(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, o, nil)
	})
}

// respondOrderError maps workflow errors onto the API error envelope.
// Caller-fault validation failures get 4xx; anything else is a 500 with the
// detail kept in the server log.
func (h *Handler) respondOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		iqErr *order.InvalidQuantityError
		icErr *order.IncompleteCatalogError
	)
	switch {
	case errors.Is(err, order.ErrEmptyItems):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &iqErr):
		respondError(w, http.StatusBadRequest, iqErr.Error())
	case errors.As(err, &icErr):
		respondError(w, http.StatusUnprocessableEntity, icErr.Error())
	case errors.Is(err, shipping.ErrInvalidAddress):
		respondError(w, http.StatusUnprocessableEntity, "address not served by shipping provider")
	case errors.Is(err, shipping.ErrProviderNotFound):
		respondError(w, http.StatusUnprocessableEntity, "unknown shipping provider")
	default:
		zctx.From(r.Context()).Error("order operation failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
