package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// ListShippingProviders handles GET /api/shipping-providers.
func (h *Handler) ListShippingProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := h.providers.List(r.Context())
	if err != nil {
		zctx.From(r.Context()).Error("list shipping providers failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respond(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, p := range providers {
			encodeProvider(e, p)
		}
		e.ArrEnd()
	})
}
