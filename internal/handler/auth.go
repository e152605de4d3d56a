package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/tkivila/craftshop/internal/auth"
	"github.com/tkivila/craftshop/internal/domain/user"
)

// requireAdmin gates a privileged endpoint behind the admin role. A bad or
// expired token answers 401 and a non-admin token answers 403, so a denied
// call is always distinguishable from "not found". Verification details are
// logged, never returned.
func (h *Handler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		_, err := h.tokens.RequireRole(token, string(user.RoleAdmin))
		switch {
		case errors.Is(err, auth.ErrDenied):
			respondError(w, http.StatusForbidden, "forbidden")
			return
		case err != nil:
			zctx.From(r.Context()).Info("token verification failed", zap.Error(err))
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}
