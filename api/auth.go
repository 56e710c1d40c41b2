package api

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/warp/remittance-engine/users"
)

type ctxKey int

const userKey ctxKey = iota

// UserFromContext returns the user attached by Authenticate.
func UserFromContext(ctx context.Context) (users.User, bool) {
	u, ok := ctx.Value(userKey).(users.User)
	return u, ok
}

// WithUser attaches u to ctx.
func WithUser(ctx context.Context, u users.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// Authenticate requires a valid bearer token. The user is reloaded from
// the store so permission changes apply to existing sessions.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
			return
		}
		claims, err := h.Tokens.Verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token", err)
			return
		}
		u, err := h.Users.Get(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unknown user", err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// Require rejects users lacking p with 403.
func (h *Handler) Require(p users.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
				return
			}
			if !u.Allows(p) {
				h.Log.Warn("permission denied",
					zap.String("username", u.Username),
					zap.String("permission", string(p)),
					zap.String("path", r.URL.Path),
				)
				writeError(w, http.StatusForbidden, "Permission denied", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
