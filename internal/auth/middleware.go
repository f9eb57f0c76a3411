package auth

import (
	"context"
	"net/http"
	"strings"

	"carrental/internal/db"
	apperrors "carrental/internal/errors"
)

type ctxKey struct{}

// ErrorWriter renders an error response. The api package supplies it so
// rejections use the same envelope as every other error.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Authenticate requires a valid bearer token and stores its claims in the request context.
func Authenticate(tokens *TokenManager, writeErr ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeErr(w, r, apperrors.ErrUnauthorized("Access token required"))
				return
			}
			claims, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeErr(w, r, apperrors.ErrUnauthorized("Invalid or expired token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireAdmin must run after Authenticate.
func RequireAdmin(writeErr ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := FromContext(r.Context())
			if !ok {
				writeErr(w, r, apperrors.ErrUnauthorized("Access token required"))
				return
			}
			if !claims.IsAdmin() {
				writeErr(w, r, apperrors.ErrForbidden("Admin access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	return c, ok && c != nil
}

func (c *Claims) IsAdmin() bool {
	return c.Role == db.RoleAdmin
}
