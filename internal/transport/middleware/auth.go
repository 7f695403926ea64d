package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/frahmantamala/marketplace-payments/internal/auth"
)

// Auth validates the Bearer token and puts the authenticated user in the
// request context. Everything behind it can assume auth.UserFromContext
// succeeds.
func Auth(validator auth.TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				writeUnauthorized(w)
				return
			}

			claims, err := validator.ValidateToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				logger.Warn("token validation failed", "error", err, "path", r.URL.Path)
				writeUnauthorized(w)
				return
			}

			user := &auth.User{
				ID:    claims.UserID,
				Email: claims.Email,
				Role:  claims.Role,
			}
			next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), user)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error": "unauthorized"}`))
}
