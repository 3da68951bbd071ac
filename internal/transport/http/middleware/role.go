package middleware

import (
	"log/slog"
	"net/http"
)

// RequireRole lets through callers whose token carries one of roles. It must
// run after Auth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				reject(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if _, ok := allowed[claims.Role]; !ok {
				slog.Warn("role denied", "user_id", claims.UserID, "role", claims.Role, "method", r.Method, "path", r.URL.Path)
				reject(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
