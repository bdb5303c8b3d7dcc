package middleware

import (
	"crypto/subtle"
	"net/http"

	"valuation-backend/internal/transport"
)

// AdminAuth guards the admin surface with a static API key. There is no user
// login: the key lives in deployment config and is rotated there.
func AdminAuth(adminKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminKey == "" {
				transport.WriteError(w, http.StatusServiceUnavailable, "admin auth not configured", nil)
				return
			}

			provided := r.Header.Get("X-Admin-Key")
			if provided != "" && subtle.ConstantTimeCompare([]byte(provided), []byte(adminKey)) == 1 {
				next.ServeHTTP(w, r)
				return
			}

			transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		})
	}
}
