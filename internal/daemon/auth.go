package daemon

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"roomcheck/internal/api"
)

// authMiddleware requires "Authorization: Bearer <token>" on every request.
// An empty token leaves the API open, which is only sensible on loopback.
func authMiddleware(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	expected := []byte(token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presented, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(presented), expected) != 1 {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("WWW-Authenticate", `Bearer realm="roomcheck"`)
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "missing or invalid api token", Kind: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
