package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// AdminTokenHeader carries the admin token when a bearer Authorization header is not used.
const AdminTokenHeader = "X-Admin-Token"

// RequireAdmin rejects writes, and any request under /api/admin, that do not carry token.
// An empty token disables the check.
func RequireAdmin(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" || !needsAdmin(r) {
				next.ServeHTTP(w, r)
				return
			}
			got := presentedToken(r)
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				respondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func needsAdmin(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return strings.HasPrefix(r.URL.Path, "/api/admin/")
	default:
		return true
	}
}

func presentedToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if rest, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(rest)
		}
	}
	return r.Header.Get(AdminTokenHeader)
}
