// Package authmw provides HTTP middleware for bearer token authentication.
// Tokens are issued per tenant; a valid token resolves the request's tenant.
package authmw

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/linnemanlabs/beacon/internal/tenant"
)

// TenantToken returns middleware that validates the Authorization header
// contains a Bearer token matching one of the configured per-tenant
// tokens, and stores the matching tenant ID in the request context.
// Comparison uses constant-time equality to prevent timing side-channel
// attacks; every configured token is compared on every request so the
// timing does not reveal which tenant a guessed token belongs to.
func TenantToken(tokens map[string]string) func(http.Handler) http.Handler {
	type entry struct {
		token  []byte
		tenant string
	}
	entries := make([]entry, 0, len(tokens))
	for tok, tid := range tokens {
		entries = append(entries, entry{token: []byte(tok), tenant: tid})
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")

			if !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, `{"error":"missing or malformed authorization header"}`, http.StatusUnauthorized)
				return
			}

			got := []byte(auth[len("Bearer "):])

			matched := ""
			for _, e := range entries {
				if subtle.ConstantTimeCompare(got, e.token) == 1 {
					matched = e.tenant
				}
			}

			if matched == "" {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(tenant.WithID(r.Context(), matched)))
		})
	}
}
