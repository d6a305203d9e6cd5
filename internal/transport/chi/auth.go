package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	gen "github.com/kailas-cloud/prodsearch/internal/transport/generated"
)

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// adminPaths mutate the result cache and accept only admin keys when any are configured.
var adminPaths = map[string]struct{}{
	"/events": {},
	"/cache":  {},
}

// AuthConfig lists accepted bearer tokens.
type AuthConfig struct {
	APIKeys   []string
	AdminKeys []string
}

// BearerAuthMiddleware returns a middleware that validates Bearer tokens.
// If no keys are configured, authentication is disabled (pass-through).
// Admin keys are accepted on every route; API keys only outside adminPaths
// unless no admin keys are configured.
func BearerAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	apiKeys := nonEmpty(cfg.APIKeys)
	adminKeys := nonEmpty(cfg.AdminKeys)

	return func(next http.Handler) http.Handler {
		if len(apiKeys) == 0 && len(adminKeys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, gen.ErrorResponseCodeUnauthorized, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized,
					gen.ErrorResponseCodeUnauthorized, "authorization header must use Bearer scheme")
				return
			}
			token := auth[len(bearerPrefix):]

			isAdmin := contains(adminKeys, token)
			if !isAdmin && !contains(apiKeys, token) {
				writeError(w, http.StatusUnauthorized, gen.ErrorResponseCodeUnauthorized, "invalid api key")
				return
			}

			if _, admin := adminPaths[r.URL.Path]; admin && !isAdmin && len(adminKeys) > 0 {
				writeError(w, http.StatusForbidden, gen.ErrorResponseCodeForbidden, "admin key required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func nonEmpty(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

// contains compares in constant time per key.
func contains(keys []string, token string) bool {
	found := 0
	for _, k := range keys {
		found |= subtle.ConstantTimeCompare([]byte(k), []byte(token))
	}
	return found == 1
}
