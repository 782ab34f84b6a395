package middleware

import (
	"net/http"
	"strings"
)

// ProxyPrefix is where proxied backend routes are mounted
const ProxyPrefix = "/api/proxy"

// translateRoutes are served from the site root as well as under ProxyPrefix
var translateRoutes = []string{"/translate-text", "/translate-document"}

// RewriteTranslatePaths maps requests for the translate routes onto the proxy
// before the router matches them. It wraps the router rather than being
// registered on it, since mux middleware only runs after a route has matched.
func RewriteTranslatePaths(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range translateRoutes {
			if strings.HasPrefix(r.URL.Path, prefix) {
				r.URL.Path = ProxyPrefix + r.URL.Path
				if r.URL.RawPath != "" {
					r.URL.RawPath = ProxyPrefix + r.URL.RawPath
				}
				break
			}
		}
		next.ServeHTTP(w, r)
	})
}
