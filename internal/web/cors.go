package web

import (
	"net/http"
	"strings"
)

const (
	corsMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsHeaders = "Content-Type, Authorization, " + adminHeader
	corsMaxAge  = "600"
)

// corsPolicy is a parsed origin allow-list.
type corsPolicy struct {
	any     bool
	origins map[string]bool
}

func newCORSPolicy(allowedOrigins []string) corsPolicy {
	p := corsPolicy{origins: make(map[string]bool, len(allowedOrigins))}
	for _, o := range allowedOrigins {
		switch o = strings.TrimSpace(o); o {
		case "":
		case "*":
			p.any = true
		default:
			p.origins[o] = true
		}
	}
	return p
}

func (p corsPolicy) allows(origin string) bool {
	return p.any || p.origins[origin]
}

// setOrigin writes the allow-origin header for a permitted origin.
func (p corsPolicy) setOrigin(h http.Header, origin string) {
	if p.any {
		h.Set("Access-Control-Allow-Origin", "*")
		return
	}
	h.Set("Access-Control-Allow-Origin", origin)
	h.Add("Vary", "Origin")
}

// CORS answers preflight requests and tags responses for origins on the
// allow-list. "*" allows any origin. Preflights from other origins get 403;
// their plain requests pass through without CORS headers.
func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	policy := newCORSPolicy(allowedOrigins)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""

		switch {
		case origin == "":
			next.ServeHTTP(w, r)
		case !policy.allows(origin) && preflight:
			writeError(w, http.StatusForbidden, codeForbidden, "origin not allowed")
		case !policy.allows(origin):
			next.ServeHTTP(w, r)
		case preflight:
			policy.setOrigin(w.Header(), origin)
			w.Header().Set("Access-Control-Allow-Methods", corsMethods)
			w.Header().Set("Access-Control-Allow-Headers", corsHeaders)
			w.Header().Set("Access-Control-Max-Age", corsMaxAge)
			w.WriteHeader(http.StatusNoContent)
		default:
			policy.setOrigin(w.Header(), origin)
			next.ServeHTTP(w, r)
		}
	})
}
