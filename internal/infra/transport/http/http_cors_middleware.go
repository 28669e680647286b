package http

import (
	"net/http"
	"slices"
	"strings"
)

// CORSConfig describes the cross-origin policy. The defaults permit every
// origin and every request header.
type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	AllowedMethods []string `env:"ALLOWED_METHODS" envDefault:"GET,POST,OPTIONS" envSeparator:","`
	AllowedHeaders []string `env:"ALLOWED_HEADERS" envDefault:"*" envSeparator:","`
}

// CORSMiddleware applies the CORS policy and answers preflight requests with 204.
// Requests from disallowed origins pass through without CORS headers.
func CORSMiddleware(next http.Handler, cfg CORSConfig) http.Handler {
	var (
		methods   = strings.Join(cfg.AllowedMethods, ", ")
		headers   = strings.Join(cfg.AllowedHeaders, ", ")
		anyOrigin = slices.Contains(cfg.AllowedOrigins, "*")
		anyHeader = slices.Contains(cfg.AllowedHeaders, "*")
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)

			return
		}

		if !anyOrigin && !originAllowed(origin, cfg.AllowedOrigins) {
			if isPreflight(r) {
				w.WriteHeader(http.StatusNoContent)

				return
			}

			next.ServeHTTP(w, r)

			return
		}

		header := w.Header()
		header.Add("Vary", "Origin")

		if anyOrigin {
			header.Set("Access-Control-Allow-Origin", "*")
		} else {
			header.Set("Access-Control-Allow-Origin", origin)
		}

		if !isPreflight(r) {
			next.ServeHTTP(w, r)

			return
		}

		header.Set("Access-Control-Allow-Methods", methods)

		if requested := r.Header.Get("Access-Control-Request-Headers"); anyHeader && requested != "" {
			header.Add("Vary", "Access-Control-Request-Headers")
			header.Set("Access-Control-Allow-Headers", requested)
		} else {
			header.Set("Access-Control-Allow-Headers", headers)
		}

		w.WriteHeader(http.StatusNoContent)
	})
}

func isPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
}

func originAllowed(origin string, allowed []string) bool {
	for _, candidate := range allowed {
		if strings.EqualFold(strings.TrimSpace(candidate), origin) {
			return true
		}
	}

	return false
}
