package middleware

import (
	"fmt"
	"net/http"
)

// Deprecated marks a legacy route and points clients at its successor.
// successor receives the request so path values can be carried over.
func Deprecated(successor func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			link := successor(r)
			h := w.Header()
			h.Set("Deprecation", "true")
			h.Set("Link", fmt.Sprintf("<%s>; rel=\"successor-version\"", link))
			h.Set("Warning", fmt.Sprintf("299 - \"Deprecated API: use %s\"", link))
			next.ServeHTTP(w, r)
		})
	}
}
