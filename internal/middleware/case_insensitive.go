package middleware

import (
	"net/http"
	"strings"
)

// CaseInsensitivePaths lower-cases the fixed part of API paths.
// Handheld scanners in keyboard mode often send everything in upper case,
// so /API/LOTS/1001/NEXT must reach the same route as /api/lots/1001/next.
// Query strings and bodies are left untouched.
func CaseInsensitivePaths(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lower := strings.ToLower(r.URL.Path)
		if strings.HasPrefix(lower, "/api/") || lower == "/health" {
			r.URL.Path = lower
			r.URL.RawPath = ""
		}
		next.ServeHTTP(w, r)
	})
}
