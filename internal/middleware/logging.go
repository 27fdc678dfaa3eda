package middleware

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/i-vertix/assethistory/internal/auth"
)

// responseWriter captures HTTP status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs each HTTP request with its status and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		log.Printf("[HTTP] %s %s %d %s from %s", r.Method, r.URL.Path, rw.statusCode, duration, r.RemoteAddr)
	})
}

// CallerMiddleware reads the caller identity from the X-Caller-ID header and
// stores it in the request context. Real deployments authenticate upstream;
// the engine only needs a stable identity to hand to the Authorizer.
func CallerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get("X-Caller-ID"); raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id != 0 {
				r = r.WithContext(auth.ContextWithCallerID(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}
