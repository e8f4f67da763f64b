// Package middleware contains HTTP middleware shared across the route tree.
//
// A middleware wraps an http.Handler and returns a new one, adding behaviour
// around the call without the handler knowing:
//
//	func Wrap(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // before
//	        next.ServeHTTP(w, r)
//	        // after
//	    })
//	}
//
// Auth middleware lives in the auth package next to the token service it
// depends on; this package holds the ones with no domain dependencies.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// statusRecorder wraps http.ResponseWriter to remember what was sent.
// The stdlib interface is write-only — once a handler has responded there is
// no way to ask it what the status was, so we capture it on the way through.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += int64(n)
	return n, err
}

// Logger returns a middleware that writes one structured slog line per
// completed request: method, path, status, duration, response size, and the
// request ID assigned by chi's RequestID middleware (mounted earlier in the
// chain, so it is already in the context by the time we log).
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &statusRecorder{
				ResponseWriter: w,
				// Handlers that never call WriteHeader implicitly send 200.
				status: http.StatusOK,
			}

			next.ServeHTTP(rec, r)

			logger.Info("request completed",
				slog.String("request_id", chimiddleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", rec.bytes),
			)
		})
	}
}
