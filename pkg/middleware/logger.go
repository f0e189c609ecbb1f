package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestID assigns each request a request id, honoring X-Request-Id when
// the caller supplies one.
func RequestID(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(fn)
}

// RequestIDFromContext extracts the request id from the context, if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}

// NewStructuredLogger is a custom middleware that provides structured logging for requests.
func NewStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			tww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			t_start := time.Now()
			defer func() {
				status := tww.Status()
				latency := time.Since(t_start)

				requestAttrs := slog.Group("request",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("remote_addr", r.RemoteAddr),
				)

				responseAttrs := slog.Group("response",
					slog.Int("status", status),
					slog.Int("bytes", tww.BytesWritten()),
					slog.String("latency", latency.String()),
				)

				l := logger
				if id, ok := RequestIDFromContext(r.Context()); ok {
					l = logger.With(slog.String("request_id", id))
				}

				if status >= 500 {
					l.Error("server error", requestAttrs, responseAttrs)
				} else {
					l.Info("request completed", requestAttrs, responseAttrs)
				}
			}()

			next.ServeHTTP(tww, r)
		}
		return http.HandlerFunc(fn)
	}
}
