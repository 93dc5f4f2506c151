package errors

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// ErrorMiddleware logs every request at a level derived from its status
// and converts panics into problem responses.
type ErrorMiddleware struct {
	handler *ErrorHandler
	logger  *slog.Logger
}

// NewErrorMiddleware creates a new error handling middleware
func NewErrorMiddleware(handler *ErrorHandler, logger *slog.Logger) *ErrorMiddleware {
	return &ErrorMiddleware{
		handler: handler,
		logger:  logger.With(slog.String("component", "error_middleware")),
	}
}

// Handler returns the middleware handler function
func (m *ErrorMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			if err := recover(); err != nil {
				m.handler.HandlePanic(ww, r, err)
			}
			m.log(r, ww, time.Since(start))
		}()

		next.ServeHTTP(ww, r)
	})
}

func (m *ErrorMiddleware) log(r *http.Request, ww middleware.WrapResponseWriter, duration time.Duration) {
	status := ww.Status()
	if status == 0 {
		status = http.StatusOK
	}

	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.Duration("duration", duration),
		slog.Int("bytes", ww.BytesWritten()),
		slog.String("remote_addr", r.RemoteAddr),
	}
	if r.URL.RawQuery != "" {
		attrs = append(attrs, slog.String("query", r.URL.RawQuery))
	}

	m.logger.LogAttrs(r.Context(), level, "http request", attrs...)
}

// RecoveryMiddleware provides panic recovery with proper error responses
func RecoveryMiddleware(handler *ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					handler.HandlePanic(w, r, err)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
