package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/go-chi/render"
)

// Problem type URIs following RFC 7807
const (
	TypeValidation       = "/errors/validation"
	TypeNotFound         = "/errors/not-found"
	TypeRateLimit        = "/errors/rate-limit"
	TypeInternal         = "/errors/internal"
	TypeTimeout          = "/errors/timeout"
	TypeMethodNotAllowed = "/errors/method-not-allowed"
)

// Dashboard problem types
const (
	TypeDataUnavailable = "/errors/data/unavailable"
	TypeDataCorrupted   = "/errors/data/corrupted"
	TypeRenderFailed    = "/errors/render/failed"
)

// TraceIDFunc extracts the correlation id for a request
type TraceIDFunc func(ctx context.Context) string

// ErrorHandler converts errors into RFC 7807 responses
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
	traceID      TraceIDFunc
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool, traceID TraceIDFunc) *ErrorHandler {
	if traceID == nil {
		traceID = func(context.Context) string { return "" }
	}
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
		traceID:      traceID,
	}
}

// HandleError converts any error to RFC 7807 format and responds
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	traceID := h.traceID(r.Context())
	problem := h.ErrorToProblem(err, r)

	level := slog.LevelWarn
	if problem.Status >= 500 {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	problem.WithExtension("trace_id", traceID)
	if h.includeStack && problem.Status >= 500 {
		problem.WithExtension("stack", getStackTrace())
	}

	_ = render.Render(w, r, problem)
}

// ErrorToProblem converts an error to RFC 7807 Problem Details
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Request Timeout",
			"The request took too long to process and was cancelled",
			r.URL.Path,
		)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return h.apiErrorToProblem(apiErr, r)
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return h.appErrorToProblem(err, appErr, r)
	}

	if strings.Contains(err.Error(), "not found") {
		return NewProblemDetails(http.StatusNotFound, TypeNotFound, "Resource Not Found", err.Error(), r.URL.Path)
	}

	return NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred while processing your request",
		r.URL.Path,
	)
}

func (h *ErrorHandler) apiErrorToProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	problemType := TypeInternal
	switch apiErr.ErrorCode {
	case "VALIDATION_FAILED", "INVALID_REQUEST":
		problemType = TypeValidation
	case "RATE_LIMIT_EXCEEDED":
		problemType = TypeRateLimit
	}

	problem := NewProblemDetails(
		apiErr.StatusCode,
		problemType,
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		r.URL.Path,
	).WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}
	return problem
}

func (h *ErrorHandler) appErrorToProblem(err error, appErr *AppError, r *http.Request) *ProblemDetails {
	var (
		status = http.StatusInternalServerError
		kind   = TypeInternal
		detail = "An unexpected error occurred while processing your request"
	)

	switch appErr.Type {
	case ErrTypeNotFound:
		status, kind, detail = http.StatusNotFound, TypeNotFound, err.Error()
	case ErrTypeValidation:
		status, kind, detail = http.StatusBadRequest, TypeValidation, err.Error()
	case ErrTypeDataUnavailable:
		status, kind, detail = http.StatusServiceUnavailable, TypeDataUnavailable, appErr.Message
	case ErrTypeParsing:
		kind, detail = TypeDataCorrupted, appErr.Message
	case ErrTypeRender:
		kind, detail = TypeRenderFailed, appErr.Message
	}

	problem := NewProblemDetails(status, kind, http.StatusText(status), detail, r.URL.Path).
		WithExtension("error_code", string(appErr.Type))
	for k, v := range appErr.Context {
		problem.WithExtension(k, v)
	}
	return problem
}

// HandlePanic recovers from panics and returns RFC 7807 error
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	traceID := h.traceID(r.Context())

	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	problem := NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred",
		r.URL.Path,
	).WithExtension("trace_id", traceID)

	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprintf("%v", recovered))
		problem.WithExtension("stack", getStackTrace())
	}

	_ = render.Render(w, r, problem)
}

// NotFound returns a standard 404 error
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusNotFound,
		TypeNotFound,
		"Not Found",
		"The requested resource was not found",
		r.URL.Path,
	).WithExtension("trace_id", h.traceID(r.Context()))

	_ = render.Render(w, r, problem)
}

// MethodNotAllowed returns a standard 405 error
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusMethodNotAllowed,
		TypeMethodNotAllowed,
		"Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method),
		r.URL.Path,
	).WithExtension("trace_id", h.traceID(r.Context()))

	_ = render.Render(w, r, problem)
}

func getStackTrace() string {
	buf := make([]byte, 1024*8)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
