package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/michel-emel/imce-project/internal/errors"
	"github.com/michel-emel/imce-project/internal/infrastructure"
	"github.com/michel-emel/imce-project/internal/shared/testutil"
)

func newErrorHandler(t *testing.T) *apierrors.ErrorHandler {
	logger, _ := testutil.NewTestLogger(t)
	return apierrors.NewErrorHandler(logger, false, GetRequestID)
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		wantSame bool
	}{
		{name: "generated when absent"},
		{name: "incoming id kept", incoming: "req-42", wantSame: true},
		{name: "oversized id replaced", incoming: strings.Repeat("x", 200)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen, traced string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
				traced = infrastructure.GetTraceID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/paps", nil)
			if tt.incoming != "" {
				req.Header.Set("X-Request-ID", tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.NotEmpty(t, seen)
			assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
			assert.Equal(t, seen, traced)
			if tt.wantSame {
				assert.Equal(t, tt.incoming, seen)
			} else {
				assert.Len(t, seen, 36)
			}
		})
	}
}

func TestGetRequestIDFallsBackToTraceID(t *testing.T) {
	ctx := infrastructure.WithTraceID(context.Background(), "trace-1")
	assert.Equal(t, "trace-1", GetRequestID(ctx))
}

func TestRateLimiter(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	rl := NewRateLimiter(0.001, 2, logger, newErrorHandler(t))
	h := rl.Handler(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pages", nil))
		codes = append(codes, rec.Code)
		if i == 2 {
			assert.Equal(t, "1", rec.Header().Get("Retry-After"))
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "RATE_LIMIT_EXCEEDED", body["error_code"])
		}
	}

	assert.Equal(t, []int{200, 200, 429}, codes)
	assert.True(t, handler.ContainsMessage("rate limit exceeded"))
}

func TestTimeout(t *testing.T) {
	t.Run("slow handler gets 504", func(t *testing.T) {
		mw := Timeout(10*time.Millisecond, newErrorHandler(t))
		h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pages/paps", nil))
		assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	})

	t.Run("fast handler untouched", func(t *testing.T) {
		mw := Timeout(time.Second, newErrorHandler(t))
		rec := httptest.NewRecorder()
		mw(http.HandlerFunc(okHandler)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())
	})
}

func TestCORS(t *testing.T) {
	mw := CORS(CORSConfig{AllowedOrigins: []string{"http://localhost:8050"}})
	h := mw(http.HandlerFunc(okHandler))

	tests := []struct {
		name       string
		method     string
		origin     string
		wantOrigin string
		wantStatus int
	}{
		{"allowed origin", http.MethodGet, "http://localhost:8050", "http://localhost:8050", http.StatusOK},
		{"foreign origin", http.MethodGet, "http://evil.example", "", http.StatusOK},
		{"preflight", http.MethodOptions, "http://localhost:8050", "http://localhost:8050", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/pages", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "GET, HEAD, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
		})
	}
}

func TestSecureHeaders(t *testing.T) {
	h := DefaultSecureHeaders().Handler(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'self'")
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"), "HSTS only over TLS")
}
