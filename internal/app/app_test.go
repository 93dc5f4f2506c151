package app

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michel-emel/imce-project/internal/config"
	"github.com/michel-emel/imce-project/internal/dataset"
	"github.com/michel-emel/imce-project/internal/dataset/datasettest"
	"github.com/michel-emel/imce-project/internal/shared/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Data.Dir = t.TempDir()
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Security.RateLimit.Enabled = false
	return cfg
}

func newTestApp(t *testing.T, opts ...Option) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	opts = append([]Option{WithRegistry(promclient.NewRegistry())}, opts...)
	a, err := New(testConfig(t), logger, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.OTelProviders.Shutdown(context.Background()) })
	return a
}

func serve(a *Application, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestApplication_Routes(t *testing.T) {
	a := newTestApp(t, WithStore(datasettest.Store()))

	tests := []struct {
		name        string
		target      string
		status      int
		contentType string
	}{
		{"health", "/api/health", http.StatusOK, "application/json"},
		{"ready", "/api/health/ready", http.StatusOK, "application/json"},
		{"live", "/api/health/live", http.StatusOK, "application/json"},
		{"version", "/api/version", http.StatusOK, "application/json"},
		{"pages", "/api/pages", http.StatusOK, "application/json"},
		{"page model", "/api/pages/grc?district=Gasabo", http.StatusOK, "application/json"},
		{"datasets", "/api/datasets", http.StatusOK, "application/json"},
		{"unknown api route", "/api/nope", http.StatusNotFound, "application/json"},
		{"repeated filter", "/api/pages/grc?district=a&district=b", http.StatusBadRequest, "application/json"},
		{"landing page", "/", http.StatusOK, "text/html"},
		{"page", "/workers?gender=Female", http.StatusOK, "text/html"},
		{"unknown page path", "/nowhere", http.StatusOK, "text/html"},
		{"chart", "/charts/paps/impact-types.svg", http.StatusOK, "image/svg+xml"},
		{"workbook", "/export/grc.xlsx", http.StatusOK, "spreadsheetml"},
		{"runtime", "/metrics/runtime", http.StatusOK, "application/json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(a, tt.target)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Header().Get("Content-Type"), tt.contentType)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestApplication_SecurityHeaders(t *testing.T) {
	a := newTestApp(t, WithStore(datasettest.Store()))

	rec := serve(a, "/")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestApplication_Metrics(t *testing.T) {
	a := newTestApp(t, WithStore(datasettest.Store()))

	require.Equal(t, http.StatusOK, serve(a, "/paps").Code)

	rec := serve(a, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dashboard_page_builds")
}

func TestApplication_EmptyDataDirectory(t *testing.T) {
	a := newTestApp(t)

	assert.Zero(t, a.Store.LoadedCount())
	assert.Len(t, a.Store.Statuses(), len(dataset.Names))

	assert.Equal(t, http.StatusServiceUnavailable, serve(a, "/api/health/ready").Code)

	rec := serve(a, "/paps")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Data not available")
}

func TestApplication_LoadsDataDirectory(t *testing.T) {
	cfg := testConfig(t)
	testutil.NewTable("district", "sector", "cell", "grc_location", "complaints_received", "complaints_resolved").
		Add(map[string]string{"district": "Gasabo", "sector": "Remera", "cell": "Rukiri", "grc_location": "Remera GRC", "complaints_received": "4", "complaints_resolved": "3"}).
		Write(t, cfg.Data.Dir, cfg.Data.GRCFile)

	logger, _ := testutil.NewTestLogger(t)
	a, err := New(cfg, logger, WithRegistry(promclient.NewRegistry()))
	require.NoError(t, err)
	defer a.OTelProviders.Shutdown(context.Background())

	assert.True(t, a.Store.Loaded(dataset.NameGRC))
	assert.Equal(t, 1, a.Store.Status(dataset.NameGRC).Rows)
	assert.Equal(t, http.StatusOK, serve(a, "/api/health/ready").Code)
}

func TestApplication_StartStop(t *testing.T) {
	a := newTestApp(t, WithStore(datasettest.Store()))
	a.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Start(ctx, cancel))
	assert.NoError(t, a.Stop(context.Background()))
}

func TestApplication_RunReturnsListenError(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	a := newTestApp(t)
	a.Server.Addr = busy.Addr().String()

	done := make(chan error, 1)
	go func() { done <- a.Run() }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server failed")
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the listener failed")
	}
}
