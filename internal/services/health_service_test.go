package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/michel-emel/imce-project/internal/dataset"
	"github.com/michel-emel/imce-project/internal/dataset/datasettest"
	"github.com/michel-emel/imce-project/internal/infrastructure"
	"github.com/michel-emel/imce-project/internal/shared/testutil"
)

func TestHealthService(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		store     *dataset.Store
		wantReady string
	}{
		{"all datasets", datasettest.Store(), "ready"},
		{"some datasets", datasettest.Only(dataset.NamePAPs), "ready"},
		{"no datasets", datasettest.Only(), "not_ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := NewHealthService("1.2.3", "2026-01-01", tt.store, nil, logger)

			health := hs.HealthCheck(ctx)
			assert.Equal(t, "ok", health.Status)
			assert.Equal(t, "1.2.3", health.Version)

			ready := hs.ReadinessCheck(ctx)
			assert.Equal(t, tt.wantReady, ready.Status)
			assert.Len(t, ready.Services, len(dataset.Names))
		})
	}
}

func TestHealthService_ReadinessDetails(t *testing.T) {
	hs := NewHealthService("dev", "", datasettest.Only(dataset.NamePAPs), nil, nil)
	ready := hs.ReadinessCheck(context.Background())

	paps, ok := ready.Services[string(dataset.NamePAPs)].(ServiceHealth)
	require.True(t, ok)
	assert.Equal(t, "ready", paps.Status)
	assert.Equal(t, "4 rows", paps.Message)

	grc, ok := ready.Services[string(dataset.NameGRC)].(ServiceHealth)
	require.True(t, ok)
	assert.Equal(t, "not_ready", grc.Status)
	assert.Contains(t, grc.Message, "not found")
}

func TestHealthService_Liveness(t *testing.T) {
	provider := sdkmetric.NewMeterProvider()
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	system, err := infrastructure.NewSystemMetrics(provider.Meter("test"), time.Now())
	require.NoError(t, err)

	hs := NewHealthService("dev", "", datasettest.Store(), system, nil)
	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", live.Status)
	assert.Contains(t, live.Runtime, "goroutines")
	assert.Contains(t, live.Runtime, "heap_alloc_mb")
}

func TestHealthService_Version(t *testing.T) {
	hs := NewHealthService("1.0.0", "2026-10-01", datasettest.Store(), nil, nil)
	v := hs.Version()
	assert.Equal(t, "1.0.0", v["version"])
	assert.Equal(t, "2026-10-01", v["build_time"])
	assert.Equal(t, 6, v["datasets"])

	v = NewHealthService("1.0.0", "", datasettest.Store(), nil, nil).Version()
	assert.NotContains(t, v, "build_time")
}
