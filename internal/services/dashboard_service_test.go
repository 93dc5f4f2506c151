package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/michel-emel/imce-project/internal/config"
	"github.com/michel-emel/imce-project/internal/dashboard"
	"github.com/michel-emel/imce-project/internal/dataset"
	"github.com/michel-emel/imce-project/internal/dataset/datasettest"
	apierrors "github.com/michel-emel/imce-project/internal/errors"
	"github.com/michel-emel/imce-project/internal/filter"
	"github.com/michel-emel/imce-project/internal/infrastructure"
	"github.com/michel-emel/imce-project/internal/shared/testutil"
)

var cacheOn = config.CacheConfig{Enabled: true, TTL: time.Minute, CleanupInterval: time.Minute}

func newTestService(t *testing.T, cacheCfg config.CacheConfig) (*DashboardService, *sdkmetric.ManualReader) {
	t.Helper()
	return newStoreService(t, datasettest.Store(), cacheCfg)
}

func newStoreService(t *testing.T, store *dataset.Store, cacheCfg config.CacheConfig) (*DashboardService, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	metrics, err := infrastructure.CreateDashboardMetrics(provider.Meter("test"))
	require.NoError(t, err)

	logger, _ := testutil.NewTestLogger(t)
	return NewDashboardService(store, cacheCfg, metrics, logger), reader
}

// counter sums every data point of an int64 counter
func counter(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestDashboardService_Page(t *testing.T) {
	svc, reader := newTestService(t, cacheOn)
	ctx := context.Background()

	first, err := svc.Page(ctx, "paps", nil)
	require.NoError(t, err)
	assert.Equal(t, "paps", first.Slug)

	second, err := svc.Page(ctx, "paps", filter.Selection{})
	require.NoError(t, err)
	assert.Same(t, first, second, "the second request is served from cache")

	narrowed, err := svc.Page(ctx, "paps", filter.Selection{filter.KeyDistrict: "Kicukiro"})
	require.NoError(t, err)
	assert.NotSame(t, first, narrowed)

	assert.Equal(t, int64(1), counter(t, reader, "dashboard_cache_hits_total"))
	assert.Equal(t, int64(2), counter(t, reader, "dashboard_cache_misses_total"))
	assert.Equal(t, int64(2), counter(t, reader, "dashboard_page_builds_total"))

	_, err = svc.Page(ctx, "nope", nil)
	assert.True(t, errors.Is(err, dashboard.ErrUnknownPage))
}

func TestDashboardService_PageWithoutCache(t *testing.T) {
	svc, reader := newTestService(t, config.CacheConfig{})
	ctx := context.Background()

	first, err := svc.Page(ctx, "grc", nil)
	require.NoError(t, err)
	second, err := svc.Page(ctx, "grc", nil)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, int64(2), counter(t, reader, "dashboard_page_builds_total"))
	assert.Zero(t, counter(t, reader, "dashboard_cache_hits_total"))
}

func TestDashboardService_ConcurrentPages(t *testing.T) {
	svc, _ := newTestService(t, cacheOn)
	ctx := context.Background()

	var wg sync.WaitGroup
	pages := make([]*dashboard.Page, 16)
	for i := range pages {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := svc.Page(ctx, "district", nil)
			assert.NoError(t, err)
			pages[i] = p
		}(i)
	}
	wg.Wait()
	for _, p := range pages {
		require.NotNil(t, p)
		assert.Equal(t, "district", p.Slug)
	}
}

func TestDashboardService_Resolve(t *testing.T) {
	svc, _ := newTestService(t, cacheOn)
	ctx := context.Background()

	assert.Equal(t, "workers", svc.Resolve(ctx, "/workers/", nil).Slug)
	assert.Equal(t, dashboard.ExecutiveSlug, svc.Resolve(ctx, "/does-not-exist", nil).Slug)
}

func TestDashboardService_Filters(t *testing.T) {
	svc, _ := newTestService(t, cacheOn)
	controls, err := svc.Filters(context.Background(), "paps", nil)
	require.NoError(t, err)
	require.NotEmpty(t, controls)
	assert.Equal(t, filter.KeyDistrict, controls[0].Key)
}

func TestDashboardService_ChartSVG(t *testing.T) {
	svc, reader := newTestService(t, cacheOn)
	ctx := context.Background()

	p, err := svc.Page(ctx, "paps", nil)
	require.NoError(t, err)
	require.NotEmpty(t, p.Charts)

	var buf bytes.Buffer
	require.NoError(t, svc.ChartSVG(ctx, &buf, "paps", p.Charts[0].ID, nil))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("<svg")))
	assert.Equal(t, int64(1), counter(t, reader, "chart_renders_total"))

	err = svc.ChartSVG(ctx, &bytes.Buffer{}, "paps", "nope", nil)
	assert.True(t, errors.Is(err, dashboard.ErrUnknownChart))
}

func TestDashboardService_ExportCSV(t *testing.T) {
	svc, reader := newTestService(t, cacheOn)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, &buf, "paps", "non-compensated", nil))
	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(buf.Bytes(), []byte("\xEF\xBB\xBF")))).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 3, "header and two non-compensated PAPs")
	assert.Equal(t, int64(1), counter(t, reader, "exports_total"))

	err = svc.ExportCSV(ctx, &bytes.Buffer{}, "paps", "nope", nil)
	assert.True(t, errors.Is(err, dashboard.ErrUnknownTable))
}

func TestDashboardService_ExportXLSX(t *testing.T) {
	svc, _ := newTestService(t, cacheOn)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, svc.ExportXLSX(ctx, &buf, "district", nil))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	p, err := svc.Page(ctx, "district", nil)
	require.NoError(t, err)
	assert.Len(t, f.GetSheetList(), len(p.Tables))

	err = svc.ExportXLSX(ctx, &bytes.Buffer{}, dashboard.ExecutiveSlug, nil)
	assert.True(t, errors.Is(err, ErrNoTables))
}

func TestDashboardService_Invalidate(t *testing.T) {
	svc, _ := newTestService(t, cacheOn)
	ctx := context.Background()

	first, err := svc.Page(ctx, "contractors", nil)
	require.NoError(t, err)
	svc.Invalidate()
	second, err := svc.Page(ctx, "contractors", nil)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestDashboardService_Datasets(t *testing.T) {
	svc, _ := newTestService(t, cacheOn)
	statuses := svc.Datasets()
	require.Len(t, statuses, 6)
	for _, st := range statuses {
		assert.True(t, st.Loaded, st.Name)
		assert.Positive(t, st.Rows, st.Name)
	}
}

func TestDashboardService_CachesEffectiveSelection(t *testing.T) {
	svc, reader := newTestService(t, cacheOn)
	ctx := context.Background()

	for _, district := range []string{"Atlantis", "Gondor", "Narnia"} {
		p, err := svc.Page(ctx, "paps", filter.Selection{filter.KeyDistrict: district})
		require.NoError(t, err)
		assert.False(t, p.Selection.Active(filter.KeyDistrict), "unknown districts fall back to all")
	}
	assert.Equal(t, 1, svc.cache.ItemCount())

	all, err := svc.Page(ctx, "paps", nil)
	require.NoError(t, err)
	assert.Empty(t, all.Selection.Canonical())
	assert.Equal(t, int64(1), counter(t, reader, "dashboard_cache_hits_total"))
}

func TestDashboardService_MissingDataset(t *testing.T) {
	svc, _ := newStoreService(t, datasettest.Only(dataset.NameGRC), cacheOn)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"chart", func() error { return svc.ChartSVG(ctx, &bytes.Buffer{}, "paps", "impact-types", nil) }},
		{"csv", func() error { return svc.ExportCSV(ctx, &bytes.Buffer{}, "paps", "non-compensated", nil) }},
		{"xlsx", func() error { return svc.ExportXLSX(ctx, &bytes.Buffer{}, "workers", nil) }},
		{"file", func() error { return svc.ExportFile(ctx, filepath.Join(t.TempDir(), "c.xlsx"), "contractors", nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.True(t, errors.Is(err, dataset.ErrDatasetMissing))

			var appErr *apierrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, apierrors.ErrTypeDataUnavailable, appErr.Type)
		})
	}

	var buf bytes.Buffer
	require.NoError(t, svc.ExportXLSX(ctx, &buf, "grc", nil), "loaded datasets still export")
}
