// Package services implements the dashboard's business layer between the
// HTTP handlers and the loaded datasets.
//
// # Available Services
//
//	- DashboardService: builds page models, renders their charts and
//	  exports their tables
//	- HealthService: health, readiness, liveness and version reporting
//
// # Page Cache
//
// Page models depend only on the immutable dataset store and the filter
// selection, so DashboardService memoises them in a go-cache keyed by
// page slug and canonical selection. Concurrent requests for the same
// key share one build. Cached pages are shared and must be treated as
// read-only.
//
//	svc := services.NewDashboardService(store, cfg.Cache, metrics, logger)
//	page, err := svc.Page(ctx, "paps", filter.FromQuery(r.URL.Query()))
//	if err != nil {
//		return err
//	}
//
// # Error Handling
//
// Lookups return the dashboard sentinels (ErrUnknownPage, ErrUnknownChart,
// ErrUnknownTable) wrapped with the offending id; ErrNoTables marks a
// page without exportable tables. All are NOT_FOUND application errors,
// which the HTTP error handler maps to 404. Chart and export calls on a
// page whose dataset was not loaded fail with the DATA_UNAVAILABLE error
// of dataset.Store.Require (503).
//
// # Testing
//
// Services are tested against the in-memory fixture store from
// dataset/datasettest, with a ManualReader meter provider to assert the
// recorded metrics.
package services
