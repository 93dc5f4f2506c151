// Package http implements the HTTP handlers of the IMCE dashboard. Handlers
// stay thin: they read the filter selection from the query string, call the
// dashboard service and format the result.
//
// # Surfaces
//
//	GET /, /paps, /workers, ...        server-rendered pages (PageHandler)
//	GET /api/pages[/{slug}[/filters]]  page models as JSON (DashboardHandler)
//	GET /api/datasets                  dataset load status
//	GET /api/health, /api/version      health probes (HealthHandler)
//	GET /charts/{slug}/{chart}.svg     chart images (DownloadHandler)
//	GET /export/{slug}.xlsx            all tables of a page
//	GET /export/{slug}/{table}.csv     one table
//	GET /metrics                       Prometheus scrape (MetricsHandler)
//
// Every surface honours the same filter query parameters, so a chart image
// or an export always matches the page it was linked from.
//
// # Error Handling
//
// Errors are converted to RFC 7807 problem details by the shared
// errors.ErrorHandler: unknown pages, charts and tables answer 404, render
// failures 500.
//
// # Templates
//
// Page templates are embedded with the binary and parsed once at start-up.
// Heatmaps are drawn as shaded HTML tables; every other chart is an <img>
// pointing at its SVG endpoint.
package http
