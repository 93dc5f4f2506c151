// Package app wires the IMCE dashboard together and manages its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from the YAML file and IMCE_* environment variables
//	2. Initialize logging and OpenTelemetry (traces, Prometheus metrics)
//	3. Resolve the data directory and load the six survey datasets
//	4. Create the dashboard and health services
//	5. Build the chi router and its middleware chain
//	6. Configure the HTTP server
//
// A dataset that is missing on disk does not stop start-up; its pages show a
// placeholder and the readiness probe reports it.
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Run handles SIGINT and SIGTERM: in-flight requests are drained within the
// configured shutdown timeout, then pending spans and metrics are flushed.
//
// # Error Handling
//
// All initialization errors are returned to the caller. The package never
// calls os.Exit, leaving the exit code to main.
package app
