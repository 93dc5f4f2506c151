// Command imce-web serves the IMCE monitoring dashboard.
//
// Configuration comes from configs/config.yaml (or the file named by
// IMCE_CONFIG_FILE) and IMCE_* environment variables. Pages are served
// from "/", page models from "/api/pages", and Prometheus metrics from
// "/metrics".
package main

import (
	"log/slog"
	"os"

	"github.com/michel-emel/imce-project/internal/app"
)

func main() {
	application, err := app.NewApplication()
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
