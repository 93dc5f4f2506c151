package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	promclient "github.com/prometheus/client_golang/prometheus"

	"github.com/michel-emel/imce-project/internal/config"
	"github.com/michel-emel/imce-project/internal/dataset"
	apierrors "github.com/michel-emel/imce-project/internal/errors"
	"github.com/michel-emel/imce-project/internal/infrastructure"
	customMiddleware "github.com/michel-emel/imce-project/internal/middleware"
	"github.com/michel-emel/imce-project/internal/services"
	handlers "github.com/michel-emel/imce-project/internal/transport/http"
)

// BuildTime is set at link time with -ldflags "-X .../internal/app.BuildTime=..."
var BuildTime = ""

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Logger        *slog.Logger
	Store         *dataset.Store
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.DashboardMetrics
	System        *infrastructure.SystemMetrics
	Dashboard     *services.DashboardService
	Health        *services.HealthService
	ErrorHandler  *apierrors.ErrorHandler
	Router        *chi.Mux
	Server        *http.Server

	serveErr chan error
}

// Option customises New
type Option func(*options)

type options struct {
	registry *promclient.Registry
	store    *dataset.Store
}

// WithRegistry sends Prometheus metrics to registry instead of the
// process-wide default
func WithRegistry(registry *promclient.Registry) Option {
	return func(o *options) { o.registry = registry }
}

// WithStore serves store instead of reading the data directory
func WithStore(store *dataset.Store) Option {
	return func(o *options) { o.store = store }
}

// NewApplication loads the configuration and wires the whole application
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires the application from an explicit configuration
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Application, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))

	a := &Application{Config: cfg, Logger: logger}

	otelCfg := infrastructure.OTelConfigFrom(cfg.Telemetry)
	otelCfg.Registry = o.registry
	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	a.OTelProviders = providers

	if a.Metrics, err = infrastructure.CreateDashboardMetrics(providers.Meter); err != nil {
		return nil, fmt.Errorf("failed to create dashboard metrics: %w", err)
	}
	if a.System, err = infrastructure.NewSystemMetrics(providers.Meter, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to create system metrics: %w", err)
	}

	if a.Paths, err = config.ResolvePaths(cfg.Data); err != nil {
		return nil, fmt.Errorf("failed to resolve data paths: %w", err)
	}

	a.Store = o.store
	if a.Store == nil {
		if a.Store, err = a.loadDatasets(context.Background()); err != nil {
			return nil, err
		}
	}

	a.initializeServices()
	if err := a.setupRouter(); err != nil {
		return nil, err
	}
	a.createServer()

	return a, nil
}

func (a *Application) loadDatasets(ctx context.Context) (*dataset.Store, error) {
	a.Paths.LogPathResolution(a.Logger)

	store, err := dataset.LoadAll(ctx, dataset.FilesFromPaths(a.Paths), a.Logger, a.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to load datasets: %w", err)
	}

	for _, st := range store.Statuses() {
		if st.Loaded {
			a.Logger.InfoContext(ctx, "Dataset loaded",
				slog.String("dataset", string(st.Name)),
				slog.Int("rows", st.Rows))
		} else {
			a.Logger.WarnContext(ctx, "Dataset unavailable, its page shows a placeholder",
				slog.String("dataset", string(st.Name)),
				slog.String("file", st.File))
		}
	}
	return store, nil
}

func (a *Application) initializeServices() {
	a.ErrorHandler = apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development, infrastructure.TraceIDFromContext)
	a.Dashboard = services.NewDashboardService(a.Store, a.Config.Cache, a.Metrics, a.Logger)
	a.Health = services.NewHealthService(config.AppVersion, BuildTime, a.Store, a.System, a.Logger)
}

func (a *Application) setupRouter() error {
	r := chi.NewRouter()
	eh := a.ErrorHandler

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// Scrapes skip the request middleware so they do not count themselves
	r.Mount("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.System).Routes())

	pages, err := handlers.NewPageHandler(a.Dashboard, config.AppVersion, a.Logger, eh)
	if err != nil {
		return err
	}
	api := handlers.NewDashboardHandler(a.Dashboard, a.Logger, eh)
	downloads := handlers.NewDownloadHandler(a.Dashboard, a.Logger, eh)
	health := handlers.NewHealthHandler(a.Health, a.Logger)

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → logging → recovery → headers → CORS → rate limit
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
		r.Use(apierrors.NewErrorMiddleware(eh, a.Logger).Handler)
		r.Use(apierrors.RecoveryMiddleware(eh))
		r.Use(customMiddleware.DefaultSecureHeaders().Handler)
		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.corsConfig()))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				eh,
			).Handler)
		}
		r.Use(customMiddleware.NewValidationMiddleware(a.Logger, eh).ValidateFilters)
		r.Use(customMiddleware.Compress(5, "text/html", "application/json", "image/svg+xml"))

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, eh))

			health.Routes(r)
			r.Mount("/pages", api.Routes())
			r.Get("/datasets", api.GetDatasets)

			r.NotFound(eh.NotFound)
			r.MethodNotAllowed(eh.MethodNotAllowed)
		})

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, eh))
			r.Mount("/charts", downloads.ChartRoutes())
			r.Mount("/export", downloads.ExportRoutes())
		})

		r.Get("/*", pages.ServePage)
	})

	a.Router = r
	return nil
}

func (a *Application) corsConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts serving in the background; cancel is called if the listener fails
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("version", config.AppVersion),
		slog.Int("port", a.Config.Server.Port),
		slog.Int("datasets_loaded", a.Store.LoadedCount()),
		slog.Bool("cache_enabled", a.Config.Cache.Enabled))

	if a.Store.LoadedCount() == 0 {
		a.Logger.WarnContext(ctx, "No dataset loaded, every page shows a placeholder",
			slog.String("data_dir", a.Paths.DataDir))
	}

	a.serveErr = make(chan error, 1)
	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			infrastructure.WithError(a.Logger, err).ErrorContext(ctx, "Server error")
			a.serveErr <- err
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop drains the server and flushes telemetry
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run starts the application and blocks until an interrupt or a server failure
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	var serveErr error
	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received signal", slog.String("signal", sig.String()))
	case serveErr = <-a.serveErr:
		a.Logger.WarnContext(context.Background(), "Server stopped unexpectedly")
	}

	if err := a.Stop(context.Background()); err != nil {
		return err
	}
	if serveErr != nil {
		return fmt.Errorf("server failed: %w", serveErr)
	}
	return nil
}
