package main

import (
	"fmt"
	"log/slog"
	"net/url"
	"slices"

	"github.com/spf13/cobra"

	"github.com/michel-emel/imce-project/internal/config"
	"github.com/michel-emel/imce-project/internal/dataset"
	apierrors "github.com/michel-emel/imce-project/internal/errors"
	"github.com/michel-emel/imce-project/internal/filter"
	"github.com/michel-emel/imce-project/internal/infrastructure"
	"github.com/michel-emel/imce-project/internal/services"
)

// cli holds the state shared by every subcommand
type cli struct {
	dataDir  string
	logLevel string
	filters  map[string]string

	cfg     *config.Config
	logger  *slog.Logger
	store   *dataset.Store
	service *services.DashboardService
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "imcectl",
		Short: "Inspect and export the IMCE monitoring datasets",
		Long: `imcectl reads the cleaned survey CSV files the dashboard serves and
computes the same page models offline.

The data directory and file names come from the dashboard configuration
(configs/config.yaml or IMCE_* environment variables); --data-dir overrides
the directory.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.load,
	}

	root.PersistentFlags().StringVar(&c.dataDir, "data-dir", "", "directory holding the survey CSV files")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "log level written to stderr (debug, info, warn, error)")

	root.AddCommand(
		c.summaryCmd(),
		c.datasetsCmd(),
		c.pageCmd(),
		c.exportCmd(),
	)
	return root
}

// load reads the configuration and every dataset before a subcommand runs
func (c *cli) load(cmd *cobra.Command, _ []string) error {
	cmd.SetContext(infrastructure.EnsureTraceID(cmd.Context()))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if c.dataDir != "" {
		cfg.Data.Dir = c.dataDir
	}
	cfg.Logging.Level = c.logLevel
	cfg.Logging.Output = "console"
	c.cfg = cfg

	c.logger, err = infrastructure.NewLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	paths, err := config.ResolvePaths(cfg.Data)
	if err != nil {
		return fmt.Errorf("failed to resolve data paths: %w", err)
	}

	c.store, err = dataset.LoadAll(cmd.Context(), dataset.FilesFromPaths(paths), c.logger, nil)
	if err != nil {
		return fmt.Errorf("failed to load datasets: %w", err)
	}

	c.service = services.NewDashboardService(c.store, config.CacheConfig{}, nil, c.logger)
	return nil
}

// addFilterFlag registers the repeatable --filter key=value flag
func (c *cli) addFilterFlag(cmd *cobra.Command) {
	cmd.Flags().StringToStringVarP(&c.filters, "filter", "f", nil,
		"filter selection, e.g. --filter district=Gasabo --filter sector=Remera")
}

// selection turns the --filter flags into a page selection; unknown keys
// are an error
func (c *cli) selection() (filter.Selection, error) {
	q := url.Values{}
	for k, v := range c.filters {
		if !slices.Contains(filter.Keys, k) {
			return nil, apierrors.NewAppValidationError(fmt.Sprintf("unknown filter %q (valid: %v)", k, filter.Keys))
		}
		q.Set(k, v)
	}
	return filter.FromQuery(q), nil
}
