package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AntonStoeckl/minquantity-rule/config"
	"github.com/AntonStoeckl/minquantity-rule/quantityrule/catalogengine"
	"github.com/AntonStoeckl/minquantity-rule/quantityrule/zapadapters"
)

const (
	serviceName    = "minqtyctl"
	serviceVersion = "dev"
)

// cli holds the global flags and what PersistentPreRunE derives from them.
type cli struct {
	configPath  string
	debug       bool
	dumpMetrics bool

	cfg       config.RuleConfig
	logger    *zap.Logger
	telemetry *config.Telemetry
}

func newRootCmd() (*cobra.Command, *cli) {
	app := &cli{}

	rootCmd := &cobra.Command{
		Use:   "minqtyctl",
		Short: "Maintain and evaluate minimum sales quantities",
		Long: `minqtyctl manages the CDU_MinMetrosSugestaoVenda value of catalog articles
and runs the minimum-quantity rule against a one-line sales document.

Configuration is read from --config (JSON or YAML) and MINQTY_* environment
variables: MINQTY_FORCE_ALWAYS, MINQTY_EPSILON, MINQTY_LOCALE, MINQTY_DSN, MINQTY_ADAPTER.`,
		SilenceUsage:      true,
		PersistentPreRunE: app.setUp,
	}

	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "path to a JSON or YAML config file")
	rootCmd.PersistentFlags().BoolVar(&app.debug, "debug", false, "log at debug level")
	rootCmd.PersistentFlags().BoolVar(&app.dumpMetrics, "metrics", false, "print the collected metrics in Prometheus text format")

	rootCmd.AddCommand(
		newSchemaCmd(app),
		newLookupCmd(app),
		newSetCmd(app),
		newClearCmd(app),
		newListCmd(app),
		newImportCmd(app),
		newEvaluateCmd(app),
	)

	return rootCmd, app
}

// run executes rootCmd and tears down afterwards, also when the command failed.
func (app *cli) run(rootCmd *cobra.Command) error {
	runErr := rootCmd.Execute()

	return errors.Join(runErr, app.tearDown(rootCmd.OutOrStdout()))
}

func (app *cli) setUp(cmd *cobra.Command, _ []string) error {
	zapConfig := zap.NewProductionConfig()
	if app.debug {
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.logger = logger

	cfg, err := config.Load(app.configPath)
	if err != nil {
		return err
	}
	app.cfg = cfg

	telemetry, err := config.NewTelemetry(cmd.Context(), serviceName, serviceVersion)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	app.telemetry = telemetry

	return nil
}

func (app *cli) tearDown(out io.Writer) error {
	if app.logger != nil {
		defer func() { _ = app.logger.Sync() }()
	}

	if app.telemetry == nil {
		return nil
	}

	if err := app.telemetry.Shutdown(context.Background()); err != nil {
		return err
	}

	if app.dumpMetrics {
		return app.telemetry.WriteMetrics(out)
	}

	return nil
}

// openCatalog connects to the configured catalog with diagnostics routed to the zap logger.
func (app *cli) openCatalog(ctx context.Context) (catalogengine.Catalog, func(), error) {
	return config.OpenCatalog(ctx, app.cfg,
		catalogengine.WithContextualLogger(zapadapters.NewLogger(app.logger)),
		catalogengine.WithMetrics(app.telemetry.Metrics),
		catalogengine.WithTracing(app.telemetry.TracingCollector(serviceName)))
}
