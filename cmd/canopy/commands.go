package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/canopy/internal/pipeline"
	"github.com/ajitpratap0/canopy/pkg/analysis"
	"github.com/ajitpratap0/canopy/pkg/config"
	"github.com/ajitpratap0/canopy/pkg/errors"
	"github.com/ajitpratap0/canopy/pkg/logger"
	"github.com/ajitpratap0/canopy/pkg/observability"
)

const envPrefix = "CANOPY"

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "canopy",
		Short: "Canopy - street tree statistics",
		Long: `Canopy loads a street tree inventory, computes a fixed set of
statistics over it and writes one result file per statistic.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCommand(), newValidateCommand(), newAnalysesCommand(), newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Canopy v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func newRunCommand() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the tree statistics job",
		Long: `Run the job described by a configuration file. Flags and CANOPY_*
environment variables override the file.

Example:
  canopy run --config configs/job.yaml --output-dir out/tree-distributions`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return runJob(cmd.Context(), cmd, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringP("config", "c", "", "Path to the job configuration (YAML or JSON)")
	flags.String("output-dir", "", "Directory receiving the result files")
	flags.Int("workers", 0, "Analyses running concurrently (0 = one per analysis)")
	flags.Bool("fail-fast", false, "Stop scheduling analyses after the first failure")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("report", "", "Write a JSON run report to this path")
	bindFlags(v, cmd)
	return cmd
}

func newValidateCommand() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a job configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration %q is valid\n", cfg.Name)
			return nil
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to the job configuration (YAML or JSON)")
	bindFlags(v, cmd)
	return cmd
}

func newAnalysesCommand() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "analyses",
		Short: "List available analyses",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.NewJobConfig()
			if path := v.GetString("config"); path != "" {
				loaded, err := config.LoadJob(path)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			enabled := make(map[string]bool)
			for _, a := range analysis.Build(cfg.Analyses) {
				enabled[a.Name] = true
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tOUTPUT\tENABLED\tDESCRIPTION")
			for _, a := range analysis.Catalog(cfg.Analyses) {
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", a.Name, a.Suffix, enabled[a.Name], a.Description)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to a job configuration whose parameters are shown")
	bindFlags(v, cmd)
	return cmd
}

// bindFlags lets CANOPY_<FLAG> environment variables stand in for flags.
func bindFlags(v *viper.Viper, cmd *cobra.Command) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(cmd.Flags())
}

// loadConfig reads the configuration file, applies flag and environment
// overrides on top of it and validates the result.
func loadConfig(v *viper.Viper) (*config.JobConfig, error) {
	path := v.GetString("config")
	if path == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "--config or CANOPY_CONFIG is required")
	}
	cfg, err := config.LoadJob(path)
	if err != nil {
		return nil, err
	}

	if v.IsSet("output-dir") {
		cfg.Output.Dir = v.GetString("output-dir")
	}
	if v.IsSet("workers") {
		cfg.Performance.Workers = v.GetInt("workers")
	}
	if v.IsSet("fail-fast") {
		cfg.Reliability.FailFast = v.GetBool("fail-fast")
	}
	if v.IsSet("log-level") {
		cfg.Observability.LogLevel = v.GetString("log-level")
	}
	if v.IsSet("report") {
		cfg.Output.ReportPath = v.GetString("report")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runJob(ctx context.Context, cmd *cobra.Command, cfg *config.JobConfig) error {
	if err := logger.Init(logger.Config{
		Level:    cfg.Observability.LogLevel,
		Encoding: cfg.Observability.LogEncoding,
	}); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "cannot initialize logging")
	}
	defer func() { _ = logger.Sync() }()

	shutdown, err := observability.SetupTracing(observability.TracingConfig{
		Enabled:        cfg.Observability.Tracing,
		ServiceName:    "canopy",
		ServiceVersion: version,
		Writer:         cmd.ErrOrStderr(),
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "cannot initialize tracing")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.Get().With(zap.String("component", "canopy-cli"))
	driver, err := pipeline.NewDriver(ctx, cfg, pipeline.WithLogger(log))
	if err != nil {
		return err
	}

	report, err := driver.Run(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, a := range report.Analyses {
		fmt.Fprintf(out, "%-30s %-9s %s\n", a.Name, a.Status, a.Output)
	}
	return nil
}
