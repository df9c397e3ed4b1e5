// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xataio/ftsearch/cmd/config"
	"github.com/xataio/ftsearch/internal/log/zerolog"
	"github.com/xataio/ftsearch/internal/profiling"
	"github.com/xataio/ftsearch/pkg/client"
	"github.com/xataio/ftsearch/pkg/client/instrumentation"
	redisexecutor "github.com/xataio/ftsearch/pkg/client/redis"
	loglib "github.com/xataio/ftsearch/pkg/log"
	"github.com/xataio/ftsearch/pkg/otel"
)

// Version is the ftsearch version
var (
	Version = "development"
	Env     string
)

const defaultRedisURL = "redis://localhost:6379/0"

func Prepare() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "ftsearch",
		Short:        "Inspect, deploy and query Redis Stack search indexes from schema definition files",
		SilenceUsage: true,
		Version:      version(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(); err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			return nil
		},
	}

	viper.AutomaticEnv()

	// Flag definition

	// root cmd
	rootCmd.PersistentFlags().StringP("config", "c", "", ".env or .yaml config file to use with ftsearch if any")
	rootCmd.PersistentFlags().String("log-level", "info", "log level for the application. One of trace, debug, info, warn, error, fatal, panic")
	rootCmd.PersistentFlags().String("log-format", "console", "log output format. One of console, json")
	rootCmd.PersistentFlags().String("redis-url", defaultRedisURL, "Redis Stack URL")

	// schema cmd
	schemaInspectCmd.Flags().StringP("file", "f", "", "Path to a YAML schema definition file")
	schemaInspectCmd.Flags().Bool("json", false, "Output the compiled schema in JSON format")
	schemaDeployCmd.Flags().StringSliceP("file", "f", nil, "Paths to the YAML schema definition files to deploy")
	schemaDropCmd.Flags().StringSliceP("file", "f", nil, "Paths to the YAML schema definition files whose indexes will be dropped")
	schemaCmd.AddCommand(schemaInspectCmd)
	schemaCmd.AddCommand(schemaDeployCmd)
	schemaCmd.AddCommand(schemaDropCmd)

	// search cmd
	searchCmd.Flags().StringP("file", "f", "", "Path to the YAML schema definition file of the index to search")
	searchCmd.Flags().StringArrayP("where", "w", nil, "Predicate in the form <field><op><value>, with op one of = != > >= < <= ^= ~. Repeated predicates are combined with AND")
	searchCmd.Flags().Int("offset", 0, "Number of matching entities to skip")
	searchCmd.Flags().Int("limit", 10, "Maximum number of entities to return")
	searchCmd.Flags().String("sort-by", "", "Sortable field to sort by, optionally suffixed with :asc or :desc")
	searchCmd.Flags().Bool("count", false, "Only output the number of matching entities")
	searchCmd.Flags().Bool("dry-run", false, "Output the search command without running it")
	searchCmd.Flags().String("template", "", "Go template rendered for every entity. Sprig functions are available")
	searchCmd.Flags().Bool("json", false, "Output the result in JSON format")
	searchCmd.Flags().Bool("profile", false, "Whether to produce CPU and memory profile files")

	// Flag binding for root cmd
	rootFlagBinding(rootCmd)

	// register subcommands
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(searchCmd)
	return rootCmd
}

// Execute executes the root command.
func Execute() error {
	cmd := Prepare()
	return cmd.Execute()
}

func withSignalWatcher(fn func(ctx context.Context, cmd *cobra.Command) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(),
			syscall.SIGHUP,
			syscall.SIGINT,
			syscall.SIGTERM,
			syscall.SIGQUIT)
		defer cancel()
		return fn(ctx, cmd)
	}
}

func withProfiling(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Lookup("profile").Value.String() != trueStr {
			return fn(cmd, args)
		}

		stopCPUProfile, err := profiling.StartCPUProfile("cpu.prof")
		if err != nil {
			return err
		}
		defer func() {
			stopCPUProfile()
			if err := profiling.CreateMemoryProfile("mem.prof"); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		}()

		return fn(cmd, args)
	}
}

func rootFlagBinding(cmd *cobra.Command) {
	viper.BindPFlag("config", cmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag(config.LogLevelEnv, cmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag(config.LogFormatEnv, cmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag(config.RedisURLEnv, cmd.PersistentFlags().Lookup("redis-url"))
}

// redisFlagBinding lets the redis-url flag overwrite the yaml configuration
// when it is explicitly set.
func redisFlagBinding(cmd *cobra.Command, _ []string) {
	if f := cmd.Flags().Lookup("redis-url"); f != nil && f.Changed {
		viper.BindPFlag("redis.url", f)
	}
	if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
		viper.BindPFlag("log.level", f)
	}
}

func version() string {
	if Env != "" {
		return Env + " (" + Version + ")"
	}
	return Version
}

func newLogger() loglib.Logger {
	logger := zerolog.NewLogger(&zerolog.Config{
		LogLevel: config.LogLevel(),
		Format:   config.LogFormat(),
	})
	zerolog.SetGlobalLogger(logger)
	return zerolog.NewStdLogger(logger)
}

// executorLatencyBuckets are the command latency histogram boundaries, in
// milliseconds.
var executorLatencyBuckets = []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500}

func newInstrumentationProvider(ctx context.Context, indexes []string) (otel.InstrumentationProvider, error) {
	cfg, err := config.ParseInstrumentationConfig()
	if err != nil {
		return nil, fmt.Errorf("parsing instrumentation config: %w", err)
	}

	p, err := otel.NewInstrumentationProvider(ctx, cfg.WithIndexes(indexes...),
		otel.WithHistogramBuckets(instrumentation.LatencyMetric, executorLatencyBuckets...))
	if err != nil {
		return nil, fmt.Errorf("initialisating instrumentation provider: %w", err)
	}
	return p, nil
}

// newExecutor connects to the configured Redis Stack instance. The indexes
// are reported with the telemetry. The returned close function releases the
// connection and flushes the telemetry.
func newExecutor(ctx context.Context, name string, indexes ...string) (client.Executor, func(), error) {
	provider, err := newInstrumentationProvider(ctx, indexes)
	if err != nil {
		return nil, nil, err
	}

	redisConfig, err := config.ParseRedisConfig()
	if err != nil {
		provider.Close()
		return nil, nil, err
	}
	redisExecutor, err := redisexecutor.NewExecutor(redisConfig, redisexecutor.WithLogger(newLogger()))
	if err != nil {
		provider.Close()
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	closeFn := func() {
		redisExecutor.Close()
		provider.Close()
	}

	if err := redisExecutor.Connect(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}

	executor, err := instrumentation.NewExecutor(redisExecutor, provider.NewInstrumentation(name))
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return executor, closeFn, nil
}
