package main

//	@title		kvtable API
//	@version	1.0
//	@description	kvtable converts key-value buckets into (bucket, key, value) tables.

//	@BasePath	/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ebogdum/kvtable/backends"
	"github.com/ebogdum/kvtable/config"
	"github.com/ebogdum/kvtable/core"
	"github.com/ebogdum/kvtable/internal/render"
	"github.com/ebogdum/kvtable/server"
)

var (
	configFilePath string
	outputFormat   string
	bucketName     string
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "kvtable",
		Short: "kvtable - key-value buckets as columnar tables",
		Long: `kvtable reads one bucket of a key-value backend and prints it as a
table with the columns bucket, key and value. Without a subcommand the
first bucket is converted.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runConvert,
	}
	rootCmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "", "Output format: table or json (default from config)")
	rootCmd.Flags().StringVarP(&bucketName, "bucket", "b", "", "Bucket to convert (default: first bucket)")

	convertCmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert one bucket into a table",
		Args:  cobra.NoArgs,
		RunE:  runConvert,
	}
	convertCmd.Flags().StringVarP(&bucketName, "bucket", "b", "", "Bucket to convert (default: first bucket)")

	bucketsCmd := &cobra.Command{
		Use:   "buckets",
		Short: "List every bucket of the backend",
		Args:  cobra.NoArgs,
		RunE:  runBuckets,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  "Serve bucket listings and bucket tables as JSON over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management commands",
	}
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		Long:  "Validate the kvtable configuration and display the loaded settings",
		Args:  cobra.NoArgs,
		RunE:  validateConfig,
	}
	configCmd.AddCommand(validateCmd)

	rootCmd.AddCommand(convertCmd, bucketsCmd, serveCmd, configCmd)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and opens the engine. The returned cleanup
// closes the engine and flushes the logger.
func setup() (config.AppConfig, *core.Engine, *zap.Logger, func(), error) {
	cfg, err := config.LoadConfigFromFile(configFilePath)
	if err != nil {
		return cfg, nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if outputFormat != "" {
		if outputFormat != render.FormatTable && outputFormat != render.FormatJSON {
			return cfg, nil, nil, nil, fmt.Errorf("--format must be %s or %s, got %q", render.FormatTable, render.FormatJSON, outputFormat)
		}
		cfg.Convert.Format = outputFormat
	}

	logger, err := initializeLogger(cfg.Log)
	if err != nil {
		return cfg, nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	storage, err := backends.Open(cfg.Backend, logger)
	if err != nil {
		_ = logger.Sync()
		return cfg, nil, nil, nil, err
	}

	engine := core.NewEngine(storage, core.Options{
		Timeout:    cfg.Convert.Timeout,
		ListingTTL: cfg.Server.BucketCacheTTL,
	}, logger)

	cleanup := func() {
		if err := engine.Close(); err != nil {
			logger.Warn("Failed to close storage backend", zap.Error(err))
		}
		_ = logger.Sync()
	}
	return cfg, engine, logger, cleanup, nil
}

// runConvert converts the requested or first bucket and prints it
func runConvert(cmd *cobra.Command, args []string) error {
	cfg, engine, _, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	return convert(cmd.Context(), engine, bucketName, cfg.Convert.Format, cmd.OutOrStdout())
}

func convert(ctx context.Context, engine *core.Engine, bucket, format string, w io.Writer) error {
	var err error
	if bucket == "" {
		if bucket, err = engine.FirstBucket(ctx); err != nil {
			return err
		}
	}

	rec, err := engine.Convert(ctx, bucket)
	if err != nil {
		return err
	}
	defer rec.Release()

	return render.Record(w, rec, format)
}

// runBuckets prints every bucket name
func runBuckets(cmd *cobra.Command, args []string) error {
	cfg, engine, _, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	buckets, err := engine.ListBuckets(cmd.Context())
	if err != nil {
		return err
	}
	return render.Names(cmd.OutOrStdout(), buckets, cfg.Convert.Format)
}

// runServe starts the HTTP server and stops it on SIGINT or SIGTERM
func runServe(cmd *cobra.Command, args []string) error {
	cfg, engine, logger, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting kvtable server",
		zap.String("listen_addr", cfg.Server.ListenAddr),
		zap.String("backend", engine.BackendType()))

	return server.Run(ctx, engine, &cfg.Server, logger)
}

// validateConfig validates the kvtable configuration and displays settings
func validateConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Validating configuration...")

	cfg, err := config.LoadConfigFromFile(configFilePath)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	fmt.Fprintln(out, "Configuration is valid")
	fmt.Fprintf(out, "Backend: %s\n", cfg.Backend.Type)
	fmt.Fprintf(out, "Max File Size: %d\n", cfg.Backend.MaxFileSize)
	fmt.Fprintf(out, "Workers: %d\n", cfg.Backend.Workers)
	switch cfg.Backend.Type {
	case "localfs":
		fmt.Fprintf(out, "Root Directory: %s\n", cfg.Backend.LocalFS.RootDir)
	case "s3":
		fmt.Fprintf(out, "S3 Region: %s\n", cfg.Backend.S3.Region)
		if cfg.Backend.S3.Endpoint != "" {
			fmt.Fprintf(out, "S3 Endpoint: %s\n", cfg.Backend.S3.Endpoint)
		}
	case "nats":
		fmt.Fprintf(out, "NATS URL: %s\n", cfg.Backend.NATS.URL)
	case "redis":
		fmt.Fprintf(out, "Redis Address: %s\n", cfg.Backend.Redis.Addr)
		fmt.Fprintf(out, "Redis Key Prefix: %s\n", cfg.Backend.Redis.KeyPrefix)
	case "sql":
		fmt.Fprintf(out, "SQL Driver: %s\n", cfg.Backend.SQL.Driver)
		fmt.Fprintf(out, "SQL DSN: %s\n", maskDSN(cfg.Backend.SQL.DSN))
		fmt.Fprintf(out, "SQL Table: %s\n", cfg.Backend.SQL.Table)
	}
	fmt.Fprintf(out, "Output Format: %s\n", cfg.Convert.Format)
	fmt.Fprintf(out, "Convert Timeout: %s\n", cfg.Convert.Timeout)
	fmt.Fprintf(out, "Listen Address: %s\n", cfg.Server.ListenAddr)
	fmt.Fprintf(out, "API Keys: %d configured\n", len(cfg.Server.APIKeys))

	return nil
}

// maskDSN masks sensitive parts of a database DSN for display
func maskDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	if len(dsn) > 20 {
		return dsn[:10] + "***" + dsn[len(dsn)-7:]
	}
	return "***"
}

// initializeLogger creates a zap logger based on configuration
func initializeLogger(logCfg config.LogConfig) (*zap.Logger, error) {
	var cfg zap.Config

	if logCfg.Format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	switch logCfg.Level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return cfg.Build()
}
