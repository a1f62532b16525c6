package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mirrorkit/filterlists-etl/internal/pipeline"
	"github.com/mirrorkit/filterlists-etl/pkg/clients"
	"github.com/mirrorkit/filterlists-etl/pkg/config"
	"github.com/mirrorkit/filterlists-etl/pkg/etl"
	"github.com/mirrorkit/filterlists-etl/pkg/logger"
	"github.com/mirrorkit/filterlists-etl/pkg/storage"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "filterlists-etl",
		Short: "FilterLists catalog mirror ETL",
		Long: `filterlists-etl pulls resource collections from the FilterLists API,
enriches each record with ingestion metadata, and loads the result into
per-resource MongoDB collections.`,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("filterlists-etl v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "endpoints",
		Short: "List the endpoints mirrored by default",
		Run: func(cmd *cobra.Command, args []string) {
			for _, ep := range pipeline.DefaultEndpoints {
				fmt.Printf("  %s\n", ep)
			}
		},
	})

	var configFile string
	var logLevel string

	runCmd := &cobra.Command{
		Use:   "run [endpoints...]",
		Short: "Run the ETL pipeline",
		Long: `Run the ETL pipeline against the given endpoints (e.g. /lists /languages).
If no endpoints are given, the full configured list is processed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runETL(configFile, logLevel, normalizeEndpoints(args))
		},
	}

	runCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to YAML configuration file (optional; environment variables apply otherwise)")
	runCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// normalizeEndpoints ensures every endpoint argument has a leading separator
func normalizeEndpoints(args []string) []string {
	endpoints := make([]string, 0, len(args))
	for _, arg := range args {
		if !strings.HasPrefix(arg, "/") {
			arg = "/" + arg
		}
		endpoints = append(endpoints, arg)
	}
	return endpoints
}

// loadConfig builds the runtime configuration from the environment,
// optionally overlaid by a YAML config file.
func loadConfig(configFile string) (*config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	if configFile != "" {
		if err := config.Load(configFile, cfg); err != nil {
			return nil, fmt.Errorf("configuration error: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("configuration error: %w", err)
		}
	}

	return cfg, nil
}

// runETL wires the pipeline together and executes one run. A storage
// connection failure is the only fatal error: everything downstream degrades
// per endpoint instead of aborting.
func runETL(configFile, logLevel string, endpoints []string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Encoding: "json"}); err != nil {
		return fmt.Errorf("logger error: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.With(zap.String("component", "filterlists-etl"))
	log.Info("starting",
		zap.String("api_base", cfg.BaseURL),
		zap.String("database", cfg.Database),
		zap.Duration("request_timeout", cfg.RequestTimeout))

	ctx := context.Background()

	store, err := storage.Connect(ctx, cfg.MongoURI, cfg.Database, log)
	if err != nil {
		log.Error("could not connect to MongoDB", zap.Error(err))
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Warn("failed to close store", zap.Error(err))
		}
	}()

	httpCfg := clients.DefaultHTTPConfig()
	httpCfg.RequestTimeout = cfg.RequestTimeout
	httpClient := clients.NewHTTPClient(httpCfg, log)
	defer func() { _ = httpClient.Close() }()

	fetcher := etl.NewFetcher(httpClient, etl.DefaultFetcherConfig(), log)
	extractor := etl.NewExtractor(fetcher, cfg.BaseURL, log)
	transformer := etl.NewTransformer(cfg.BaseURL, log)
	loader := etl.NewLoader(store, log)

	p := pipeline.New(extractor, transformer, loader, log)
	return p.Run(ctx, endpoints)
}
