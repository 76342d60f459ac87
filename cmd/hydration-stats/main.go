package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jak-pan/hydration-stats/internal/api"
	"github.com/jak-pan/hydration-stats/internal/blocks"
	"github.com/jak-pan/hydration-stats/internal/config"
	"github.com/jak-pan/hydration-stats/internal/graphql"
	"github.com/jak-pan/hydration-stats/internal/history"
	"github.com/jak-pan/hydration-stats/internal/prices"
	"github.com/jak-pan/hydration-stats/internal/registry"
	"github.com/jak-pan/hydration-stats/internal/stats"
	"github.com/jak-pan/hydration-stats/internal/venue"
)

func main() {
	root := &cobra.Command{
		Use:          "hydration-stats",
		Short:        "Hydration liquidity statistics aggregator",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("whale-endpoint", config.DefaultWhaleEndpoint, "whale indexer GraphQL endpoint")
	root.PersistentFlags().String("generic-endpoint", config.DefaultGenericEndpoint, "generic indexer GraphQL endpoint")
	root.PersistentFlags().String("excluded-asset", "1", "asset id hidden from TVL totals by default")
	root.PersistentFlags().Float64("xyk-min-tvl", 10, "minimum pool TVL for constant-product pools")
	root.PersistentFlags().Duration("cache-ttl", 5*time.Minute, "historical series cache TTL")
	root.PersistentFlags().Int("resolve-concurrency", 10, "parallel block lookups per historical run")
	root.PersistentFlags().Duration("request-timeout", 0, "per-request HTTP timeout, 0 means none")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server with periodic refresh",
		RunE:  runServe,
	}
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().Duration("refresh-interval", time.Minute, "automatic refresh interval, 0 disables")
	root.AddCommand(serveCmd)

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch the current TVL breakdown and composition once",
		RunE:  runSnapshot,
	}
	root.AddCommand(snapshotCmd)

	historicalCmd := &cobra.Command{
		Use:   "historical [period]",
		Short: "Reconstruct the historical TVL series for a period (1w, 1m, 3m)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHistorical,
	}
	root.AddCommand(historicalCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildStore wires the full aggregation pipeline from config.
func buildStore(cfg config.Config, logger *zap.Logger) *stats.Store {
	dedup := graphql.NewDeduper()
	whale := graphql.NewClient(cfg.WhaleEndpoint, dedup, cfg.RequestTimeout, logger)
	generic := graphql.NewClient(cfg.GenericEndpoint, dedup, cfg.RequestTimeout, logger)

	reg := registry.New()
	venues := venue.New(whale, generic, reg, cfg.XYKMinTVL, logger)
	priceBuilder := prices.NewBuilder(whale, reg, venues.LatestHeight, logger)
	locator := blocks.NewLocator(whale, cfg.ResolveConcurrency, logger)
	engine := history.NewEngine(history.Config{
		ExcludedAssetID: cfg.ExcludedAssetID,
		MinXYKTVL:       cfg.XYKMinTVL,
		CacheTTL:        cfg.CacheTTL,
	}, whale, locator, logger)

	return stats.New(reg, venues, priceBuilder, engine, cfg.ExcludedAssetID, logger)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := buildStore(cfg, logger)
	server := api.NewServer(api.ServerConfig{Addr: cfg.ListenAddr}, store, logger)

	logger.Info("serve start",
		zap.String("whale_endpoint", cfg.WhaleEndpoint),
		zap.String("generic_endpoint", cfg.GenericEndpoint),
		zap.String("listen", cfg.ListenAddr),
		zap.Duration("refresh_interval", cfg.RefreshInterval),
		zap.String("excluded_asset", cfg.ExcludedAssetID),
	)

	if err := store.RefreshAll(ctx); err != nil {
		logger.Warn("initial refresh failed", zap.Error(err))
	}

	if cfg.RefreshInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.RefreshInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := store.RefreshAll(ctx); err != nil {
						logger.Warn("periodic refresh failed", zap.Error(err))
					}
				}
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := buildStore(cfg, logger)
	if err := store.RefreshAll(ctx); err != nil {
		return err
	}

	out := map[string]any{
		"status":      store.Status(),
		"tvl":         store.TVL(),
		"composition": store.Composition(),
	}
	return printJSON(out)
}

func runHistorical(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	period := history.PeriodMonth
	if len(args) == 1 {
		period, err = history.ParsePeriod(args[0])
		if err != nil {
			return err
		}
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := buildStore(cfg, logger)
	if err := store.RefreshHistorical(ctx, period); err != nil {
		return err
	}
	view, _ := store.Historical(period)
	return printJSON(view)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
