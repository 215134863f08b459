// Command sherpa-sync extracts changed records from the Sherpa warehouse
// service and emits them as JSON lines on stdout, with replication bookmarks
// persisted in Redis between runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/bkuipers/sherpa-sync/pkg/config"
	"github.com/bkuipers/sherpa-sync/pkg/health"
	"github.com/bkuipers/sherpa-sync/pkg/logging"
	"github.com/bkuipers/sherpa-sync/pkg/soap"
	"github.com/bkuipers/sherpa-sync/pkg/state"
	syncpkg "github.com/bkuipers/sherpa-sync/pkg/sync"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "sherpa-sync: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
		Output: os.Stderr,
	})

	// Setup Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
	}
	logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")

	// Create SOAP client with health gating
	tracker := health.NewTracker(redisClient, logging.NewLogger("health"))
	clientCfg := soap.DefaultConfig(cfg.Endpoint, cfg.UserAgent)
	clientCfg.Timeout = cfg.HTTP.Timeout
	clientCfg.Gate = tracker

	client, err := soap.New(clientCfg)
	if err != nil {
		return fmt.Errorf("create soap client: %w", err)
	}

	// Serve metrics and health endpoints while the sync runs
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/health", healthHandler)
		mux.HandleFunc("/ready", readyHandler(redisClient))

		go func() {
			logger.Info().Str("addr", cfg.Metrics.Addr).Msg("Serving metrics")
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				logger.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}

	// Run the sync
	runner, err := syncpkg.NewRunner(
		client,
		state.NewStore(redisClient),
		syncpkg.NewJSONEmitter(os.Stdout),
		syncpkg.Config{
			SecurityCode:       cfg.SecurityCode,
			ChunkSize:          cfg.ChunkSize,
			WarehouseGroupCode: cfg.WarehouseGroupCode,
			Streams:            cfg.Streams,
		},
	)
	if err != nil {
		return fmt.Errorf("create runner: %w", err)
	}

	if err := runner.SyncAll(ctx); err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	logger.Info().Msg("Sync complete")
	return nil
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func readyHandler(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := redisClient.Ping(r.Context()).Err(); err != nil {
			http.Error(w, fmt.Sprintf("redis unavailable: %v", err), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	}
}
