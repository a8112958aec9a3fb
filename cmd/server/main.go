package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"roomboard/internal/cache"
	"roomboard/internal/churchtools"
	"roomboard/internal/config"
	"roomboard/internal/database"
	"roomboard/internal/events"
	"roomboard/internal/logging"
	"roomboard/internal/metrics"
	"roomboard/internal/shutdown"
	syncpkg "roomboard/internal/sync"
	"roomboard/internal/web"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	viewCache := cache.NewViewCache(redisClient, cacheTTL(cfg, logger))

	coord := shutdown.NewCoordinator()
	handleSignals(coord, logger)

	// Loops that only wait between ticks hang off this context, which folds
	// when the coordinator fires.
	waitCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-coord.Done()
		cancel()
	}()

	startMetrics(waitCtx, cfg, logger)

	bus := events.NewEventBus()

	var wg sync.WaitGroup

	backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		backupService.Start(waitCtx)
	}()

	// The scheduler gets a context that is never cancelled: in-flight fetch
	// and store calls must run to completion, and the loop itself stops at
	// its coordinator select point.
	client := churchtools.NewClient(cfg.Remote, logger)
	scheduler := syncpkg.NewScheduler(client, db, cfg.ResourceIDs(), cfg.Remote.PollInterval(), coord, bus, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		scheduler.Run(context.Background())
	}()

	server := web.NewServer(cfg, db, viewCache, coord, logger)
	serveErr := server.Run()

	// Whatever stopped the server, make sure the background loops stop too,
	// and join them before the deferred db.Close runs.
	coord.Trigger()
	wg.Wait()

	if serveErr != nil {
		return serveErr
	}

	logger.Info().Msg("roomboard stopped")
	return nil
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App.Name)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := logging.Component(baseLogger, "server-main")

	return cfg, &logger, closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := cache.NewRedisClient(cfg.Redis)
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without view cache")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func cacheTTL(cfg *config.Config, logger *zerolog.Logger) time.Duration {
	ttl, err := time.ParseDuration(cfg.Web.CacheTTL)
	if err != nil {
		logger.Warn().Err(err).Str("cache_ttl", cfg.Web.CacheTTL).Msg("failed to parse cache ttl, using default 15s")
		return 15 * time.Second
	}
	return ttl
}

// handleSignals maps process signals onto the shutdown coordinator. SIGHUP
// gets the same treatment as SIGTERM; the process manager restarts us with
// the fresh config.
func handleSignals(coord *shutdown.Coordinator, logger *zerolog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		coord.Trigger()
	}()
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
