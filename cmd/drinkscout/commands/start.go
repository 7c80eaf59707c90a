package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/spf13/cobra"

	"github.com/drinkscout/drinkscout/internal/logger"
	"github.com/drinkscout/drinkscout/pkg/agent"
	"github.com/drinkscout/drinkscout/pkg/api"
	"github.com/drinkscout/drinkscout/pkg/catalog"
	"github.com/drinkscout/drinkscout/pkg/config"
	"github.com/drinkscout/drinkscout/pkg/driver"
	"github.com/drinkscout/drinkscout/pkg/metrics"
	"github.com/drinkscout/drinkscout/pkg/query"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the DrinkScout server",
	Long: `Start the DrinkScout API server with the specified configuration.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/drinkscout/config.yaml.

Examples:
  # Start with default config location
  drinkscout start

  # Start with custom config file
  drinkscout start --config /etc/drinkscout/config.yaml

  # Start with environment variable overrides
  DRINKSCOUT_LOGGING_LEVEL=DEBUG drinkscout start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	// Initialize the structured logger
	if err := InitLogger(cfg); err != nil {
		return err
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("DrinkScout starting",
		"version", Version,
		"log_level", cfg.Logging.Level,
		"log_format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))

	// Initialize metrics FIRST so every component created below sees
	// metrics.IsEnabled() == true.
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
	} else {
		logger.Info("Metrics collection disabled")
	}

	// Register all drivers on the container. Initialization is lazy; the
	// warm-up below forces the ones the API cannot run without.
	container := driver.NewContainer(driver.NewSharedState())
	if err := registerDrivers(container, cfg); err != nil {
		return err
	}

	driverMetrics := metrics.NewDriverMetrics()

	mongoInst, err := warmDriver[*driver.MongoInstance](ctx, container, driverMetrics, "mongo")
	if err != nil {
		return fmt.Errorf("failed to initialize mongo driver: %w", err)
	}

	httpClient, err := warmDriver[*http.Client](ctx, container, driverMetrics, "httpclient")
	if err != nil {
		return fmt.Errorf("failed to initialize http client driver: %w", err)
	}

	// The cache is optional: listings fall back to live queries without it.
	cacheDB, err := warmDriver[*badger.DB](ctx, container, driverMetrics, "cachestore")
	if err != nil {
		logger.Warn("cache store unavailable, listings will not be cached", "error", err)
	}

	defer func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cleanupCancel()
		container.CleanupAll(cleanupCtx)
	}()

	// Wire the query engine and catalog service.
	var observer query.AggregateObserver
	if qm := metrics.NewQueryMetrics(); qm != nil {
		observer = qm
	}
	exec := query.NewMongoExecutor(mongoInst.DB(), observer)
	engine := query.NewEngine(exec, query.WithMinDrinkPrice(cfg.Search.MinDrinkPrice))

	catalogOpts := []catalog.Option{}
	if cacheDB != nil {
		catalogOpts = append(catalogOpts, catalog.WithCache(cacheDB))
	}
	catalogSvc := catalog.NewService(engine, exec, catalogOpts...)

	var agentClient *agent.Client
	if cfg.Agent.BaseURL != "" {
		agentClient = agent.NewClient(httpClient, cfg.Agent.BaseURL, cfg.Agent.AppName)
		logger.Info("Recommendation agent configured", "base_url", cfg.Agent.BaseURL, "app_name", cfg.Agent.AppName)
	} else {
		logger.Info("Recommendation agent disabled")
	}

	apiServer := api.NewServer(cfg.Server, api.Services{
		Container:     container,
		Catalog:       catalogSvc,
		Agent:         agentClient,
		DriverMetrics: driverMetrics,
		DefaultLimit:  cfg.Search.DefaultLimit,
	})

	// Start servers in background
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- apiServer.Start(ctx)
	}()

	if cfg.Metrics.Enabled {
		go serveMetrics(ctx, cfg.Metrics.Port)
	}

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		// Wait for server to shut down gracefully
		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error", "error", err)
			return err
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Server error", "error", err)
			return err
		}
		logger.Info("Server stopped")
	}

	return nil
}

// registerDrivers registers every configured resource driver. The object
// store is only registered when its section is present: it needs a bucket
// and has no usable default.
func registerDrivers(container *driver.Container, cfg *config.Config) error {
	if err := container.Register("mongo", driver.NewMongoDriver(), cfg.DriverOptions("mongo")); err != nil {
		return err
	}
	if err := container.Register("httpclient", driver.NewHTTPClientDriver(), cfg.DriverOptions("httpclient")); err != nil {
		return err
	}
	if err := container.Register("cachestore", driver.NewCacheStoreDriver(), cfg.DriverOptions("cachestore")); err != nil {
		return err
	}
	if _, ok := cfg.Drivers["objectstore"]; ok {
		if err := container.Register("objectstore", driver.NewObjectStoreDriver(), cfg.DriverOptions("objectstore")); err != nil {
			return err
		}
	}
	return nil
}

// warmDriver forces initialization of a named driver and records the
// outcome, returning the typed instance.
func warmDriver[T any](ctx context.Context, container *driver.Container, dm *metrics.DriverMetrics, name string) (T, error) {
	var zero T

	start := time.Now()
	inst, err := container.GetInstance(ctx, name)
	dm.RecordInit(name, time.Since(start), err)
	if err != nil {
		return zero, err
	}

	typed, ok := inst.(T)
	if !ok {
		return zero, fmt.Errorf("driver %q returned unexpected instance type %T", name, inst)
	}
	return typed, nil
}

// serveMetrics runs the Prometheus scrape endpoint until the context is
// cancelled.
func serveMetrics(ctx context.Context, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Metrics server listening", "port", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Metrics server failed", "error", err)
	}
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
