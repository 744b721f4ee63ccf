package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/bin-packer/internal/application"
	"github.com/eugenenazirov/bin-packer/internal/config"
	"github.com/eugenenazirov/bin-packer/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	overrides, err := parseFlags(os.Args[1:])
	kingpin.FatalIfError(err, "parse flags")

	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.String("storage", cfg.StorageBackend),
		zap.Bool("parallel_compare", cfg.ParallelCompare),
		zap.Int("max_request_items", cfg.MaxRequestItems),
	)

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

// parseFlags turns command-line flags into config overrides. Flags the user
// did not pass stay nil so lower-precedence sources still apply.
func parseFlags(args []string) (*config.CLIOverrides, error) {
	var (
		rpsSet, burstSet, parallelSet, itemsSet bool
	)

	app := kingpin.New("binpack-server", "Bin Packing Solver - packs weighted items into fixed-capacity bins over HTTP")
	configFile := app.Flag("config", "Path to YAML configuration file").String()
	port := app.Flag("port", "HTTP port exposed by the service").String()
	rateLimitRPS := app.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").IsSetByUser(&rpsSet).Float64()
	rateLimitBurst := app.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").IsSetByUser(&burstSet).Int()
	logLevel := app.Flag("log-level", "Log level (debug, info, warn, error)").String()
	storageBackend := app.Flag("storage", "Saved configuration backend").Enum(config.StorageMemory, config.StorageFile)
	configsDir := app.Flag("configs-dir", "Directory for the file storage backend").String()
	parallel := app.Flag("parallel-compare", "Run comparison strategies concurrently").IsSetByUser(&parallelSet).Bool()
	maxItems := app.Flag("max-items", "Maximum number of items accepted per request").IsSetByUser(&itemsSet).Int()

	if _, err := app.Parse(args); err != nil {
		return nil, err
	}

	overrides := &config.CLIOverrides{
		ConfigFile:     *configFile,
		Port:           port,
		LogLevel:       logLevel,
		StorageBackend: storageBackend,
		ConfigsDir:     configsDir,
	}
	if rpsSet {
		overrides.RateLimitRPS = rateLimitRPS
	}
	if burstSet {
		overrides.RateLimitBurst = rateLimitBurst
	}
	if parallelSet {
		overrides.ParallelCompare = parallel
	}
	if itemsSet {
		overrides.MaxRequestItems = maxItems
	}
	return overrides, nil
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
