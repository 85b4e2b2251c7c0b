// API server entry point for casetrack.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/casetrack/internal/app"
	"github.com/turtacn/casetrack/internal/config"
	"github.com/turtacn/casetrack/internal/infrastructure/monitoring/logging"
	grpcserver "github.com/turtacn/casetrack/internal/interfaces/grpc"
	httpserver "github.com/turtacn/casetrack/internal/interfaces/http"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "apiserver"
)

// Set through -ldflags at build time.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: cfg.Log.OutputPaths,
	})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logging.Sync(logger) }()

	logger.Info("Starting casetrack API server",
		logging.String("version", version),
		logging.Int("port", cfg.Server.Port))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	infra, err := app.Open(ctx, cfg, serviceName, logger)
	cancel()
	if err != nil {
		return err
	}
	defer infra.Close()

	clock, err := app.Clock(cfg)
	if err != nil {
		return err
	}
	services := infra.Services(clock)

	srv := httpserver.NewServer(cfg.Server, buildRouter(cfg, infra, services, logger), logger)

	if _, statErr := os.Stat(*configPath); statErr == nil {
		err := config.Watch(*configPath, func(next *config.Config) {
			if logging.SetLevel(logger, next.Log.Level) {
				logger.Info("Log level changed", logging.String("level", next.Log.Level))
			}
		}, func(err error) {
			logger.Warn("Config reload rejected", logging.Err(err))
		})
		if err != nil {
			logger.Warn("Config watch unavailable", logging.Err(err))
		}
	}

	var grpcSrv *grpcserver.Server
	if cfg.Server.GRPC.Enabled {
		var checkers []grpcserver.Checker
		for _, c := range infra.HealthCheckers() {
			checkers = append(checkers, c)
		}
		grpcSrv, err = grpcserver.NewServer(cfg.Server.Host, cfg.Server.GRPC, logger.Named("grpc"), checkers...)
		if err != nil {
			return err
		}
	}

	errCh := make(chan error, 2)
	go func() { errCh <- srv.Start() }()
	if grpcSrv != nil {
		go func() { errCh <- grpcSrv.Start() }()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("Shutdown signal received", logging.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	if grpcSrv != nil {
		if err := grpcSrv.Stop(context.Background()); err != nil {
			logger.Warn("gRPC server shutdown error", logging.Err(err))
		}
	}
	if err := srv.Stop(context.Background()); err != nil {
		logger.Error("HTTP server shutdown error", logging.Err(err))
		return err
	}
	logger.Info("API server stopped")
	return nil
}

// loadConfig reads path when it exists and falls back to environment
// variables and defaults otherwise.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: %s not found, using environment and defaults\n", path)
		return config.LoadFromEnv()
	}
	return config.Load(path)
}

//Personal.AI order the ending
