// Worker entry point for casetrack. It recomputes derived SLA fields on a
// schedule and on recompute-requested events, publishing escalations.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/turtacn/casetrack/internal/app"
	"github.com/turtacn/casetrack/internal/config"
	"github.com/turtacn/casetrack/internal/infrastructure/database/redis"
	"github.com/turtacn/casetrack/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/casetrack/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/casetrack/internal/interfaces/http"
	"github.com/turtacn/casetrack/internal/interfaces/http/handlers"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "worker"
	lockName          = "sla-recompute"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	interval := flag.Duration("interval", 0, "recompute interval (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *interval > 0 {
		cfg.Worker.RecomputeInterval = *interval
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

	logger.Info("Starting casetrack worker",
		logging.String("version", version),
		logging.Duration("interval", cfg.Worker.RecomputeInterval))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	openCtx, openCancel := context.WithTimeout(ctx, 30*time.Second)
	infra, err := app.Open(openCtx, cfg, serviceName, logger)
	openCancel()
	if err != nil {
		return err
	}
	defer infra.Close()

	clock, err := app.Clock(cfg)
	if err != nil {
		return err
	}
	services := infra.Services(clock)

	var lock app.Locker
	if infra.Redis != nil {
		lock = redis.NewMutex(infra.Redis, lockName, cfg.Worker.LockTTL, logger.Named("lock"),
			redis.WithWatchdog(cfg.Worker.LockTTL/3))
	} else {
		logger.Warn("Redis disabled, recompute runs unguarded; run a single worker replica")
	}
	scheduler := app.NewScheduler(services.Cases, lock, cfg.Worker.RecomputeInterval, logger)

	consumer, err := startConsumer(ctx, cfg, infra, scheduler, logger)
	if err != nil {
		return err
	}
	if consumer != nil {
		defer func() {
			if err := consumer.Close(); err != nil {
				logger.Warn("Kafka consumer close failed", logging.Err(err))
			}
		}()
	}

	health := startHealthServer(cfg, infra, logger)

	if _, statErr := os.Stat(*configPath); statErr == nil {
		err := config.Watch(*configPath, func(next *config.Config) {
			if logging.SetLevel(logger, next.Log.Level) {
				logger.Info("Log level changed", logging.String("level", next.Log.Level))
			}
			scheduler.SetInterval(next.Worker.RecomputeInterval)
		}, func(err error) {
			logger.Warn("Config reload rejected", logging.Err(err))
		})
		if err != nil {
			logger.Warn("Config watch unavailable", logging.Err(err))
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = scheduler.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("Shutdown signal received", logging.String("signal", sig.String()))

	cancel()
	wg.Wait()

	if err := health.Stop(context.Background()); err != nil {
		logger.Warn("Health server shutdown error", logging.Err(err))
	}
	logger.Info("Worker stopped")
	return nil
}

// startConsumer subscribes the scheduler to recompute requests. It returns
// nil when Kafka is disabled.
func startConsumer(ctx context.Context, cfg *config.Config, infra *app.Infrastructure, scheduler *app.Scheduler, logger logging.Logger) (*kafka.Consumer, error) {
	if infra.Producer == nil {
		return nil, nil
	}

	tm, err := kafka.NewTopicManager(cfg.Kafka.Brokers, logger.Named("topics"))
	if err != nil {
		return nil, fmt.Errorf("kafka topics: %w", err)
	}
	if err := tm.EnsureTopics(ctx, kafka.DefaultTopics(cfg.Kafka)); err != nil {
		logger.Warn("Failed to ensure kafka topics", logging.Err(err))
	}
	_ = tm.Close()

	consumer, err := kafka.NewConsumer(cfg.Kafka, []string{cfg.Kafka.RecomputeTopic}, infra.Producer, logger.Named("consumer"))
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.Subscribe(cfg.Kafka.RecomputeTopic, kafka.RecomputeHandler(scheduler.HandleRecomputeRequest))
	if err := consumer.Start(ctx); err != nil {
		_ = consumer.Close()
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// startHealthServer serves probes and /metrics on the worker health port.
func startHealthServer(cfg *config.Config, infra *app.Infrastructure, logger logging.Logger) *httpserver.Server {
	rc := httpserver.RouterConfig{
		HealthHandler: handlers.NewHealthHandler(version, infra.HealthCheckers()...),
	}
	if infra.Collector != nil {
		rc.MetricsHandle = infra.Collector.Handler()
	}

	srvCfg := cfg.Server
	srvCfg.Port = cfg.Worker.HealthPort
	srv := httpserver.NewServer(srvCfg, httpserver.NewRouter(rc), logger.Named("health"))
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("Health server error", logging.Err(err))
		}
	}()
	return srv
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: %s not found, using environment and defaults\n", path)
		return config.LoadFromEnv()
	}
	return config.Load(path)
}

//Personal.AI order the ending
