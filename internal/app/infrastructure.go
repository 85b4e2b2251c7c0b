// Package app assembles casetrack's stores, side channels and services from
// configuration. The API server, the worker and the CLI all build on it.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/casetrack/internal/application/casetracking"
	"github.com/turtacn/casetrack/internal/config"
	"github.com/turtacn/casetrack/internal/domain/sla"
	"github.com/turtacn/casetrack/internal/infrastructure/database/postgres"
	"github.com/turtacn/casetrack/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/casetrack/internal/infrastructure/database/redis"
	"github.com/turtacn/casetrack/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/casetrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/casetrack/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/casetrack/internal/infrastructure/search/opensearch"
	"github.com/turtacn/casetrack/internal/infrastructure/storage/minio"
	"github.com/turtacn/casetrack/internal/interfaces/http/handlers"
)

// Infrastructure holds the clients of one process. Optional collaborators
// are nil when disabled in config.
type Infrastructure struct {
	DB    *postgres.Connection
	Pool  *pgxpool.Pool
	Redis *redis.Client
	Cache *redis.Cache

	Producer  *kafka.Producer
	Publisher *kafka.EventPublisher

	Search   *opensearch.Client
	Indexer  *opensearch.Indexer
	Searcher *opensearch.Searcher

	Storage *minio.MinIOClient
	Objects minio.ObjectStorageRepository

	Collector prometheus.MetricsCollector
	Metrics   *prometheus.SLAMetrics

	cfg    *config.Config
	logger logging.Logger
}

// Open connects every enabled collaborator. service labels the metrics.
// On failure everything opened so far is closed again.
func Open(ctx context.Context, cfg *config.Config, service string, logger logging.Logger) (*Infrastructure, error) {
	infra := &Infrastructure{cfg: cfg, logger: logger}
	if err := infra.open(ctx, service); err != nil {
		infra.Close()
		return nil, err
	}
	logger.Info("Infrastructure initialized",
		logging.String("service", service),
		logging.Bool("redis", infra.Redis != nil),
		logging.Bool("kafka", infra.Producer != nil),
		logging.Bool("opensearch", infra.Search != nil),
		logging.Bool("minio", infra.Storage != nil),
		logging.Bool("metrics", infra.Metrics != nil))
	return infra, nil
}

func (i *Infrastructure) open(ctx context.Context, service string) error {
	cfg := i.cfg
	pgCfg := postgres.FromConfig(cfg.Database)

	db, err := postgres.NewConnection(pgCfg, i.logger.Named("postgres"))
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	i.DB = db

	pool, err := postgres.NewPool(ctx, pgCfg, i.logger.Named("pgx"))
	if err != nil {
		return fmt.Errorf("pgx pool: %w", err)
	}
	i.Pool = pool

	if cfg.Redis.Enabled {
		rc, err := redis.NewClient(cfg.Redis, i.logger.Named("redis"))
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		i.Redis = rc
		i.Cache = redis.NewCache(rc, i.logger.Named("cache"))
	}

	if cfg.Kafka.Enabled {
		p, err := kafka.NewProducer(cfg.Kafka, i.logger.Named("kafka"))
		if err != nil {
			return fmt.Errorf("kafka: %w", err)
		}
		i.Producer = p
		i.Publisher = kafka.NewEventPublisher(p, cfg.Kafka, i.logger.Named("events"))
	}

	if cfg.OpenSearch.Enabled {
		sc, err := opensearch.NewClient(ctx, cfg.OpenSearch, i.logger.Named("opensearch"))
		if err != nil {
			return fmt.Errorf("opensearch: %w", err)
		}
		i.Search = sc
		i.Indexer = opensearch.NewIndexer(sc, cfg.OpenSearch, i.logger.Named("indexer"))
		if err := i.Indexer.EnsureIndex(ctx); err != nil {
			return fmt.Errorf("opensearch index: %w", err)
		}
		i.Searcher = opensearch.NewSearcher(sc, i.Indexer.Index(), i.logger.Named("searcher"))
	}

	if cfg.MinIO.Enabled {
		mc, err := minio.NewMinIOClient(ctx, cfg.MinIO, i.logger.Named("minio"))
		if err != nil {
			return fmt.Errorf("minio: %w", err)
		}
		i.Storage = mc
		if err := mc.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("minio bucket: %w", err)
		}
		i.Objects = minio.NewObjectStorageRepository(mc, i.logger.Named("objects"))
	}

	if cfg.Metrics.Enabled {
		col, err := prometheus.NewMetricsCollector(prometheus.CollectorConfigFrom(cfg.Metrics, service), i.logger.Named("metrics"))
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		i.Collector = col
		i.Metrics = prometheus.NewSLAMetrics(col)
	}
	return nil
}

// Options returns the service ports backed by the enabled collaborators.
func (i *Infrastructure) Options() []casetracking.Option {
	var opts []casetracking.Option
	if i.Cache != nil {
		opts = append(opts, casetracking.WithCache(i.Cache, i.cfg.Redis.DashboardTTL))
	}
	if i.Publisher != nil {
		opts = append(opts, casetracking.WithPublisher(i.Publisher))
	}
	if i.Indexer != nil {
		opts = append(opts, casetracking.WithIndexer(i.Indexer))
	}
	if i.Metrics != nil {
		opts = append(opts, casetracking.WithMetrics(i.Metrics))
	}
	return opts
}

// Services are the application services of one process.
type Services struct {
	Cases     casetracking.CaseService
	Workflows casetracking.WorkflowService
	// Exports is nil when object storage is disabled.
	Exports casetracking.ExportService
}

// Services builds the application services over the postgres stores.
func (i *Infrastructure) Services(clock sla.Clock) *Services {
	caseRepo := repositories.NewPostgresCaseRepo(i.DB, i.logger.Named("case_repo"))
	stepRepo := repositories.NewWorkflowRepository(i.Pool, i.logger.Named("workflow_repo"))
	opts := i.Options()

	s := &Services{
		Cases:     casetracking.NewCaseService(caseRepo, clock, i.logger, opts...),
		Workflows: casetracking.NewWorkflowService(stepRepo, clock, casetracking.TemplatesFromConfig(i.cfg.SLA.Templates), i.logger, opts...),
	}
	if i.Objects != nil {
		s.Exports = casetracking.NewExportService(caseRepo, clock, i.Objects, i.logger)
	}
	return s
}

// HealthCheckers returns one readiness check per connected store.
func (i *Infrastructure) HealthCheckers() []handlers.HealthChecker {
	checks := []handlers.HealthChecker{handlers.CheckFunc("postgres", i.DB.HealthCheck)}
	if i.Redis != nil {
		checks = append(checks, handlers.CheckFunc("redis", i.Redis.HealthCheck))
	}
	if i.Search != nil {
		checks = append(checks, handlers.CheckFunc("opensearch", i.Search.HealthCheck))
	}
	if i.Storage != nil {
		checks = append(checks, handlers.CheckFunc("minio", i.Storage.HealthCheck))
	}
	return checks
}

// Close releases every opened client, newest first.
func (i *Infrastructure) Close() {
	if i.Storage != nil {
		_ = i.Storage.Close()
	}
	if i.Producer != nil {
		if err := i.Producer.Close(); err != nil {
			i.logger.Warn("Kafka producer close failed", logging.Err(err))
		}
	}
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
	if i.Pool != nil {
		i.Pool.Close()
	}
	if i.DB != nil {
		_ = i.DB.Close()
	}
}

// Clock returns the wall clock in the configured SLA timezone.
func Clock(cfg *config.Config) (sla.Clock, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return sla.SystemClock{Location: loc}, nil
}

//Personal.AI order the ending
