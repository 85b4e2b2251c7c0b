package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/casetrack/internal/config"
	"github.com/turtacn/casetrack/internal/domain/sla"
	"github.com/turtacn/casetrack/internal/infrastructure/database/redis"
	"github.com/turtacn/casetrack/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/casetrack/internal/testutil"
)

func TestClock(t *testing.T) {
	cfg := config.Default()
	cfg.SLA.Timezone = "Europe/Berlin"

	clock, err := Clock(cfg)
	require.NoError(t, err)
	sc, ok := clock.(sla.SystemClock)
	require.True(t, ok)
	assert.Equal(t, "Europe/Berlin", sc.Location.String())

	cfg.SLA.Timezone = "Mars/Olympus"
	_, err = Clock(cfg)
	assert.Error(t, err)
}

func TestInfrastructure_OptionsFollowEnabledCollaborators(t *testing.T) {
	cfg := config.Default()
	infra := &Infrastructure{cfg: cfg, logger: testutil.NewMockLogger()}
	assert.Empty(t, infra.Options())

	mr := miniredis.RunT(t)
	rc, err := redis.NewClient(config.RedisConfig{Addr: mr.Addr()}, testutil.NewMockLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })
	infra.Redis = rc
	infra.Cache = redis.NewCache(rc, testutil.NewMockLogger())

	col, err := prometheus.NewMetricsCollector(prometheus.CollectorConfigFrom(cfg.Metrics, "test"), testutil.NewMockLogger())
	require.NoError(t, err)
	infra.Collector = col
	infra.Metrics = prometheus.NewSLAMetrics(col)

	assert.Len(t, infra.Options(), 2)

	checks := infra.HealthCheckers()
	require.Len(t, checks, 2)
	assert.Equal(t, "postgres", checks[0].Name())
	assert.Equal(t, "redis", checks[1].Name())
	assert.NoError(t, checks[1].Check(context.Background()))

	mr.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.Error(t, checks[1].Check(ctx))
}

func TestNewMigrator(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Host = "db.internal"
	cfg.Database.MigrationPath = "/srv/migrations"

	m := NewMigrator(cfg.Database)
	assert.Contains(t, m.url, "postgres://")
	assert.Contains(t, m.url, "db.internal")
	assert.Equal(t, "/srv/migrations", m.dir)
}

//Personal.AI order the ending
