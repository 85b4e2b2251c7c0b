package grpc

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/turtacn/casetrack/internal/config"
	"github.com/turtacn/casetrack/internal/testutil"
)

type flagChecker struct {
	name    string
	failing atomic.Bool
}

func (c *flagChecker) Name() string { return c.name }

func (c *flagChecker) Check(context.Context) error {
	if c.failing.Load() {
		return errors.New("down")
	}
	return nil
}

func startServer(t *testing.T, cfg config.GRPCConfig, checkers ...Checker) (*Server, healthpb.HealthClient) {
	t.Helper()
	srv, err := NewServer("127.0.0.1", cfg, testutil.NewMockLogger(), checkers...)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()
	t.Cleanup(func() {
		require.NoError(t, srv.Stop(context.Background()))
		assert.NoError(t, <-done)
	})

	conn, err := grpc.Dial(srv.Addr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return srv, healthpb.NewHealthClient(conn)
}

func servingStatus(t *testing.T, client healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.Status
}

func TestServer_HealthFollowsCheckers(t *testing.T) {
	db := &flagChecker{name: "postgres"}
	srv, client := startServer(t, config.GRPCConfig{Port: 0, CheckInterval: time.Hour}, db)

	require.Eventually(t, func() bool {
		return servingStatus(t, client, "") == healthpb.HealthCheckResponse_SERVING
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, servingStatus(t, client, ServiceName))

	db.failing.Store(true)
	srv.Refresh(context.Background())
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, servingStatus(t, client, ""))

	db.failing.Store(false)
	srv.Refresh(context.Background())
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, servingStatus(t, client, ServiceName))
}

func TestServer_PollerPicksUpFailures(t *testing.T) {
	db := &flagChecker{name: "redis"}
	_, client := startServer(t, config.GRPCConfig{Port: 0, CheckInterval: 20 * time.Millisecond}, db)

	require.Eventually(t, func() bool {
		return servingStatus(t, client, "") == healthpb.HealthCheckResponse_SERVING
	}, 2*time.Second, 10*time.Millisecond)

	db.failing.Store(true)
	require.Eventually(t, func() bool {
		return servingStatus(t, client, "") == healthpb.HealthCheckResponse_NOT_SERVING
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServer_UnknownService(t *testing.T) {
	_, client := startServer(t, config.GRPCConfig{Port: 0})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: "nope"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestServer_DoubleStartAndStopBeforeStart(t *testing.T) {
	srv, err := NewServer("127.0.0.1", config.GRPCConfig{Port: 0}, testutil.NewMockLogger())
	require.NoError(t, err)
	assert.NoError(t, srv.Stop(context.Background()))

	srv, _ = startServer(t, config.GRPCConfig{Port: 0})
	require.Eventually(t, func() bool {
		srv.mu.Lock()
		defer srv.mu.Unlock()
		return srv.started
	}, time.Second, 5*time.Millisecond)
	assert.Error(t, srv.Start())
}

func TestNewServer_PortInUse(t *testing.T) {
	srv, err := NewServer("127.0.0.1", config.GRPCConfig{Port: 0}, testutil.NewMockLogger())
	require.NoError(t, err)
	defer func() { _ = srv.Stop(context.Background()) }()

	_, portStr, err := net.SplitHostPort(srv.Addr())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	_, err = NewServer("127.0.0.1", config.GRPCConfig{Port: port}, testutil.NewMockLogger())
	assert.Error(t, err)
}

func TestRecoveryUnaryInterceptor(t *testing.T) {
	log := testutil.NewMockLogger()
	icpt := recoveryUnaryInterceptor(log)
	info := &grpc.UnaryServerInfo{FullMethod: "/casetrack.v1.CaseTracking/Boom"}

	_, err := icpt(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		panic("boom")
	})
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.True(t, log.HasMessage("error", "gRPC panic recovered"))

	resp, err := icpt(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
}

func TestLoggingUnaryInterceptor_SkipsHealthChecks(t *testing.T) {
	log := testutil.NewMockLogger()
	icpt := loggingUnaryInterceptor(log)
	ok := func(context.Context, interface{}) (interface{}, error) { return nil, nil }

	_, _ = icpt(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, ok)
	assert.False(t, log.HasMessage("info", "gRPC request"))

	_, _ = icpt(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/casetrack.v1.CaseTracking/Get"}, ok)
	assert.True(t, log.HasMessage("info", "gRPC request"))
}

//Personal.AI order the ending
