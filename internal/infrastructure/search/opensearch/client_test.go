package opensearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	opensearchgo "github.com/opensearch-project/opensearch-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/casetrack/internal/config"
	"github.com/turtacn/casetrack/internal/testutil"
	apperrors "github.com/turtacn/casetrack/pkg/errors"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	osClient, err := opensearchgo.NewClient(opensearchgo.Config{Addresses: []string{url}})
	require.NoError(t, err)
	return NewClientWithOpenSearch(osClient, testutil.NewMockLogger())
}

func newStatusServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(context.Background(), config.OpenSearchConfig{}, testutil.NewMockLogger())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	srv := newStatusServer(t, http.StatusOK)
	c, err := NewClient(context.Background(), config.OpenSearchConfig{Addresses: []string{srv.URL}}, testutil.NewMockLogger())
	require.NoError(t, err)
	assert.True(t, c.IsHealthy())
	assert.NotNil(t, c.GetClient())
}

func TestNewClient_PingFails(t *testing.T) {
	srv := newStatusServer(t, http.StatusUnauthorized)
	_, err := NewClient(context.Background(), config.OpenSearchConfig{Addresses: []string{srv.URL}}, testutil.NewMockLogger())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSearchError))
}

func TestPing_TracksHealth(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	require.NoError(t, c.HealthCheck(context.Background()))
	assert.True(t, c.IsHealthy())

	status.Store(http.StatusForbidden)
	require.Error(t, c.Ping(context.Background()))
	assert.False(t, c.IsHealthy())
}

func TestPing_Unreachable(t *testing.T) {
	srv := newStatusServer(t, http.StatusOK)
	url := srv.URL
	srv.Close()

	log := testutil.NewMockLogger()
	osClient, err := opensearchgo.NewClient(opensearchgo.Config{Addresses: []string{url}, DisableRetry: true})
	require.NoError(t, err)
	c := NewClientWithOpenSearch(osClient, log)

	assert.Error(t, c.Ping(context.Background()))
	assert.True(t, log.HasMessage("warn", "OpenSearch ping failed"))
}

//Personal.AI order the ending
