// Package opensearch keeps a search index of derived case snapshots.
package opensearch

import (
	"context"
	"crypto/tls"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"

	"github.com/turtacn/casetrack/internal/config"
	"github.com/turtacn/casetrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/casetrack/pkg/errors"
)

var (
	ErrInvalidConfig    = errors.New(errors.ErrCodeValidation, "opensearch addresses required")
	ErrConnectionFailed = errors.New(errors.ErrCodeSearchError, "opensearch connection failed")
)

const (
	defaultMaxRetries     = 3
	defaultRetryBackoff   = 100 * time.Millisecond
	defaultRequestTimeout = 30 * time.Second
)

// Client wraps the opensearch client with a cached health flag.
type Client struct {
	client  *opensearch.Client
	logger  logging.Logger
	healthy atomic.Bool
}

// NewClient connects to the configured cluster and pings it once.
func NewClient(ctx context.Context, cfg config.OpenSearchConfig, logger logging.Logger) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, ErrInvalidConfig
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost:   10,
		ResponseHeaderTimeout: defaultRequestTimeout,
	}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	osClient, err := opensearch.NewClient(opensearch.Config{
		Addresses:     cfg.Addresses,
		Username:      cfg.User,
		Password:      cfg.Password,
		MaxRetries:    defaultMaxRetries,
		RetryBackoff:  func(int) time.Duration { return defaultRetryBackoff },
		RetryOnStatus: []int{429, 502, 503, 504},
		Transport:     transport,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchError, "failed to create opensearch client")
	}

	c := NewClientWithOpenSearch(osClient, logger)
	if err := c.Ping(ctx); err != nil {
		return nil, ErrConnectionFailed.WithCause(err)
	}
	return c, nil
}

// NewClientWithOpenSearch wraps an existing client without pinging it.
func NewClientWithOpenSearch(osClient *opensearch.Client, logger logging.Logger) *Client {
	return &Client{client: osClient, logger: logger}
}

// Ping checks the cluster and updates the health flag.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.client.Ping(c.client.Ping.WithContext(ctx))
	if err != nil {
		c.healthy.Store(false)
		c.logger.Warn("OpenSearch ping failed", logging.Err(err))
		return err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		c.healthy.Store(false)
		c.logger.Warn("OpenSearch ping returned error status", logging.Int("status", resp.StatusCode))
		return errors.Newf(errors.ErrCodeSearchError, "ping returned status %d", resp.StatusCode)
	}
	c.healthy.Store(true)
	return nil
}

// HealthCheck is Ping for readiness probes.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.Ping(ctx)
}

// IsHealthy reports the result of the last ping.
func (c *Client) IsHealthy() bool {
	return c.healthy.Load()
}

func (c *Client) GetClient() *opensearch.Client {
	return c.client
}

//Personal.AI order the ending
