package connection

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/smartdevs17/passkey-playground/internal/config"
	"github.com/smartdevs17/passkey-playground/internal/metrics"
	"github.com/smartdevs17/passkey-playground/pkg/utils"
)

// Commitment levels in increasing order of finality
const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"
)

var commitmentRank = map[string]int{
	CommitmentProcessed: 1,
	CommitmentConfirmed: 2,
	CommitmentFinalized: 3,
}

// RetryConfig controls how failed RPC calls are retried
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	JitterFactor   float64
}

// DefaultRetryConfig is used when the configuration leaves retries unset
var DefaultRetryConfig = RetryConfig{
	MaxRetries:     3,
	InitialBackoff: time.Second,
	MaxBackoff:     15 * time.Second,
	BackoffFactor:  2.0,
	JitterFactor:   0.2,
}

// Client talks JSON-RPC to a Solana cluster
type Client struct {
	rpc             *rpc.Client
	endpoint        string
	commitment      string
	confirmInterval time.Duration
	retry           RetryConfig
	limiter         *rate.Limiter
	metricsManager  *metrics.Manager
	logger          *logrus.Entry
}

// NewClient dials the configured RPC endpoint
func NewClient(cfg *config.SolanaConfig, metricsManager *metrics.Manager) (*Client, error) {
	if cfg.RPCURL == "" {
		return nil, utils.NewAppError(utils.ErrCodeConfiguration, "RPC URL is required", "")
	}

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	rpcClient, err := rpc.DialHTTPWithClient(cfg.RPCURL, httpClient)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeConnection, "Failed to create RPC client", err.Error())
	}

	retry := DefaultRetryConfig
	if cfg.RetryAttempts > 0 {
		retry.MaxRetries = cfg.RetryAttempts
	}
	if cfg.RetryDelay > 0 {
		retry.InitialBackoff = cfg.RetryDelay
	}
	if cfg.MaxRetryDelay > 0 {
		retry.MaxBackoff = cfg.MaxRetryDelay
	}

	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}

	commitment := cfg.Commitment
	if _, ok := commitmentRank[commitment]; !ok {
		commitment = CommitmentConfirmed
	}

	interval := cfg.ConfirmInterval
	if interval <= 0 {
		interval = time.Second
	}

	return &Client{
		rpc:             rpcClient,
		endpoint:        cfg.RPCURL,
		commitment:      commitment,
		confirmInterval: interval,
		retry:           retry,
		limiter:         rate.NewLimiter(limit, 1),
		metricsManager:  metricsManager,
		logger:          utils.ComponentLogger("rpc").WithField("endpoint", cfg.RPCURL),
	}, nil
}

// Close shuts down the underlying transport
func (c *Client) Close() {
	c.rpc.Close()
}

// call performs one RPC method with rate limiting and retries
func (c *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.backoff(attempt - 1)
			c.logger.WithFields(logrus.Fields{
				"method":  method,
				"attempt": attempt,
				"backoff": backoff,
			}).Debug("Retrying RPC call")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		start := time.Now()
		err := c.rpc.CallContext(ctx, result, method, args...)
		c.record(method, err, time.Since(start))
		if err == nil {
			return nil
		}

		lastErr = err
		if !isRetryable(ctx, err) {
			break
		}
	}

	return lastErr
}

// backoff computes the exponential delay before a retry, with jitter
func (c *Client) backoff(attempt int) time.Duration {
	backoff := float64(c.retry.InitialBackoff) * math.Pow(c.retry.BackoffFactor, float64(attempt))
	if backoff > float64(c.retry.MaxBackoff) {
		backoff = float64(c.retry.MaxBackoff)
	}

	jitter := (rand.Float64()*2 - 1) * c.retry.JitterFactor * backoff
	return time.Duration(backoff + jitter)
}

func (c *Client) record(method string, err error, duration time.Duration) {
	if c.metricsManager == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.metricsManager.GetPrometheusMetrics().RecordRPCRequest(method, status, duration)
}

// isRetryable reports whether a failed call may succeed on another attempt
func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.ErrorCode() {
		case -32004, // block not available for slot
			-32005, // node is behind
			-32014: // block status not yet available
			return true
		}
		return false
	}

	// Transport failure (timeout, connection reset)
	return true
}
