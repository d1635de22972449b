package metoffice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/met-climate-etl/internal/domain"
	"github.com/couchcryptid/met-climate-etl/internal/observability"
	"github.com/sony/gobreaker"
)

// defaultMaxBodyBytes caps a dataset download. Published series are well
// under 1 MiB.
const defaultMaxBodyBytes = 16 << 20

// Client implements domain.Fetcher over plain HTTP GET.
type Client struct {
	httpClient   *http.Client
	userAgent    string
	maxBodyBytes int64
	breaker      *gobreaker.CircuitBreaker
	metrics      *observability.Metrics
	logger       *slog.Logger
}

// NewClient creates a dataset client. Each request is bounded by timeout.
// With maxFailures above zero, that many consecutive failures to reach the
// host open a circuit breaker and further fetches fail fast until it
// half-opens again. Zero disables the breaker.
func NewClient(timeout time.Duration, userAgent string, maxFailures int, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		userAgent:    userAgent,
		maxBodyBytes: defaultMaxBodyBytes,
		breaker:      newBreaker(maxFailures),
		metrics:      metrics,
		logger:       logger,
	}
}

// newBreaker returns nil when maxFailures is below one.
func newBreaker(maxFailures int) *gobreaker.CircuitBreaker {
	if maxFailures < 1 {
		return nil
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "metoffice",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures)
		},
	})
}

var errBodyTooLarge = errors.New("response body too large")

type response struct {
	status int
	body   string
	err    error
}

// Fetch downloads one candidate URL and classifies the outcome.
func (c *Client) Fetch(ctx context.Context, location string) domain.FetchResult {
	start := time.Now()
	res := c.fetch(ctx, location)
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	c.metrics.FetchAttempts.WithLabelValues(string(res.Outcome)).Inc()

	switch res.Outcome {
	case domain.OutcomeTransportError:
		c.logger.Warn("fetch failed", "url", location, "error", res.Err)
	case domain.OutcomeCircuitOpen:
		c.logger.Warn("fetch rejected", "url", location, "error", res.Err)
	case domain.OutcomeUnexpectedStatus:
		c.logger.Warn("unexpected status", "url", location, "status", res.Status)
	default:
		c.logger.Debug("fetch", "url", location, "outcome", res.Outcome, "status", res.Status)
	}
	return res
}

func (c *Client) fetch(ctx context.Context, location string) domain.FetchResult {
	result := domain.FetchResult{Location: location}

	r, err := c.guarded(ctx, location)
	if err != nil {
		result.Outcome = domain.OutcomeCircuitOpen
		result.Err = err
		return result
	}
	if r.err != nil {
		result.Outcome = domain.OutcomeTransportError
		result.Err = r.err
		return result
	}

	result.Status = r.status
	switch {
	case r.status == http.StatusNotFound:
		result.Outcome = domain.OutcomeNotFound
	case r.status != http.StatusOK:
		result.Outcome = domain.OutcomeUnexpectedStatus
	case strings.TrimSpace(r.body) == "":
		result.Outcome = domain.OutcomeEmpty
	default:
		result.Outcome = domain.OutcomeOK
		result.Body = r.body
	}
	return result
}

// guarded runs the request through the breaker when one is configured. Only
// failures to reach the host count against it; any HTTP status, a dropped
// connection or a cancelled caller do not. The returned error is set only
// when the breaker rejected the request.
func (c *Client) guarded(ctx context.Context, location string) (response, error) {
	if c.breaker == nil {
		return c.do(ctx, location), nil
	}

	var r response
	_, err := c.breaker.Execute(func() (interface{}, error) {
		r = c.do(ctx, location)
		if r.err != nil && ctx.Err() == nil && hostUnreachable(r.err) {
			return nil, r.err
		}
		return nil, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return response{}, err
	}
	return r, nil
}

// hostUnreachable reports whether err means the host could not be resolved
// or connected to.
func hostUnreachable(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func (c *Client) do(ctx context.Context, location string) response {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return response{err: fmt.Errorf("create request: %w", err)}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return response{err: fmt.Errorf("get %s: %w", location, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodyBytes))
		return response{status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return response{err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > c.maxBodyBytes {
		return response{err: fmt.Errorf("%w: %s exceeds %d bytes", errBodyTooLarge, location, c.maxBodyBytes)}
	}
	return response{status: resp.StatusCode, body: string(body)}
}
