// Package standings fetches the live league table.
package standings

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/okian/tipset/internal/domain/model"
	"github.com/okian/tipset/pkg/logger"
	"github.com/okian/tipset/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultTimeout       = 10 * time.Second
	defaultRatePerMinute = 6
	defaultCacheTTL      = time.Minute
	userAgent            = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Source yields the current standings.
type Source interface {
	Fetch(ctx context.Context) ([]model.Standing, error)
}

// Client reads the standings feed over HTTP. Concurrent callers share one
// upstream request and a fresh result is served from memory for the cache
// TTL.
type Client struct {
	url        string
	httpClient *http.Client
	timeout    time.Duration
	limiter    *rate.Limiter
	cacheTTL   time.Duration
	now        func() time.Time
	log        logger.Logger

	group singleflight.Group

	mu       sync.Mutex
	cached   []model.Standing
	cachedAt time.Time
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each upstream request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRatePerMinute caps upstream requests. Zero or less disables the cap.
func WithRatePerMinute(n int) Option {
	return func(c *Client) {
		if n <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
	}
}

// WithCacheTTL sets how long a fetched table is reused. Zero disables
// caching.
func WithCacheTTL(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.cacheTTL = d
		}
	}
}

// WithClock overrides the time source used for cache expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient creates a standings client for url.
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:        url,
		httpClient: &http.Client{},
		timeout:    defaultTimeout,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/defaultRatePerMinute), 1),
		cacheTTL:   defaultCacheTTL,
		now:        time.Now,
		log:        logger.Named("standings"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch implements Source.
func (c *Client) Fetch(ctx context.Context) ([]model.Standing, error) {
	if table, ok := c.fresh(); ok {
		metrics.RecordStandingsFetch("cached")
		return table, nil
	}

	// The shared fetch outlives any single caller; each caller only
	// stops waiting when its own context ends.
	ch := c.group.DoChan("standings", func() (interface{}, error) {
		if table, ok := c.fresh(); ok {
			return table, nil
		}
		return c.fetch(context.WithoutCancel(ctx))
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		res = singleflight.Result{Err: fmt.Errorf("standings fetch: %w", ctx.Err())}
	}
	v, err, shared := res.Val, res.Err, res.Shared
	if err != nil {
		metrics.RecordStandingsFetch("error")
		metrics.RecordErrorByComponent("standings", "fetch")
		c.log.Warn(ctx, "standings fetch failed", logger.String("url", c.url), logger.Error(err))
		return nil, err
	}
	table := v.([]model.Standing) //nolint:forcetypeassert // fetch only returns this type
	if shared {
		metrics.RecordStandingsFetch("cached")
	} else {
		metrics.RecordStandingsFetch("ok")
	}
	return clone(table), nil
}

func (c *Client) fresh() ([]model.Standing, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached == nil || c.cacheTTL == 0 || c.now().Sub(c.cachedAt) >= c.cacheTTL {
		return nil, false
	}
	return clone(c.cached), true
}

func (c *Client) fetch(ctx context.Context) ([]model.Standing, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("standings rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build standings request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Cache-Control", "no-cache")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.RecordStandingsFetchLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		return nil, fmt.Errorf("get standings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, ErrUpstreamStatus)
	}
	table, err := ParseFeed(resp.Body)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cached = table
	c.cachedAt = c.now()
	c.mu.Unlock()

	metrics.UpdateStandingsTeams(len(table))
	c.log.Debug(ctx, "standings fetched", logger.Int("teams", len(table)))
	return table, nil
}

func clone(in []model.Standing) []model.Standing {
	out := make([]model.Standing, len(in))
	copy(out, in)
	return out
}

// Static is a Source over a fixed table.
type Static []model.Standing

// Fetch implements Source.
func (s Static) Fetch(ctx context.Context) ([]model.Standing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return clone(s), nil
}

// LoadFile reads a saved copy of the feed.
func LoadFile(path string) (Static, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("open standings: %w", err)
	}
	defer f.Close()
	table, err := ParseFeed(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return Static(table), nil
}
