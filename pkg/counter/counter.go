// Package counter talks to the comment service's article counter endpoint.
package counter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dtnitsch/blog-pulse/models"
	"github.com/dtnitsch/blog-pulse/pkg/clock"
	"github.com/dtnitsch/blog-pulse/pkg/fetcher"
)

const (
	DefaultRetries     = 2
	DefaultBaseBackoff = time.Second
	DefaultMaxBackoff  = 5 * time.Second
)

// ErrMalformed is returned when the service answers 2xx with a body that
// does not hold one count per requested path.
var ErrMalformed = errors.New("malformed counter response")

// Config describes the counting service.
type Config struct {
	BaseURL     string
	CountType   string
	Lang        string
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// Client fetches view counts for batches of paths.
type Client struct {
	cfg     Config
	fetcher *fetcher.Fetcher
	clock   clock.Clock
	logger  zerolog.Logger
}

func NewClient(cfg Config, f *fetcher.Fetcher, clk clock.Clock, logger zerolog.Logger) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.CountType == "" {
		cfg.CountType = "time"
	}
	if cfg.Lang == "" {
		cfg.Lang = "en-US"
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = DefaultBaseBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}
	if cfg.MaxBackoff < cfg.BaseBackoff {
		cfg.MaxBackoff = cfg.BaseBackoff
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if f == nil {
		f = fetcher.NewFetcher(fetcher.Options{Accept: "application/json"})
	}
	return &Client{
		cfg:     cfg,
		fetcher: f,
		clock:   clk,
		logger:  logger.With().Str("component", "counter").Logger(),
	}
}

// Backoff returns the delay before retry i (0-based): min(base*2^i, max).
func (c *Client) Backoff(i int) time.Duration {
	d := c.cfg.BaseBackoff
	for n := 0; n < i; n++ {
		d *= 2
		if d >= c.cfg.MaxBackoff {
			return c.cfg.MaxBackoff
		}
	}
	if d > c.cfg.MaxBackoff {
		return c.cfg.MaxBackoff
	}
	return d
}

// RequestURL builds the counter URL for paths.
func (c *Client) RequestURL(paths []string) string {
	q := url.Values{}
	q.Set("path", strings.Join(paths, ","))
	q.Set("type", c.cfg.CountType)
	q.Set("lang", c.cfg.Lang)
	return c.cfg.BaseURL + "/api/article?" + q.Encode()
}

// FetchCounts requests counts for paths in one call, retrying up to retries
// times with exponential backoff. It never returns an error: failures are
// described in the result. An empty path list succeeds without a request.
func (c *Client) FetchCounts(ctx context.Context, paths []string, retries int) models.AggregationResult {
	if len(paths) == 0 {
		return models.AggregationResult{Success: true, Total: 0, PerPath: map[string]int{}}
	}
	if retries < 0 {
		retries = 0
	}

	var lastErr error
	attempts := 0
	for i := 0; i <= retries; i++ {
		attempts++
		perPath, err := c.fetchOnce(ctx, paths)
		if err == nil {
			total := 0
			for _, n := range perPath {
				total += n
			}
			return models.AggregationResult{Success: true, Total: total, PerPath: perPath, Attempts: attempts}
		}
		lastErr = err

		if i == retries || ctx.Err() != nil {
			break
		}
		delay := c.Backoff(i)
		c.logger.Warn().
			Err(err).
			Int("paths", len(paths)).
			Int("attempt", attempts).
			Int("max_retries", retries).
			Dur("delay", delay).
			Msg("Counter request failed, waiting before retry")
		if err := c.clock.Sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
	}

	c.logger.Error().Err(lastErr).Int("paths", len(paths)).Int("attempts", attempts).Msg("Counter request gave up")
	return models.AggregationResult{
		Success:  false,
		Attempts: attempts,
		Error: &models.ErrorInfo{
			Type:     errorType(lastErr),
			Message:  lastErr.Error(),
			Attempts: attempts,
		},
	}
}

type articleResponse struct {
	Data []struct {
		Time *float64 `json:"time"`
	} `json:"data"`
}

func (c *Client) fetchOnce(ctx context.Context, paths []string) (map[string]int, error) {
	body, err := c.fetcher.GetBytes(ctx, c.RequestURL(paths))
	if err != nil {
		return nil, err
	}

	var resp articleResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(resp.Data) < len(paths) {
		return nil, fmt.Errorf("%w: got %d counts for %d paths", ErrMalformed, len(resp.Data), len(paths))
	}

	perPath := make(map[string]int, len(paths))
	for i, p := range paths {
		n := 0
		if t := resp.Data[i].Time; t != nil && *t > 0 {
			n = int(*t)
		}
		perPath[p] += n
	}
	return perPath, nil
}

func errorType(err error) string {
	switch {
	case errors.Is(err, ErrMalformed):
		return "malformed_response"
	case errors.Is(err, fetcher.ErrStatus):
		return "bad_status"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "network_error"
	}
}
