// Package etl implements the extract-transform-load core of the FilterLists
// catalog mirror: retry-aware JSON fetching, response shape resolution, the
// two-level list extraction, record enrichment, and per-collection loading.
package etl

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	gojson "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mirrorkit/filterlists-etl/pkg/errors"
	"github.com/mirrorkit/filterlists-etl/pkg/metrics"
)

// HTTPGetter is the slice of the HTTP client the fetcher needs.
type HTTPGetter interface {
	Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error)
}

// FetchResult carries a decoded JSON value or an explicit "unavailable"
// marker. Exhausted fetches yield an empty mapping with OK false so callers
// can apply fallbacks without treating exhaustion as an error.
type FetchResult struct {
	Value interface{}
	OK    bool
}

// EmptyResult returns the degraded result used when every attempt failed.
func EmptyResult() FetchResult {
	return FetchResult{Value: map[string]interface{}{}, OK: false}
}

// FetcherConfig bounds the fetcher's attempt loop. This is the upper retry
// tier; the HTTP client underneath retries transient statuses on its own and
// applies the request timeout to each of its tries, so one attempt here may
// span the client's full retry budget.
type FetcherConfig struct {
	// Attempts is the number of tries per fetch
	Attempts int
	// AttemptDelay is the fixed delay between attempts
	AttemptDelay time.Duration
}

// DefaultFetcherConfig returns the default attempt budget
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		Attempts:     3,
		AttemptDelay: 2 * time.Second,
	}
}

// Fetcher issues HTTP GET requests and decodes JSON bodies, degrading to an
// empty result when the attempt budget is exhausted.
type Fetcher struct {
	client HTTPGetter
	config FetcherConfig
	logger *zap.Logger
}

// NewFetcher creates a fetcher over the given HTTP client
func NewFetcher(client HTTPGetter, config FetcherConfig, logger *zap.Logger) *Fetcher {
	if config.Attempts <= 0 {
		config.Attempts = DefaultFetcherConfig().Attempts
	}
	return &Fetcher{
		client: client,
		config: config,
		logger: logger.With(zap.String("component", "fetcher")),
	}
}

// FetchJSON fetches a URL and decodes its JSON body. Attempts are separated
// by a fixed delay; the HTTP client bounds each of its own tries with the
// request timeout. When all attempts fail the exhaustion is logged at error
// level and an empty result is returned rather than an error; callers must
// treat it as "no data".
func (f *Fetcher) FetchJSON(ctx context.Context, rawURL string, params url.Values) FetchResult {
	target := rawURL
	if len(params) > 0 {
		target = rawURL + "?" + params.Encode()
	}

	for attempt := 1; attempt <= f.config.Attempts; attempt++ {
		value, err := f.fetchOnce(ctx, target)
		if err == nil {
			metrics.FetchAttempts.WithLabelValues("success").Inc()
			return FetchResult{Value: value, OK: true}
		}

		if isTimeout(err) {
			metrics.FetchAttempts.WithLabelValues("timeout").Inc()
			f.logger.Warn("timeout while fetching",
				zap.String("url", target),
				zap.Int("attempt", attempt),
				zap.Int("attempts", f.config.Attempts))
		} else {
			metrics.FetchAttempts.WithLabelValues("error").Inc()
			f.logger.Warn("error fetching",
				zap.String("url", target),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}

		if attempt < f.config.Attempts {
			select {
			case <-ctx.Done():
				metrics.FetchExhausted.Inc()
				f.logger.Error("fetch cancelled", zap.String("url", target), zap.Error(ctx.Err()))
				return EmptyResult()
			case <-time.After(f.config.AttemptDelay):
			}
		}
	}

	metrics.FetchExhausted.Inc()
	f.logger.Error("failed to fetch after all attempts; skipping",
		zap.String("url", target),
		zap.Int("attempts", f.config.Attempts))
	return EmptyResult()
}

// fetchOnce performs a single attempt
func (f *Fetcher) fetchOnce(ctx context.Context, target string) (interface{}, error) {
	start := time.Now()
	resp, err := f.client.Get(ctx, target, nil)
	metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, target)
	}

	var value interface{}
	if err := gojson.NewDecoder(resp.Body).Decode(&value); err != nil {
		return nil, fmt.Errorf("decoding response from %s: %w", target, err)
	}

	return value, nil
}

// isTimeout reports whether the error is a deadline or network timeout
func isTimeout(err error) bool {
	if errors.IsType(err, errors.ErrorTypeTimeout) {
		return true
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return stderrors.As(err, &netErr) && netErr.Timeout()
}
