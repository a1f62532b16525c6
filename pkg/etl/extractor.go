package etl

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mirrorkit/filterlists-etl/pkg/metrics"
)

// ListsEndpoint is the one endpoint whose list view needs a secondary
// per-item detail fetch.
const ListsEndpoint = "/lists"

// detailFetchDelay paces consecutive detail fetches so the list extraction
// does not hammer the API.
const detailFetchDelay = 100 * time.Millisecond

// identifierKey is the field the list view exposes for the detail lookup.
const identifierKey = "id"

// JSONFetcher is the slice of the fetcher the extractor needs.
type JSONFetcher interface {
	FetchJSON(ctx context.Context, rawURL string, params url.Values) FetchResult
}

// Extractor pulls the raw record sequence for a configured endpoint.
// Extraction never fails: missing or malformed data degrades to empty or
// fallback values following the fetcher's own exhaustion semantics.
type Extractor struct {
	fetcher     JSONFetcher
	baseURL     string
	detailDelay time.Duration
	logger      *zap.Logger
}

// NewExtractor creates an extractor against the given API base URL
func NewExtractor(fetcher JSONFetcher, baseURL string, logger *zap.Logger) *Extractor {
	return &Extractor{
		fetcher:     fetcher,
		baseURL:     strings.TrimRight(baseURL, "/"),
		detailDelay: detailFetchDelay,
		logger:      logger.With(zap.String("component", "extractor")),
	}
}

// Extract fetches the endpoint's collection and returns its records in
// response order. The lists endpoint additionally fetches per-item details,
// replacing each list-view item with its richer detail record where one is
// available.
func (e *Extractor) Extract(ctx context.Context, endpoint string) []map[string]interface{} {
	e.logger.Info("extracting", zap.String("endpoint", endpoint))

	result := e.fetcher.FetchJSON(ctx, e.baseURL+endpoint, nil)
	if !result.OK {
		e.logger.Warn("no data returned", zap.String("endpoint", endpoint))
		return nil
	}

	var records []map[string]interface{}
	if endpoint == ListsEndpoint {
		records = e.extractLists(ctx, result.Value)
	} else {
		records, _ = ResolvePayload(result.Value)
	}

	metrics.RecordsExtracted.WithLabelValues(endpoint).Add(float64(len(records)))
	return records
}

// extractLists resolves the list view and enriches each item with a detail
// fetch. Items without an identifier are kept as-is; items whose detail
// fetch yields no data fall back to the list-view item rather than being
// dropped.
func (e *Extractor) extractLists(ctx context.Context, value interface{}) []map[string]interface{} {
	items, ok := value.([]interface{})
	if !ok {
		// The list view is always a sequence; anything else is empty.
		return nil
	}

	detailed := make([]map[string]interface{}, 0, len(items))
	for i, item := range items {
		rec, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		id, ok := numericID(rec[identifierKey])
		if !ok {
			detailed = append(detailed, rec)
			continue
		}

		detailURL := fmt.Sprintf("%s%s/%d", e.baseURL, ListsEndpoint, id)
		e.logger.Debug("fetching list detail", zap.Int64("id", id))

		result := e.fetcher.FetchJSON(ctx, detailURL, nil)
		if detail, ok := result.Value.(map[string]interface{}); result.OK && ok {
			detailed = append(detailed, detail)
		} else {
			detailed = append(detailed, rec)
		}

		if i < len(items)-1 {
			select {
			case <-ctx.Done():
				return detailed
			case <-time.After(e.detailDelay):
			}
		}
	}

	return detailed
}

// numericID extracts an integer identifier from a decoded JSON value.
// Non-integral numbers do not identify a detail resource and are rejected.
func numericID(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}
