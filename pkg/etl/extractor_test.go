package etl

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubFetcher serves canned results keyed by URL and records call order.
type stubFetcher struct {
	responses map[string]FetchResult
	calls     []string
}

func (s *stubFetcher) FetchJSON(_ context.Context, rawURL string, _ url.Values) FetchResult {
	s.calls = append(s.calls, rawURL)
	if result, ok := s.responses[rawURL]; ok {
		return result
	}
	return EmptyResult()
}

func newTestExtractor(fetcher JSONFetcher) *Extractor {
	e := NewExtractor(fetcher, "https://api.example.com/", zap.NewNop())
	e.detailDelay = 0
	return e
}

func TestExtract_Sequence(t *testing.T) {
	fetcher := &stubFetcher{responses: map[string]FetchResult{
		"https://api.example.com/tags": {Value: []interface{}{
			map[string]interface{}{"id": float64(1), "name": "ads"},
			map[string]interface{}{"id": float64(2), "name": "privacy"},
		}, OK: true},
	}}

	records := newTestExtractor(fetcher).Extract(context.Background(), "/tags")
	require.Len(t, records, 2)
	assert.Equal(t, "ads", records[0]["name"])
	assert.Equal(t, "privacy", records[1]["name"])
}

func TestExtract_WrappedSequence(t *testing.T) {
	fetcher := &stubFetcher{responses: map[string]FetchResult{
		"https://api.example.com/syntaxes": {Value: map[string]interface{}{
			"data": []interface{}{map[string]interface{}{"name": "adblock"}},
		}, OK: true},
	}}

	records := newTestExtractor(fetcher).Extract(context.Background(), "/syntaxes")
	require.Len(t, records, 1)
	assert.Equal(t, "adblock", records[0]["name"])
}

func TestExtract_SingleObject(t *testing.T) {
	fetcher := &stubFetcher{responses: map[string]FetchResult{
		"https://api.example.com/about": {Value: map[string]interface{}{"version": "2"}, OK: true},
	}}

	records := newTestExtractor(fetcher).Extract(context.Background(), "/about")
	require.Len(t, records, 1)
	assert.Equal(t, "2", records[0]["version"])
}

func TestExtract_ExhaustedFetchIsEmpty(t *testing.T) {
	fetcher := &stubFetcher{responses: map[string]FetchResult{}}

	records := newTestExtractor(fetcher).Extract(context.Background(), "/tags")
	assert.Empty(t, records)
}

func TestExtract_ListsDetailReplacesItem(t *testing.T) {
	fetcher := &stubFetcher{responses: map[string]FetchResult{
		"https://api.example.com/lists": {Value: []interface{}{
			map[string]interface{}{"id": float64(42), "name": "list view"},
		}, OK: true},
		"https://api.example.com/lists/42": {Value: map[string]interface{}{
			"id":   float64(42),
			"name": "X",
		}, OK: true},
	}}

	records := newTestExtractor(fetcher).Extract(context.Background(), "/lists")
	require.Len(t, records, 1)
	assert.Equal(t, "X", records[0]["name"])
}

func TestExtract_ListsDetailFailureFallsBack(t *testing.T) {
	fetcher := &stubFetcher{responses: map[string]FetchResult{
		"https://api.example.com/lists": {Value: []interface{}{
			map[string]interface{}{"id": float64(42), "name": "list view"},
		}, OK: true},
		// No detail response configured: the detail fetch degrades to empty.
	}}

	records := newTestExtractor(fetcher).Extract(context.Background(), "/lists")
	require.Len(t, records, 1)
	assert.Equal(t, "list view", records[0]["name"])
}

func TestExtract_ListsMissingIDKeptAsIs(t *testing.T) {
	fetcher := &stubFetcher{responses: map[string]FetchResult{
		"https://api.example.com/lists": {Value: []interface{}{
			map[string]interface{}{"name": "no id"},
		}, OK: true},
	}}

	records := newTestExtractor(fetcher).Extract(context.Background(), "/lists")
	require.Len(t, records, 1)
	assert.Equal(t, "no id", records[0]["name"])

	// Only the list view was fetched, no detail call.
	assert.Equal(t, []string{"https://api.example.com/lists"}, fetcher.calls)
}

func TestExtract_ListsFractionalIDKeptAsIs(t *testing.T) {
	fetcher := &stubFetcher{responses: map[string]FetchResult{
		"https://api.example.com/lists": {Value: []interface{}{
			map[string]interface{}{"id": float64(42.5), "name": "fractional"},
		}, OK: true},
	}}

	records := newTestExtractor(fetcher).Extract(context.Background(), "/lists")
	require.Len(t, records, 1)
	assert.Equal(t, "fractional", records[0]["name"])

	// A fractional id does not name a detail resource, so no detail URL
	// was derived from it.
	assert.Equal(t, []string{"https://api.example.com/lists"}, fetcher.calls)
}

func TestExtract_ListsNonSequenceIsEmpty(t *testing.T) {
	fetcher := &stubFetcher{responses: map[string]FetchResult{
		"https://api.example.com/lists": {Value: map[string]interface{}{"oops": true}, OK: true},
	}}

	records := newTestExtractor(fetcher).Extract(context.Background(), "/lists")
	assert.Empty(t, records)
}

func TestExtract_ListsPreservesOrder(t *testing.T) {
	fetcher := &stubFetcher{responses: map[string]FetchResult{
		"https://api.example.com/lists": {Value: []interface{}{
			map[string]interface{}{"id": float64(1)},
			map[string]interface{}{"id": float64(2)},
			map[string]interface{}{"id": float64(3)},
		}, OK: true},
		"https://api.example.com/lists/1": {Value: map[string]interface{}{"id": float64(1), "rank": "a"}, OK: true},
		"https://api.example.com/lists/2": {Value: map[string]interface{}{"id": float64(2), "rank": "b"}, OK: true},
		"https://api.example.com/lists/3": {Value: map[string]interface{}{"id": float64(3), "rank": "c"}, OK: true},
	}}

	records := newTestExtractor(fetcher).Extract(context.Background(), "/lists")
	require.Len(t, records, 3)
	assert.Equal(t, "a", records[0]["rank"])
	assert.Equal(t, "b", records[1]["rank"])
	assert.Equal(t, "c", records[2]["rank"])
}
