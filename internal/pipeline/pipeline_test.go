package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mirrorkit/filterlists-etl/pkg/etl"
)

type stubExtractor struct {
	records  map[string][]map[string]interface{}
	panicOn  string
	extracts []string
}

func (s *stubExtractor) Extract(_ context.Context, endpoint string) []map[string]interface{} {
	s.extracts = append(s.extracts, endpoint)
	if endpoint == s.panicOn {
		panic("extraction blew up")
	}
	return s.records[endpoint]
}

type stubTransformer struct{}

func (stubTransformer) Transform(records []map[string]interface{}, endpoint string) []etl.Document {
	docs := make([]etl.Document, 0, len(records))
	for i, rec := range records {
		docs = append(docs, etl.Document{"record_index": i + 1, "endpoint": endpoint, "data": rec})
	}
	return docs
}

type stubLoader struct {
	loads map[string][]etl.Document
}

func (s *stubLoader) Load(_ context.Context, docs []etl.Document, collection string) {
	if s.loads == nil {
		s.loads = make(map[string][]etl.Document)
	}
	s.loads[collection] = docs
}

func TestRun_ProcessesEndpointsInOrder(t *testing.T) {
	extractor := &stubExtractor{records: map[string][]map[string]interface{}{
		"/tags":      {{"name": "ads"}},
		"/languages": {{"name": "English"}},
	}}
	loader := &stubLoader{}

	p := New(extractor, stubTransformer{}, loader, zap.NewNop())
	err := p.Run(context.Background(), []string{"/tags", "/languages"})

	require.NoError(t, err)
	assert.Equal(t, []string{"/tags", "/languages"}, extractor.extracts)
	assert.Len(t, loader.loads["tags_raw"], 1)
	assert.Len(t, loader.loads["languages_raw"], 1)
}

func TestRun_FaultIsolation(t *testing.T) {
	extractor := &stubExtractor{
		panicOn: "/tags",
		records: map[string][]map[string]interface{}{
			"/languages": {{"name": "English"}},
		},
	}
	loader := &stubLoader{}

	p := New(extractor, stubTransformer{}, loader, zap.NewNop())
	err := p.Run(context.Background(), []string{"/tags", "/languages"})

	// The failing endpoint is contained; the next one is still processed.
	require.NoError(t, err)
	assert.Equal(t, []string{"/tags", "/languages"}, extractor.extracts)
	assert.NotContains(t, loader.loads, "tags_raw")
	assert.Len(t, loader.loads["languages_raw"], 1)
}

func TestRun_DefaultsToConfiguredEndpoints(t *testing.T) {
	extractor := &stubExtractor{}
	loader := &stubLoader{}

	p := New(extractor, stubTransformer{}, loader, zap.NewNop())
	err := p.Run(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, DefaultEndpoints, extractor.extracts)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	extractor := &stubExtractor{}
	p := New(extractor, stubTransformer{}, &stubLoader{}, zap.NewNop())

	err := p.Run(ctx, []string{"/tags"})
	assert.Error(t, err)
	assert.Empty(t, extractor.extracts)
}

func TestRun_EmptyExtractionStillLoadsNothing(t *testing.T) {
	extractor := &stubExtractor{}
	loader := &stubLoader{}

	p := New(extractor, stubTransformer{}, loader, zap.NewNop())
	err := p.Run(context.Background(), []string{"/syntaxes"})

	require.NoError(t, err)
	assert.Empty(t, loader.loads["syntaxes_raw"])
}
