// Package pipeline drives the extract-transform-load run across the
// configured catalog endpoints.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mirrorkit/filterlists-etl/pkg/etl"
	"github.com/mirrorkit/filterlists-etl/pkg/metrics"
)

// DefaultEndpoints is the full set of catalog resources mirrored when no
// explicit selection is given.
var DefaultEndpoints = []string{
	"/languages",
	"/licenses",
	"/maintainers",
	"/software",
	"/syntaxes",
	"/tags",
}

// endpointDelay paces endpoint processing to bound aggregate request rate.
const endpointDelay = 200 * time.Millisecond

// Extractor pulls the raw records for one endpoint.
type Extractor interface {
	Extract(ctx context.Context, endpoint string) []map[string]interface{}
}

// Transformer enriches raw records into storable documents.
type Transformer interface {
	Transform(records []map[string]interface{}, endpoint string) []etl.Document
}

// Loader writes a document batch into its collection.
type Loader interface {
	Load(ctx context.Context, docs []etl.Document, collection string)
}

// Pipeline runs endpoints strictly sequentially, isolating each endpoint's
// failures so one bad endpoint never aborts the rest of the run.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	loader      Loader
	logger      *zap.Logger
}

// New creates a pipeline over the given stages
func New(extractor Extractor, transformer Transformer, loader Loader, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		extractor:   extractor,
		transformer: transformer,
		loader:      loader,
		logger:      logger.With(zap.String("component", "pipeline")),
	}
}

// Run processes each endpoint in order: extract, transform, load. Endpoints
// default to the full configured list when none are given. Run only fails
// when the context is cancelled; per-endpoint errors are logged and skipped.
func (p *Pipeline) Run(ctx context.Context, endpoints []string) error {
	if len(endpoints) == 0 {
		endpoints = DefaultEndpoints
	}

	start := time.Now()
	p.logger.Info("starting run", zap.Strings("endpoints", endpoints))

	for i, endpoint := range endpoints {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run cancelled: %w", err)
		}

		p.processEndpoint(ctx, endpoint)

		if i < len(endpoints)-1 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("run cancelled: %w", ctx.Err())
			case <-time.After(endpointDelay):
			}
		}
	}

	p.logger.Info("run complete",
		zap.Int("endpoints", len(endpoints)),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// processEndpoint runs one endpoint through the full pipeline. Any panic
// during processing is recovered and logged with full context so the run
// continues with the next endpoint.
func (p *Pipeline) processEndpoint(ctx context.Context, endpoint string) {
	defer func() {
		if r := recover(); r != nil {
			metrics.EndpointFailures.WithLabelValues(endpoint).Inc()
			p.logger.Error("unhandled error processing endpoint",
				zap.String("endpoint", endpoint),
				zap.Any("error", r),
				zap.Stack("stacktrace"))
		}
	}()

	raw := p.extractor.Extract(ctx, endpoint)
	docs := p.transformer.Transform(raw, endpoint)
	collection := etl.CollectionName(endpoint)
	p.loader.Load(ctx, docs, collection)
}
