package etl

import (
	"context"

	"go.uber.org/zap"

	"github.com/mirrorkit/filterlists-etl/pkg/metrics"
)

// DocumentStore is the slice of the storage backend the loader needs:
// a single all-or-nothing bulk insert returning assigned identifiers.
type DocumentStore interface {
	InsertMany(ctx context.Context, collection string, docs []map[string]interface{}) ([]interface{}, error)
}

// Loader writes transformed document batches into their storage collection.
// Write failures are contained here: they are logged and counted but never
// propagate, so one bad batch cannot abort the rest of the run.
type Loader struct {
	store  DocumentStore
	logger *zap.Logger
}

// NewLoader creates a loader over the given store
func NewLoader(store DocumentStore, logger *zap.Logger) *Loader {
	return &Loader{
		store:  store,
		logger: logger.With(zap.String("component", "loader")),
	}
}

// Load bulk-inserts a batch into the named collection. An empty batch is a
// logged no-op. The insert is attempted exactly once; repeated runs append
// new documents with no identity-based overwrite.
func (l *Loader) Load(ctx context.Context, docs []Document, collection string) {
	if len(docs) == 0 {
		l.logger.Info("no documents to load", zap.String("collection", collection))
		return
	}

	ids, err := l.store.InsertMany(ctx, collection, docs)
	if err != nil {
		metrics.InsertFailures.WithLabelValues(collection).Inc()
		l.logger.Error("failed to insert documents",
			zap.String("collection", collection),
			zap.Int("documents", len(docs)),
			zap.Error(err))
		return
	}

	metrics.RecordsLoaded.WithLabelValues(collection).Add(float64(len(ids)))

	fields := []zap.Field{
		zap.String("collection", collection),
		zap.Int("inserted", len(ids)),
	}
	if len(ids) > 0 {
		fields = append(fields, zap.Any("sample_id", ids[0]))
	}
	l.logger.Info("inserted documents", fields...)
}
