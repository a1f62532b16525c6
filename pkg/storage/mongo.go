// Package storage provides the MongoDB document store the pipeline loads into
package storage

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mirrorkit/filterlists-etl/pkg/errors"
)

// serverSelectionTimeout bounds how long Connect waits for a reachable server.
const serverSelectionTimeout = 5 * time.Second

// MongoStore is a document store backed by a single MongoDB database.
// The client is created once at startup and reused for all writes.
type MongoStore struct {
	client   *mongo.Client
	database *mongo.Database
	logger   *zap.Logger
}

// Connect establishes the MongoDB connection and verifies the server is
// reachable. A failure here is fatal for the whole run: without storage no
// endpoint can make progress.
func Connect(ctx context.Context, uri, database string, logger *zap.Logger) (*MongoStore, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(serverSelectionTimeout)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to connect to MongoDB")
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to ping MongoDB")
	}

	db := client.Database(database)

	log := logger.With(zap.String("component", "mongo_store"))

	var buildInfo bson.M
	if err := db.RunCommand(ctx, bson.D{{Key: "buildInfo", Value: 1}}).Decode(&buildInfo); err != nil {
		log.Warn("failed to get server build info", zap.Error(err))
	} else if version, ok := buildInfo["version"].(string); ok {
		log.Info("connected to MongoDB", zap.String("version", version), zap.String("database", database))
	}

	return &MongoStore{
		client:   client,
		database: db,
		logger:   log,
	}, nil
}

// InsertMany performs a single bulk insert into the named collection and
// returns the assigned document identifiers. The insert is all-or-nothing
// per call; no retry happens at this layer.
func (s *MongoStore) InsertMany(ctx context.Context, collection string, docs []map[string]interface{}) ([]interface{}, error) {
	payload := make([]interface{}, len(docs))
	for i, doc := range docs {
		payload[i] = doc
	}

	result, err := s.database.Collection(collection).InsertMany(ctx, payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeStorage, "bulk insert failed").
			WithDetail("collection", collection).
			WithDetail("documents", len(docs))
	}

	return result.InsertedIDs, nil
}

// Close disconnects the client
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
