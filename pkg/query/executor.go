package query

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/drinkscout/drinkscout/internal/logger"
)

// Executor runs an aggregation pipeline against a named collection. The
// engine is written against this interface so tests can substitute canned
// results for a live database.
type Executor interface {
	Aggregate(ctx context.Context, collection string, pipeline mongo.Pipeline) ([]bson.M, error)
}

// AggregateObserver receives the duration of each executed pipeline.
// Implemented by the metrics package; a nil observer disables observation.
type AggregateObserver interface {
	ObserveAggregate(collection string, elapsed time.Duration)
}

// MongoExecutor is the production Executor backed by a mongo database
// handle.
type MongoExecutor struct {
	db       *mongo.Database
	observer AggregateObserver
}

// NewMongoExecutor creates an executor over db. observer may be nil.
func NewMongoExecutor(db *mongo.Database, observer AggregateObserver) *MongoExecutor {
	return &MongoExecutor{db: db, observer: observer}
}

// Aggregate runs the pipeline and drains the cursor.
func (m *MongoExecutor) Aggregate(ctx context.Context, collection string, pipeline mongo.Pipeline) ([]bson.M, error) {
	start := time.Now()

	cursor, err := m.db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate on %q: %w", collection, err)
	}

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("drain aggregation cursor on %q: %w", collection, err)
	}

	elapsed := time.Since(start)
	logger.DebugCtx(ctx, "aggregation executed",
		logger.KeyCollection, collection,
		logger.KeyCount, len(docs),
		logger.KeyDurationMs, elapsed.Milliseconds())

	if m.observer != nil {
		m.observer.ObserveAggregate(collection, elapsed)
	}
	return docs, nil
}

// Find runs a plain filtered query. Used by catalog listings that need no
// aggregation pipeline. sort may be nil; limit <= 0 means unlimited.
func (m *MongoExecutor) Find(ctx context.Context, collection string, filter bson.D, sort bson.D, limit int64) ([]bson.M, error) {
	if filter == nil {
		filter = bson.D{}
	}
	findOpts := options.Find()
	if sort != nil {
		findOpts.SetSort(sort)
	}
	if limit > 0 {
		findOpts.SetLimit(limit)
	}

	cursor, err := m.db.Collection(collection).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("find on %q: %w", collection, err)
	}

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("drain find cursor on %q: %w", collection, err)
	}
	return docs, nil
}

// DecodeAll converts raw aggregation documents into typed values through a
// bson round trip.
func DecodeAll[T any](docs []bson.M) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		raw, err := bson.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encode document: %w", err)
		}
		var v T
		if err := bson.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}
