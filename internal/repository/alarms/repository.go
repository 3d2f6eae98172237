package alarms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/pablo-flores/wa-3fecta/internal/config"
	"github.com/pablo-flores/wa-3fecta/internal/domain/alarm"
	"github.com/pablo-flores/wa-3fecta/internal/logger"
)

// Repository reads alarms from a MongoDB collection.
type Repository struct {
	// client owns the connection pool, nil when the collection was injected.
	client *mongo.Client
	// collection is the alarm collection.
	collection *mongo.Collection
	// batchSize is the cursor batch size, zero for the server default.
	batchSize int32
}

// ErrClosed is returned by a cursor source used after Close.
var ErrClosed = errors.New("alarm cursor closed")

// Connect opens a connection pool and verifies the primary is reachable.
func Connect(ctx context.Context, cfg *config.MongoConfig, timeout time.Duration) (*Repository, error) {
	uri, err := cfg.ConnectionString()
	if err != nil {
		return nil, err
	}

	clientOptions := options.Client().
		ApplyURI(uri).
		SetAppName("wa-3fecta").
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))

		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	logger.InfoKV(ctx, "Connected to MongoDB",
		"database", cfg.Database,
		"collection", cfg.Collection,
	)

	repo := New(client.Database(cfg.Database).Collection(cfg.Collection), cfg.BatchSize)
	repo.client = client

	return repo, nil
}

// New wraps an existing collection.
func New(collection *mongo.Collection, batchSize int32) *Repository {
	return &Repository{
		collection: collection,
		batchSize:  batchSize,
	}
}

// Close disconnects the pool opened by Connect.
func (r *Repository) Close(ctx context.Context) error {
	if r.client == nil {
		return nil
	}

	if err := r.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect from mongodb: %w", err)
	}

	return nil
}

// Scan streams every document in a relevant state without its identity field.
// The caller must Close the returned source.
func (r *Repository) Scan(ctx context.Context) (*CursorSource, error) {
	findOptions := options.Find().SetProjection(ScanProjection())
	if r.batchSize > 0 {
		findOptions.SetBatchSize(r.batchSize)
	}

	cursor, err := r.collection.Find(ctx, SelectFilter(), findOptions)
	if err != nil {
		return nil, fmt.Errorf("find alarms: %w", err)
	}

	return &CursorSource{cursor: cursor}, nil
}

// AggregateMasked runs the masking filter as a server-side aggregation.
func (r *Repository) AggregateMasked(ctx context.Context, allowDiskUse bool) ([]alarm.Record, error) {
	aggregateOptions := options.Aggregate().SetAllowDiskUse(allowDiskUse)
	if r.batchSize > 0 {
		aggregateOptions.SetBatchSize(r.batchSize)
	}

	cursor, err := r.collection.Aggregate(ctx, MaskedPipeline(), aggregateOptions)
	if err != nil {
		return nil, fmt.Errorf("aggregate masked alarms: %w", err)
	}

	var documents []bson.M
	if err = cursor.All(ctx, &documents); err != nil {
		return nil, fmt.Errorf("read masked alarms: %w", err)
	}

	records := make([]alarm.Record, 0, len(documents))
	for _, document := range documents {
		records = append(records, alarm.Record(document))
	}

	return records, nil
}

// CursorSource adapts a MongoDB cursor to masking.Source.
type CursorSource struct {
	// cursor is nil once closed.
	cursor *mongo.Cursor
}

// Next decodes the next document or returns io.EOF.
func (s *CursorSource) Next(ctx context.Context) (alarm.Record, error) {
	if s.cursor == nil {
		return nil, ErrClosed
	}

	if !s.cursor.Next(ctx) {
		if err := s.cursor.Err(); err != nil {
			return nil, fmt.Errorf("iterate alarms: %w", err)
		}

		return nil, io.EOF
	}

	var document bson.M
	if err := s.cursor.Decode(&document); err != nil {
		return nil, fmt.Errorf("decode alarm: %w", err)
	}

	return alarm.Record(document), nil
}

// Close releases the server-side cursor.
func (s *CursorSource) Close(ctx context.Context) error {
	if s.cursor == nil {
		return nil
	}

	err := s.cursor.Close(ctx)
	s.cursor = nil

	if err != nil {
		return fmt.Errorf("close alarm cursor: %w", err)
	}

	return nil
}
