package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/napwatch/internal/config"
	"github.com/IshaanNene/napwatch/internal/types"
)

// currentPointerID is the _id of the document naming the live generation.
const currentPointerID = "current"

// findAttempts bounds how often FindAll re-reads when the pointer moves
// underneath it.
const findAttempts = 3

// pointerDoc names the generation readers should see and the one before it.
type pointerDoc struct {
	ID            string    `bson:"_id"`
	RunID         string    `bson:"run_id"`
	PreviousRunID string    `bson:"previous_run_id,omitempty"`
	RefreshedAt   time.Time `bson:"refreshed_at"`
	Count         int       `bson:"count"`
}

// MongoStore keeps the dataset in a MongoDB collection. Each snapshot is
// inserted as a new generation tagged with its run id, then a pointer
// document is switched to it. The previous generation survives one more
// swap so a reader that resolved the old pointer still finds its records.
type MongoStore struct {
	client  *mongo.Client
	records *mongo.Collection
	meta    *mongo.Collection
	timeout time.Duration
	logger  *slog.Logger

	// afterPointerRead runs between the pointer read and the record query
	// in FindAll. Tests use it to interleave a swap.
	afterPointerRead func()
}

// NewMongoStore connects to MongoDB and prepares the collections.
func NewMongoStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Op: "connect", Err: err}
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, &types.StorageError{Backend: "mongodb", Op: "ping", Err: err}
	}

	db := client.Database(cfg.Database)
	s := &MongoStore{
		client:  client,
		records: db.Collection(cfg.Collection),
		meta:    db.Collection(cfg.Collection + "_meta"),
		timeout: cfg.Timeout,
		logger: logger.With("component", "mongo_storage",
			"database", cfg.Database, "collection", cfg.Collection),
	}

	_, err = s.records.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "run_id", Value: 1}},
		Options: options.Index().SetName("run_id_1"),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, &types.StorageError{Backend: "mongodb", Op: "index", Err: err}
	}

	return s, nil
}

func (s *MongoStore) Name() string { return "mongodb" }

func (s *MongoStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// ReplaceAll stages snap as a new generation and swaps the pointer to it.
// If staging fails the previous generation stays current.
func (s *MongoStore) ReplaceAll(ctx context.Context, snap *types.Snapshot) error {
	if err := checkSnapshot(s.Name(), snap); err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	prev, hasPrev, err := s.readPointer(ctx)
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Op: "swap", Err: err}
	}

	if len(snap.Records) > 0 {
		docs := make([]any, len(snap.Records))
		for i, r := range snap.Records {
			r.RunID = snap.RunID
			docs[i] = r
		}
		if _, err := s.records.InsertMany(ctx, docs); err != nil {
			s.discardGeneration(snap.RunID)
			return &types.StorageError{Backend: s.Name(), Op: "insert", Err: err}
		}
	}

	_, err = s.meta.UpdateOne(ctx,
		bson.M{"_id": currentPointerID},
		bson.M{"$set": bson.M{
			"run_id":          snap.RunID,
			"previous_run_id": prev.RunID,
			"refreshed_at":    snap.CreatedAt,
			"count":           snap.Len(),
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		s.discardGeneration(snap.RunID)
		return &types.StorageError{Backend: s.Name(), Op: "swap", Err: err}
	}

	// Keep the new and the previous generation. On the first swap the
	// untagged legacy records are the previous generation.
	stale := bson.M{"run_id": bson.M{"$exists": true, "$ne": snap.RunID}}
	if hasPrev {
		stale = bson.M{"run_id": bson.M{"$nin": bson.A{snap.RunID, prev.RunID}}}
	}
	res, err := s.records.DeleteMany(ctx, stale)
	if err != nil {
		s.logger.Warn("stale generation cleanup failed", "run_id", snap.RunID, "error", err)
		return nil
	}

	s.logger.Info("snapshot replaced",
		"run_id", snap.RunID,
		"previous_run_id", prev.RunID,
		"inserted", snap.Len(),
		"removed", res.DeletedCount,
	)
	return nil
}

func (s *MongoStore) discardGeneration(runID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := s.records.DeleteMany(ctx, bson.M{"run_id": runID}); err != nil {
		s.logger.Warn("discard staged generation failed", "run_id", runID, "error", err)
	}
}

// readPointer returns the pointer document and whether one exists.
func (s *MongoStore) readPointer(ctx context.Context) (pointerDoc, bool, error) {
	var ptr pointerDoc
	err := s.meta.FindOne(ctx, bson.M{"_id": currentPointerID}).Decode(&ptr)
	switch {
	case err == nil:
		return ptr, true, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return pointerDoc{}, false, nil
	default:
		return pointerDoc{}, false, fmt.Errorf("read pointer: %w", err)
	}
}

// FindAll returns the records of the current generation. Without a pointer
// document only untagged legacy records are returned. When the pointer
// moves during the read, the read is repeated.
func (s *MongoStore) FindAll(ctx context.Context) ([]types.ArticleRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var out []types.ArticleRecord
	for attempt := 1; attempt <= findAttempts; attempt++ {
		ptr, hasPtr, err := s.readPointer(ctx)
		if err != nil {
			return nil, &types.StorageError{Backend: s.Name(), Op: "find", Err: err}
		}
		if s.afterPointerRead != nil {
			s.afterPointerRead()
		}

		out, err = s.findGeneration(ctx, ptr.RunID, hasPtr)
		if err != nil {
			return nil, err
		}

		now, _, err := s.readPointer(ctx)
		if err != nil {
			return nil, &types.StorageError{Backend: s.Name(), Op: "find", Err: err}
		}
		if now.RunID == ptr.RunID {
			break
		}
		s.logger.Debug("pointer moved during read, retrying",
			"read_run_id", ptr.RunID, "current_run_id", now.RunID, "attempt", attempt)
	}
	return cloneRecords(out), nil
}

func (s *MongoStore) findGeneration(ctx context.Context, runID string, tagged bool) ([]types.ArticleRecord, error) {
	filter := bson.M{"run_id": bson.M{"$exists": false}}
	if tagged {
		filter = bson.M{"run_id": runID}
	}

	opts := options.Find().
		SetProjection(bson.M{"_id": 0, "run_id": 0}).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	cur, err := s.records.Find(ctx, filter, opts)
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "find", Err: err}
	}
	defer cur.Close(ctx)

	var out []types.ArticleRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "find", Err: err}
	}
	return out, nil
}

func (s *MongoStore) Close() error {
	s.logger.Info("mongodb storage closing")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
