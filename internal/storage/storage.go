package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/napwatch/internal/config"
	"github.com/IshaanNene/napwatch/internal/types"
)

// Store holds the current dataset snapshot.
type Store interface {
	// ReplaceAll makes snap the complete dataset. Readers see either the
	// previous snapshot or snap, never a mix and never an empty window.
	ReplaceAll(ctx context.Context, snap *types.Snapshot) error

	// FindAll returns every record of the current snapshot.
	FindAll(ctx context.Context) ([]types.ArticleRecord, error)

	// Close releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// New creates the configured backend. With ExportJSON set, a JSON file
// mirror is added behind the primary.
func New(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	var primary Store
	switch cfg.Type {
	case "mongodb":
		s, err := NewMongoStore(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		primary = s
	case "json":
		s, err := NewJSONStore(cfg.OutputPath, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		primary = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}

	if !cfg.ExportJSON {
		return primary, nil
	}
	mirror, err := NewJSONStore(cfg.OutputPath, logger)
	if err != nil {
		_ = primary.Close()
		return nil, err
	}
	return NewMultiStore(primary, []Store{mirror}, logger), nil
}

// cloneRecords deep-copies records and normalizes nil tag lists to empty.
func cloneRecords(records []types.ArticleRecord) []types.ArticleRecord {
	out := make([]types.ArticleRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
		if out[i].Locations == nil {
			out[i].Locations = []string{}
		}
		if out[i].Persons == nil {
			out[i].Persons = []string{}
		}
	}
	return out
}

func checkSnapshot(backend string, snap *types.Snapshot) error {
	if snap == nil || snap.RunID == "" {
		return &types.StorageError{Backend: backend, Op: "replace", Err: types.ErrEmptyRunID}
	}
	return nil
}
