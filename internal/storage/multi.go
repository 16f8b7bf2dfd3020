package storage

import (
	"context"
	"errors"
	"log/slog"

	"github.com/IshaanNene/napwatch/internal/types"
)

// MultiStore writes snapshots to a primary backend and mirrors them to
// secondaries. Reads come from the primary only.
type MultiStore struct {
	primary     Store
	secondaries []Store
	logger      *slog.Logger
}

// NewMultiStore creates a store that fans out to several backends.
func NewMultiStore(primary Store, secondaries []Store, logger *slog.Logger) *MultiStore {
	return &MultiStore{
		primary:     primary,
		secondaries: secondaries,
		logger:      logger.With("component", "multi_storage"),
	}
}

func (s *MultiStore) Name() string { return "multi" }

// ReplaceAll fails only when the primary fails. Mirror failures are logged.
func (s *MultiStore) ReplaceAll(ctx context.Context, snap *types.Snapshot) error {
	if err := s.primary.ReplaceAll(ctx, snap); err != nil {
		return err
	}
	for _, backend := range s.secondaries {
		if err := backend.ReplaceAll(ctx, snap); err != nil {
			s.logger.Error("mirror replace failed", "backend", backend.Name(), "run_id", snap.RunID, "error", err)
		}
	}
	return nil
}

func (s *MultiStore) FindAll(ctx context.Context) ([]types.ArticleRecord, error) {
	return s.primary.FindAll(ctx)
}

func (s *MultiStore) Close() error {
	errs := []error{s.primary.Close()}
	for _, backend := range s.secondaries {
		errs = append(errs, backend.Close())
	}
	return errors.Join(errs...)
}
