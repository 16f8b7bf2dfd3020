package storage

import (
	"context"
	"sync"

	"github.com/IshaanNene/napwatch/internal/types"
)

// MemoryStore keeps the dataset in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	runID   string
	records []types.ArticleRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: []types.ArticleRecord{}}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) ReplaceAll(ctx context.Context, snap *types.Snapshot) error {
	if err := checkSnapshot(s.Name(), snap); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return &types.StorageError{Backend: s.Name(), Op: "replace", Err: err}
	}

	records := cloneRecords(snap.Records)

	s.mu.Lock()
	s.runID = snap.RunID
	s.records = records
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) FindAll(ctx context.Context) ([]types.ArticleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRecords(s.records), nil
}

// RunID returns the run id of the current snapshot.
func (s *MemoryStore) RunID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runID
}

func (s *MemoryStore) Close() error { return nil }
