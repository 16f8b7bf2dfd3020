package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/IshaanNene/napwatch/internal/types"
)

// fileSnapshot is the on-disk layout of a JSON snapshot.
type fileSnapshot struct {
	RunID     string                `json:"run_id"`
	CreatedAt time.Time             `json:"created_at"`
	Count     int                   `json:"count"`
	Records   []types.ArticleRecord `json:"records"`
}

// JSONStore keeps the dataset in a single JSON file replaced by rename.
type JSONStore struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewJSONStore creates a JSON file store at outputPath.
func NewJSONStore(outputPath string, logger *slog.Logger) (*JSONStore, error) {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	return &JSONStore{
		path:   outputPath,
		logger: logger.With("component", "json_storage"),
	}, nil
}

func (s *JSONStore) Name() string { return "json" }

// Path returns the snapshot file location.
func (s *JSONStore) Path() string { return s.path }

func (s *JSONStore) ReplaceAll(ctx context.Context, snap *types.Snapshot) error {
	if err := checkSnapshot(s.Name(), snap); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return &types.StorageError{Backend: s.Name(), Op: "replace", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := fileSnapshot{
		RunID:     snap.RunID,
		CreatedAt: snap.CreatedAt,
		Count:     snap.Len(),
		Records:   cloneRecords(snap.Records),
	}

	tmp := s.path + ".tmp"
	if err := writeJSON(tmp, out); err != nil {
		_ = os.Remove(tmp)
		return &types.StorageError{Backend: s.Name(), Op: "replace", Err: err}
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return &types.StorageError{Backend: s.Name(), Op: "replace", Err: fmt.Errorf("rename snapshot: %w", err)}
	}

	s.logger.Info("JSON written", "path", s.path, "items", out.Count, "run_id", snap.RunID)
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("encode JSON: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync output file: %w", err)
	}
	return f.Close()
}

func (s *JSONStore) FindAll(ctx context.Context) ([]types.ArticleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []types.ArticleRecord{}, nil
	}
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "find", Err: err}
	}

	var snap fileSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "find", Err: fmt.Errorf("decode JSON: %w", err)}
	}
	return cloneRecords(snap.Records), nil
}

func (s *JSONStore) Close() error { return nil }
