package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jtlapenna/multi-agent-content-system/internal/types"
	"github.com/jtlapenna/multi-agent-content-system/internal/workflow"
)

// FileStore is the local mirror: one JSON document per post under a
// directory, at a path derived from the post_id. Writes go to a temp
// file and are renamed into place so readers never observe a partial
// document.
type FileStore struct {
	dir    string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewFileStore creates a file store rooted at dir, creating it if needed.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, types.NewValidationError("mirror directory cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create mirror directory: %w", err)
	}
	return &FileStore{dir: dir, logger: logger.With("component", "file-store")}, nil
}

// path maps a post_id to its mirror document path. The post_id must not
// escape the mirror directory.
func (s *FileStore) path(postID string) (string, error) {
	if postID == "" {
		return "", types.NewValidationError("post_id cannot be empty")
	}
	if postID != filepath.Base(postID) || strings.HasPrefix(postID, ".") {
		return "", types.NewValidationError("post_id is not a valid file name: " + postID)
	}
	return filepath.Join(s.dir, postID+".json"), nil
}

// Create persists a new record.
func (s *FileStore) Create(ctx context.Context, rec *workflow.Record) (*workflow.Record, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	path, err := s.path(rec.PostID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(path); err == nil {
		return nil, types.NewAlreadyExistsError(rec.PostID)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat mirror document: %w", err)
	}

	if err := s.write(path, rec); err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

// Get retrieves a record by post_id.
func (s *FileStore) Get(ctx context.Context, postID string) (*workflow.Record, error) {
	path, err := s.path(postID)
	if err != nil {
		return nil, err
	}
	return s.read(path, postID)
}

// Update applies a partial update under the store mutex so the
// read-apply-write sequence is atomic for a single process.
func (s *FileStore) Update(ctx context.Context, postID string, u workflow.Update) (*workflow.Record, error) {
	path, err := s.path(postID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.read(path, postID)
	if err != nil {
		return nil, err
	}
	u.Apply(rec, time.Now())
	if err := s.write(path, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ListByPhaseAndAgent returns claimable records ordered oldest first.
func (s *FileStore) ListByPhaseAndAgent(ctx context.Context, phase workflow.Phase, agent string) ([]*workflow.Record, error) {
	all, err := s.ListAll(ctx, Filter{Status: workflow.StatusInProgress, Phase: phase})
	if err != nil {
		return nil, err
	}
	var out []*workflow.Record
	for _, rec := range all {
		if rec.NextAgent == agent {
			out = append(out, rec)
		}
	}
	return out, nil
}

// ListAll scans the mirror directory, oldest created_at first. Documents
// that fail to parse are skipped with a warning rather than failing the
// whole listing.
func (s *FileStore) ListAll(ctx context.Context, f Filter) ([]*workflow.Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read mirror directory: %w", err)
	}

	var records []*workflow.Record
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		rec, err := s.read(filepath.Join(s.dir, e.Name()), strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			s.logger.Warn("skipping unreadable mirror document", "file", e.Name(), "error", err)
			continue
		}
		if f.Status != "" && rec.Status != f.Status {
			continue
		}
		if f.Phase != "" && rec.CurrentPhase != f.Phase {
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}

// Dir returns the mirror directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) read(path, postID string) (*workflow.Record, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, types.NewNotFoundError(postID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read mirror document: %w", err)
	}
	var rec workflow.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse mirror document %s: %w", path, err)
	}
	if rec.AgentsRun == nil {
		rec.AgentsRun = []string{}
	}
	return &rec, nil
}

// write serializes the record to a temp file and renames it into place.
func (s *FileStore) write(path string, rec *workflow.Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write mirror document: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync mirror document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace mirror document: %w", err)
	}
	return nil
}
