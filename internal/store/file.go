// internal/store/file.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/e-moran/debugduel/internal/common"
	"github.com/e-moran/debugduel/internal/models"
)

// FileStore keeps the state as a JSON snapshot on disk, guarded by a single
// process-wide mutex. Suitable for a single server process; multi-process
// deployments should use the Postgres backend instead.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Update(ctx context.Context, fn func(*models.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(st); err != nil {
		return err
	}
	return s.save(st)
}

func (s *FileStore) View(ctx context.Context, fn func(*models.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return err
	}
	return fn(st)
}

// load reads the snapshot, treating a missing file as an empty valid state.
// Any other I/O or decode failure surfaces as ErrStateUnavailable so callers
// abort instead of proceeding on partial state.
func (s *FileStore) load() (*models.State, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return models.NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", common.ErrStateUnavailable, s.path, err)
	}

	st := models.NewState()
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", common.ErrStateUnavailable, s.path, err)
	}
	st.Normalize()
	return st, nil
}

// save writes to a temp file and renames over the snapshot so a crash
// mid-write never leaves a truncated state on disk.
func (s *FileStore) save(st *models.State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode state: %v", common.ErrStateUnavailable, err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: mkdir for %s: %v", common.ErrStateUnavailable, s.path, err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", common.ErrStateUnavailable, tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%w: rename %s: %v", common.ErrStateUnavailable, tmp, err)
	}
	return nil
}
