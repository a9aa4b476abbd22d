// internal/store/memory.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/e-moran/debugduel/internal/common"
	"github.com/e-moran/debugduel/internal/models"
)

// MemoryStore holds the state in memory behind the same coarse lock as the
// durable backends. Update works on a copy and commits only when fn succeeds,
// matching the load-modify-save semantics of the durable backends. Used by
// tests and throwaway dev runs.
type MemoryStore struct {
	mu    sync.Mutex
	state *models.State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: models.NewState()}
}

func (s *MemoryStore) Update(ctx context.Context, fn func(*models.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := cloneState(s.state)
	if err != nil {
		return err
	}
	if err := fn(st); err != nil {
		return err
	}
	s.state = st
	return nil
}

func (s *MemoryStore) View(ctx context.Context, fn func(*models.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := cloneState(s.state)
	if err != nil {
		return err
	}
	return fn(st)
}

func cloneState(st *models.State) (*models.State, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("%w: clone state: %v", common.ErrStateUnavailable, err)
	}
	out := models.NewState()
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("%w: clone state: %v", common.ErrStateUnavailable, err)
	}
	out.Normalize()
	return out, nil
}
