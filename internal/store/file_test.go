package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/e-moran/debugduel/internal/common"
	"github.com/e-moran/debugduel/internal/models"
)

func TestFileStoreFirstLoadIsEmptyValidState(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "state.json"))

	err := fs.View(context.Background(), func(st *models.State) error {
		if len(st.Users) != 0 || len(st.Queue) != 0 || len(st.Duels) != 0 {
			t.Errorf("expected empty state, got %+v", st)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view on missing file should not fail: %v", err)
	}
}

func TestFileStoreRoundTripsRatingExactly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	id := uuid.New()
	rating := 1016.3592491782348

	err := NewFileStore(path).Update(context.Background(), func(st *models.State) error {
		st.Users[id] = &models.User{ID: id, Username: "ada", Rating: rating}
		return nil
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	// A second instance must read back the exact float.
	err = NewFileStore(path).View(context.Background(), func(st *models.State) error {
		u, ok := st.Users[id]
		if !ok {
			t.Fatal("user not persisted")
		}
		if u.Rating != rating {
			t.Errorf("rating lost precision: stored %v, loaded %v", rating, u.Rating)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
}

func TestFileStoreCallbackErrorAbortsSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	fs := NewFileStore(path)
	id := uuid.New()

	boom := errors.New("boom")
	err := fs.Update(context.Background(), func(st *models.State) error {
		st.Users[id] = &models.User{ID: id, Username: "ghost", Rating: 1000}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}

	fs.View(context.Background(), func(st *models.State) error {
		if _, ok := st.Users[id]; ok {
			t.Error("state was saved despite callback error")
		}
		return nil
	})
}

func TestFileStoreCorruptFileIsStateUnavailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := NewFileStore(path).View(context.Background(), func(st *models.State) error { return nil })
	if !errors.Is(err, common.ErrStateUnavailable) {
		t.Fatalf("expected ErrStateUnavailable, got %v", err)
	}
}

func TestMemoryStoreCallbackErrorDiscardsChanges(t *testing.T) {
	ms := NewMemoryStore()
	id := uuid.New()

	boom := errors.New("boom")
	_ = ms.Update(context.Background(), func(st *models.State) error {
		st.Queue = append(st.Queue, id)
		return boom
	})

	ms.View(context.Background(), func(st *models.State) error {
		if len(st.Queue) != 0 {
			t.Error("failed update leaked into memory state")
		}
		return nil
	})
}
