// internal/store/store.go
package store

import (
	"context"

	"github.com/e-moran/debugduel/internal/models"
)

// Backend persists the whole game state. Update runs fn over the current
// state inside one critical section covering the full load-modify-save span;
// if fn returns an error nothing is saved and the error propagates. View runs
// fn read-only. Implementations guarantee the lock is released on every exit
// path and never nest distinct locks.
type Backend interface {
	Update(ctx context.Context, fn func(*models.State) error) error
	View(ctx context.Context, fn func(*models.State) error) error
}
