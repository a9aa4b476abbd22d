// internal/database/state.go
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/e-moran/debugduel/internal/common"
	"github.com/e-moran/debugduel/internal/models"
)

// PostgresStore persists the whole state as a single JSONB row. The row lock
// taken by SELECT ... FOR UPDATE is the one named mutual-exclusion resource
// shared by all cooperating processes; it spans the full load-modify-save and
// is released by commit or rollback on every exit path. Context deadlines
// bound the wait.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const stateRowID = 1

// NewPostgresStore ensures the snapshot table exists and is seeded with an
// empty valid state, then returns the store.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS duel_state (
			id      int PRIMARY KEY,
			payload jsonb NOT NULL
		)`)
	if err != nil {
		return nil, fmt.Errorf("%w: create duel_state table: %v", common.ErrStateUnavailable, err)
	}

	empty, err := json.Marshal(models.NewState())
	if err != nil {
		return nil, fmt.Errorf("%w: encode empty state: %v", common.ErrStateUnavailable, err)
	}
	_, err = pool.Exec(ctx,
		`INSERT INTO duel_state (id, payload) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		stateRowID, empty)
	if err != nil {
		return nil, fmt.Errorf("%w: seed duel_state: %v", common.ErrStateUnavailable, err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Update(ctx context.Context, fn func(*models.State) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		st, err := loadRow(ctx, tx, true)
		if err != nil {
			return err
		}
		if err := fn(st); err != nil {
			return err
		}

		payload, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("%w: encode state: %v", common.ErrStateUnavailable, err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE duel_state SET payload=$2 WHERE id=$1`, stateRowID, payload); err != nil {
			return fmt.Errorf("%w: save state: %v", common.ErrStateUnavailable, err)
		}
		return nil
	})
}

func (s *PostgresStore) View(ctx context.Context, fn func(*models.State) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		st, err := loadRow(ctx, tx, false)
		if err != nil {
			return err
		}
		return fn(st)
	})
}

func loadRow(ctx context.Context, tx pgx.Tx, forUpdate bool) (*models.State, error) {
	q := `SELECT payload FROM duel_state WHERE id=$1`
	if forUpdate {
		q += ` FOR UPDATE`
	}

	var payload []byte
	if err := tx.QueryRow(ctx, q, stateRowID).Scan(&payload); err != nil {
		return nil, fmt.Errorf("%w: load state: %v", common.ErrStateUnavailable, err)
	}

	st := models.NewState()
	if err := json.Unmarshal(payload, st); err != nil {
		return nil, fmt.Errorf("%w: decode state: %v", common.ErrStateUnavailable, err)
	}
	st.Normalize()
	return st, nil
}
