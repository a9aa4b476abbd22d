// internal/duel/engine.go
package duel

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/e-moran/debugduel/internal/bot"
	"github.com/e-moran/debugduel/internal/common"
	"github.com/e-moran/debugduel/internal/leaderboard"
	"github.com/e-moran/debugduel/internal/models"
	"github.com/e-moran/debugduel/internal/rating"
	"github.com/e-moran/debugduel/internal/relay"
	"github.com/e-moran/debugduel/internal/store"
)

// Engine owns the per-duel state machine: submission intake, winner
// determination, and the rating update that closes a duel. All mutation runs
// through the store's critical section; notifications go out only after the
// state has been saved.
type Engine struct {
	Store    store.Backend
	Notifier relay.Notifier
	Logger   *logrus.Logger

	Now func() time.Time

	// BotAnswer synthesizes the bot's submission for bot duels. Overridable
	// in tests; the default samples the shared RNG.
	BotAnswer func(*models.Duel) []int

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewEngine(st store.Backend, notifier relay.Notifier, logger *logrus.Logger) *Engine {
	e := &Engine{
		Store:    st,
		Notifier: notifier,
		Logger:   logger,
		Now:      time.Now,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	e.BotAnswer = func(d *models.Duel) []int {
		e.rngMu.Lock()
		defer e.rngMu.Unlock()
		return bot.Answer(d, e.rng)
	}
	return e
}

// Get returns a snapshot of the duel.
func (e *Engine) Get(ctx context.Context, duelID string) (*models.Duel, error) {
	var d *models.Duel
	err := e.Store.View(ctx, func(st *models.State) error {
		found, ok := st.Duels[duelID]
		if !ok {
			return common.ErrDuelNotFound
		}
		d = found
		return nil
	})
	return d, err
}

// Submit records the player's selected lines for an open duel. Resubmitting
// before the duel closes replaces the prior submission: last write wins.
//
// In a bot duel, the bot's answer is synthesized in the same critical section
// as the human's submission and the duel resolves immediately. In a human
// duel, resolution happens once both sides have submitted.
func (e *Engine) Submit(ctx context.Context, duelID string, playerID uuid.UUID, lines []int) (*models.Duel, error) {
	var (
		result *models.Duel
		events []relay.Event
	)
	err := e.Store.Update(ctx, func(st *models.State) error {
		d, ok := st.Duels[duelID]
		if !ok {
			return common.ErrDuelNotFound
		}
		if d.Outcome.Closed() {
			return common.ErrDuelClosed
		}
		if !d.HasParticipant(playerID) || models.IsBotID(playerID) {
			return common.ErrNotParticipant
		}

		now := e.Now()
		d.Submissions[playerID] = models.Submission{
			Lines:       normalizeLines(lines),
			SubmittedAt: now,
		}

		if d.IsBotDuel {
			botID := d.Opponent(playerID)
			d.Submissions[botID] = models.Submission{
				Lines:       e.BotAnswer(d),
				SubmittedAt: now,
			}
		}

		evs, err := e.resolveLocked(st, d)
		if err != nil {
			return err
		}
		events = evs
		result = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, events)
	return result, nil
}

// Resolve attempts resolution for a duel whose submissions are already
// complete. Calling it on a closed duel, or before both sides have
// submitted, is a no-op.
func (e *Engine) Resolve(ctx context.Context, duelID string) error {
	var events []relay.Event
	err := e.Store.Update(ctx, func(st *models.State) error {
		d, ok := st.Duels[duelID]
		if !ok {
			return common.ErrDuelNotFound
		}
		evs, err := e.resolveLocked(st, d)
		if err != nil {
			return err
		}
		events = evs
		return nil
	})
	if err != nil {
		return err
	}

	e.emit(ctx, events)
	return nil
}

// resolveLocked decides the duel if both submissions are present, applies
// the rating update, and returns the notifications to emit after commit.
// The caller holds the store's critical section.
func (e *Engine) resolveLocked(st *models.State, d *models.Duel) ([]relay.Event, error) {
	if d.Outcome.Closed() || !d.BothSubmitted() {
		return nil, nil
	}

	corA, incA := Score(d.Submissions[d.PlayerAID].Lines, d.BugLines)
	corB, incB := Score(d.Submissions[d.PlayerBID].Lines, d.BugLines)

	var winner, loser uuid.UUID
	tie := false
	switch {
	case corA > corB:
		winner, loser = d.PlayerAID, d.PlayerBID
	case corB > corA:
		winner, loser = d.PlayerBID, d.PlayerAID
	case incA < incB:
		winner, loser = d.PlayerAID, d.PlayerBID
	case incB < incA:
		winner, loser = d.PlayerBID, d.PlayerAID
	default:
		tie = true
	}

	newRatings := make(map[uuid.UUID]float64)
	if tie {
		// No rating movement on a tie, bot duels included.
		d.Outcome = models.TieOutcome()
	} else {
		d.Outcome = models.WonOutcome(winner)
		if d.IsBotDuel {
			human := d.HumanID()
			u, ok := st.Users[human]
			if !ok {
				return nil, common.ErrUserNotFound
			}
			u.Rating += rating.BotDelta(d.BotDifficulty, winner == human)
			newRatings[human] = u.Rating
		} else {
			w, okW := st.Users[winner]
			l, okL := st.Users[loser]
			if !okW || !okL {
				return nil, common.ErrUserNotFound
			}
			w.Rating, l.Rating = rating.Elo(w.Rating, l.Rating)
			newRatings[winner] = w.Rating
			newRatings[loser] = l.Rating
		}
	}

	outcome := d.Outcome
	events := []relay.Event{
		{
			Type:         relay.EventDuelResult,
			DuelID:       d.ID,
			Participants: []uuid.UUID{d.PlayerAID, d.PlayerBID},
			Outcome:      &outcome,
			NewRatings:   newRatings,
		},
		{
			Type:        relay.EventLeaderboardUpdate,
			Leaderboard: leaderboard.Top(st, leaderboard.DefaultTopN),
		},
	}

	e.Logger.WithFields(logrus.Fields{
		"duel":    d.ID,
		"outcome": d.Outcome.Kind,
		"winner":  d.Outcome.WinnerID,
	}).Info("duel resolved")
	return events, nil
}

func (e *Engine) emit(ctx context.Context, events []relay.Event) {
	for _, ev := range events {
		e.Notifier.Notify(ctx, ev)
	}
}

// Score counts a submission against the answer key: correct is the overlap
// with the bug lines, incorrect is everything selected outside them.
func Score(selected, bugLines []int) (correct, incorrect int) {
	bugs := make(map[int]struct{}, len(bugLines))
	for _, n := range bugLines {
		bugs[n] = struct{}{}
	}
	seen := make(map[int]struct{}, len(selected))
	for _, n := range selected {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		if _, ok := bugs[n]; ok {
			correct++
		} else {
			incorrect++
		}
	}
	return correct, incorrect
}

// normalizeLines sorts and dedupes a selection so scoring and persistence are
// deterministic regardless of client ordering.
func normalizeLines(lines []int) []int {
	seen := make(map[int]struct{}, len(lines))
	out := make([]int, 0, len(lines))
	for _, n := range lines {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
