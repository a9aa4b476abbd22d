// internal/match/matchmaker.go
package match

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/e-moran/debugduel/internal/common"
	"github.com/e-moran/debugduel/internal/models"
	"github.com/e-moran/debugduel/internal/relay"
	"github.com/e-moran/debugduel/internal/snippet"
	"github.com/e-moran/debugduel/internal/store"
)

// Matchmaker owns the waiting queue: it admits players, pairs the two
// longest-waiting ones into a duel, and builds bot duels on demand.
type Matchmaker struct {
	Store    store.Backend
	Snippets snippet.Provider
	Notifier relay.Notifier
	Logger   *logrus.Logger

	Now func() time.Time
}

func NewMatchmaker(st store.Backend, provider snippet.Provider, notifier relay.Notifier, logger *logrus.Logger) *Matchmaker {
	return &Matchmaker{
		Store:    st,
		Snippets: provider,
		Notifier: notifier,
		Logger:   logger,
		Now:      time.Now,
	}
}

// Enqueue appends the player to the queue. A player already queued or already
// in an open duel is rejected; the queue never holds duplicates.
func (m *Matchmaker) Enqueue(ctx context.Context, playerID uuid.UUID) error {
	return m.Store.Update(ctx, func(st *models.State) error {
		if _, ok := st.Users[playerID]; !ok {
			return common.ErrUserNotFound
		}
		if st.ActiveDuelFor(playerID) != nil {
			return common.ErrAlreadyInDuel
		}
		if st.InQueue(playerID) {
			return common.ErrAlreadyQueued
		}
		st.Queue = append(st.Queue, playerID)
		return nil
	})
}

// LeaveQueue removes the player if queued; leaving when not queued is a
// deliberate no-op.
func (m *Matchmaker) LeaveQueue(ctx context.Context, playerID uuid.UUID) error {
	return m.Store.Update(ctx, func(st *models.State) error {
		st.RemoveFromQueue(playerID)
		return nil
	})
}

// TryMatch pairs the two longest-waiting players into a new duel and returns
// its ID, or ErrNoMatch when fewer than two players wait.
//
// The pair is claimed inside one critical section, so concurrent TryMatch
// calls can never share a player. The snippet provider is deliberately
// invoked outside the lock; if it fails, the pair is pushed back onto the
// queue front in their original order.
func (m *Matchmaker) TryMatch(ctx context.Context) (string, error) {
	var a, b uuid.UUID
	claimed := false

	err := m.Store.Update(ctx, func(st *models.State) error {
		if len(st.Queue) < 2 {
			return nil
		}
		a, b = st.Queue[0], st.Queue[1]
		st.Queue = append([]uuid.UUID{}, st.Queue[2:]...)
		claimed = true
		return nil
	})
	if err != nil {
		return "", err
	}
	if !claimed {
		return "", common.ErrNoMatch
	}

	snip, err := m.Snippets.Generate(ctx)
	if err != nil {
		if reErr := m.requeueFront(ctx, a, b); reErr != nil {
			m.Logger.Errorf("failed to requeue players %s, %s after snippet failure: %v", a, b, reErr)
		}
		return "", err
	}

	duelID, err := m.storeDuel(ctx, func(st *models.State) *models.Duel {
		return &models.Duel{
			PlayerAID:   a,
			PlayerBID:   b,
			CodeSnippet: snip.Code,
			BugLines:    snip.BugLines,
			StartTime:   m.Now(),
			Outcome:     models.OpenOutcome(),
			Submissions: make(map[uuid.UUID]models.Submission),
		}
	})
	if err != nil {
		return "", err
	}

	m.Notifier.Notify(ctx, relay.Event{
		Type:         relay.EventNewDuel,
		DuelID:       duelID,
		Participants: []uuid.UUID{a, b},
	})
	m.Logger.WithFields(logrus.Fields{
		"duel":     duelID,
		"player_a": a,
		"player_b": b,
	}).Info("matched duel")
	return duelID, nil
}

// CreateBotDuel bypasses the queue and pairs the player with the synthetic
// bot for the requested difficulty. The player is pulled out of the queue if
// present so a human match cannot claim them mid-duel.
func (m *Matchmaker) CreateBotDuel(ctx context.Context, playerID uuid.UUID, difficulty models.BotDifficulty) (string, error) {
	err := m.Store.View(ctx, func(st *models.State) error {
		if _, ok := st.Users[playerID]; !ok {
			return common.ErrUserNotFound
		}
		if st.ActiveDuelFor(playerID) != nil {
			return common.ErrAlreadyInDuel
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	snip, err := m.Snippets.Generate(ctx)
	if err != nil {
		return "", err
	}

	botID := models.BotID(difficulty)
	duelID, err := m.storeDuel(ctx, func(st *models.State) *models.Duel {
		return &models.Duel{
			PlayerAID:     playerID,
			PlayerBID:     botID,
			CodeSnippet:   snip.Code,
			BugLines:      snip.BugLines,
			StartTime:     m.Now(),
			Outcome:       models.OpenOutcome(),
			Submissions:   make(map[uuid.UUID]models.Submission),
			IsBotDuel:     true,
			BotDifficulty: difficulty,
		}
	})
	if err != nil {
		return "", err
	}

	m.Notifier.Notify(ctx, relay.Event{
		Type:         relay.EventNewDuel,
		DuelID:       duelID,
		Participants: []uuid.UUID{playerID, botID},
	})
	m.Logger.WithFields(logrus.Fields{
		"duel":       duelID,
		"player":     playerID,
		"difficulty": difficulty,
	}).Info("created bot duel")
	return duelID, nil
}

// storeDuel inserts a freshly built duel under the lock, re-validating that
// both participants are still free (the lock was released since they were
// checked) and assigning a unique time-ordered ID.
func (m *Matchmaker) storeDuel(ctx context.Context, build func(*models.State) *models.Duel) (string, error) {
	var duelID string
	err := m.Store.Update(ctx, func(st *models.State) error {
		d := build(st)
		humans := []uuid.UUID{}
		busy := false
		for _, id := range []uuid.UUID{d.PlayerAID, d.PlayerBID} {
			if models.IsBotID(id) {
				continue
			}
			humans = append(humans, id)
			if st.ActiveDuelFor(id) != nil {
				busy = true
			}
		}
		if busy {
			// A participant slipped into another duel while the lock was
			// released. Put the free ones back at the queue front.
			for i := len(humans) - 1; i >= 0; i-- {
				id := humans[i]
				if st.ActiveDuelFor(id) == nil && !st.InQueue(id) {
					st.Queue = append([]uuid.UUID{id}, st.Queue...)
				}
			}
			return common.ErrAlreadyInDuel
		}
		for _, id := range humans {
			st.RemoveFromQueue(id)
		}
		d.ID = newDuelID(st, m.Now())
		st.Duels[d.ID] = d
		duelID = d.ID
		return nil
	})
	return duelID, err
}

// newDuelID produces a millisecond-timestamp ID, bumping a suffix under the
// lock until it is unique.
func newDuelID(st *models.State, now time.Time) string {
	base := strconv.FormatInt(now.UnixMilli(), 10)
	id := base
	for i := 1; ; i++ {
		if _, taken := st.Duels[id]; !taken {
			return id
		}
		id = base + "-" + strconv.Itoa(i)
	}
}

// requeueFront puts a claimed pair back at the head of the queue. The lock
// was released since the claim, so a player may have rejoined or entered a
// bot duel in the meantime; only the still-free, still-absent ones go back.
func (m *Matchmaker) requeueFront(ctx context.Context, a, b uuid.UUID) error {
	return m.Store.Update(ctx, func(st *models.State) error {
		for _, id := range []uuid.UUID{b, a} {
			if !st.InQueue(id) && st.ActiveDuelFor(id) == nil {
				st.Queue = append([]uuid.UUID{id}, st.Queue...)
			}
		}
		return nil
	})
}
