// internal/relay/relay.go
package relay

import (
	"context"

	"github.com/google/uuid"

	"github.com/e-moran/debugduel/internal/models"
)

// EventType tags the discrete notifications the core emits.
type EventType string

const (
	EventNewDuel           EventType = "new_duel"
	EventDuelResult        EventType = "duel_result"
	EventLeaderboardUpdate EventType = "leaderboard_update"
)

// Event is one fire-and-forget notification. Duel events carry the
// participants they should reach; leaderboard updates go to everyone.
type Event struct {
	Type EventType `json:"type"`

	DuelID       string      `json:"duel_id,omitempty"`
	Participants []uuid.UUID `json:"participants,omitempty"`

	Outcome    *models.Outcome       `json:"outcome,omitempty"`
	NewRatings map[uuid.UUID]float64 `json:"new_ratings,omitempty"`

	Leaderboard []models.LeaderboardEntry `json:"leaderboard,omitempty"`
}

// Notifier delivers events to connected clients. Delivery guarantees are the
// relay's concern; the core never blocks on or retries a notification.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) Notify(ctx context.Context, ev Event) {}
