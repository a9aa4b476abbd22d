package relay

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e-moran/debugduel/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newConn(id uuid.UUID) *Conn {
	return &Conn{UserID: id, OutChan: make(chan Event, 16)}
}

func drain(c *Conn) []Event {
	var out []Event
	for {
		select {
		case ev := <-c.OutChan:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestNotifyRoutesDuelEventsToParticipantsOnly(t *testing.T) {
	hub := NewHub(testLogger())
	a, b, bystander := uuid.New(), uuid.New(), uuid.New()

	connA, connBystander := newConn(a), newConn(bystander)
	hub.Register(connA)
	hub.Register(connBystander)

	hub.Notify(context.Background(), Event{
		Type:         EventDuelResult,
		DuelID:       "1700000000000",
		Participants: []uuid.UUID{a, b},
	})

	got := drain(connA)
	require.Len(t, got, 1)
	assert.Equal(t, EventDuelResult, got[0].Type)
	assert.Empty(t, drain(connBystander), "non-participants must not see duel events")

	// Bot participants are skipped without fuss.
	hub.Notify(context.Background(), Event{
		Type:         EventNewDuel,
		Participants: []uuid.UUID{a, models.BotEasyID},
	})
	require.Len(t, drain(connA), 1)
}

func TestLeaderboardUpdatesBroadcast(t *testing.T) {
	hub := NewHub(testLogger())
	connA, connB := newConn(uuid.New()), newConn(uuid.New())
	hub.Register(connA)
	hub.Register(connB)

	hub.Notify(context.Background(), Event{Type: EventLeaderboardUpdate})

	assert.Len(t, drain(connA), 1)
	assert.Len(t, drain(connB), 1)
}

func TestRegisterReplacesPriorConn(t *testing.T) {
	hub := NewHub(testLogger())
	id := uuid.New()

	old := newConn(id)
	hub.Register(old)
	replacement := newConn(id)
	hub.Register(replacement)

	_, open := <-old.OutChan
	assert.False(t, open, "replaced connection's channel must be closed")

	hub.Notify(context.Background(), Event{Type: EventLeaderboardUpdate})
	assert.Len(t, drain(replacement), 1)
}

func TestWriteAfterShutdownIsDropped(t *testing.T) {
	hub := NewHub(testLogger())
	conn := newConn(uuid.New())
	hub.Register(conn)
	hub.Unregister(conn)
	hub.Unregister(conn)

	// Must neither panic nor deliver.
	conn.Write(Event{Type: EventLeaderboardUpdate}, testLogger())
}

func TestNotifyRacingUnregisterDoesNotPanic(t *testing.T) {
	hub := NewHub(testLogger())
	ctx := context.Background()

	for i := 0; i < 500; i++ {
		conn := &Conn{UserID: uuid.New(), OutChan: make(chan Event, 1)}
		hub.Register(conn)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				hub.Notify(ctx, Event{Type: EventLeaderboardUpdate})
			}
		}()
		go func() {
			defer wg.Done()
			hub.Unregister(conn)
		}()
		wg.Wait()
	}
}
