// internal/relay/hub.go
package relay

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/e-moran/debugduel/internal/cache"
	"github.com/e-moran/debugduel/internal/models"
)

// Conn is a single user's live connection to the relay.
type Conn struct {
	UserID  uuid.UUID
	OutChan chan Event
	Cancel  func()

	mu     sync.Mutex
	closed bool
}

// Write pushes an event onto the connection's OutChan non-blockingly. A full
// or already-shut connection drops the event; delivery is at-most-once.
// Serializing on the conn mutex means a Write can never hit a closed channel.
func (c *Conn) Write(ev Event, logger *logrus.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.OutChan <- ev:
	default:
		if logger != nil {
			logger.WithFields(logrus.Fields{
				"user": c.UserID,
				"type": ev.Type,
			}).Warn("relay OutChan full, dropped event")
		}
	}
}

// shutdown closes the outbound channel exactly once; repeated calls no-op.
func (c *Conn) shutdown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.OutChan)
	c.mu.Unlock()

	if c.Cancel != nil {
		c.Cancel()
	}
}

// Hub fans events out to connected websocket clients and mirrors every event
// onto the Redis event queue when one is configured.
type Hub struct {
	mu     sync.Mutex
	conns  map[uuid.UUID]*Conn
	logger *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		conns:  make(map[uuid.UUID]*Conn),
		logger: logger,
	}
}

// Register attaches a user's connection, replacing and closing any prior one.
func (h *Hub) Register(conn *Conn) {
	h.mu.Lock()
	old, existed := h.conns[conn.UserID]
	h.conns[conn.UserID] = conn
	h.mu.Unlock()

	if existed && old != conn {
		old.shutdown()
	}
}

// Unregister detaches the connection if it is still the user's current one.
func (h *Hub) Unregister(conn *Conn) {
	h.mu.Lock()
	current, ok := h.conns[conn.UserID]
	if ok && current == conn {
		delete(h.conns, conn.UserID)
	}
	h.mu.Unlock()

	if ok && current == conn {
		conn.shutdown()
	}
}

// Notify routes the event: duel events reach their human participants,
// leaderboard updates reach every connected client. The event record is also
// queued to Redis for external consumers.
func (h *Hub) Notify(ctx context.Context, ev Event) {
	if cache.Rdb != nil {
		if err := cache.PublishEvent(ctx, ev); err != nil {
			h.logger.Warnf("failed to queue event record: %v", err)
		}
	}

	h.mu.Lock()
	var targets []*Conn
	if ev.Type == EventLeaderboardUpdate {
		for _, c := range h.conns {
			targets = append(targets, c)
		}
	} else {
		for _, id := range ev.Participants {
			if models.IsBotID(id) {
				continue
			}
			if c, ok := h.conns[id]; ok {
				targets = append(targets, c)
			}
		}
	}
	h.mu.Unlock()

	for _, c := range targets {
		c.Write(ev, h.logger)
	}
}
