// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/e-moran/debugduel/internal/auth"
	"github.com/e-moran/debugduel/internal/middleware"
	"github.com/e-moran/debugduel/internal/relay"
)

// DuelWSHandler upgrades the connection and streams relay events to the
// authenticated player until they disconnect. Clients only listen on this
// socket; all actions go through the HTTP endpoints.
func DuelWSHandler(logger *logrus.Logger, hub *relay.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := extractCookieToken(r.Header.Get("Cookie"), "auth_token")
		userIDStr, err := auth.AuthenticateJWT(token)
		if err != nil {
			http.Error(w, "invalid auth token", http.StatusUnauthorized)
			return
		}
		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			http.Error(w, "invalid user id in token", http.StatusUnauthorized)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"duel"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "duel" {
			c.Close(websocket.StatusPolicyViolation, "client must speak the duel subprotocol")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		conn := &relay.Conn{
			UserID:  userID,
			OutChan: make(chan relay.Event, 16),
			Cancel:  cancel,
		}
		hub.Register(conn)
		middleware.LogFeedConnect(logger, userID, r.RemoteAddr)

		go relayWritePump(ctx, c, conn, logger)

		// Drain incoming frames so pings/pongs work; the relay is one-way.
		var readErr error
		for {
			if _, _, readErr = c.Read(ctx); readErr != nil {
				break
			}
		}

		hub.Unregister(conn)
		middleware.LogFeedDisconnect(logger, userID, r.RemoteAddr, readErr)
	}
}

func relayWritePump(ctx context.Context, c *websocket.Conn, conn *relay.Conn, logger *logrus.Logger) {
	defer c.Close(websocket.StatusGoingAway, "write pump stopping")

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-conn.OutChan:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Warnf("failed to marshal outgoing event for user %v: %v", conn.UserID, err)
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("failed to write to websocket for user %v: %v", conn.UserID, err)
				return
			}
		}
	}
}
