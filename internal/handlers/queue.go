// internal/handlers/queue.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/e-moran/debugduel/internal/common"
	"github.com/e-moran/debugduel/internal/models"
)

type queueStatusResponse struct {
	InQueue  bool   `json:"in_queue"`
	Position int    `json:"position,omitempty"`
	DuelID   string `json:"duel_id,omitempty"`
}

// JoinQueueHandler enqueues the player and immediately drives one matching
// attempt, so a second waiting player is paired without an extra round trip.
func (s *Server) JoinQueueHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := s.Matchmaker.Enqueue(r.Context(), userID); err != nil {
		writeDomainError(w, err)
		return
	}

	_, err := s.Matchmaker.TryMatch(r.Context())
	if err != nil && !errors.Is(err, common.ErrNoMatch) {
		// The player stays queued; the failure is reported so the client can
		// retry matching.
		writeDomainError(w, err)
		return
	}

	// TryMatch may have paired two other waiting players, so report the
	// joiner's own state rather than whichever duel was minted.
	resp := queueStatusResponse{}
	err = s.Store.View(r.Context(), func(st *models.State) error {
		resp.InQueue = st.InQueue(userID)
		if d := st.ActiveDuelFor(userID); d != nil {
			resp.DuelID = d.ID
		}
		return nil
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// MatchHandler drives one matching attempt on demand. Clients stuck waiting
// can call this to retry after a transient snippet failure.
func (s *Server) MatchHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	duelID, err := s.Matchmaker.TryMatch(r.Context())
	if err != nil && !errors.Is(err, common.ErrNoMatch) {
		writeDomainError(w, err)
		return
	}

	resp := queueStatusResponse{DuelID: duelID}
	if duelID == "" {
		err = s.Store.View(r.Context(), func(st *models.State) error {
			resp.InQueue = st.InQueue(userID)
			if d := st.ActiveDuelFor(userID); d != nil {
				resp.DuelID = d.ID
			}
			return nil
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// LeaveQueueHandler removes the player from the queue; leaving while not
// queued succeeds silently.
func (s *Server) LeaveQueueHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := s.Matchmaker.LeaveQueue(r.Context(), userID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queueStatusResponse{InQueue: false})
}

// QueueStatusHandler reports the player's queue position or active duel.
// Clients poll this while waiting for an opponent.
func (s *Server) QueueStatusHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	resp := queueStatusResponse{}
	err := s.Store.View(r.Context(), func(st *models.State) error {
		for i, id := range st.Queue {
			if id == userID {
				resp.InQueue = true
				resp.Position = i + 1
				break
			}
		}
		if d := st.ActiveDuelFor(userID); d != nil {
			resp.DuelID = d.ID
		}
		return nil
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
