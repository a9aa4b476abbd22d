// internal/handlers/duel.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/e-moran/debugduel/internal/common"
	"github.com/e-moran/debugduel/internal/models"
)

type createBotDuelRequest struct {
	Difficulty models.BotDifficulty `json:"difficulty"`
}

// CreateBotDuelHandler starts a duel against the scripted bot, bypassing the
// queue entirely.
func (s *Server) CreateBotDuelHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req createBotDuelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if req.Difficulty != models.BotEasy && req.Difficulty != models.BotHard {
		http.Error(w, "difficulty must be \"easy\" or \"hard\"", http.StatusBadRequest)
		return
	}

	duelID, err := s.Matchmaker.CreateBotDuel(r.Context(), userID, req.Difficulty)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"duel_id": duelID})
}

// duelView is what participants see. The answer key stays hidden until the
// duel closes.
type duelView struct {
	ID            string               `json:"id"`
	PlayerAID     uuid.UUID            `json:"player_a_id"`
	PlayerBID     uuid.UUID            `json:"player_b_id"`
	CodeSnippet   string               `json:"code_snippet"`
	StartTime     time.Time            `json:"start_time"`
	ElapsedSec    int                  `json:"elapsed_sec"`
	Outcome       models.Outcome       `json:"outcome"`
	IsBotDuel     bool                 `json:"is_bot_duel"`
	BotDifficulty models.BotDifficulty `json:"bot_difficulty,omitempty"`

	BugLines          []int              `json:"bug_lines,omitempty"`
	YourSubmission    *models.Submission `json:"your_submission,omitempty"`
	OpponentSubmitted bool               `json:"opponent_submitted"`
}

func (s *Server) duelViewFor(d *models.Duel, viewer uuid.UUID) duelView {
	v := duelView{
		ID:            d.ID,
		PlayerAID:     d.PlayerAID,
		PlayerBID:     d.PlayerBID,
		CodeSnippet:   d.CodeSnippet,
		StartTime:     d.StartTime,
		ElapsedSec:    int(time.Since(d.StartTime).Seconds()),
		Outcome:       d.Outcome,
		IsBotDuel:     d.IsBotDuel,
		BotDifficulty: d.BotDifficulty,
	}
	if d.Outcome.Closed() {
		v.BugLines = d.BugLines
	}
	if sub, ok := d.Submissions[viewer]; ok {
		v.YourSubmission = &sub
	}
	_, v.OpponentSubmitted = d.Submissions[d.Opponent(viewer)]
	return v
}

type submitRequest struct {
	Lines []int `json:"lines"`
}

// DuelHandler routes /duel/{id} and /duel/{id}/submit.
func (s *Server) DuelHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/duel/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "missing duel id", http.StatusBadRequest)
		return
	}
	duelID := parts[0]

	if len(parts) == 2 && parts[1] == "submit" && r.Method == http.MethodPost {
		s.submitDuel(w, r, duelID, userID)
		return
	}
	if len(parts) == 1 && r.Method == http.MethodGet {
		s.getDuel(w, r, duelID, userID)
		return
	}
	http.Error(w, "not found", http.StatusNotFound)
}

func (s *Server) getDuel(w http.ResponseWriter, r *http.Request, duelID string, userID uuid.UUID) {
	d, err := s.Engine.Get(r.Context(), duelID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !d.HasParticipant(userID) {
		writeDomainError(w, common.ErrNotParticipant)
		return
	}
	writeJSON(w, http.StatusOK, s.duelViewFor(d, userID))
}

func (s *Server) submitDuel(w http.ResponseWriter, r *http.Request, duelID string, userID uuid.UUID) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	d, err := s.Engine.Submit(r.Context(), duelID, userID, req.Lines)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.duelViewFor(d, userID))
}

// LeaderboardHandler returns the current top-n players.
func (s *Server) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	n := 0
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "n must be a positive integer", http.StatusBadRequest)
			return
		}
		n = parsed
	}

	entries, err := s.Leaderboard.Top(r.Context(), n)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
