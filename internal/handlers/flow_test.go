package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e-moran/debugduel/internal/auth"
	"github.com/e-moran/debugduel/internal/duel"
	"github.com/e-moran/debugduel/internal/leaderboard"
	"github.com/e-moran/debugduel/internal/match"
	"github.com/e-moran/debugduel/internal/models"
	"github.com/e-moran/debugduel/internal/relay"
	"github.com/e-moran/debugduel/internal/snippet"
	"github.com/e-moran/debugduel/internal/store"
)

// stubProvider serves one fixed snippet so scores are predictable.
type stubProvider struct{}

func (stubProvider) Generate(ctx context.Context) (snippet.Snippet, error) {
	return snippet.Snippet{
		Code:     "l1\nl2\nl3\nl4\nl5\nl6\nl7\nl8\nl9\nl10",
		BugLines: []int{2, 5, 9},
	}, nil
}

func newTestServer(t *testing.T) *Server {
	auth.Init()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	ms := store.NewMemoryStore()
	hub := relay.NewHub(logger)
	mm := match.NewMatchmaker(ms, stubProvider{}, hub, logger)
	eng := duel.NewEngine(ms, hub, logger)
	lb := leaderboard.NewService(ms, logger)
	return NewServer(ms, mm, eng, lb, hub, logger)
}

// do performs one JSON request against the mux, authenticated when token is
// non-empty.
func do(t *testing.T, mux *http.ServeMux, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Cookie", "auth_token="+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v), "body: %s", rec.Body.String())
}

// registerAndLogin creates the user and returns their session token.
func registerAndLogin(t *testing.T, mux *http.ServeMux, username string) string {
	creds := map[string]string{"username": username, "password": "hunter2"}

	rec := do(t, mux, http.MethodPost, "/user/create", "", creds)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, mux, http.MethodPost, "/user/login", "", creds)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	decode(t, rec, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestFullDuelFlow(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.Routes()

	alice := registerAndLogin(t, mux, "alice")
	bob := registerAndLogin(t, mux, "bob")

	// Alice waits alone.
	rec := do(t, mux, http.MethodPost, "/queue/join", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var qs struct {
		InQueue bool   `json:"in_queue"`
		DuelID  string `json:"duel_id"`
	}
	decode(t, rec, &qs)
	assert.True(t, qs.InQueue)
	assert.Empty(t, qs.DuelID)

	// Bob joining completes the pair.
	rec = do(t, mux, http.MethodPost, "/queue/join", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &qs)
	require.NotEmpty(t, qs.DuelID)
	duelID := qs.DuelID

	// Alice learns the duel ID from queue status.
	rec = do(t, mux, http.MethodGet, "/queue/status", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &qs)
	assert.False(t, qs.InQueue)
	assert.Equal(t, duelID, qs.DuelID)

	// The open duel shows the code but never the answer key.
	var view struct {
		CodeSnippet       string         `json:"code_snippet"`
		BugLines          []int          `json:"bug_lines"`
		Outcome           models.Outcome `json:"outcome"`
		OpponentSubmitted bool           `json:"opponent_submitted"`
	}
	rec = do(t, mux, http.MethodGet, "/duel/"+duelID, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &view)
	assert.NotEmpty(t, view.CodeSnippet)
	assert.Empty(t, view.BugLines, "answer key must stay hidden while the duel is open")
	assert.Equal(t, models.OutcomeOpen, view.Outcome.Kind)

	// Outsiders may not look in.
	carol := registerAndLogin(t, mux, "carol")
	rec = do(t, mux, http.MethodGet, "/duel/"+duelID, carol, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Alice submits all three bugs; the duel stays open for bob.
	rec = do(t, mux, http.MethodPost, "/duel/"+duelID+"/submit", alice, map[string][]int{"lines": {2, 5, 9}})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &view)
	assert.Equal(t, models.OutcomeOpen, view.Outcome.Kind)

	rec = do(t, mux, http.MethodGet, "/duel/"+duelID, bob, nil)
	decode(t, rec, &view)
	assert.True(t, view.OpponentSubmitted)

	// Bob's weaker submission closes the duel; now the key is revealed.
	rec = do(t, mux, http.MethodPost, "/duel/"+duelID+"/submit", bob, map[string][]int{"lines": {2}})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &view)
	require.Equal(t, models.OutcomeWon, view.Outcome.Kind)
	assert.Equal(t, []int{2, 5, 9}, view.BugLines)

	// Late submissions bounce off the closed duel.
	rec = do(t, mux, http.MethodPost, "/duel/"+duelID+"/submit", alice, map[string][]int{"lines": {1}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Ratings moved 16 points each way and the leaderboard shows it.
	rec = do(t, mux, http.MethodGet, "/leaderboard", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []models.LeaderboardEntry
	decode(t, rec, &entries)
	require.Len(t, entries, 3)
	assert.Equal(t, "alice", entries[0].Username)
	assert.InDelta(t, 1016, entries[0].Rating, 1e-9)
	assert.Equal(t, "bob", entries[2].Username)
	assert.InDelta(t, 984, entries[2].Rating, 1e-9)

	// Winners can queue again right away.
	rec = do(t, mux, http.MethodPost, "/queue/join", alice, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBotDuelFlow(t *testing.T) {
	srv := newTestServer(t)
	srv.Engine.BotAnswer = func(*models.Duel) []int { return []int{2} }
	mux := srv.Routes()

	token := registerAndLogin(t, mux, "dave")

	rec := do(t, mux, http.MethodPost, "/duel/bot", token, map[string]string{"difficulty": "hard"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		DuelID string `json:"duel_id"`
	}
	decode(t, rec, &created)

	// Beating the hard bot pays 20 points, settled on this one submission.
	rec = do(t, mux, http.MethodPost, "/duel/"+created.DuelID+"/submit", token, map[string][]int{"lines": {2, 5, 9}})
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		Outcome models.Outcome `json:"outcome"`
	}
	decode(t, rec, &view)
	assert.Equal(t, models.OutcomeWon, view.Outcome.Kind)

	rec = do(t, mux, http.MethodGet, "/user/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.User
	decode(t, rec, &me)
	assert.InDelta(t, 1020, me.Rating, 1e-9)
	assert.Empty(t, me.Password)

	rec = do(t, mux, http.MethodPost, "/duel/bot", token, map[string]string{"difficulty": "goldilocks"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJoinReportsJoinersOwnState(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.Routes()

	alice := registerAndLogin(t, mux, "alice")
	registerAndLogin(t, mux, "carol")
	registerAndLogin(t, mux, "dave")

	// Two players already wait, so alice's join pairs them, not her.
	require.NoError(t, srv.Matchmaker.Enqueue(context.Background(), userIDFor(t, srv, "carol")))
	require.NoError(t, srv.Matchmaker.Enqueue(context.Background(), userIDFor(t, srv, "dave")))

	rec := do(t, mux, http.MethodPost, "/queue/join", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var qs struct {
		InQueue bool   `json:"in_queue"`
		DuelID  string `json:"duel_id"`
	}
	decode(t, rec, &qs)
	assert.True(t, qs.InQueue, "alice must still be waiting")
	assert.Empty(t, qs.DuelID, "alice must not be pointed at someone else's duel")
}

func TestMatchEndpointPairsWaitingPlayers(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.Routes()

	alice := registerAndLogin(t, mux, "alice")
	bob := registerAndLogin(t, mux, "bob")

	var qs struct {
		InQueue bool   `json:"in_queue"`
		DuelID  string `json:"duel_id"`
	}

	// Nothing to pair yet.
	rec := do(t, mux, http.MethodPost, "/queue/match", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &qs)
	assert.False(t, qs.InQueue)
	assert.Empty(t, qs.DuelID)

	// Seed the queue through the matchmaker directly, then drive one match.
	require.NoError(t, srv.Matchmaker.Enqueue(context.Background(), userIDFor(t, srv, "alice")))
	require.NoError(t, srv.Matchmaker.Enqueue(context.Background(), userIDFor(t, srv, "bob")))

	rec = do(t, mux, http.MethodPost, "/queue/match", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &qs)
	assert.NotEmpty(t, qs.DuelID)
}

func userIDFor(t *testing.T, srv *Server, username string) (id uuid.UUID) {
	require.NoError(t, srv.Store.View(context.Background(), func(st *models.State) error {
		u := st.UserByName(username)
		require.NotNil(t, u)
		id = u.ID
		return nil
	}))
	return id
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.Routes()

	for _, path := range []string{"/queue/join", "/queue/leave", "/duel/bot"} {
		rec := do(t, mux, http.MethodPost, path, "", nil)
		assert.Equalf(t, http.StatusUnauthorized, rec.Code, "POST %s without a token", path)
	}
	rec := do(t, mux, http.MethodGet, "/user/me", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDuplicateUsernameRejected(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.Routes()

	creds := map[string]string{"username": "eve", "password": "pw"}
	rec := do(t, mux, http.MethodPost, "/user/create", "", creds)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, mux, http.MethodPost, "/user/create", "", creds)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUnknownDuelIs404(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.Routes()
	token := registerAndLogin(t, mux, "frank")

	rec := do(t, mux, http.MethodGet, "/duel/1699999999999", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
