package common

import (
	"errors"
	"net/http"
)

// Domain error taxonomy. Each kind maps to a distinct user-visible message;
// handlers translate them to HTTP statuses in one place below.
var (
	ErrAlreadyQueued      = errors.New("player is already in the matchmaking queue")
	ErrAlreadyInDuel      = errors.New("player is already in an active duel")
	ErrDuelClosed         = errors.New("duel is already closed")
	ErrDuelNotFound       = errors.New("duel not found")
	ErrNotParticipant     = errors.New("player is not a participant in this duel")
	ErrSnippetUnavailable = errors.New("snippet provider is unavailable")
	ErrStateUnavailable   = errors.New("state store is unavailable")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrNoMatch            = errors.New("not enough players in the queue")
)

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrDuelNotFound), errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyQueued), errors.Is(err, ErrAlreadyInDuel),
		errors.Is(err, ErrDuelClosed), errors.Is(err, ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, ErrSnippetUnavailable), errors.Is(err, ErrStateUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrNoMatch):
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}
