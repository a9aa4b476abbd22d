package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// BotDifficulty selects how the bot oracle answers in a bot duel.
type BotDifficulty string

const (
	BotEasy BotDifficulty = "easy"
	BotHard BotDifficulty = "hard"
)

// Fixed synthetic participant IDs for bot duels. Stable across restarts so
// persisted duels always reference the same bot identity.
var (
	BotEasyID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("bot_easy"))
	BotHardID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("bot_hard"))
)

// BotID returns the synthetic participant ID for a difficulty.
func BotID(d BotDifficulty) uuid.UUID {
	if d == BotHard {
		return BotHardID
	}
	return BotEasyID
}

// IsBotID reports whether id belongs to one of the synthetic bots.
func IsBotID(id uuid.UUID) bool {
	return id == BotEasyID || id == BotHardID
}

// OutcomeKind is the duel state machine tag: a duel is open until it closes
// with either a winner or a tie, and never reopens.
type OutcomeKind string

const (
	OutcomeOpen OutcomeKind = "open"
	OutcomeWon  OutcomeKind = "won"
	OutcomeTie  OutcomeKind = "tie"
)

// Outcome is the tagged result of a duel. WinnerID is only meaningful when
// Kind == OutcomeWon.
type Outcome struct {
	Kind     OutcomeKind `json:"kind"`
	WinnerID uuid.UUID   `json:"winner_id,omitempty"`
}

func OpenOutcome() Outcome          { return Outcome{Kind: OutcomeOpen} }
func WonOutcome(w uuid.UUID) Outcome { return Outcome{Kind: OutcomeWon, WinnerID: w} }
func TieOutcome() Outcome           { return Outcome{Kind: OutcomeTie} }

// Closed reports whether the duel reached a terminal state.
func (o Outcome) Closed() bool { return o.Kind != OutcomeOpen }

// Submission is one player's recorded answer for a duel.
type Submission struct {
	Lines       []int     `json:"lines"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Duel is one matched contest between two participants over one code snippet.
// CodeSnippet and BugLines are fixed at creation; Outcome transitions only
// open -> {won, tie}. A closed duel is immutable.
type Duel struct {
	ID        string    `json:"id"`
	PlayerAID uuid.UUID `json:"player_a_id"`
	PlayerBID uuid.UUID `json:"player_b_id"`

	CodeSnippet string    `json:"code_snippet"`
	BugLines    []int     `json:"bug_lines"`
	StartTime   time.Time `json:"start_time"`

	Outcome     Outcome                   `json:"outcome"`
	Submissions map[uuid.UUID]Submission  `json:"submissions"`

	IsBotDuel     bool          `json:"is_bot_duel"`
	BotDifficulty BotDifficulty `json:"bot_difficulty,omitempty"`
}

// HasParticipant reports whether id is one of the two duel participants.
func (d *Duel) HasParticipant(id uuid.UUID) bool {
	return d.PlayerAID == id || d.PlayerBID == id
}

// Opponent returns the other participant's ID. The caller must have verified
// participation first.
func (d *Duel) Opponent(id uuid.UUID) uuid.UUID {
	if d.PlayerAID == id {
		return d.PlayerBID
	}
	return d.PlayerAID
}

// HumanID returns the non-bot participant of a bot duel.
func (d *Duel) HumanID() uuid.UUID {
	if IsBotID(d.PlayerAID) {
		return d.PlayerBID
	}
	return d.PlayerAID
}

// LineCount returns the number of lines in the duel's code snippet.
func (d *Duel) LineCount() int {
	return strings.Count(d.CodeSnippet, "\n") + 1
}

// BothSubmitted reports whether each participant has a recorded submission.
func (d *Duel) BothSubmitted() bool {
	_, a := d.Submissions[d.PlayerAID]
	_, b := d.Submissions[d.PlayerBID]
	return a && b
}
