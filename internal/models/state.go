package models

import "github.com/google/uuid"

// State is the whole persisted world: every mutation loads it, modifies it,
// and saves it back inside one critical section owned by the store.
type State struct {
	Users map[uuid.UUID]*User `json:"users"`
	Queue []uuid.UUID         `json:"queue"`
	Duels map[string]*Duel    `json:"duels"`
}

// NewState returns an empty but valid state, used when no persisted data
// exists yet.
func NewState() *State {
	return &State{
		Users: make(map[uuid.UUID]*User),
		Queue: []uuid.UUID{},
		Duels: make(map[string]*Duel),
	}
}

// Normalize repairs nil maps/slices after JSON decoding so callers never
// have to nil-check before writing.
func (s *State) Normalize() {
	if s.Users == nil {
		s.Users = make(map[uuid.UUID]*User)
	}
	if s.Queue == nil {
		s.Queue = []uuid.UUID{}
	}
	if s.Duels == nil {
		s.Duels = make(map[string]*Duel)
	}
	for _, d := range s.Duels {
		if d.Submissions == nil {
			d.Submissions = make(map[uuid.UUID]Submission)
		}
		if d.Outcome.Kind == "" {
			d.Outcome = OpenOutcome()
		}
	}
}

// InQueue reports whether the player is currently waiting for a match.
func (s *State) InQueue(playerID uuid.UUID) bool {
	for _, id := range s.Queue {
		if id == playerID {
			return true
		}
	}
	return false
}

// RemoveFromQueue deletes the player from the queue if present, preserving
// the order of the remaining entries.
func (s *State) RemoveFromQueue(playerID uuid.UUID) {
	out := s.Queue[:0]
	for _, id := range s.Queue {
		if id != playerID {
			out = append(out, id)
		}
	}
	s.Queue = out
}

// ActiveDuelFor returns the open duel the player participates in, or nil.
func (s *State) ActiveDuelFor(playerID uuid.UUID) *Duel {
	for _, d := range s.Duels {
		if !d.Outcome.Closed() && d.HasParticipant(playerID) {
			return d
		}
	}
	return nil
}

// UserByName looks a user up by exact (case-sensitive) username.
func (s *State) UserByName(username string) *User {
	for _, u := range s.Users {
		if u.Username == username {
			return u
		}
	}
	return nil
}
