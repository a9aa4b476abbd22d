package models

import "github.com/google/uuid"

// InitialRating is assigned to every user at registration.
const InitialRating = 1000.0

type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Password string    `json:"password,omitempty"`

	Rating float64 `json:"rating"`
}

// LeaderboardEntry is a derived read-only view of one user, never persisted.
type LeaderboardEntry struct {
	Username string  `json:"username"`
	Rating   float64 `json:"rating"`
}
