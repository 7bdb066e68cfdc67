package store

import "time"

type User struct {
	ID             int64     `json:"id"`
	ExternalUserID string    `json:"external_user_id"`
	PasswordHash   string    `json:"-"` // Do not expose this in JSON responses
	CreatedAt      time.Time `json:"created_at"`
}

// Entry is a single immutable journal note. Keywords and sentiment are
// derived from the text once, at creation time, and never recomputed.
type Entry struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Text         string    `json:"text"`
	Sentiment    float64   `json:"sentiment"`
	Keywords     []string  `json:"keywords"`
	KeywordsJSON string    `json:"-"` // Stored as a JSON array string in the DB
	CreatedAt    time.Time `json:"created_at"`
}

// Traits is the five-dimensional persona vector. Every component stays
// clamped to [0, 1].
type Traits struct {
	Curiosity     float64 `json:"curiosity"`
	Empathy       float64 `json:"empathy"`
	Rigor         float64 `json:"rigor"`
	Mystique      float64 `json:"mystique"`
	ChallengeRate float64 `json:"challenge_rate"`
}

// Persona is the one live trait row per user. Version increments on every
// successful evolution step.
type Persona struct {
	UserID    int64     `json:"user_id"`
	Traits    Traits    `json:"traits"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}
