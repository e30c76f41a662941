package models

import (
	"fmt"
	"time"
)

const (
	// MaxPlayerNameLength bounds the display name stored with a score.
	MaxPlayerNameLength = 32
)

// Score is one leaderboard entry.
// SubmissionID is chosen by the submitter so that retries store the score once.
type Score struct {
	ID             int64     `json:"id"`
	SubmissionID   string    `json:"submissionId"`
	Player         string    `json:"player"`
	PlayerSlug     string    `json:"playerSlug"`
	Difficulty     string    `json:"difficulty"`
	Moves          int       `json:"moves"`
	ElapsedSeconds float64   `json:"elapsedSeconds"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Validate checks the fields a submitter controls.
func (s *Score) Validate() error {
	if s.SubmissionID == "" {
		return fmt.Errorf("submissionId is required")
	}
	if s.Player == "" || len(s.Player) > MaxPlayerNameLength {
		return fmt.Errorf("player must be between 1 and %d characters", MaxPlayerNameLength)
	}
	switch s.Difficulty {
	case "easy", "medium", "hard":
	default:
		return fmt.Errorf("unknown difficulty: %q", s.Difficulty)
	}
	if s.Moves <= 0 {
		return fmt.Errorf("moves must be positive")
	}
	if s.ElapsedSeconds < 0 {
		return fmt.Errorf("elapsedSeconds must not be negative")
	}
	return nil
}
