package vocab

import "time"

// ReviewLog records a single review event for a card. Logs are append-only.
type ReviewLog struct {
	ID             string    `json:"id"`
	CardID         string    `json:"card_id"`
	Grade          Grade     `json:"grade"`
	ReviewedAt     time.Time `json:"reviewed_at"`
	DueBefore      time.Time `json:"due_before"`
	DueAfter       time.Time `json:"due_after"`
	IntervalBefore int       `json:"interval_before"`
	IntervalAfter  int       `json:"interval_after"`
	EaseBefore     float64   `json:"ease_before"`
	EaseAfter      float64   `json:"ease_after"`
	ReviewDuration *int      `json:"review_duration,omitempty"` // milliseconds, optional.
}
