package vocab

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Card is a vocabulary flashcard together with its scheduling state.
// The scheduler only reads and writes the SRS fields (Ease through LastReviewedAt).
type Card struct {
	ID    string   `json:"id"`
	Front string   `json:"front"`
	Back  string   `json:"back"`
	Notes string   `json:"notes,omitempty"`
	Tags  []string `json:"tags"`

	Ease           float64    `json:"ease"`
	IntervalDays   int        `json:"interval_days"`
	Reps           int        `json:"reps"`
	Lapses         int        `json:"lapses"`
	DueAt          time.Time  `json:"due_at"`
	LastReviewedAt *time.Time `json:"last_reviewed_at"` // nil before first review.

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCard creates a never-reviewed card with a fresh ID and the default ease.
// Due is set to now (immediately reviewable).
func NewCard(front, back string, tags ...string) Card {
	now := time.Now()
	return Card{
		ID:        uuid.NewString(),
		Front:     front,
		Back:      back,
		Tags:      normalizeTags(tags),
		Ease:      DefaultEase,
		DueAt:     now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasTag reports whether the card carries tag.
func (c Card) HasTag(tag string) bool {
	return slices.Contains(c.Tags, tag)
}

// HasAnyTag reports whether the card carries at least one tag in set.
func (c Card) HasAnyTag(set map[string]struct{}) bool {
	for _, t := range c.Tags {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

// IsDue reports whether the card is due at now.
func (c Card) IsDue(now time.Time) bool {
	return !c.DueAt.After(now)
}

// Stage returns the lifecycle stage derived from the card's counters.
func (c Card) Stage() Stage {
	switch {
	case c.Reps > 0:
		return Review
	case c.LastReviewedAt != nil || c.Lapses > 0:
		return Relearning
	default:
		return New
	}
}

// clone returns a deep copy of the card. Pointer and slice fields are copied by value.
func (c Card) clone() Card {
	out := c
	if c.Tags != nil {
		out.Tags = slices.Clone(c.Tags)
	}
	if c.LastReviewedAt != nil {
		v := *c.LastReviewedAt
		out.LastReviewedAt = &v
	}
	return out
}

// normalizeTags drops empty and duplicate tags, keeping first-seen order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}
