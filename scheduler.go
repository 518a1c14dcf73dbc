package vocab

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// maxAllowedInterval keeps due-date arithmetic inside time.Duration range.
const maxAllowedInterval = 100000

// ScheduleResult is the scheduler's output for one grade. It is not persisted
// itself; ApplySchedule merges it into a Card.
type ScheduleResult struct {
	Ease         float64   `json:"ease"`
	IntervalDays int       `json:"interval_days"`
	DueAt        time.Time `json:"due_at"`
	Reps         int       `json:"reps"`
	Lapses       int       `json:"lapses"`
}

// CalculateSchedule computes the next scheduling state for card graded g at now.
// It is pure: the card is not modified.
func CalculateSchedule(card Card, g Grade, now time.Time) ScheduleResult {
	return calculateSchedule(card, g, now, DefaultMaximumInterval)
}

func calculateSchedule(card Card, g Grade, now time.Time, maxIvl int) ScheduleResult {
	next := nextStep(step{
		ease:     card.Ease,
		interval: card.IntervalDays,
		reps:     card.Reps,
		lapses:   card.Lapses,
	}, g)
	next.interval = min(next.interval, maxIvl)

	return ScheduleResult{
		Ease:         next.ease,
		IntervalDays: next.interval,
		DueAt:        now.Add(time.Duration(next.interval) * 24 * time.Hour),
		Reps:         next.reps,
		Lapses:       next.lapses,
	}
}

// ApplySchedule merges r into card and stamps LastReviewedAt and UpdatedAt with now.
// All other fields are preserved. The input card is not mutated.
func ApplySchedule(card Card, r ScheduleResult, now time.Time) Card {
	c := card.clone()
	c.Ease = r.Ease
	c.IntervalDays = r.IntervalDays
	c.DueAt = r.DueAt
	c.Reps = r.Reps
	c.Lapses = r.Lapses
	c.LastReviewedAt = &now
	c.UpdatedAt = now
	return c
}

// SchedulerConfig configures a Scheduler.
// Zero values produce sensible defaults; see field comments.
type SchedulerConfig struct {
	MaximumInterval int              `json:"maximum_interval"` // zero → 36500
	Now             func() time.Time `json:"-"`                // nil → time.Now
}

// Scheduler binds the SM-2 functions to a clock and an interval cap.
type Scheduler struct {
	maximumInterval int
	now             func() time.Time
}

// NewScheduler creates a Scheduler from the given config.
// Zero-value fields are filled with defaults; invalid values return an error.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	maxIvl := cfg.MaximumInterval
	if maxIvl == 0 {
		maxIvl = DefaultMaximumInterval
	}
	if maxIvl < 1 || maxIvl > maxAllowedInterval {
		return nil, fmt.Errorf("%w: maximum interval %d out of range [1, %d]",
			ErrInvalidConfig, maxIvl, maxAllowedInterval)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Scheduler{maximumInterval: maxIvl, now: now}, nil
}

// Schedule computes the next state for card graded g. The clock is read once.
func (s *Scheduler) Schedule(card Card, g Grade) ScheduleResult {
	return calculateSchedule(card, g, s.now(), s.maximumInterval)
}

// ReviewCard grades the card and returns the updated card and its review log.
// A positive duration is recorded on the log in milliseconds.
// The input card is not mutated.
func (s *Scheduler) ReviewCard(card Card, g Grade, duration time.Duration) (Card, ReviewLog) {
	now := s.now()
	return s.reviewAt(card, g, now, duration)
}

func (s *Scheduler) reviewAt(card Card, g Grade, now time.Time, duration time.Duration) (Card, ReviewLog) {
	r := calculateSchedule(card, g, now, s.maximumInterval)
	c := ApplySchedule(card, r, now)

	log := ReviewLog{
		ID:             uuid.NewString(),
		CardID:         card.ID,
		Grade:          g.clamp(),
		ReviewedAt:     now,
		DueBefore:      card.DueAt,
		DueAfter:       c.DueAt,
		IntervalBefore: card.IntervalDays,
		IntervalAfter:  c.IntervalDays,
		EaseBefore:     card.Ease,
		EaseAfter:      c.Ease,
	}
	if duration > 0 {
		ms := int(duration.Milliseconds())
		log.ReviewDuration = &ms
	}
	return c, log
}

// PreviewCard returns the result of grading the card with each possible grade.
func (s *Scheduler) PreviewCard(card Card) map[Grade]ScheduleResult {
	now := s.now()
	result := make(map[Grade]ScheduleResult, len(Grades))
	for _, g := range Grades {
		result[g] = calculateSchedule(card, g, now, s.maximumInterval)
	}
	return result
}

// IntervalPreviews returns the formatted interval the card would get for each
// grade, for showing the learner a forecast before they answer.
func (s *Scheduler) IntervalPreviews(card Card) map[Grade]string {
	out := make(map[Grade]string, len(Grades))
	for g, r := range s.PreviewCard(card) {
		out[g] = FormatInterval(r.IntervalDays)
	}
	return out
}

// RescheduleCard replays the given review logs to rebuild the card's scheduling state.
// Returns ErrCardIDMismatch if any log's CardID does not match the card's ID.
func (s *Scheduler) RescheduleCard(card Card, logs []ReviewLog) (Card, error) {
	c := card.clone()
	for _, log := range logs {
		if log.CardID != c.ID {
			return Card{}, fmt.Errorf("%w: card %s, log %s", ErrCardIDMismatch, c.ID, log.CardID)
		}
		r := calculateSchedule(c, log.Grade, log.ReviewedAt, s.maximumInterval)
		c = ApplySchedule(c, r, log.ReviewedAt)
	}
	return c, nil
}

// MarshalJSON implements json.Marshaler. The clock is not serialized.
func (s *Scheduler) MarshalJSON() ([]byte, error) {
	return json.Marshal(SchedulerConfig{MaximumInterval: s.maximumInterval})
}

// UnmarshalJSON implements json.Unmarshaler. The rebuilt scheduler uses time.Now.
func (s *Scheduler) UnmarshalJSON(data []byte) error {
	var cfg SchedulerConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return err
	}
	rebuilt, err := NewScheduler(cfg)
	if err != nil {
		return err
	}
	*s = *rebuilt
	return nil
}
