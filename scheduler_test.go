package vocab

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"
	"time"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func mustScheduler(t *testing.T, cfg SchedulerConfig) *Scheduler {
	t.Helper()
	s, err := NewScheduler(cfg)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	return s
}

// graduatedCard returns a card that has been reviewed successfully several times.
func graduatedCard() Card {
	last := t0.Add(-10 * 24 * time.Hour)
	return Card{
		ID:             "card-1",
		Front:          "la ventana",
		Back:           "the window",
		Notes:          "feminine",
		Tags:           []string{"house", "nouns"},
		Ease:           2.5,
		IntervalDays:   10,
		Reps:           3,
		Lapses:         1,
		DueAt:          t0,
		LastReviewedAt: &last,
		CreatedAt:      t0.Add(-60 * 24 * time.Hour),
		UpdatedAt:      last,
	}
}

// --- NewScheduler ---

func TestNewSchedulerDefault(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{})
	if s.maximumInterval != DefaultMaximumInterval {
		t.Errorf("maximumInterval = %d, want %d", s.maximumInterval, DefaultMaximumInterval)
	}
	if s.now == nil {
		t.Error("clock should default to time.Now")
	}
}

func TestNewSchedulerInvalidMaxInterval(t *testing.T) {
	for _, ivl := range []int{-1, maxAllowedInterval + 1} {
		_, err := NewScheduler(SchedulerConfig{MaximumInterval: ivl})
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("MaximumInterval %d: error = %v, want ErrInvalidConfig", ivl, err)
		}
	}
}

// --- CalculateSchedule ---

func TestCalculateScheduleNewGood(t *testing.T) {
	card := NewCard("der Tisch", "the table")
	r := CalculateSchedule(card, Good, t0)

	if r.IntervalDays != 1 {
		t.Errorf("IntervalDays = %d, want 1", r.IntervalDays)
	}
	assertFloat(t, "Ease", r.Ease, card.Ease)
	if r.Reps != 1 {
		t.Errorf("Reps = %d, want 1", r.Reps)
	}
	if want := t0.Add(24 * time.Hour); !r.DueAt.Equal(want) {
		t.Errorf("DueAt = %v, want %v", r.DueAt, want)
	}
}

func TestCalculateScheduleNewAgain(t *testing.T) {
	card := NewCard("der Tisch", "the table")
	card.Lapses = 4
	r := CalculateSchedule(card, Again, t0)

	if r.IntervalDays != 0 || r.Reps != 0 {
		t.Errorf("IntervalDays/Reps = %d/%d, want 0/0", r.IntervalDays, r.Reps)
	}
	if r.Lapses != 5 {
		t.Errorf("Lapses = %d, want 5", r.Lapses)
	}
	// Interval 0 → due immediately.
	if !r.DueAt.Equal(t0) {
		t.Errorf("DueAt = %v, want %v", r.DueAt, t0)
	}
}

func TestCalculateScheduleGraduatedGood(t *testing.T) {
	r := CalculateSchedule(graduatedCard(), Good, t0)
	if r.IntervalDays != 25 {
		t.Errorf("IntervalDays = %d, want 25", r.IntervalDays)
	}
	if r.Reps != 4 {
		t.Errorf("Reps = %d, want 4", r.Reps)
	}
	if want := t0.Add(25 * 24 * time.Hour); !r.DueAt.Equal(want) {
		t.Errorf("DueAt = %v, want %v", r.DueAt, want)
	}
}

func TestCalculateScheduleGraduatedAgainDemotes(t *testing.T) {
	r := CalculateSchedule(graduatedCard(), Again, t0)
	if r.Reps != 0 || r.IntervalDays != 0 {
		t.Errorf("Reps/IntervalDays = %d/%d, want 0/0", r.Reps, r.IntervalDays)
	}
	if r.Lapses != 2 {
		t.Errorf("Lapses = %d, want 2", r.Lapses)
	}
	assertFloat(t, "Ease", r.Ease, 2.3)
}

func TestCalculateScheduleDoesNotMutate(t *testing.T) {
	card := graduatedCard()
	before := card.clone()
	_ = CalculateSchedule(card, Easy, t0)
	if card.Ease != before.Ease || card.IntervalDays != before.IntervalDays || card.Reps != before.Reps {
		t.Errorf("card mutated: %+v", card)
	}
}

// --- ApplySchedule ---

func TestApplySchedulePartialUpdate(t *testing.T) {
	card := graduatedCard()
	now := t0.Add(time.Hour)
	r := CalculateSchedule(card, Hard, now)
	got := ApplySchedule(card, r, now)

	if got.ID != card.ID || got.Front != card.Front || got.Back != card.Back || got.Notes != card.Notes {
		t.Errorf("content fields changed: %+v", got)
	}
	if !slices.Equal(got.Tags, card.Tags) {
		t.Errorf("Tags = %v, want %v", got.Tags, card.Tags)
	}
	if !got.CreatedAt.Equal(card.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, card.CreatedAt)
	}
	if got.IntervalDays != r.IntervalDays || got.Reps != r.Reps || got.Lapses != r.Lapses || !got.DueAt.Equal(r.DueAt) {
		t.Errorf("SRS fields not applied: %+v vs %+v", got, r)
	}
	assertFloat(t, "Ease", got.Ease, r.Ease)
	if got.LastReviewedAt == nil || !got.LastReviewedAt.Equal(now) {
		t.Errorf("LastReviewedAt = %v, want %v", got.LastReviewedAt, now)
	}
	if !got.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, now)
	}

	// The returned card must not alias the input's tags.
	got.Tags[0] = "changed"
	if card.Tags[0] != "house" {
		t.Error("ApplySchedule result aliases input Tags")
	}
}

// --- Scheduler ---

func TestSchedulerUsesClock(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{Now: fixedClock(t0)})
	r := s.Schedule(graduatedCard(), Good)
	if want := t0.Add(25 * 24 * time.Hour); !r.DueAt.Equal(want) {
		t.Errorf("DueAt = %v, want %v", r.DueAt, want)
	}
}

func TestSchedulerMaximumInterval(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{MaximumInterval: 20, Now: fixedClock(t0)})
	r := s.Schedule(graduatedCard(), Easy)
	if r.IntervalDays != 20 {
		t.Errorf("IntervalDays = %d, want 20 (capped)", r.IntervalDays)
	}
}

func TestReviewCard(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{Now: fixedClock(t0)})
	card := graduatedCard()
	c, log := s.ReviewCard(card, Good, 2500*time.Millisecond)

	if c.IntervalDays != 25 {
		t.Errorf("IntervalDays = %d, want 25", c.IntervalDays)
	}
	if log.ID == "" {
		t.Error("log ID should be set")
	}
	if log.CardID != card.ID || log.Grade != Good || !log.ReviewedAt.Equal(t0) {
		t.Errorf("log = %+v", log)
	}
	if log.IntervalBefore != 10 || log.IntervalAfter != 25 {
		t.Errorf("intervals = %d→%d, want 10→25", log.IntervalBefore, log.IntervalAfter)
	}
	if !log.DueBefore.Equal(card.DueAt) || !log.DueAfter.Equal(c.DueAt) {
		t.Errorf("due = %v→%v", log.DueBefore, log.DueAfter)
	}
	if log.ReviewDuration == nil || *log.ReviewDuration != 2500 {
		t.Errorf("ReviewDuration = %v, want 2500", log.ReviewDuration)
	}
}

func TestReviewCardNoDuration(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{Now: fixedClock(t0)})
	_, log := s.ReviewCard(NewCard("a", "b"), Hard, 0)
	if log.ReviewDuration != nil {
		t.Errorf("ReviewDuration = %v, want nil", *log.ReviewDuration)
	}
}

func TestPreviewCard(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{Now: fixedClock(t0)})
	card := graduatedCard()
	preview := s.PreviewCard(card)

	if len(preview) != 4 {
		t.Fatalf("len(preview) = %d, want 4", len(preview))
	}
	want := map[Grade]int{Again: 0, Hard: 12, Good: 25, Easy: 34}
	for g, ivl := range want {
		if preview[g].IntervalDays != ivl {
			t.Errorf("preview[%v].IntervalDays = %d, want %d", g, preview[g].IntervalDays, ivl)
		}
	}
	// Previewing never mutates.
	if card.IntervalDays != 10 || card.Reps != 3 {
		t.Errorf("card mutated by preview: %+v", card)
	}
}

func TestIntervalPreviews(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{Now: fixedClock(t0)})

	got := s.IntervalPreviews(NewCard("a", "b"))
	want := map[Grade]string{Again: "Now", Hard: "Now", Good: "1 day", Easy: "4 days"}
	for g, w := range want {
		if got[g] != w {
			t.Errorf("new card preview[%v] = %q, want %q", g, got[g], w)
		}
	}

	got = s.IntervalPreviews(graduatedCard())
	want = map[Grade]string{Again: "Now", Hard: "12 days", Good: "25 days", Easy: "1 month"}
	for g, w := range want {
		if got[g] != w {
			t.Errorf("graduated preview[%v] = %q, want %q", g, got[g], w)
		}
	}
}

// --- RescheduleCard ---

func TestRescheduleCard(t *testing.T) {
	clock := t0
	s := mustScheduler(t, SchedulerConfig{Now: func() time.Time { return clock }})

	card := NewCard("el gato", "the cat")
	start := card
	var logs []ReviewLog
	for i, g := range []Grade{Good, Good, Again, Hard, Easy} {
		clock = t0.Add(time.Duration(i) * 72 * time.Hour)
		var log ReviewLog
		card, log = s.ReviewCard(card, g, 0)
		logs = append(logs, log)
	}

	got, err := s.RescheduleCard(start, logs)
	if err != nil {
		t.Fatalf("RescheduleCard: %v", err)
	}
	if got.IntervalDays != card.IntervalDays || got.Reps != card.Reps || got.Lapses != card.Lapses {
		t.Errorf("replayed = %+v, want %+v", got, card)
	}
	assertFloat(t, "Ease", got.Ease, card.Ease)
	if !got.DueAt.Equal(card.DueAt) {
		t.Errorf("DueAt = %v, want %v", got.DueAt, card.DueAt)
	}
}

func TestRescheduleCardIDMismatch(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{})
	card := NewCard("a", "b")
	_, err := s.RescheduleCard(card, []ReviewLog{{CardID: "other", Grade: Good, ReviewedAt: t0}})
	if !errors.Is(err, ErrCardIDMismatch) {
		t.Errorf("error = %v, want ErrCardIDMismatch", err)
	}
}

func TestRescheduleCardEmptyLogs(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{})
	card := graduatedCard()
	got, err := s.RescheduleCard(card, nil)
	if err != nil {
		t.Fatalf("RescheduleCard: %v", err)
	}
	// No logs → card returned as-is.
	if got.IntervalDays != card.IntervalDays || got.Reps != card.Reps {
		t.Errorf("got %+v, want %+v", got, card)
	}
}

// --- Scheduler JSON ---

func TestSchedulerJSONRoundTrip(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{MaximumInterval: 180})

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var s2 Scheduler
	if err := json.Unmarshal(data, &s2); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if s2.maximumInterval != 180 {
		t.Errorf("maximumInterval = %d, want 180", s2.maximumInterval)
	}
}

func TestSchedulerJSONInvalid(t *testing.T) {
	var s Scheduler
	if err := json.Unmarshal([]byte(`{"maximum_interval":-5}`), &s); err == nil {
		t.Error("Unmarshal should reject negative maximum interval")
	}
	if err := json.Unmarshal([]byte(`{"maximum_interval":"x"}`), &s); err == nil {
		t.Error("Unmarshal should reject malformed JSON")
	}
}
