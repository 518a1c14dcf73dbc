package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sky-flux/vocab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "vocab.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testCard(id, front string, created time.Time, tags ...string) vocab.Card {
	return vocab.Card{
		ID:        id,
		Front:     front,
		Back:      "back of " + front,
		Notes:     "note",
		Tags:      tags,
		Ease:      vocab.DefaultEase,
		DueAt:     created,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestOpenAppliesMigrations(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "vocab.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, path, s.Path())

	var version int
	require.NoError(t, s.conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version))
	assert.Equal(t, SchemaVersion, version)

	var mode string
	require.NoError(t, s.conn.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
	require.NoError(t, s.Close())

	// Reopening an up-to-date database is a no-op.
	s, err = Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestAddAndGetCard(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	c := testCard("c1", "el perro", t0, "animals", "nouns")
	require.NoError(t, s.AddCard(ctx, c))

	got, err := s.GetCard(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, c.Front, got.Front)
	assert.Equal(t, c.Back, got.Back)
	assert.Equal(t, c.Notes, got.Notes)
	assert.Equal(t, []string{"animals", "nouns"}, got.Tags)
	assert.Equal(t, vocab.DefaultEase, got.Ease)
	assert.True(t, got.DueAt.Equal(t0))
	assert.True(t, got.CreatedAt.Equal(t0))
	assert.Nil(t, got.LastReviewedAt)

	err = s.AddCard(ctx, c)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestGetCardNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetCard(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListCards(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.AddCard(ctx, testCard("b", "la casa", t0.Add(time.Hour), "house")))
	require.NoError(t, s.AddCard(ctx, testCard("a", "el gato", t0, "animals")))
	require.NoError(t, s.AddCard(ctx, testCard("c", "la ventana", t0.Add(2*time.Hour), "house", "nouns")))

	cards, err := s.ListCards(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 3)
	assert.Equal(t, "a", cards[0].ID)
	assert.Equal(t, "b", cards[1].ID)
	assert.Equal(t, []string{"house", "nouns"}, cards[2].Tags)

	house, err := s.ListCardsByTag(ctx, "house")
	require.NoError(t, err)
	require.Len(t, house, 2)
	assert.Equal(t, "b", house[0].ID)
	assert.Equal(t, "c", house[1].ID)

	found, err := s.SearchCards(ctx, "VENT")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "c", found[0].ID)

	none, err := s.SearchCards(ctx, "%")
	require.NoError(t, err)
	assert.Empty(t, none)

	tags, err := s.Tags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []TagCount{{"animals", 1}, {"house", 2}, {"nouns", 1}}, tags)
}

func TestUpdateCard(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	c := testCard("c1", "el perro", t0, "animals")
	require.NoError(t, s.AddCard(ctx, c))

	c.Back = "the dog"
	c.Tags = []string{"pets"}
	require.NoError(t, s.UpdateCard(ctx, c))

	got, err := s.GetCard(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "the dog", got.Back)
	assert.Equal(t, []string{"pets"}, got.Tags)

	err = s.UpdateCard(ctx, testCard("ghost", "x", t0))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordReview(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	card := vocab.NewCard("el perro", "the dog", "animals")
	card.CreatedAt, card.UpdatedAt, card.DueAt = t0, t0, t0
	require.NoError(t, s.AddCard(ctx, card))

	sched, err := vocab.NewScheduler(vocab.SchedulerConfig{Now: func() time.Time { return t0 }})
	require.NoError(t, err)
	next, log := sched.ReviewCard(card, vocab.Good, 1800*time.Millisecond)
	require.NoError(t, s.RecordReview(ctx, next, log))

	got, err := s.GetCard(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Reps)
	assert.Equal(t, 1, got.IntervalDays)
	assert.True(t, got.DueAt.Equal(t0.Add(24*time.Hour)))
	require.NotNil(t, got.LastReviewedAt)
	assert.True(t, got.LastReviewedAt.Equal(t0))

	logs, err := s.ListCardReviews(ctx, card.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, log.ID, logs[0].ID)
	assert.Equal(t, vocab.Good, logs[0].Grade)
	assert.Equal(t, 0, logs[0].IntervalBefore)
	assert.Equal(t, 1, logs[0].IntervalAfter)
	require.NotNil(t, logs[0].ReviewDuration)
	assert.Equal(t, 1800, *logs[0].ReviewDuration)

	all, err := s.ListReviews(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRecordReviewIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	card := testCard("c1", "el perro", t0)
	require.NoError(t, s.AddCard(ctx, card))

	// A log with an invalid grade violates the CHECK constraint, so the card
	// update in the same transaction must roll back.
	updated := card
	updated.Reps = 5
	bad := vocab.ReviewLog{ID: "l1", CardID: "c1", Grade: 9, ReviewedAt: t0, DueBefore: t0, DueAfter: t0}
	require.Error(t, s.RecordReview(ctx, updated, bad))

	got, err := s.GetCard(ctx, "c1")
	require.NoError(t, err)
	assert.Zero(t, got.Reps)
	logs, err := s.ListCardReviews(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestRecordReviewRejectsMismatchedLog(t *testing.T) {
	s := openTestStore(t)
	err := s.RecordReview(context.Background(), testCard("a", "x", t0), vocab.ReviewLog{CardID: "b"})
	assert.ErrorIs(t, err, vocab.ErrCardIDMismatch)
}

func TestRecordReviewUnknownCard(t *testing.T) {
	s := openTestStore(t)
	c := testCard("ghost", "x", t0)
	err := s.RecordReview(context.Background(), c, vocab.ReviewLog{ID: "l", CardID: "ghost", Grade: vocab.Good})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReviewLogsAreAppendOnly(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	card := testCard("c1", "el perro", t0)
	require.NoError(t, s.AddCard(ctx, card))
	log := vocab.ReviewLog{ID: "l1", CardID: "c1", Grade: vocab.Hard, ReviewedAt: t0, DueBefore: t0, DueAfter: t0}
	require.NoError(t, s.RecordReview(ctx, card, log))

	_, err := s.conn.ExecContext(ctx, `UPDATE review_logs SET grade = 4 WHERE id = 'l1'`)
	assert.Error(t, err)

	_, err = s.conn.ExecContext(ctx, `DELETE FROM review_logs WHERE id = 'l1'`)
	assert.Error(t, err)

	// The cascade from a reviewed card would drop its history.
	_, err = s.conn.ExecContext(ctx, `DELETE FROM cards WHERE id = 'c1'`)
	assert.Error(t, err)

	logs, err := s.ListCardReviews(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestUnreviewedCardCanBeDeleted(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.AddCard(ctx, testCard("c1", "el perro", t0, "animals")))
	_, err := s.conn.ExecContext(ctx, `DELETE FROM cards WHERE id = 'c1'`)
	require.NoError(t, err)

	_, err = s.GetCard(ctx, "c1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchCardsMatchesNotes(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	c := testCard("a", "la mano", t0, "body")
	c.Notes = "feminine despite the -o ending"
	require.NoError(t, s.AddCard(ctx, c))
	require.NoError(t, s.AddCard(ctx, testCard("b", "el pie", t0.Add(time.Hour), "body")))

	found, err := s.SearchCards(ctx, "Feminine")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "a", found[0].ID)
}
