package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sky-flux/vocab"
)

const reviewColumns = `id, card_id, grade, reviewed_at, due_before, due_after,
	interval_before, interval_after, ease_before, ease_after, duration_ms`

// RecordReview stores the rescheduled card and the log of the review that
// produced it in one transaction. The card must already exist.
func (s *Store) RecordReview(ctx context.Context, c vocab.Card, log vocab.ReviewLog) error {
	if log.CardID != c.ID {
		return fmt.Errorf("store: review log for card %s recorded against card %s: %w",
			log.CardID, c.ID, vocab.ErrCardIDMismatch)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin record review: %w", err)
	}
	defer tx.Rollback()

	if err := updateCard(ctx, tx, c); err != nil {
		return err
	}
	if err := insertReview(ctx, tx, log); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit review for card %s: %w", c.ID, err)
	}
	return nil
}

func insertReview(ctx context.Context, tx *sql.Tx, l vocab.ReviewLog) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO review_logs (`+reviewColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.CardID, int(l.Grade), formatTime(l.ReviewedAt), formatTime(l.DueBefore), formatTime(l.DueAfter),
		l.IntervalBefore, l.IntervalAfter, l.EaseBefore, l.EaseAfter, nullInt(l.ReviewDuration))
	if err != nil {
		return fmt.Errorf("store: insert review %s: %w", l.ID, err)
	}
	return nil
}

// ListReviews returns the full review history, oldest first.
func (s *Store) ListReviews(ctx context.Context) ([]vocab.ReviewLog, error) {
	return s.listReviews(ctx, `ORDER BY reviewed_at, id`)
}

// ListCardReviews returns one card's review history, oldest first.
func (s *Store) ListCardReviews(ctx context.Context, cardID string) ([]vocab.ReviewLog, error) {
	return s.listReviews(ctx, `WHERE card_id = ? ORDER BY reviewed_at, id`, cardID)
}

func (s *Store) listReviews(ctx context.Context, where string, args ...any) ([]vocab.ReviewLog, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT `+reviewColumns+` FROM review_logs `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list reviews: %w", err)
	}
	defer rows.Close()

	var logs []vocab.ReviewLog
	for rows.Next() {
		l, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list reviews: %w", err)
	}
	return logs, nil
}

func scanReview(sc scanner) (vocab.ReviewLog, error) {
	var (
		l                               vocab.ReviewLog
		grade                           int
		reviewedAt, dueBefore, dueAfter string
		duration                        sql.NullInt64
	)
	if err := sc.Scan(&l.ID, &l.CardID, &grade, &reviewedAt, &dueBefore, &dueAfter,
		&l.IntervalBefore, &l.IntervalAfter, &l.EaseBefore, &l.EaseAfter, &duration); err != nil {
		return vocab.ReviewLog{}, fmt.Errorf("store: scan review: %w", err)
	}

	l.Grade = vocab.Grade(grade)
	var err error
	if l.ReviewedAt, err = parseTime(reviewedAt); err != nil {
		return vocab.ReviewLog{}, err
	}
	if l.DueBefore, err = parseTime(dueBefore); err != nil {
		return vocab.ReviewLog{}, err
	}
	if l.DueAfter, err = parseTime(dueAfter); err != nil {
		return vocab.ReviewLog{}, err
	}
	if duration.Valid {
		ms := int(duration.Int64)
		l.ReviewDuration = &ms
	}
	return l, nil
}
