package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/sky-flux/vocab"
)

const cardColumns = `id, front, back, notes, ease, interval_days, reps, lapses,
	due_at, last_reviewed_at, created_at, updated_at`

// TagCount is a tag and the number of cards carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Cards int    `json:"cards"`
}

// AddCard inserts a new card and its tags.
func (s *Store) AddCard(ctx context.Context, c vocab.Card) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin add card: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO cards (`+cardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Front, c.Back, c.Notes, c.Ease, c.IntervalDays, c.Reps, c.Lapses,
		formatTime(c.DueAt), nullTime(c.LastReviewedAt), formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return fmt.Errorf("%w: %s", ErrDuplicate, c.ID)
		}
		return fmt.Errorf("store: insert card %s: %w", c.ID, err)
	}
	if err := insertTags(ctx, tx, c.ID, c.Tags); err != nil {
		return err
	}
	return tx.Commit()
}

func insertTags(ctx context.Context, tx *sql.Tx, cardID string, tags []string) error {
	for i, t := range tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO card_tags (card_id, tag, position) VALUES (?, ?, ?)`,
			cardID, t, i); err != nil {
			return fmt.Errorf("store: insert tag %q for card %s: %w", t, cardID, err)
		}
	}
	return nil
}

// UpdateCard overwrites a stored card's content, tags and scheduling fields.
// It returns ErrNotFound if the card does not exist.
func (s *Store) UpdateCard(ctx context.Context, c vocab.Card) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin update card: %w", err)
	}
	defer tx.Rollback()

	if err := updateCard(ctx, tx, c); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM card_tags WHERE card_id = ?`, c.ID); err != nil {
		return fmt.Errorf("store: clear tags for card %s: %w", c.ID, err)
	}
	if err := insertTags(ctx, tx, c.ID, c.Tags); err != nil {
		return err
	}
	return tx.Commit()
}

func updateCard(ctx context.Context, tx *sql.Tx, c vocab.Card) error {
	res, err := tx.ExecContext(ctx, `UPDATE cards SET
			front = ?, back = ?, notes = ?, ease = ?, interval_days = ?, reps = ?, lapses = ?,
			due_at = ?, last_reviewed_at = ?, updated_at = ?
		WHERE id = ?`,
		c.Front, c.Back, c.Notes, c.Ease, c.IntervalDays, c.Reps, c.Lapses,
		formatTime(c.DueAt), nullTime(c.LastReviewedAt), formatTime(c.UpdatedAt), c.ID)
	if err != nil {
		return fmt.Errorf("store: update card %s: %w", c.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update card %s: %w", c.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: card %s", ErrNotFound, c.ID)
	}
	return nil
}

// GetCard returns the card with the given ID, or ErrNotFound.
func (s *Store) GetCard(ctx context.Context, id string) (vocab.Card, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	c, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return vocab.Card{}, fmt.Errorf("%w: card %s", ErrNotFound, id)
	}
	if err != nil {
		return vocab.Card{}, err
	}

	tags, err := s.tagsByCard(ctx, `WHERE card_id = ?`, id)
	if err != nil {
		return vocab.Card{}, err
	}
	c.Tags = tags[c.ID]
	return c, nil
}

// ListCards returns every card, oldest first.
func (s *Store) ListCards(ctx context.Context) ([]vocab.Card, error) {
	return s.listCards(ctx, `ORDER BY created_at, id`)
}

// ListCardsByTag returns the cards carrying tag, oldest first.
func (s *Store) ListCardsByTag(ctx context.Context, tag string) ([]vocab.Card, error) {
	return s.listCards(ctx,
		`WHERE id IN (SELECT card_id FROM card_tags WHERE tag = ?) ORDER BY created_at, id`, tag)
}

func (s *Store) listCards(ctx context.Context, where string, args ...any) ([]vocab.Card, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT `+cardColumns+` FROM cards `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list cards: %w", err)
	}
	defer rows.Close()

	var cards []vocab.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list cards: %w", err)
	}
	rows.Close()

	tags, err := s.tagsByCard(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range cards {
		cards[i].Tags = tags[cards[i].ID]
	}
	return cards, nil
}

// Tags returns every tag with its card count, ordered by tag.
func (s *Store) Tags(ctx context.Context) ([]TagCount, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT tag, COUNT(*) FROM card_tags GROUP BY tag ORDER BY tag`)
	if err != nil {
		return nil, fmt.Errorf("store: list tags: %w", err)
	}
	defer rows.Close()

	var out []TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Cards); err != nil {
			return nil, fmt.Errorf("store: scan tag: %w", err)
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func (s *Store) tagsByCard(ctx context.Context, where string, args ...any) (map[string][]string, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT card_id, tag FROM card_tags `+where+` ORDER BY card_id, position`, args...)
	if err != nil {
		return nil, fmt.Errorf("store: load tags: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var id, tag string
		if err := rows.Scan(&id, &tag); err != nil {
			return nil, fmt.Errorf("store: scan tag: %w", err)
		}
		out[id] = append(out[id], tag)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCard(sc scanner) (vocab.Card, error) {
	var (
		c                         vocab.Card
		dueAt, createdAt, updated string
		lastReviewed              sql.NullString
	)
	err := sc.Scan(&c.ID, &c.Front, &c.Back, &c.Notes, &c.Ease, &c.IntervalDays, &c.Reps, &c.Lapses,
		&dueAt, &lastReviewed, &createdAt, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return vocab.Card{}, err
	}
	if err != nil {
		return vocab.Card{}, fmt.Errorf("store: scan card: %w", err)
	}

	if c.DueAt, err = parseTime(dueAt); err != nil {
		return vocab.Card{}, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return vocab.Card{}, err
	}
	if c.UpdatedAt, err = parseTime(updated); err != nil {
		return vocab.Card{}, err
	}
	if lastReviewed.Valid {
		t, err := parseTime(lastReviewed.String)
		if err != nil {
			return vocab.Card{}, err
		}
		c.LastReviewedAt = &t
	}
	return c, nil
}

// escapeLike is used by SearchCards to match user input literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// SearchCards returns cards whose front, back or notes contain q,
// case-insensitively.
func (s *Store) SearchCards(ctx context.Context, q string) ([]vocab.Card, error) {
	pattern := "%" + escapeLike(q) + "%"
	return s.listCards(ctx,
		`WHERE front LIKE ? ESCAPE '\' OR back LIKE ? ESCAPE '\' OR notes LIKE ? ESCAPE '\'
		ORDER BY created_at, id`,
		pattern, pattern, pattern)
}
