package session

import (
	"fmt"
	"time"

	"github.com/sky-flux/vocab"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

// dueCard is a graduated card that became due overdue before t0.
func dueCard(id string, overdue time.Duration, tags ...string) vocab.Card {
	return vocab.Card{
		ID:           id,
		Front:        "front " + id,
		Back:         "back " + id,
		Tags:         tags,
		Ease:         vocab.DefaultEase,
		IntervalDays: 5,
		Reps:         2,
		DueAt:        t0.Add(-overdue),
		CreatedAt:    t0.Add(-30 * day),
	}
}

// futureCard is a graduated card due interval days after t0.
func futureCard(id string, interval int, tags ...string) vocab.Card {
	return vocab.Card{
		ID:           id,
		Front:        "front " + id,
		Back:         "back " + id,
		Tags:         tags,
		Ease:         vocab.DefaultEase,
		IntervalDays: interval,
		Reps:         3,
		DueAt:        t0.Add(time.Duration(interval) * day),
		CreatedAt:    t0.Add(-90 * day),
	}
}

// newCard is an unreviewed card created age before t0.
func newCard(id string, age time.Duration, tags ...string) vocab.Card {
	return vocab.Card{
		ID:        id,
		Front:     "front " + id,
		Back:      "back " + id,
		Tags:      tags,
		Ease:      vocab.DefaultEase,
		DueAt:     t0.Add(-age),
		CreatedAt: t0.Add(-age),
	}
}

// history returns one review log per grade for cardID, oldest first.
func history(cardID string, grades ...vocab.Grade) []vocab.ReviewLog {
	logs := make([]vocab.ReviewLog, len(grades))
	for i, g := range grades {
		logs[i] = vocab.ReviewLog{
			ID:         fmt.Sprintf("%s-log-%d", cardID, i),
			CardID:     cardID,
			Grade:      g,
			ReviewedAt: t0.Add(-time.Duration(len(grades)-i) * day),
		}
	}
	return logs
}

// deck builds a smart-mode fixture:
//
//	d00..d29  due, tag "misc"
//	w0..w9    not due, tag "verbs" (weak: 1 of 3 reviews passed)
//	n0..n9    new
//	s0..s2    not due, tag "food" (strong: every review passed), intervals 30/40/35
func deck() ([]vocab.Card, []vocab.ReviewLog) {
	var cards []vocab.Card
	var logs []vocab.ReviewLog
	for i := 0; i < 30; i++ {
		cards = append(cards, dueCard(fmt.Sprintf("d%02d", i), time.Duration(30-i)*time.Hour, "misc"))
	}
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("w%d", i)
		c := futureCard(id, 3, "verbs")
		c.Ease = 1.3 + float64(i)*0.1
		cards = append(cards, c)
		logs = append(logs, history(id, vocab.Again, vocab.Again, vocab.Good)...)
	}
	for i := 0; i < 10; i++ {
		cards = append(cards, newCard(fmt.Sprintf("n%d", i), time.Duration(10-i)*time.Hour))
	}
	for i, ivl := range []int{30, 40, 35} {
		id := fmt.Sprintf("s%d", i)
		cards = append(cards, futureCard(id, ivl, "food"))
		logs = append(logs, history(id, vocab.Good, vocab.Good)...)
	}
	return cards, logs
}

func result(id string, g vocab.Grade) ReviewResult {
	return ReviewResult{CardID: id, Grade: g, TimeMs: 1500}
}
