package session

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/sky-flux/vocab"
)

// WellLearnedInterval is the interval, in days, from which a card counts as
// well learned for confidence recovery regardless of its tags.
const WellLearnedInterval = 21

// Category is the pool a smart-mode card is drawn from.
type Category int

const (
	CategoryNone Category = iota // Not in any pool (e.g. a recovery card that is not due).
	CategoryDue
	CategoryWeak
	CategoryNew
)

// categories in draw priority order.
var categories = [...]Category{CategoryDue, CategoryWeak, CategoryNew}

var categoryNames = [...]string{CategoryNone: "none", CategoryDue: "due", CategoryWeak: "weak", CategoryNew: "new"}

func (c Category) String() string {
	if c >= CategoryNone && c <= CategoryNew {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Mix is a per-category card count.
type Mix struct {
	Due  int `json:"due"`
	Weak int `json:"weak"`
	New  int `json:"new"`
}

// Total returns the sum of all categories.
func (m Mix) Total() int {
	return m.Due + m.Weak + m.New
}

// Get returns the count for c.
func (m Mix) Get(c Category) int {
	switch c {
	case CategoryDue:
		return m.Due
	case CategoryWeak:
		return m.Weak
	case CategoryNew:
		return m.New
	default:
		return 0
	}
}

func (m *Mix) add(c Category, n int) {
	switch c {
	case CategoryDue:
		m.Due += n
	case CategoryWeak:
		m.Weak += n
	case CategoryNew:
		m.New += n
	}
}

// DueCards returns the cards whose due time is at or before now.
func DueCards(cards []vocab.Card, now time.Time) []vocab.Card {
	var out []vocab.Card
	for _, c := range cards {
		if c.IsDue(now) {
			out = append(out, c)
		}
	}
	return out
}

// NewCards returns the cards with zero successful reps.
func NewCards(cards []vocab.Card) []vocab.Card {
	var out []vocab.Card
	for _, c := range cards {
		if c.Reps == 0 {
			out = append(out, c)
		}
	}
	return out
}

// WeakTagCards returns the cards carrying at least one weak tag that have not
// been reviewed in this session.
func WeakTagCards(cards []vocab.Card, weakTags []string, reviewed map[string]struct{}) []vocab.Card {
	if len(weakTags) == 0 {
		return nil
	}
	weak := tagSet(weakTags)
	var out []vocab.Card
	for _, c := range cards {
		if _, done := reviewed[c.ID]; done {
			continue
		}
		if c.HasAnyTag(weak) {
			out = append(out, c)
		}
	}
	return out
}

// ConfidenceRecoveryCard picks an easy win after a failure streak: the
// unreviewed card with the longest interval among those carrying a strong tag,
// or failing that among those with an interval of at least WellLearnedInterval.
// It reports false when no card qualifies.
func ConfidenceRecoveryCard(cards []vocab.Card, strongTags []string, reviewed map[string]struct{}) (vocab.Card, bool) {
	strong := tagSet(strongTags)
	if c, ok := longestInterval(cards, reviewed, func(c vocab.Card) bool {
		return c.HasAnyTag(strong)
	}); ok {
		return c, true
	}
	return longestInterval(cards, reviewed, func(c vocab.Card) bool {
		return c.IntervalDays >= WellLearnedInterval
	})
}

// longestInterval returns the first unreviewed card matching keep with the
// greatest IntervalDays.
func longestInterval(cards []vocab.Card, reviewed map[string]struct{}, keep func(vocab.Card) bool) (vocab.Card, bool) {
	var best vocab.Card
	found := false
	for _, c := range cards {
		if _, done := reviewed[c.ID]; done || !keep(c) {
			continue
		}
		if !found || c.IntervalDays > best.IntervalDays {
			best, found = c, true
		}
	}
	return best, found
}

// CalculateMix allocates targetCount slots across the due, weak-topic and new
// pools. Each category first gets round(targetCount × weight), clamped to the
// cards it actually has. A shortfall is then handed to categories with spare
// cards in priority order due → weak → new until the target is met or every
// pool is exhausted.
func CalculateMix(due, weak, fresh []vocab.Card, targetCount int, w Weights) Mix {
	return calculateMix(Mix{Due: len(due), Weak: len(weak), New: len(fresh)}, targetCount, w)
}

func calculateMix(avail Mix, target int, w Weights) Mix {
	if target <= 0 {
		return Mix{}
	}
	w = w.normalized()

	var alloc Mix
	ideal := Mix{
		Due:  int(math.Round(float64(target) * w.Due)),
		Weak: int(math.Round(float64(target) * w.Weak)),
		New:  int(math.Round(float64(target) * w.New)),
	}
	for _, c := range categories {
		alloc.add(c, max(0, min(ideal.Get(c), avail.Get(c))))
	}

	// Rounding can overshoot; give back from the lowest priority first.
	for i := len(categories) - 1; i >= 0 && alloc.Total() > target; i-- {
		c := categories[i]
		alloc.add(c, -min(alloc.Get(c), alloc.Total()-target))
	}

	for alloc.Total() < target {
		progressed := false
		for _, c := range categories {
			room := avail.Get(c) - alloc.Get(c)
			short := target - alloc.Total()
			if room > 0 && short > 0 {
				alloc.add(c, min(room, short))
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return alloc
}

// sortByDue orders cards by due time, most overdue first, then by ID.
func sortByDue(cards []vocab.Card) {
	slices.SortStableFunc(cards, func(a, b vocab.Card) int {
		if c := a.DueAt.Compare(b.DueAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// sortByCreated orders cards oldest first, then by ID.
func sortByCreated(cards []vocab.Card) {
	slices.SortStableFunc(cards, func(a, b vocab.Card) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// sortByEase orders the hardest cards (lowest ease) first, then by due time.
func sortByEase(cards []vocab.Card) {
	slices.SortStableFunc(cards, func(a, b vocab.Card) int {
		if c := cmp.Compare(a.Ease, b.Ease); c != 0 {
			return c
		}
		if c := a.DueAt.Compare(b.DueAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
