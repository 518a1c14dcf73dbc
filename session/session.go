package session

import (
	"maps"
	"slices"
	"time"

	"github.com/sky-flux/vocab"
)

// RecoveryFailureThreshold is the number of consecutive Again grades after
// which the next card is a confidence-recovery card.
const RecoveryFailureThreshold = 2

// ReviewResult is the outcome of one review within a session.
type ReviewResult struct {
	CardID   string      `json:"card_id"`
	Grade    vocab.Grade `json:"grade"`
	TimeMs   int64       `json:"time_ms"`
	Recovery bool        `json:"recovery"` // served as a confidence-recovery insertion
}

// Selection is the card chosen by SelectNext.
type Selection struct {
	Card     vocab.Card
	Category Category // CategoryNone outside smart mode or for off-pool recovery cards
	Recovery bool
}

// State is the ephemeral bookkeeping of one study session.
// Create it with NewState and advance it with Apply.
type State struct {
	cfg Config
	now time.Time

	cards      []vocab.Card
	reviews    []vocab.ReviewLog
	weakTags   []string
	strongTags []string

	// pools hold the session's candidates in draw order, indexed by Category.
	pools    [len(categories) + 1][]vocab.Card
	category map[string]Category
	plan     Mix

	reviewed map[string]struct{}
	failures int
	results  []ReviewResult
	drawn    Mix
}

// NewState validates cfg and snapshots the deck and review history at now.
// Weak and strong tags are derived from the history in smart mode only.
func NewState(cfg Config, cards []vocab.Card, reviews []vocab.ReviewLog, now time.Time) (State, error) {
	if err := cfg.Validate(); err != nil {
		return State{}, err
	}
	cfg = cfg.withDefaults()

	st := State{
		cfg:      cfg,
		now:      now,
		cards:    slices.Clone(cards),
		reviews:  slices.Clone(reviews),
		category: make(map[string]Category),
		reviewed: make(map[string]struct{}),
	}

	switch cfg.Mode {
	case Smart:
		st.weakTags = IdentifyWeakTags(st.cards, st.reviews, cfg.Thresholds)
		st.strongTags = IdentifyStrongTags(st.cards, st.reviews, cfg.Thresholds)
		st.partition()
		st.plan = calculateMix(Mix{
			Due:  len(st.pools[CategoryDue]),
			Weak: len(st.pools[CategoryWeak]),
			New:  len(st.pools[CategoryNew]),
		}, cfg.TargetCards, cfg.Weights)
	case DueOnly:
		due := DueCards(st.cards, now)
		sortByDue(due)
		st.pools[CategoryNone] = due
	case TagFocus:
		var tagged []vocab.Card
		for _, c := range st.cards {
			if c.HasTag(cfg.Tag) {
				tagged = append(tagged, c)
			}
		}
		sortByDue(tagged)
		st.pools[CategoryNone] = tagged
	}
	return st, nil
}

// partition splits the deck into disjoint smart-mode pools. Weak-tag cards
// claim their pool first, so a due or lapsed card from a weak tag is drawn as
// weak; the remaining due cards follow, then never-reviewed cards.
func (s *State) partition() {
	for _, c := range WeakTagCards(s.cards, s.weakTags, nil) {
		s.category[c.ID] = CategoryWeak
		s.pools[CategoryWeak] = append(s.pools[CategoryWeak], c)
	}
	for _, c := range DueCards(s.cards, s.now) {
		if _, taken := s.category[c.ID]; taken {
			continue
		}
		s.category[c.ID] = CategoryDue
		s.pools[CategoryDue] = append(s.pools[CategoryDue], c)
	}
	for _, c := range NewCards(s.cards) {
		if _, taken := s.category[c.ID]; taken {
			continue
		}
		s.category[c.ID] = CategoryNew
		s.pools[CategoryNew] = append(s.pools[CategoryNew], c)
	}
	sortByDue(s.pools[CategoryDue])
	sortByEase(s.pools[CategoryWeak])
	sortByCreated(s.pools[CategoryNew])
}

// SelectNext returns the next card to show, or false when the session is over:
// the target has been reached or every eligible pool is exhausted.
func (s State) SelectNext() (Selection, bool) {
	if s.Done() {
		return Selection{}, false
	}

	if !s.cfg.DisableRecovery && s.failures >= RecoveryFailureThreshold {
		if c, ok := ConfidenceRecoveryCard(s.cards, s.strongTags, s.reviewed); ok {
			return Selection{Card: c, Category: s.category[c.ID], Recovery: true}, true
		}
	}

	if s.cfg.Mode != Smart {
		c, ok := s.firstUnreviewed(CategoryNone)
		return Selection{Card: c}, ok
	}
	return s.selectSmart()
}

// selectSmart draws from the category that is proportionally furthest behind
// its planned share, breaking ties in priority order due → weak → new. This
// interleaves categories so that the whole session converges on the plan.
func (s State) selectSmart() (Selection, bool) {
	order := slices.Clone(categories[:])
	owed := func(c Category) float64 {
		p := s.plan.Get(c)
		if p == 0 {
			return 0
		}
		return float64(p-s.drawn.Get(c)) / float64(p)
	}
	slices.SortStableFunc(order, func(a, b Category) int {
		oa, ob := owed(a), owed(b)
		switch {
		case oa > ob:
			return -1
		case oa < ob:
			return 1
		default:
			return 0
		}
	})

	for _, c := range order {
		if owed(c) <= 0 {
			continue
		}
		if card, ok := s.firstUnreviewed(c); ok {
			return Selection{Card: card, Category: c}, true
		}
	}
	// Recovery insertions can use up a category's share early; fill the
	// remaining slots from whatever is left.
	for _, c := range categories {
		if card, ok := s.firstUnreviewed(c); ok {
			return Selection{Card: card, Category: c}, true
		}
	}
	return Selection{}, false
}

func (s State) firstUnreviewed(c Category) (vocab.Card, bool) {
	for _, card := range s.pools[c] {
		if _, done := s.reviewed[card.ID]; !done {
			return card, true
		}
	}
	return vocab.Card{}, false
}

// Apply records a review outcome and returns the next State.
// The receiver is left untouched.
func (s State) Apply(r ReviewResult) State {
	next := s
	next.reviewed = maps.Clone(s.reviewed)
	if next.reviewed == nil {
		next.reviewed = make(map[string]struct{})
	}
	next.results = append(slices.Clone(s.results), r)

	if _, seen := s.reviewed[r.CardID]; !seen {
		next.reviewed[r.CardID] = struct{}{}
		next.drawn.add(s.category[r.CardID], 1)
	}

	if r.Grade == vocab.Again {
		next.failures = s.failures + 1
	} else {
		next.failures = 0
	}
	return next
}

// SelectNextCard is SelectNext as a function.
func SelectNextCard(s State) (Selection, bool) {
	return s.SelectNext()
}

// UpdateSessionState is Apply as a function.
func UpdateSessionState(s State, r ReviewResult) State {
	return s.Apply(r)
}

// Done reports whether the session has reached its target card count.
func (s State) Done() bool {
	return len(s.reviewed) >= s.cfg.TargetCards
}

// Config returns the session config with defaults filled in.
func (s State) Config() Config { return s.cfg }

// ReviewedCount returns the number of distinct cards reviewed so far.
func (s State) ReviewedCount() int { return len(s.reviewed) }

// ConsecutiveFailures returns the length of the current Again streak.
func (s State) ConsecutiveFailures() int { return s.failures }

// Results returns the review outcomes in review order.
func (s State) Results() []ReviewResult { return slices.Clone(s.results) }

// Cards returns the deck snapshot the session was created from.
func (s State) Cards() []vocab.Card { return slices.Clone(s.cards) }

// WeakTags returns the weak tags, worst first. Empty outside smart mode.
func (s State) WeakTags() []string { return slices.Clone(s.weakTags) }

// StrongTags returns the strong tags, best first. Empty outside smart mode.
func (s State) StrongTags() []string { return slices.Clone(s.strongTags) }

// Plan returns the smart-mode allocation for the whole session.
func (s State) Plan() Mix { return s.plan }

// Drawn returns how many reviewed cards came from each smart-mode pool.
func (s State) Drawn() Mix { return s.drawn }
