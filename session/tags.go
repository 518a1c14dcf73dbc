package session

import (
	"cmp"
	"slices"

	"github.com/sky-flux/vocab"
)

// TagStat aggregates the review history of every card carrying one tag.
type TagStat struct {
	Tag       string
	Cards     int // cards carrying the tag
	Reviews   int // review logs for those cards
	Successes int // reviews graded above Again
}

// SuccessRate returns Successes/Reviews, or 0 when there are no reviews.
func (s TagStat) SuccessRate() float64 {
	if s.Reviews == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Reviews)
}

// TagStats aggregates review outcomes per tag, sorted by tag name.
// Reviews of cards that are not in cards are ignored.
func TagStats(cards []vocab.Card, reviews []vocab.ReviewLog) []TagStat {
	byTag := make(map[string]*TagStat)
	tagsOf := make(map[string][]string, len(cards))
	for _, c := range cards {
		tagsOf[c.ID] = c.Tags
		for _, t := range c.Tags {
			st, ok := byTag[t]
			if !ok {
				st = &TagStat{Tag: t}
				byTag[t] = st
			}
			st.Cards++
		}
	}

	for _, r := range reviews {
		for _, t := range tagsOf[r.CardID] {
			st := byTag[t]
			st.Reviews++
			if r.Grade.Passed() {
				st.Successes++
			}
		}
	}

	out := make([]TagStat, 0, len(byTag))
	for _, st := range byTag {
		out = append(out, *st)
	}
	slices.SortFunc(out, func(a, b TagStat) int { return cmp.Compare(a.Tag, b.Tag) })
	return out
}

// IdentifyWeakTags returns tags with at least th.WeakMinCards cards and a
// success rate below th.WeakRate, worst first. Ties are ordered by tag name.
// Tags without any reviews are never weak.
func IdentifyWeakTags(cards []vocab.Card, reviews []vocab.ReviewLog, th Thresholds) []string {
	th = th.withDefaults()
	var weak []TagStat
	for _, st := range TagStats(cards, reviews) {
		if st.Reviews > 0 && st.Cards >= th.WeakMinCards && st.SuccessRate() < th.WeakRate {
			weak = append(weak, st)
		}
	}
	slices.SortStableFunc(weak, func(a, b TagStat) int {
		return cmp.Compare(a.SuccessRate(), b.SuccessRate())
	})
	return tagNames(weak)
}

// IdentifyStrongTags returns tags with at least th.StrongMinCards cards and a
// success rate at or above th.StrongRate, best first. Ties are ordered by tag name.
func IdentifyStrongTags(cards []vocab.Card, reviews []vocab.ReviewLog, th Thresholds) []string {
	th = th.withDefaults()
	var strong []TagStat
	for _, st := range TagStats(cards, reviews) {
		if st.Reviews > 0 && st.Cards >= th.StrongMinCards && st.SuccessRate() >= th.StrongRate {
			strong = append(strong, st)
		}
	}
	slices.SortStableFunc(strong, func(a, b TagStat) int {
		return cmp.Compare(b.SuccessRate(), a.SuccessRate())
	})
	return tagNames(strong)
}

func tagNames(stats []TagStat) []string {
	out := make([]string, len(stats))
	for i, st := range stats {
		out[i] = st.Tag
	}
	return out
}

func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}
