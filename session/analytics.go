package session

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/sky-flux/vocab"
)

// strugglingRate is the in-session success percentage below which a weak tag
// is called out in the insights.
const strugglingRate = 70

// Stats summarizes a session's review results.
type Stats struct {
	TotalReviewed     int   `json:"total_reviewed"`
	SuccessCount      int   `json:"success_count"`
	SuccessRate       int   `json:"success_rate"` // percent, rounded
	AvgTimeMs         int64 `json:"avg_time_ms"`
	RecoveryCardsUsed int   `json:"recovery_cards_used"`
}

// TagPerformance is one tag's outcome within a session.
type TagPerformance struct {
	Tag           string `json:"tag"`
	CardsReviewed int    `json:"cards_reviewed"` // distinct cards
	Reviews       int    `json:"reviews"`
	Successes     int    `json:"successes"`
	SuccessRate   int    `json:"success_rate"` // percent, rounded
}

// Summary bundles the end-of-session analytics.
type Summary struct {
	Stats    Stats            `json:"stats"`
	Tags     []TagPerformance `json:"tags"`
	Insights []string         `json:"insights"`
}

// CalculateSessionStats computes totals over results. Empty input yields zeros.
func CalculateSessionStats(results []ReviewResult) Stats {
	st := Stats{TotalReviewed: len(results)}
	if len(results) == 0 {
		return st
	}
	var totalMs int64
	for _, r := range results {
		if r.Grade.Passed() {
			st.SuccessCount++
		}
		if r.Recovery {
			st.RecoveryCardsUsed++
		}
		totalMs += r.TimeMs
	}
	st.SuccessRate = percent(st.SuccessCount, st.TotalReviewed)
	st.AvgTimeMs = int64(math.Round(float64(totalMs) / float64(len(results))))
	return st
}

// AnalyzeSessionTagPerformance aggregates results per tag of the reviewed
// cards, worst success rate first. Ties are ordered by tag name.
func AnalyzeSessionTagPerformance(results []ReviewResult, cards []vocab.Card) []TagPerformance {
	tagsOf := make(map[string][]string, len(cards))
	for _, c := range cards {
		tagsOf[c.ID] = c.Tags
	}

	byTag := make(map[string]*TagPerformance)
	seen := make(map[string]map[string]struct{})
	for _, r := range results {
		for _, t := range tagsOf[r.CardID] {
			tp, ok := byTag[t]
			if !ok {
				tp = &TagPerformance{Tag: t}
				byTag[t] = tp
				seen[t] = make(map[string]struct{})
			}
			tp.Reviews++
			if r.Grade.Passed() {
				tp.Successes++
			}
			if _, dup := seen[t][r.CardID]; !dup {
				seen[t][r.CardID] = struct{}{}
				tp.CardsReviewed++
			}
		}
	}

	out := make([]TagPerformance, 0, len(byTag))
	for _, tp := range byTag {
		tp.SuccessRate = percent(tp.Successes, tp.Reviews)
		out = append(out, *tp)
	}
	slices.SortFunc(out, func(a, b TagPerformance) int {
		if c := cmp.Compare(a.SuccessRate, b.SuccessRate); c != 0 {
			return c
		}
		return cmp.Compare(a.Tag, b.Tag)
	})
	return out
}

// GenerateSessionInsights produces short advisory messages for the learner:
// an overall success callout, any weak tag that also struggled this session,
// and a note when confidence-recovery cards were used.
func GenerateSessionInsights(results []ReviewResult, cards []vocab.Card, weakTags []string) []string {
	stats := CalculateSessionStats(results)
	if stats.TotalReviewed == 0 {
		return []string{"No cards were reviewed this session."}
	}

	var out []string
	switch {
	case stats.SuccessRate >= 90:
		out = append(out, fmt.Sprintf("Excellent session: you recalled %d%% of your cards.", stats.SuccessRate))
	case stats.SuccessRate >= 70:
		out = append(out, fmt.Sprintf("Solid work: %d%% success rate.", stats.SuccessRate))
	default:
		out = append(out, fmt.Sprintf("Tough session: %d%% success rate. Shorter, more frequent sessions can help.", stats.SuccessRate))
	}

	weak := tagSet(weakTags)
	var struggling []string
	for _, tp := range AnalyzeSessionTagPerformance(results, cards) {
		if _, ok := weak[tp.Tag]; ok && tp.SuccessRate < strugglingRate {
			struggling = append(struggling, fmt.Sprintf("%s (%d%%)", tp.Tag, tp.SuccessRate))
		}
	}
	if len(struggling) > 0 {
		out = append(out, fmt.Sprintf("Still a weak area: %s. These topics will keep getting extra practice.",
			strings.Join(struggling, ", ")))
	}

	if n := stats.RecoveryCardsUsed; n > 0 {
		noun := "card was"
		if n > 1 {
			noun = "cards were"
		}
		out = append(out, fmt.Sprintf("%d confidence-recovery %s inserted after consecutive misses.", n, noun))
	}
	return out
}

// Summarize computes the full end-of-session analytics for s.
func Summarize(s State) Summary {
	results := s.Results()
	return Summary{
		Stats:    CalculateSessionStats(results),
		Tags:     AnalyzeSessionTagPerformance(results, s.cards),
		Insights: GenerateSessionInsights(results, s.cards, s.weakTags),
	}
}

// percent returns round(part/total × 100), or 0 when total is 0.
func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
