package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sky-flux/vocab"
	"github.com/sky-flux/vocab/session"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show deck and per-tag performance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cards, err := a.store.ListCards(ctx)
			if err != nil {
				return fmt.Errorf("list cards: %w", err)
			}
			reviews, err := a.store.ListReviews(ctx)
			if err != nil {
				return fmt.Errorf("list reviews: %w", err)
			}
			tags, err := a.store.Tags(ctx)
			if err != nil {
				return fmt.Errorf("list tags: %w", err)
			}

			byStage := make(map[vocab.Stage]int)
			for _, c := range cards {
				byStage[c.Stage()]++
			}
			now := time.Now()
			fmt.Fprintf(a.out, "Cards: %d (%d new, %d relearning, %d in review), %d due now\n",
				len(cards), byStage[vocab.New], byStage[vocab.Relearning], byStage[vocab.Review],
				len(session.DueCards(cards, now)))
			fmt.Fprintf(a.out, "Reviews: %d\n", len(reviews))

			stats := session.TagStats(cards, reviews)
			if len(tags) == 0 {
				return nil
			}
			reviewed := make(map[string]bool, len(stats))
			for _, st := range stats {
				reviewed[st.Tag] = st.Reviews > 0
			}
			var unreviewed []string
			for _, tc := range tags {
				if !reviewed[tc.Tag] {
					unreviewed = append(unreviewed, fmt.Sprintf("%s (%d)", tc.Tag, tc.Cards))
				}
			}
			fmt.Fprintf(a.out, "Tags: %d", len(tags))
			if len(unreviewed) > 0 {
				fmt.Fprintf(a.out, ", not yet reviewed: %s", strings.Join(unreviewed, ", "))
			}
			fmt.Fprintln(a.out)
			th := a.cfg.Thresholds()
			weak := make(map[string]bool)
			for _, t := range session.IdentifyWeakTags(cards, reviews, th) {
				weak[t] = true
			}
			strong := make(map[string]bool)
			for _, t := range session.IdentifyStrongTags(cards, reviews, th) {
				strong[t] = true
			}

			fmt.Fprintln(a.out)
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TAG\tCARDS\tREVIEWS\tSUCCESS\t")
			for _, st := range stats {
				rate := "-"
				if st.Reviews > 0 {
					rate = fmt.Sprintf("%.0f%%", st.SuccessRate()*100)
				}
				mark := ""
				switch {
				case weak[st.Tag]:
					mark = "weak"
				case strong[st.Tag]:
					mark = "strong"
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", st.Tag, st.Cards, st.Reviews, rate, mark)
			}
			return tw.Flush()
		},
	}
}
