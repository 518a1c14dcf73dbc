package runner

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/sky-flux/vocab/session"
)

// Render prints an end-of-session summary.
func Render(w io.Writer, sum session.Summary) {
	s := sum.Stats
	fmt.Fprintln(w, "\nSession summary")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "  Reviewed\t%d\n", s.TotalReviewed)
	fmt.Fprintf(tw, "  Success\t%d%% (%d/%d)\n", s.SuccessRate, s.SuccessCount, s.TotalReviewed)
	fmt.Fprintf(tw, "  Avg time\t%s\n", (time.Duration(s.AvgTimeMs) * time.Millisecond).Round(100*time.Millisecond))
	if s.RecoveryCardsUsed > 0 {
		fmt.Fprintf(tw, "  Recovery cards\t%d\n", s.RecoveryCardsUsed)
	}
	tw.Flush()

	if len(sum.Tags) > 0 {
		fmt.Fprintln(w, "\nBy tag")
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, tp := range sum.Tags {
			fmt.Fprintf(tw, "  %s\t%d%%\t%d cards\t%d reviews\n", tp.Tag, tp.SuccessRate, tp.CardsReviewed, tp.Reviews)
		}
		tw.Flush()
	}

	if len(sum.Insights) > 0 {
		fmt.Fprintln(w)
		for _, line := range sum.Insights {
			fmt.Fprintf(w, "* %s\n", line)
		}
	}
}
