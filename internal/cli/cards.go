package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sky-flux/vocab"
	"github.com/sky-flux/vocab/session"
)

func newAddCmd(a *app) *cobra.Command {
	var (
		tags  []string
		notes string
	)
	cmd := &cobra.Command{
		Use:   "add <front> <back>",
		Short: "Add a card",
		Long: `Add a new card. It is due immediately.

Examples:
  vocab add "el perro" "the dog" --tags animals,nouns
  vocab add "ir" "to go" -t verbs,irregular -n "voy, vas, va"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := vocab.NewCard(args[0], args[1], tags...)
			c.Notes = notes
			if err := a.store.AddCard(cmd.Context(), c); err != nil {
				return fmt.Errorf("add card: %w", err)
			}
			a.logger.Info("card added", zap.String("card_id", c.ID), zap.Strings("tags", c.Tags))
			fmt.Fprintf(a.out, "Added %s\n", c.ID)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&tags, "tags", "t", nil, "comma-separated tags")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "extra notes shown with the answer")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var (
		tag, search string
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				cards []vocab.Card
				err   error
			)
			switch {
			case tag != "":
				cards, err = a.store.ListCardsByTag(ctx, tag)
			case search != "":
				cards, err = a.store.SearchCards(ctx, search)
			default:
				cards, err = a.store.ListCards(ctx)
			}
			if err != nil {
				return fmt.Errorf("list cards: %w", err)
			}
			if asJSON {
				return writeJSON(a.out, cards)
			}
			printCards(a.out, cards, time.Now())
			return nil
		},
	}
	cmd.Flags().StringVar(&tag, "tag", "", "only cards with this tag")
	cmd.Flags().StringVarP(&search, "search", "s", "", "only cards whose front or back contains this text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newDueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "due",
		Short: "List cards that are due now, most overdue first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cards, err := a.store.ListCards(cmd.Context())
			if err != nil {
				return fmt.Errorf("list cards: %w", err)
			}
			now := time.Now()
			due := session.DueCards(cards, now)
			fmt.Fprintf(a.out, "%d of %d cards due\n", len(due), len(cards))
			slices.SortStableFunc(due, func(x, y vocab.Card) int { return x.DueAt.Compare(y.DueAt) })
			printCards(a.out, due, now)
			return nil
		},
	}
}

func newPreviewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "preview <card-id>",
		Short: "Show the next interval for each possible grade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.store.GetCard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s → %s\n", c.Front, c.Back)
			fmt.Fprintf(a.out, "stage %s, ease %.2f, interval %s\n\n", c.Stage(), c.Ease, vocab.FormatInterval(c.IntervalDays))

			previews := a.sched.PreviewCard(c)
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "GRADE\tINTERVAL\tDUE\tEASE")
			for _, g := range vocab.Grades {
				r := previews[g]
				fmt.Fprintf(tw, "%d %s\t%s\t%s\t%.2f\n", int(g), g, vocab.FormatInterval(r.IntervalDays),
					r.DueAt.Local().Format(time.DateOnly), r.Ease)
			}
			return tw.Flush()
		},
	}
}

func newReplayCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "replay <card-id>",
		Short: "Rebuild a card's schedule from its review history",
		Long: `Replay every logged review of a card through the scheduler, starting from
a fresh card, and store the result. Use after changing scheduler settings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.store.GetCard(ctx, args[0])
			if err != nil {
				return err
			}
			logs, err := a.store.ListCardReviews(ctx, c.ID)
			if err != nil {
				return fmt.Errorf("list reviews: %w", err)
			}

			fresh := c
			fresh.Ease = vocab.DefaultEase
			fresh.IntervalDays, fresh.Reps, fresh.Lapses = 0, 0, 0
			fresh.DueAt = c.CreatedAt
			fresh.LastReviewedAt = nil
			replayed, err := a.sched.RescheduleCard(fresh, logs)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "%d reviews replayed\n", len(logs))
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "\tBEFORE\tAFTER")
			fmt.Fprintf(tw, "ease\t%.2f\t%.2f\n", c.Ease, replayed.Ease)
			fmt.Fprintf(tw, "interval\t%s\t%s\n", vocab.FormatInterval(c.IntervalDays), vocab.FormatInterval(replayed.IntervalDays))
			fmt.Fprintf(tw, "reps\t%d\t%d\n", c.Reps, replayed.Reps)
			fmt.Fprintf(tw, "lapses\t%d\t%d\n", c.Lapses, replayed.Lapses)
			fmt.Fprintf(tw, "due\t%s\t%s\n", c.DueAt.Local().Format(time.DateTime), replayed.DueAt.Local().Format(time.DateTime))
			if err := tw.Flush(); err != nil {
				return err
			}

			if dryRun {
				return nil
			}
			if err := a.store.UpdateCard(ctx, replayed); err != nil {
				return fmt.Errorf("update card: %w", err)
			}
			a.logger.Info("card replayed", zap.String("card_id", c.ID), zap.Int("reviews", len(logs)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the result without saving it")
	return cmd
}

func printCards(w io.Writer, cards []vocab.Card, now time.Time) {
	if len(cards) == 0 {
		fmt.Fprintln(w, "No cards.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFRONT\tBACK\tTAGS\tSTAGE\tDUE")
	for _, c := range cards {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Front, c.Back, strings.Join(c.Tags, ","), c.Stage(), dueIn(c, now))
	}
	tw.Flush()
}

// dueIn renders the time until c is due, rounded up to whole days.
func dueIn(c vocab.Card, now time.Time) string {
	if c.IsDue(now) {
		return "now"
	}
	days := int((c.DueAt.Sub(now) + 24*time.Hour - 1) / (24 * time.Hour))
	return "in " + vocab.FormatInterval(days)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
