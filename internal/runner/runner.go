// Package runner drives an interactive study session over a text terminal.
package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sky-flux/vocab"
	"github.com/sky-flux/vocab/internal/logging"
	"github.com/sky-flux/vocab/internal/telemetry"
	"github.com/sky-flux/vocab/session"
)

// CardStore is the persistence the runner needs.
type CardStore interface {
	ListCards(ctx context.Context) ([]vocab.Card, error)
	ListReviews(ctx context.Context) ([]vocab.ReviewLog, error)
	RecordReview(ctx context.Context, c vocab.Card, log vocab.ReviewLog) error
}

// Options configures a Runner. Store, Scheduler, In and Out are required.
type Options struct {
	Store     CardStore
	Scheduler *vocab.Scheduler
	Recorder  telemetry.Recorder // nil → telemetry.NoOp
	Logger    *zap.Logger        // nil → the context's logger, else zap.NewNop()
	In        io.Reader
	Out       io.Writer
	Now       func() time.Time // nil → time.Now
}

// Runner runs study sessions.
type Runner struct {
	store  CardStore
	sched  *vocab.Scheduler
	rec    telemetry.Recorder
	logger *zap.Logger
	in     *bufio.Scanner
	out    io.Writer
	now    func() time.Time
}

// errQuit ends a session early at the learner's request.
var errQuit = errors.New("quit")

// New returns a Runner for opts.
func New(opts Options) *Runner {
	r := &Runner{
		store:  opts.Store,
		sched:  opts.Scheduler,
		rec:    opts.Recorder,
		logger: opts.Logger,
		in:     bufio.NewScanner(opts.In),
		out:    opts.Out,
		now:    opts.Now,
	}
	if r.rec == nil {
		r.rec = telemetry.NoOp{}
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Run studies one session with cfg and prints its summary. Quitting early
// with "q" or closing the input still prints the summary of what was done.
func (r *Runner) Run(ctx context.Context, cfg session.Config) (session.Summary, error) {
	cards, err := r.store.ListCards(ctx)
	if err != nil {
		return session.Summary{}, fmt.Errorf("load cards: %w", err)
	}
	reviews, err := r.store.ListReviews(ctx)
	if err != nil {
		return session.Summary{}, fmt.Errorf("load reviews: %w", err)
	}

	started := r.now()
	st, err := session.NewState(cfg, cards, reviews, started)
	if err != nil {
		return session.Summary{}, err
	}
	log := r.loggerFor(ctx).With(zap.Stringer("mode", cfg.Mode), zap.Int("target", cfg.TargetCards))
	log.Info("session started",
		zap.Int("cards", len(cards)),
		zap.Strings("weak_tags", st.WeakTags()),
		zap.Strings("strong_tags", st.StrongTags()),
		zap.Int("plan_due", st.Plan().Due),
		zap.Int("plan_weak", st.Plan().Weak),
		zap.Int("plan_new", st.Plan().New))

	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return session.Summary{}, err
		}
		sel, ok := st.SelectNext()
		if !ok {
			if n == 1 {
				fmt.Fprintln(r.out, "Nothing to study right now.")
			}
			break
		}

		res, err := r.study(ctx, log, n, sel)
		if errors.Is(err, errQuit) {
			log.Info("session quit early", zap.Int("reviewed", st.ReviewedCount()))
			break
		}
		if err != nil {
			return session.Summary{}, err
		}
		st = st.Apply(res)
	}

	sum := session.Summarize(st)
	r.rec.RecordSession(ctx, telemetry.SessionEvent{
		Mode:     cfg.Mode,
		Stats:    sum.Stats,
		Duration: r.now().Sub(started),
	})
	log.Info("session finished",
		zap.Int("reviewed", sum.Stats.TotalReviewed),
		zap.Int("success_rate", sum.Stats.SuccessRate),
		zap.Int("recovery_cards", sum.Stats.RecoveryCardsUsed))
	Render(r.out, sum)
	return sum, nil
}

// study shows one card, grades it and persists the review.
func (r *Runner) study(ctx context.Context, log *zap.Logger, n int, sel session.Selection) (session.ReviewResult, error) {
	c := sel.Card
	fmt.Fprintf(r.out, "\n#%d %s\n", n, label(sel))
	fmt.Fprintf(r.out, "  %s\n", c.Front)
	shown := r.now()

	if _, err := r.prompt("[enter] reveal  [q] quit > "); err != nil {
		return session.ReviewResult{}, err
	}
	fmt.Fprintf(r.out, "  → %s\n", c.Back)
	if c.Notes != "" {
		fmt.Fprintf(r.out, "    %s\n", c.Notes)
	}

	previews := r.sched.IntervalPreviews(c)
	var opts []string
	for _, g := range vocab.Grades {
		opts = append(opts, fmt.Sprintf("[%d] %s (%s)", int(g), g, previews[g]))
	}
	fmt.Fprintf(r.out, "  %s\n", strings.Join(opts, "  "))

	var g vocab.Grade
	for {
		line, err := r.prompt("grade > ")
		if err != nil {
			return session.ReviewResult{}, err
		}
		if g, err = vocab.ParseGrade(line); err == nil {
			break
		}
		fmt.Fprintln(r.out, "  enter 1-4 or again/hard/good/easy")
	}
	elapsed := r.now().Sub(shown)

	next, rl := r.sched.ReviewCard(c, g, elapsed)
	if err := r.store.RecordReview(ctx, next, rl); err != nil {
		log.Error("record review failed", zap.String("card_id", c.ID), zap.Error(err))
		return session.ReviewResult{}, fmt.Errorf("record review: %w", err)
	}
	r.rec.RecordReview(ctx, telemetry.ReviewEvent{
		Grade:        g,
		Category:     sel.Category,
		Recovery:     sel.Recovery,
		Duration:     elapsed,
		IntervalDays: next.IntervalDays,
	})
	log.Debug("card reviewed",
		zap.String("card_id", c.ID),
		zap.Stringer("grade", g),
		zap.Stringer("category", sel.Category),
		zap.Bool("recovery", sel.Recovery),
		zap.Int("interval_days", next.IntervalDays),
		zap.Float64("ease", next.Ease),
		zap.Duration("elapsed", elapsed))
	fmt.Fprintf(r.out, "  next review: %s\n", vocab.FormatInterval(next.IntervalDays))

	return session.ReviewResult{
		CardID:   c.ID,
		Grade:    g,
		TimeMs:   elapsed.Milliseconds(),
		Recovery: sel.Recovery,
	}, nil
}

func (r *Runner) loggerFor(ctx context.Context) *zap.Logger {
	if r.logger != nil {
		return r.logger
	}
	return logging.FromContext(ctx)
}

// prompt writes p and reads one trimmed line. "q" and end of input return errQuit.
func (r *Runner) prompt(p string) (string, error) {
	fmt.Fprint(r.out, p)
	if !r.in.Scan() {
		if err := r.in.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return "", errQuit
	}
	line := strings.TrimSpace(r.in.Text())
	if strings.EqualFold(line, "q") {
		return "", errQuit
	}
	return line, nil
}

func label(sel session.Selection) string {
	switch {
	case sel.Recovery:
		return "(confidence boost)"
	case sel.Category == session.CategoryNone:
		return ""
	default:
		return "(" + sel.Category.String() + ")"
	}
}
