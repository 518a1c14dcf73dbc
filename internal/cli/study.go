package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sky-flux/vocab/internal/logging"
	"github.com/sky-flux/vocab/internal/runner"
	"github.com/sky-flux/vocab/internal/telemetry"
	"github.com/sky-flux/vocab/session"
)

func newStudyCmd(a *app) *cobra.Command {
	var (
		mode       string
		target     int
		tag        string
		noRecovery bool
	)
	cmd := &cobra.Command{
		Use:   "study",
		Short: "Start an interactive study session",
		Long: `Start a study session. For each card press Enter to reveal the answer,
then grade your recall: 1 again, 2 hard, 3 good, 4 easy. Enter q to stop early.

Modes:
  smart      blend due reviews, weak topics and new cards (default)
  due-only   only cards that are due
  tag-focus  only cards with --tag`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := a.cfg.SessionConfig()
			if cmd.Flags().Changed("mode") {
				m, err := session.ParseMode(mode)
				if err != nil {
					return err
				}
				cfg.Mode = m
			}
			if cmd.Flags().Changed("target") {
				cfg.TargetCards = target
			}
			if tag != "" {
				cfg.Tag = tag
				if !cmd.Flags().Changed("mode") {
					cfg.Mode = session.TagFocus
				}
			}
			if noRecovery {
				cfg.DisableRecovery = true
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			m := a.cfg.Metrics
			rec, err := telemetry.New(ctx, telemetry.Config{
				Enabled:        m.Enabled,
				Endpoint:       m.Endpoint,
				Insecure:       m.Insecure,
				Interval:       time.Duration(m.IntervalSeconds) * time.Second,
				ServiceName:    m.ServiceName,
				ServiceVersion: Version,
			})
			if err != nil {
				a.logger.Warn("metrics disabled", zap.Error(err))
				rec = telemetry.NoOp{}
			}
			defer func() {
				if err := rec.Close(ctx); err != nil {
					a.logger.Warn("flush metrics failed", zap.Error(err))
				}
			}()

			r := runner.New(runner.Options{
				Store:     a.store,
				Scheduler: a.sched,
				Recorder:  rec,
				In:        a.in,
				Out:       a.out,
			})
			ctx = logging.ContextWithLogger(ctx, a.logger)
			if _, err := r.Run(ctx, cfg); err != nil {
				return fmt.Errorf("study: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "smart", "session mode: smart, due-only or tag-focus")
	cmd.Flags().IntVarP(&target, "target", "n", 0, "number of cards (default from config)")
	cmd.Flags().StringVar(&tag, "tag", "", "tag to focus on (implies --mode tag-focus)")
	cmd.Flags().BoolVar(&noRecovery, "no-recovery", false, "disable confidence-recovery cards")
	return cmd
}
