// Package cli provides the vocab command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sky-flux/vocab"
	"github.com/sky-flux/vocab/internal/config"
	"github.com/sky-flux/vocab/internal/logging"
	"github.com/sky-flux/vocab/store"
)

// Version is set at build time.
var Version = "0.1.0"

// app holds what subcommands share once the root pre-run has loaded it.
type app struct {
	configPath string

	cfg      *config.Config
	logger   *zap.Logger
	closeLog func() error
	store    *store.Store
	sched    *vocab.Scheduler

	in  io.Reader
	out io.Writer
}

// newRoot builds the vocab command tree reading from in and writing to out.
// The caller must call app.close once the command has run.
func newRoot(in io.Reader, out io.Writer) (*cobra.Command, *app) {
	a := &app{in: in, out: out}

	root := &cobra.Command{
		Use:   "vocab",
		Short: "Spaced-repetition vocabulary trainer",
		Long: `vocab schedules vocabulary flashcards with the SM-2 algorithm and builds
adaptive study sessions that mix due reviews, weak topics and new cards.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipsLoad(cmd) {
				return nil
			}
			return a.load(cmd.Context(), cmd.Name() != "config")
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default $VOCAB_HOME/vocab.toml)")

	root.AddCommand(
		newAddCmd(a),
		newListCmd(a),
		newDueCmd(a),
		newPreviewCmd(a),
		newStudyCmd(a),
		newStatsCmd(a),
		newReplayCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root, a
}

// Execute runs the CLI on the process's standard streams.
func Execute() error {
	return run(context.Background(), os.Args[1:], os.Stdin, os.Stdout)
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	root, a := newRoot(in, out)
	defer a.close()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (a *app) load(ctx context.Context, openStore bool) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger, a.closeLog, err = logging.NewLogger(cfg.Logging.Level, cfg.Logging.File, os.Stderr)
	if err != nil {
		return err
	}
	a.logger = a.logger.With(zap.String("version", Version))

	a.sched, err = vocab.NewScheduler(cfg.SchedulerConfig())
	if err != nil {
		return err
	}
	if !openStore {
		return nil
	}

	a.store, err = store.Open(ctx, cfg.Storage.Path)
	if err != nil {
		a.logger.Error("open store failed", zap.String("path", cfg.Storage.Path), zap.Error(err))
		return err
	}
	a.logger.Debug("store opened", zap.String("path", cfg.Storage.Path))
	return nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("close store failed", zap.Error(err))
		}
		a.store = nil
	}
	if a.closeLog != nil {
		if err := a.closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
		a.closeLog = nil
	}
}

// skipsLoad reports whether cmd runs without config, logger or store.
func skipsLoad(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch name := c.Name(); {
		case name == "version", name == "help", name == "completion",
			strings.HasPrefix(name, cobra.ShellCompRequestCmd):
			return true
		}
	}
	return false
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vocab v%s\n", Version)
		},
	}
}
