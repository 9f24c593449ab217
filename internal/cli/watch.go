package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var (
	watchSchedule string
	watchSkipNow  bool
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rerun the ranking cycle on a schedule, rewriting the outputs",
	Long: `Watch runs the same cycle as rank on a cron schedule and rewrites the
configured JSON, Markdown and HTML outputs after each run. A run that is
still in progress when the next one is due causes that tick to be skipped.

Schedules use standard cron syntax or descriptors such as "@every 30m"
and "@hourly".

Example:
  strata watch
  strata watch --schedule "0 */2 * * *" --md board.md`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "", "cron spec (default: server.refresh from config)")
	watchCmd.Flags().BoolVar(&watchSkipNow, "skip-initial", false, "wait for the first scheduled tick instead of running immediately")
	addRankFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := rankConfig(cmd)
	if err != nil {
		return err
	}
	schedule := cfg.Server.Refresh
	if watchSchedule != "" {
		schedule = watchSchedule
	}

	p, err := newPipeline(cfg, true)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := func() {
		runCtx, cancel := context.WithTimeout(ctx, rankTimeout)
		defer cancel()
		if err := rankOnce(runCtx, cfg, p); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %v\n", err)
			slog.Error("scheduled cycle failed", "error", err)
		}
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(schedule, run); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	fmt.Fprintf(os.Stderr, "✓ Watching on schedule %q (Ctrl-C to stop)\n", schedule)
	if !watchSkipNow {
		run()
	}

	c.Start()
	<-ctx.Done()

	fmt.Fprintf(os.Stderr, "Stopping...\n")
	<-c.Stop().Done()
	return nil
}
