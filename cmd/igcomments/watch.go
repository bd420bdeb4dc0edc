package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"igcomments/internal/scheduler"
	"igcomments/pkg/config"
	"igcomments/pkg/logger"
	"igcomments/pkg/scraper"
	"igcomments/pkg/ui"
)

var (
	watchSchedule string
	watchSkipNow  bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [post-url|shortcode]",
	Short: "Collect on a schedule until interrupted",
	Long: `Run a collection on every tick of a cron schedule. Each run loads the saved
collection, merges new commenters and saves it, exactly like collect.

A tick that fires while the previous run is still going is skipped.

Schedules use five cron fields or descriptors such as @hourly, @daily or
@every 30m, evaluated in schedule.timezone.`,
	Example: `  igcomments watch C0dE123 --schedule "@every 30m"
  igcomments watch C0dE123 --schedule "0 */2 * * *" --save-every-pass`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&postRef, "post", "p", "", "post URL or shortcode")
	watchCmd.Flags().StringVar(&sourceName, "source", "", "comment source (graphql, html, file)")
	watchCmd.Flags().IntVar(&maxPasses, "max-passes", 0, "maximum number of passes per run")
	watchCmd.Flags().BoolVar(&saveEveryPass, "save-every-pass", false, "save the collection after every pass")
	addStorageFlags(watchCmd)
	watchCmd.Flags().BoolVar(&useLock, "lock", false, "hold an exclusive lock on the store while collecting")
	watchCmd.Flags().StringVarP(&accountName, "account", "a", "", "use a specific stored account")
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "", "cron schedule (default schedule.cron)")
	watchCmd.Flags().BoolVar(&watchSkipNow, "skip-now", false, "wait for the first tick instead of collecting immediately")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(collectFlags(args))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.GetLogger()

	if watchSchedule != "" {
		cfg.Schedule.Cron = watchSchedule
	}
	loc, err := config.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		return fmt.Errorf("invalid schedule timezone: %w", err)
	}

	shortcode, err := resolveShortcode(cfg)
	if err != nil {
		return err
	}
	if err := prepareCredentials(cfg, accountName, log); err != nil {
		return err
	}

	s, err := scheduler.New(cfg.Schedule.Cron, loc, watchJob(cfg, shortcode, log), log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui.PrintInfo("Post", shortcode)
	ui.PrintInfo("Schedule", fmt.Sprintf("%s (%s)", cfg.Schedule.Cron, loc))
	if watchSkipNow {
		ui.PrintInfo("First run", s.Next(time.Now()).Format(time.RFC1123))
	}

	if err := s.Run(ctx, !watchSkipNow); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Stopped after %d run(s), %d skipped", s.Runs(), s.Skipped()))
	return nil
}

// watchJob runs one collection per tick. Each run starts from the first page
// since new comments appear at the top.
func watchJob(cfg *config.Config, shortcode string, log logger.Logger) scheduler.Job {
	return func(ctx context.Context) error {
		ui.PrintHighlight(fmt.Sprintf("Collecting at %s", time.Now().Format("15:04:05")))
		result, err := runCollection(ctx, cfg, collectRun{
			Shortcode: shortcode,
			OnPass: func(p scraper.PassStats) {
				ui.PrintPass(p.Pass, cfg.Collect.MaxPasses, p.Fetched, p.Added, p.Total)
			},
		}, log)
		if result != nil {
			printResult(result)
		}
		if err != nil {
			ui.PrintError("Run failed", err)
		}
		return err
	}
}
