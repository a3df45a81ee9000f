package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/systmms/secretkeeper/internal/config"
	skerrors "github.com/systmms/secretkeeper/internal/errors"
)

func NewReportCommand(cfg *config.Config) *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run the lifecycle summary report",
		Long: `Scan the secret store, compute lifecycle statistics and dispatch the
summary over the configured notification topic.

Runs once by default. With --schedule the command stays up and runs on
the given cron expression until interrupted.

Examples:
  # One-shot run
  secretkeeper report

  # Daily at 08:00
  secretkeeper report --schedule "0 8 * * *"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reporter, err := buildReporter(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			runOnce := func() error {
				summary, err := reporter.Run(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("report dispatched: %d total, %d expired, avg %.2f min\n",
					summary.Total, summary.Expired, summary.AvgLifetimeMinutes())
				return nil
			}

			if schedule == "" {
				return runOnce()
			}

			c := cron.New()
			_, err = c.AddFunc(schedule, func() {
				if err := runOnce(); err != nil {
					cfg.Logger.Error("scheduled report failed: %v", err)
				}
			})
			if err != nil {
				return skerrors.UserError{
					Message:    "Invalid cron schedule",
					Details:    err.Error(),
					Suggestion: "Use a standard 5-field cron expression, e.g. '0 8 * * *'",
					Err:        err,
				}
			}

			c.Start()
			defer c.Stop()
			cfg.Logger.Info("report scheduler running (%s), press Ctrl+C to stop", schedule)

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop
			return nil
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron expression for recurring runs")

	return cmd
}
