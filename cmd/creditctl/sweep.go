package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/pixelmuse/server/internal/app"
	"github.com/pixelmuse/server/internal/module/refill"
	"github.com/pixelmuse/server/internal/shared/config"
	"github.com/spf13/cobra"
)

func newSweepCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one refill sweep and print the report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			deps, cleanup, err := app.InitializeDependencies(cfg)
			if err != nil {
				return fmt.Errorf("init dependencies: %w", err)
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			report, sweepErr := deps.Runner.RunNow(ctx)
			if report != nil {
				if err := printReport(cmd, report, asJSON); err != nil {
					return err
				}
			}
			return sweepErr
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full report as JSON")
	return cmd
}

func printReport(cmd *cobra.Command, report *refill.Report, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(out, "refilled %d, activated %d, skipped %d, errors %d (%s)\n",
		report.RefillCount, report.ActivatedCount, report.SkippedCount, report.ErrorCount,
		report.FinishedAt.Sub(report.StartedAt))
	for _, res := range report.Results {
		switch res.Status {
		case refill.StatusActivated:
			fmt.Fprintf(out, "  %-18s %s activated +%d\n", res.Phase, res.SubscriptionID, res.CreditsAdded)
		case refill.StatusError:
			fmt.Fprintf(out, "  %-18s %s error: %s\n", res.Phase, res.SubscriptionID, res.Error)
		}
	}
	return nil
}
