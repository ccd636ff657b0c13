package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/deusflow/newsclip/internal/app"
	"github.com/deusflow/newsclip/internal/logger"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one clipping pass",
	RunE:  runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("period", "", "morning or afternoon (default: picked from the current hour)")
	runCmd.Flags().Bool("dry-run", false, "score and rank but do not publish or record")
}

func runOnce(cmd *cobra.Command, _ []string) error {
	periodFlag, _ := cmd.Flags().GetString("period")
	period, err := app.ParsePeriod(periodFlag)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
		cfg.DryRun = true
	}
	if period == "" {
		period = app.PeriodAt(time.Now(), cfg.AfternoonStartHour)
	}

	svc, err := app.Build(cmd.Context(), cfg, logger.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("⚠️ Close failed", "error", err)
		}
	}()

	report, err := svc.Pipeline.Run(cmd.Context(), period)
	if err != nil {
		return err
	}
	logger.Info("📊 Run summary",
		"run_id", report.RunID,
		"collected", report.Collected,
		"fresh", report.Fresh,
		"accepted", report.Accepted,
		"duplicates", report.Duplicates,
		"published", len(report.Published.Success),
		"oracle", svc.Governor.GetStats(),
	)
	return nil
}
