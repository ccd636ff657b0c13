package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deusflow/newsclip/internal/logger"
	"github.com/deusflow/newsclip/internal/storage"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete seen-URL records older than the retention period",
	RunE:  runPurge,
}

func init() {
	rootCmd.AddCommand(purgeCmd)
	purgeCmd.Flags().Int("days", 0, "retention in days (default: RETENTION_DAYS or 30)")
}

func runPurge(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	days, _ := cmd.Flags().GetInt("days")
	if days <= 0 {
		days = cfg.RetentionDays
	}
	if days <= 0 {
		return fmt.Errorf("--days must be positive")
	}

	store, err := storage.Open(cmd.Context(), cfg.StoreDSN, cfg.SeenWindow, logger.Logger)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.PurgeOlderThan(cmd.Context(), days)
	if err != nil {
		return err
	}
	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return err
	}
	logger.Info("🧹 Purge done", "deleted", n, "days", days, "remaining", stats["total_items"])
	return nil
}
