package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deusflow/newsclip/internal/config"
	"github.com/deusflow/newsclip/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "newsclip",
	Short: "Regional news clipping with oracle scoring",
	Long: `newsclip collects regional news, scores it with a generative model,
collapses duplicate stories and posts a ranked clipping with an editorial
insight to Telegram.

Examples:
  newsclip run                     # one run, period picked from the clock
  newsclip run --period afternoon  # one run over the afternoon window
  newsclip serve                   # monitoring server plus scheduled runs
  newsclip purge --days 30         # drop old seen-URL records`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("❌ newsclip failed", "error", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the config and sets up logging. validate is false for
// commands that never call the oracle or Telegram.
func loadConfig(validate bool) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if validate {
		cfg, err = config.Load()
	} else {
		cfg, err = config.Read()
	}
	if cfg != nil {
		logger.Init(cfg.LogLevel)
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
