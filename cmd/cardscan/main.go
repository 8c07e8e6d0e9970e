// cardscan scans trading-card images into structured records: filename
// priors, OCR, LLM extraction, normalization, validation, and accept-or-review
// routing, with reprint reuse across sets.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ccgtools/cardscan/internal/common"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:           "cardscan",
		Short:         "scan card images into structured records",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newBuildCmd(logger),
		newRescanCmd(logger),
		newMigrateCmd(logger),
		newExportCmd(logger),
		newLexiconCmd(logger),
	)

	if err := root.ExecuteContext(ctx); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads and validates the environment configuration.
func loadConfig() (*common.Config, error) {
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
