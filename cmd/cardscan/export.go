package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccgtools/cardscan/internal/export"
	"github.com/ccgtools/cardscan/internal/repository"
)

func newExportCmd(logger *slog.Logger) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export [set-code]...",
		Short: "write an XLSX workbook of the stored cards and review queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			store, err := repository.New(cfg.Data)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := store.Close(); cerr != nil {
					logger.Error("close store", "error", cerr)
				}
			}()

			data, err := export.NewService(store, logger).ExportCardsXLSX(ctx, args)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			logger.Info("export.written", "path", out, "bytes", len(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "cards.xlsx", "output file path")
	return cmd
}
