package main

import (
	"encoding/json"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ccgtools/cardscan/internal/repository"
	"github.com/ccgtools/cardscan/internal/schema"
)

func newMigrateCmd(logger *slog.Logger) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "re-derive rule metadata and identity fields for every stored card",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			cards, err := store.LoadCards(ctx)
			if err != nil {
				return err
			}

			changed := 0
			for i := range cards {
				next := schema.Transform(&cards[i])
				if !sameCard(&cards[i], next) {
					changed++
				}
				cards[i] = *next
			}

			if dryRun {
				logger.Info("migrate.dry_run", "cards", len(cards), "changed", changed)
				return nil
			}
			if err := store.SaveCards(ctx, cards); err != nil {
				return err
			}
			logger.Info("migrate.done", "cards", len(cards), "changed", changed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing")
	return cmd
}

// sameCard compares by JSON document; the transform output is deterministic
// so document equality is field equality.
func sameCard(a, b any) bool {
	aj, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bj, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(aj) == string(bj)
}
