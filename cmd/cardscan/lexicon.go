package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ccgtools/cardscan/internal/lexicon"
)

func newLexiconCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lexicon",
		Short: "manage the rulebook lexicon cache",
	}

	refresh := &cobra.Command{
		Use:   "refresh",
		Short: "rebuild the lexicon cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			lex, err := lexicon.Load(cmd.Context(), lexicon.Options{
				CachePath: cfg.Pipeline.LexiconCachePath,
				Refresh:   true,
			}, logger)
			if err != nil {
				return err
			}
			logger.Info("lexicon.refreshed",
				"path", cfg.Pipeline.LexiconCachePath,
				"icons", len(lex.Icons), "keywords", len(lex.Keywords))
			return nil
		},
	}
	cmd.AddCommand(refresh)
	return cmd
}
