package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccgtools/cardscan/internal/entity"
	"github.com/ccgtools/cardscan/internal/repository"
	"github.com/ccgtools/cardscan/internal/reuse"
)

// rescanResult is the machine-readable summary printed on stdout.
type rescanResult struct {
	Status  string `json:"status"` // accepted | review
	CardID  string `json:"cardId"`
	SetCode string `json:"setCode"`
}

func newRescanCmd(logger *slog.Logger) *cobra.Command {
	var setCode string
	var noReuse bool

	cmd := &cobra.Command{
		Use:   "rescan <image-path>",
		Short: "re-run the pipeline for a single image and update the collections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			imagePath, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if _, err := os.Stat(imagePath); err != nil {
				return fmt.Errorf("image not readable: %w", err)
			}

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
			reviews, err := store.LoadReviewQueue(ctx)
			if err != nil {
				return err
			}
			sets, err := store.LoadSets(ctx)
			if err != nil {
				return err
			}
			names := setNameMap(sets)

			// The set is the parent directory unless overridden.
			if setCode == "" {
				setCode = filepath.Base(filepath.Dir(imagePath))
			}
			setCode = strings.ToUpper(setCode)

			image := entity.ImageRef{
				SetCode:       setCode,
				SetName:       names[setCode],
				ImagePath:     imagePath,
				ImageFileName: filepath.Base(imagePath),
			}

			p, err := newProcessor(ctx, cfg, logger)
			if err != nil {
				return err
			}

			var idx *reuse.Index
			if !noReuse {
				idx = reuse.BuildIndex(cards, reviews)
			}
			out := p.ProcessImage(ctx, image, idx)

			res := rescanResult{SetCode: setCode}
			if out.Accepted {
				if err := store.UpsertCard(ctx, *out.Card); err != nil {
					return err
				}
				if err := store.RemoveReview(ctx, out.Card.ID, image.ImagePath); err != nil {
					return err
				}
				res.Status = "accepted"
				res.CardID = out.Card.ID
			} else {
				if err := store.UpsertReview(ctx, *out.Review); err != nil {
					return err
				}
				res.Status = "review"
				res.CardID = out.Review.CardID
			}

			if err := recomputeAndSaveSets(ctx, cfg, store, names); err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVar(&setCode, "set", "", "set code override (default: parent directory name)")
	cmd.Flags().BoolVar(&noReuse, "no-reuse", false, "disable reprint reuse for this image")
	return cmd
}
