package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ccgtools/cardscan/internal/common"
	"github.com/ccgtools/cardscan/internal/entity"
	"github.com/ccgtools/cardscan/internal/lexicon"
	"github.com/ccgtools/cardscan/internal/llm"
	"github.com/ccgtools/cardscan/internal/ocr"
	"github.com/ccgtools/cardscan/internal/pipeline"
	"github.com/ccgtools/cardscan/internal/repository"
	"github.com/ccgtools/cardscan/internal/reuse"
	"github.com/ccgtools/cardscan/internal/validate"
)

func newBuildCmd(logger *slog.Logger) *cobra.Command {
	var workers int
	var noReuse bool

	cmd := &cobra.Command{
		Use:   "build [set-code]...",
		Short: "scan the image directories for the given sets (default: every set directory) and update the collections",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if workers < 1 {
				workers = cfg.Pipeline.Workers
			}
			return runBuild(cmd.Context(), cfg, logger, args, workers, noReuse)
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "worker pool size (default from CARDSCAN_WORKERS)")
	cmd.Flags().BoolVar(&noReuse, "no-reuse", false, "disable reprint reuse and run the full pipeline for every image")
	return cmd
}

func runBuild(ctx context.Context, cfg *common.Config, logger *slog.Logger, setCodes []string, workers int, noReuse bool) error {
	store, err := repository.New(cfg.Data)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("close store", "error", cerr)
		}
	}()

	p, err := newProcessor(ctx, cfg, logger)
	if err != nil {
		return err
	}

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

	if len(setCodes) == 0 {
		setCodes, err = allSetCodes(cfg.Data.ImagesRoot)
		if err != nil {
			return err
		}
	}

	images, err := pipeline.DiscoverImages(cfg.Data.ImagesRoot, setCodes, names)
	if err != nil {
		return err
	}
	logger.Info("build.start", "sets", setCodes, "images", len(images), "workers", workers)

	var idx *reuse.Index
	if !noReuse {
		idx = reuse.BuildIndex(cards, reviews)
	}

	start := time.Now()
	results := p.RunBatch(ctx, images, idx, workers)
	if err := ctx.Err(); err != nil {
		return err
	}

	accepted, queued := 0, 0
	for _, res := range results {
		if res.Accepted {
			if err := store.UpsertCard(ctx, *res.Card); err != nil {
				return err
			}
			if err := store.RemoveReview(ctx, res.Card.ID, res.Card.Source.ImagePath); err != nil {
				return err
			}
			accepted++
			continue
		}
		if res.Review == nil {
			// canceled before this index was claimed
			continue
		}
		if err := store.UpsertReview(ctx, *res.Review); err != nil {
			return err
		}
		queued++
	}

	if err := recomputeAndSaveSets(ctx, cfg, store, names); err != nil {
		return err
	}

	logger.Info("build.done",
		"images", len(images), "accepted", accepted, "review", queued,
		"elapsed_ms", time.Since(start).Milliseconds())
	return nil
}

// newProcessor assembles the OCR adapter, extractor, and lexicon behind one
// pipeline processor.
func newProcessor(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*pipeline.Processor, error) {
	ocrAdapter, err := ocr.New(cfg.OCR, logger)
	if err != nil {
		return nil, err
	}
	extractor := llm.NewSubprocessExtractor(cfg.LLM, logger)

	lex, err := lexicon.Load(ctx, lexicon.Options{CachePath: cfg.Pipeline.LexiconCachePath}, logger)
	if err != nil {
		return nil, err
	}

	opts := validate.OptionsFromConfig(cfg)
	return pipeline.NewProcessor(ocrAdapter, extractor, lex, cfg.LLM.Model, opts, logger), nil
}

// allSetCodes lists the set directories under the images root.
func allSetCodes(imagesRoot string) ([]string, error) {
	entries, err := os.ReadDir(imagesRoot)
	if err != nil {
		return nil, fmt.Errorf("read images root %s: %w", imagesRoot, err)
	}
	var codes []string
	for _, e := range entries {
		if e.IsDir() {
			codes = append(codes, e.Name())
		}
	}
	if len(codes) == 0 {
		return nil, fmt.Errorf("no set directories under %s", imagesRoot)
	}
	return codes, nil
}

func setNameMap(sets []entity.SetRecord) map[string]string {
	names := make(map[string]string, len(sets))
	for _, s := range sets {
		if s.Name != "" {
			names[s.Code] = s.Name
		}
	}
	return names
}

func recomputeAndSaveSets(ctx context.Context, cfg *common.Config, store repository.Store, names map[string]string) error {
	cards, err := store.LoadCards(ctx)
	if err != nil {
		return err
	}
	reviews, err := store.LoadReviewQueue(ctx)
	if err != nil {
		return err
	}
	prev, err := store.LoadSets(ctx)
	if err != nil {
		return err
	}

	run := pipeline.RunInfo{
		RunID:         uuid.NewString(),
		ParseModel:    cfg.LLM.Model,
		MinConfidence: cfg.Pipeline.MinConfidence,
	}
	sets := pipeline.RecomputeSets(cards, reviews, prev, names, run, time.Now().UTC())
	if err := store.SaveSets(ctx, sets); err != nil {
		return fmt.Errorf("save sets: %w", err)
	}
	return nil
}
