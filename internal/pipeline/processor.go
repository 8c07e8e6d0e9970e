// Package pipeline wires the per-card stages together: filename priors, OCR,
// LLM extraction, normalization, validation, and reprint reuse. Every image
// lands in exactly one of the cards or review-queue collections; collaborator
// failure degrades confidence but never drops a card.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ccgtools/cardscan/internal/entity"
	"github.com/ccgtools/cardscan/internal/filename"
	"github.com/ccgtools/cardscan/internal/llm"
	"github.com/ccgtools/cardscan/internal/normalize"
	"github.com/ccgtools/cardscan/internal/ocr"
	"github.com/ccgtools/cardscan/internal/reuse"
	"github.com/ccgtools/cardscan/internal/validate"
)

// Processor runs the sequential stages for one card.
type Processor struct {
	OCR     ocr.Adapter
	LLM     llm.Extractor
	Lexicon *entity.RulebookLexicon
	Model   string
	Options validate.Options
	Logger  *slog.Logger
}

func NewProcessor(ocrAdapter ocr.Adapter, extractor llm.Extractor, lexicon *entity.RulebookLexicon, model string, opts validate.Options, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		OCR:     ocrAdapter,
		LLM:     extractor,
		Lexicon: lexicon,
		Model:   model,
		Options: opts,
		Logger:  logger,
	}
}

// ProcessImage runs reuse-or-full-pipeline for one image. idx may be nil to
// force the full pipeline.
func (p *Processor) ProcessImage(ctx context.Context, image entity.ImageRef, idx *reuse.Index) validate.Outcome {
	priors := filename.Infer(image.ImageFileName)

	if idx != nil {
		if res := idx.TryReuse(image, priors); res != nil {
			if res.Card != nil {
				p.Logger.Info("pipeline.reuse.accepted", "image", image.ImageFileName, "card_id", res.Card.ID)
				return validate.Outcome{Accepted: true, Card: res.Card}
			}
			p.Logger.Info("pipeline.reuse.review", "image", image.ImageFileName, "card_id", res.Review.CardID)
			return validate.Outcome{Review: res.Review}
		}
	}

	ocrRes, err := p.OCR.RunOCR(ctx, image.ImagePath)
	if err != nil {
		// adapter misuse; treat like an engine failure and keep going
		ocrRes = ocr.Result{Warnings: []string{"ocr failed: " + err.Error()}}
	}

	llmRes := p.LLM.Parse(ctx, llm.Request{
		Image:   image,
		Priors:  priors,
		OCRText: ocrRes.Text,
		Lexicon: p.Lexicon,
		Model:   p.Model,
	})

	warnings := append(append([]string(nil), ocrRes.Warnings...), llmRes.Warnings...)

	cand := normalize.Normalize(normalize.Input{
		Image:     image,
		Priors:    priors,
		OCRText:   ocrRes.Text,
		OCRBlocks: ocrRes.Blocks,
		LLMData:   llmRes.Data,
		LLMUsed:   llmRes.LLMUsed,
		Warnings:  warnings,
		Lexicon:   p.Lexicon,
	})
	cand.Raw.LLMJSON = llmRes.RawJSON

	outcome := validate.Validate(cand, p.Options)
	if outcome.Accepted {
		p.Logger.Info("pipeline.card.accepted",
			"image", image.ImageFileName, "card_id", outcome.Card.ID,
			"confidence", outcome.Card.Confidence.Overall, "llm_used", llmRes.LLMUsed)
	} else {
		p.Logger.Info("pipeline.card.review",
			"image", image.ImageFileName, "card_id", outcome.Review.CardID,
			"reasons", outcome.Review.Reasons)
	}
	return outcome
}

// RunBatch fans the images across a bounded worker pool. Workers claim the
// next unclaimed index; results land at their input index so output order is
// stable regardless of completion order.
func (p *Processor) RunBatch(ctx context.Context, images []entity.ImageRef, idx *reuse.Index, workers int) []validate.Outcome {
	if workers < 1 {
		workers = 1
	}
	if workers > len(images) {
		workers = len(images)
	}

	results := make([]validate.Outcome, len(images))
	var next atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1)) - 1
				if i >= len(images) || ctx.Err() != nil {
					return
				}
				results[i] = p.ProcessImage(ctx, images[i], idx)
			}
		}()
	}
	wg.Wait()
	return results
}
