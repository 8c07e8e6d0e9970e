package ocr

import (
	"context"
	"log/slog"
)

// hybridAdapter runs both engines concurrently. The richer text wins; the
// loser's text is kept as extra blocks so downstream pattern matching can
// still see markers one engine dropped.
type hybridAdapter struct {
	tess   Adapter
	ollama Adapter
	logger *slog.Logger
}

func (h *hybridAdapter) RunOCR(ctx context.Context, imagePath string) (Result, error) {
	type outcome struct {
		res Result
		err error
	}
	tessCh := make(chan outcome, 1)
	ollamaCh := make(chan outcome, 1)

	go func() {
		r, err := h.tess.RunOCR(ctx, imagePath)
		tessCh <- outcome{r, err}
	}()
	go func() {
		r, err := h.ollama.RunOCR(ctx, imagePath)
		ollamaCh <- outcome{r, err}
	}()

	tess := <-tessCh
	oll := <-ollamaCh

	primary, secondary := oll.res, tess.res
	if len(tess.res.Text) > len(oll.res.Text) {
		primary, secondary = tess.res, oll.res
	}

	merged := Result{
		Text:     primary.Text,
		Engine:   EngineHybrid,
		Warnings: append(append([]string(nil), tess.res.Warnings...), oll.res.Warnings...),
		Blocks:   append(append([]string(nil), primary.Blocks...), secondary.Blocks...),
	}
	h.logger.Debug("ocr.hybrid.merged", "path", imagePath,
		"primary", primary.Engine, "chars", len(merged.Text))
	return merged, nil
}
