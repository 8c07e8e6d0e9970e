package ocr

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ccgtools/cardscan/internal/common"
)

type tesseractAdapter struct {
	cfg    common.OCRConfig
	runner Runner
	logger *slog.Logger
}

func (a *tesseractAdapter) RunOCR(ctx context.Context, imagePath string) (Result, error) {
	bin := a.cfg.Tesseract
	if bin == "" {
		bin = "tesseract"
	}
	args := []string{imagePath, "stdout", "-l", "eng"}
	if a.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", a.cfg.TessdataDir)
	}

	out, errb, err := a.runner.Run(ctx, bin, args...)
	if err != nil {
		warn := fmt.Sprintf("tesseract failed: %v: %s", err, truncate(string(errb), 512))
		return Result{Engine: EngineTesseractOnly, Warnings: []string{warn}}, nil
	}

	text := normalizeText(string(out))
	a.logger.Debug("ocr.tesseract.done", "path", imagePath, "chars", len(text))
	return Result{
		Text:   text,
		Engine: EngineTesseractOnly,
		Blocks: textBlocks(text),
	}, nil
}
