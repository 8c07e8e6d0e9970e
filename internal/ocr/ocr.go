// Package ocr extracts raw text from card images. Two engines are supported:
// a local tesseract binary and an Ollama vision model over HTTP; hybrid mode
// runs both concurrently and keeps the richer result. OCR failure is never
// fatal for a card, it surfaces as warnings on an empty result.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ccgtools/cardscan/internal/common"
)

// Engine selection values, configured via CARDSCAN_OCR_ENGINE.
const (
	EngineAuto          = "auto"
	EngineOllamaOnly    = "ollama-only"
	EngineHybrid        = "hybrid"
	EngineTesseractOnly = "tesseract-only"
	EngineNone          = "none"
)

// Result is one engine pass over one image.
type Result struct {
	Text     string
	Engine   string
	Warnings []string
	Blocks   []string
}

// Adapter is the pipeline's view of OCR.
type Adapter interface {
	RunOCR(ctx context.Context, imagePath string) (Result, error)
}

// New builds the adapter for the configured engine. auto behaves like hybrid
// when an Ollama URL is configured, tesseract-only otherwise.
func New(cfg common.OCRConfig, logger *slog.Logger) (Adapter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tess := &tesseractAdapter{cfg: cfg, runner: execRunner{}, logger: logger}
	ollama := newOllamaAdapter(cfg, logger)

	switch cfg.Engine {
	case EngineTesseractOnly:
		return tess, nil
	case EngineOllamaOnly:
		return ollama, nil
	case EngineHybrid:
		return &hybridAdapter{tess: tess, ollama: ollama, logger: logger}, nil
	case EngineNone:
		return noneAdapter{}, nil
	case EngineAuto, "":
		if cfg.OllamaBaseURL != "" {
			return &hybridAdapter{tess: tess, ollama: ollama, logger: logger}, nil
		}
		return tess, nil
	}
	return nil, fmt.Errorf("unknown ocr engine: %q", cfg.Engine)
}

type noneAdapter struct{}

func (noneAdapter) RunOCR(context.Context, string) (Result, error) {
	return Result{Engine: EngineNone}, nil
}

var reBoxNoise = regexp.MustCompile(`[|_]{3,}`)

// normalizeText cleans obvious scan noise: box-drawing runs, trailing
// per-line whitespace, and 3+ blank-line gaps.
func normalizeText(s string) string {
	s = reBoxNoise.ReplaceAllString(s, "")
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blanks := 0
	for _, ln := range lines {
		ln = strings.TrimRight(ln, " \t")
		if ln == "" {
			blanks++
			if blanks > 1 {
				continue
			}
		} else {
			blanks = 0
		}
		out = append(out, ln)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// textBlocks splits normalized text on blank lines; the normalizer uses the
// blocks as weak layout hints.
func textBlocks(s string) []string {
	var blocks []string
	for _, b := range strings.Split(s, "\n\n") {
		b = strings.TrimSpace(b)
		if b != "" {
			blocks = append(blocks, b)
		}
	}
	return blocks
}
