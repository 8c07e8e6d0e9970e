// Package llm extracts structured card fields from an image via an external
// model CLI. The contract with the pipeline is total: Parse never fails past
// its boundary — when every model attempt is rejected it falls back to the
// heuristic extractor and reports llmUsed=false plus warnings.
package llm

import (
	"context"

	"github.com/ccgtools/cardscan/internal/entity"
)

// Request carries everything one extraction sees.
type Request struct {
	Image   entity.ImageRef
	Priors  entity.FilenamePriors
	OCRText string
	Lexicon *entity.RulebookLexicon
	Model   string
}

// Result is the extraction outcome. Data is always populated (model output
// or heuristic fallback); RawJSON holds the sanitized model response when
// LLMUsed is true.
type Result struct {
	Data     entity.ExtractionCandidate
	LLMUsed  bool
	Warnings []string
	RawJSON  []byte
}

// Extractor is the interface the pipeline depends on.
type Extractor interface {
	Parse(ctx context.Context, req Request) Result
}
