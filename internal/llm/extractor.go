package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ccgtools/cardscan/internal/common"
	"github.com/ccgtools/cardscan/internal/entity"
	"github.com/ccgtools/cardscan/internal/schema"
)

// SubprocessExtractor shells out to the configured model CLI. Invocation
// contract: prompt on stdin, `--model <name> --image <path>` args, one JSON
// document on stdout.
type SubprocessExtractor struct {
	cfg    common.LLMConfig
	runner commandRunner
	logger *slog.Logger
}

func NewSubprocessExtractor(cfg common.LLMConfig, logger *slog.Logger) *SubprocessExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubprocessExtractor{
		cfg:    cfg,
		runner: execCommandRunner{killGrace: cfg.KillGrace},
		logger: logger,
	}
}

// Parse runs bounded attempts against the model CLI, validating each
// response against the extraction schema and a quality heuristic. Exhaustion
// falls back to the heuristic extractor; errors never cross this boundary.
func (e *SubprocessExtractor) Parse(ctx context.Context, req Request) Result {
	var warnings []string

	if e.cfg.Command == "" {
		warnings = append(warnings, "llm disabled: no command configured")
		return Result{Data: Heuristic(req), Warnings: warnings}
	}

	model := req.Model
	if model == "" {
		model = e.cfg.Model
	}
	prompt := []byte(BuildPrompt(req))
	schemaMap := BuildExtractionJSONSchema()

	attempts := e.cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	timeout := e.cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		e.logger.Info("llm.extract.start",
			"image", req.Image.ImageFileName, "model", model, "attempt", attempt)

		actx, cancel := context.WithTimeout(ctx, timeout)
		out, _, err := e.runner.Run(actx, prompt, e.cfg.Command,
			"--model", model, "--image", req.Image.ImagePath)
		cancel()

		if err != nil {
			warnings = append(warnings, fmt.Sprintf("llm attempt %d failed: %v", attempt, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		clean, _, err := SanitizeExtraction(out, e.logger)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("llm attempt %d failed: %v", attempt, err))
			continue
		}
		if err := schema.ValidateJSONAgainstSchema(schemaMap, clean); err != nil {
			warnings = append(warnings, fmt.Sprintf("llm attempt %d failed: schema: %v", attempt, err))
			continue
		}

		var data entity.ExtractionCandidate
		if err := json.Unmarshal(clean, &data); err != nil {
			warnings = append(warnings, fmt.Sprintf("llm attempt %d failed: decode: %v", attempt, err))
			continue
		}
		if !qualityOK(data) {
			warnings = append(warnings, fmt.Sprintf("llm attempt %d failed: quality check", attempt))
			continue
		}

		e.logger.Info("llm.extract.ok", "image", req.Image.ImageFileName, "attempt", attempt)
		return Result{Data: data, LLMUsed: true, Warnings: warnings, RawJSON: clean}
	}

	e.logger.Warn("llm.extract.exhausted",
		"image", req.Image.ImageFileName, "attempts", attempts)
	warnings = append(warnings, fmt.Sprintf("llm extraction failed after %d attempts; heuristic fallback", attempts))
	return Result{Data: Heuristic(req), Warnings: warnings}
}

// qualityOK rejects responses too thin to beat the heuristic fallback: a
// usable extraction carries a name plus either card text or a stage ladder.
func qualityOK(data entity.ExtractionCandidate) bool {
	if data.Name == nil || strings.TrimSpace(*data.Name) == "" {
		return false
	}
	hasText := data.CardTextRaw != nil && len(strings.TrimSpace(*data.CardTextRaw)) >= 8
	return hasText || len(data.PowerStageValues) > 0
}
