package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ccgtools/cardscan/internal/common"
)

const ollamaPrompt = "Transcribe ALL text visible on this trading card image. " +
	"Preserve line breaks. Include stat lines, power text, and any bracketed " +
	"icon markers exactly as printed. Output the raw text only."

type ollamaAdapter struct {
	cfg    common.OCRConfig
	client *http.Client
	logger *slog.Logger
}

func newOllamaAdapter(cfg common.OCRConfig, logger *slog.Logger) *ollamaAdapter {
	timeout := cfg.OllamaTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ollamaAdapter{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type ollamaRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images"`
	Stream bool     `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// RunOCR posts the image to the Ollama generate endpoint, retrying with a
// doubling backoff. All attempts failing yields warnings, not an error.
func (a *ollamaAdapter) RunOCR(ctx context.Context, imagePath string) (Result, error) {
	img, err := os.ReadFile(imagePath)
	if err != nil {
		return Result{Engine: EngineOllamaOnly, Warnings: []string{fmt.Sprintf("ollama: read image: %v", err)}}, nil
	}

	body := ollamaRequest{
		Model:  a.cfg.OllamaModel,
		Prompt: ollamaPrompt,
		Images: []string{base64.StdEncoding.EncodeToString(img)},
	}

	attempts := a.cfg.OllamaRetries
	if attempts < 1 {
		attempts = 1
	}

	var warnings []string
	backoff := 500 * time.Millisecond
	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := a.generate(ctx, body)
		if err == nil {
			text = normalizeText(text)
			return Result{Text: text, Engine: EngineOllamaOnly, Warnings: warnings, Blocks: textBlocks(text)}, nil
		}
		warnings = append(warnings, fmt.Sprintf("ollama attempt %d failed: %v", attempt, err))
		if ctx.Err() != nil || attempt == attempts {
			break
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return Result{Engine: EngineOllamaOnly, Warnings: warnings}, nil
		}
		backoff *= 2
	}
	return Result{Engine: EngineOllamaOnly, Warnings: warnings}, nil
}

func (a *ollamaAdapter) generate(ctx context.Context, body ollamaRequest) (string, error) {
	reqID := uuid.New().String()
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}

	url := strings.TrimRight(a.cfg.OllamaBaseURL, "/") + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Warn("ocr.ollama.send_error", "req_id", reqID, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			a.logger.Warn("ocr.ollama.body_close_error", "req_id", reqID, "error", cerr)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)
	a.logger.Debug("ocr.ollama.response", "req_id", reqID, "status", resp.StatusCode,
		"bytes", len(raw), "elapsed_ms", time.Since(start).Milliseconds())

	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}
	var parsed ollamaResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if strings.TrimSpace(parsed.Response) == "" {
		return "", fmt.Errorf("empty response")
	}
	return parsed.Response, nil
}
