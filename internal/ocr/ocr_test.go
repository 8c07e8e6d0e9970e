package ocr

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccgtools/cardscan/internal/common"
)

type stubRunner struct {
	stdout string
	stderr string
	err    error
	calls  int
}

func (s *stubRunner) Run(_ context.Context, _ string, _ ...string) ([]byte, []byte, error) {
	s.calls++
	return []byte(s.stdout), []byte(s.stderr), s.err
}

func TestTesseractAdapterNormalizesOutput(t *testing.T) {
	runner := &stubRunner{stdout: "NAIL, PROTECTOR   \r\n\n\n\n2 LEVEL\n||||____ 1000 800\n"}
	a := &tesseractAdapter{cfg: common.OCRConfig{}, runner: runner, logger: slog.Default()}

	res, err := a.RunOCR(context.Background(), "/images/HNV/C02.jpg")

	require.NoError(t, err)
	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, "NAIL, PROTECTOR\n\n2 LEVEL\n 1000 800", res.Text)
	assert.Len(t, res.Blocks, 2)
	assert.Empty(t, res.Warnings)
}

func TestTesseractFailureBecomesWarning(t *testing.T) {
	runner := &stubRunner{err: errors.New("exit status 1"), stderr: "no image"}
	a := &tesseractAdapter{cfg: common.OCRConfig{}, runner: runner, logger: slog.Default()}

	res, err := a.RunOCR(context.Background(), "/images/HNV/C02.jpg")

	require.NoError(t, err, "engine failure degrades, never aborts")
	assert.Empty(t, res.Text)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "tesseract failed")
}

type stubAdapter struct {
	res Result
}

func (s stubAdapter) RunOCR(context.Context, string) (Result, error) { return s.res, nil }

func TestHybridKeepsRicherText(t *testing.T) {
	h := &hybridAdapter{
		tess:   stubAdapter{Result{Text: "short", Engine: EngineTesseractOnly, Blocks: []string{"short"}}},
		ollama: stubAdapter{Result{Text: "a much longer transcription of the card", Engine: EngineOllamaOnly, Blocks: []string{"a much longer transcription of the card"}}},
		logger: slog.Default(),
	}

	res, err := h.RunOCR(context.Background(), "x.jpg")

	require.NoError(t, err)
	assert.Equal(t, EngineHybrid, res.Engine)
	assert.Equal(t, "a much longer transcription of the card", res.Text)
	assert.Len(t, res.Blocks, 2, "loser text survives as blocks")
}

func TestHybridMergesWarnings(t *testing.T) {
	h := &hybridAdapter{
		tess:   stubAdapter{Result{Warnings: []string{"tesseract failed: boom"}}},
		ollama: stubAdapter{Result{Text: "text", Warnings: []string{"ollama attempt 1 failed: 500"}}},
		logger: slog.Default(),
	}

	res, err := h.RunOCR(context.Background(), "x.jpg")

	require.NoError(t, err)
	assert.Len(t, res.Warnings, 2)
}

func TestNewSelectsEngine(t *testing.T) {
	cases := []struct {
		engine string
		want   any
	}{
		{EngineTesseractOnly, &tesseractAdapter{}},
		{EngineOllamaOnly, &ollamaAdapter{}},
		{EngineHybrid, &hybridAdapter{}},
		{EngineNone, noneAdapter{}},
	}
	for _, tc := range cases {
		a, err := New(common.OCRConfig{Engine: tc.engine, OllamaBaseURL: "http://localhost:11434"}, nil)
		require.NoError(t, err, tc.engine)
		assert.IsType(t, tc.want, a, tc.engine)
	}

	auto, err := New(common.OCRConfig{Engine: EngineAuto, OllamaBaseURL: "http://localhost:11434"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &hybridAdapter{}, auto)

	autoNoURL, err := New(common.OCRConfig{Engine: EngineAuto}, nil)
	require.NoError(t, err)
	assert.IsType(t, &tesseractAdapter{}, autoNoURL)

	_, err = New(common.OCRConfig{Engine: "paper"}, nil)
	assert.Error(t, err)
}

func TestNoneAdapterIsEmpty(t *testing.T) {
	res, err := noneAdapter{}.RunOCR(context.Background(), "x.jpg")
	require.NoError(t, err)
	assert.Empty(t, res.Text)
	assert.Equal(t, EngineNone, res.Engine)
}
