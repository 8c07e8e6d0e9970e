package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccgtools/cardscan/constants"
	"github.com/ccgtools/cardscan/internal/common"
	"github.com/ccgtools/cardscan/internal/entity"
	"github.com/ccgtools/cardscan/internal/lexicon"
	"github.com/ccgtools/cardscan/internal/llm"
	"github.com/ccgtools/cardscan/internal/ocr"
	"github.com/ccgtools/cardscan/internal/reuse"
	"github.com/ccgtools/cardscan/internal/validate"
)

const nailOCR = "NAIL, PROTECTOR\n2 LEVEL\n1000 800 600 400 0\n3 PUR\nPOWER: Energy attack doing 4 life cards of damage."

type stubOCR struct {
	res   ocr.Result
	err   error
	calls atomic.Int64
}

func (s *stubOCR) RunOCR(context.Context, string) (ocr.Result, error) {
	s.calls.Add(1)
	return s.res, s.err
}

type stubLLM struct {
	res   llm.Result
	calls atomic.Int64
}

func (s *stubLLM) Parse(context.Context, llm.Request) llm.Result {
	s.calls.Add(1)
	return s.res
}

func testOptions() validate.Options {
	return validate.Options{
		MinConfidence: 0.9,
		Penalties: validate.Penalties{
			LLMMissing:   0.75,
			OCRMissing:   0.8,
			NoVision:     0.6,
			TypeConflict: 0.9,
		},
	}
}

func nailImage(file string) entity.ImageRef {
	return entity.ImageRef{
		SetCode:       "HNV",
		SetName:       "Heroes and Villains",
		ImagePath:     "/images/HNV/" + file,
		ImageFileName: file,
	}
}

func TestDiscoverImagesNumericOrder(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "HNV")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "thumbs"), 0o755))
	for _, name := range []string{"C10-Gohan.jpg", "C2-Nail.PNG", "C2-Nail.txt", "UR105-Cell.webp"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	images, err := DiscoverImages(root, []string{"HNV"}, map[string]string{"HNV": "Heroes and Villains"})
	require.NoError(t, err)

	var names []string
	for _, img := range images {
		assert.Equal(t, "HNV", img.SetCode)
		assert.Equal(t, "Heroes and Villains", img.SetName)
		names = append(names, img.ImageFileName)
	}
	assert.Equal(t, []string{"C2-Nail.PNG", "C10-Gohan.jpg", "UR105-Cell.webp"}, names)
}

func TestDiscoverImagesMissingSetDir(t *testing.T) {
	_, err := DiscoverImages(t.TempDir(), []string{"NOPE"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOPE")
}

func TestNumericAwareLess(t *testing.T) {
	assert.True(t, numericAwareLess("C2-a.jpg", "C10-a.jpg"))
	assert.False(t, numericAwareLess("C10-a.jpg", "C2-a.jpg"))
	assert.True(t, numericAwareLess("C2-a.jpg", "C2-b.jpg"))
	assert.True(t, numericAwareLess("C02-a.jpg", "U01-a.jpg"))
}

func TestProcessImageEndToEndHeuristic(t *testing.T) {
	ocrStub := &stubOCR{res: ocr.Result{Text: nailOCR, Engine: ocr.EngineTesseractOnly}}
	extractor := llm.NewSubprocessExtractor(common.LLMConfig{}, nil)
	p := NewProcessor(ocrStub, extractor, lexicon.Builtin(), "", testOptions(), nil)

	out := p.ProcessImage(context.Background(), nailImage("C02-Nail-Protector-Lv.-2-2.jpg"), nil)

	require.True(t, out.Accepted)
	require.NotNil(t, out.Card)
	card := out.Card
	assert.Equal(t, "HNV-C02", card.ID)
	assert.Equal(t, "Nail", card.Name)
	assert.Equal(t, "Protector", card.Title)
	assert.Equal(t, constants.TypePersonality, card.CardType)
	require.NotNil(t, card.PersonalityLevel)
	assert.Equal(t, 2, *card.PersonalityLevel)
	require.NotNil(t, card.PUR)
	assert.Equal(t, 3, *card.PUR)
	assert.Equal(t, []int{1000, 800, 600, 400, 0}, card.PowerStageValues)
	assert.NotEmpty(t, card.MainPowerText)
	assert.False(t, card.Review.Required)
	assert.Empty(t, card.Review.Reasons)
	assert.GreaterOrEqual(t, card.Confidence.Overall, 0.9)
	assert.Equal(t, nailOCR, card.Raw.OCRText)
}

func TestProcessImageRoutesPoorScanToReview(t *testing.T) {
	ocrStub := &stubOCR{res: ocr.Result{Warnings: []string{"tesseract failed: exit status 1"}}}
	llmStub := &stubLLM{res: llm.Result{Warnings: []string{"llm extraction failed after 2 attempts; heuristic fallback"}}}
	p := NewProcessor(ocrStub, llmStub, lexicon.Builtin(), "", testOptions(), nil)

	out := p.ProcessImage(context.Background(), nailImage("C07-Garbage.jpg"), nil)

	require.False(t, out.Accepted)
	require.NotNil(t, out.Review)
	assert.Equal(t, "HNV-C07", out.Review.CardID)
	assert.Contains(t, out.Review.Reasons, constants.ReasonInsufficientOCR)
	assert.Contains(t, out.Review.Reasons, constants.ReasonLLMUnavailable)
}

func TestProcessImageReuseShortCircuit(t *testing.T) {
	src := acceptedNailCard()
	idx := reuse.BuildIndex([]entity.Card{src}, nil)

	ocrStub := &stubOCR{}
	llmStub := &stubLLM{}
	p := NewProcessor(ocrStub, llmStub, lexicon.Builtin(), "", testOptions(), nil)

	out := p.ProcessImage(context.Background(), nailImage("C05-Nail-Protector-Lv.-2.jpg"), idx)

	require.True(t, out.Accepted)
	assert.Equal(t, "HNV-C05", out.Card.ID)
	assert.Equal(t, src.PowerStageValues, out.Card.PowerStageValues)
	assert.Zero(t, ocrStub.calls.Load(), "reuse must skip OCR")
	assert.Zero(t, llmStub.calls.Load(), "reuse must skip the LLM")
}

func TestRunBatchKeepsInputOrder(t *testing.T) {
	ocrStub := &stubOCR{res: ocr.Result{Text: nailOCR}}
	extractor := llm.NewSubprocessExtractor(common.LLMConfig{}, nil)
	p := NewProcessor(ocrStub, extractor, lexicon.Builtin(), "", testOptions(), nil)

	files := []string{
		"C01-Nail-Protector-Lv.-1.jpg",
		"C02-Nail-Protector-Lv.-2.jpg",
		"C03-Nail-Protector-Lv.-3.jpg",
		"C04-Nail-Protector-Lv.-4.jpg",
		"C06-Nail-Protector-Lv.-1.jpg",
		"C08-Nail-Protector-Lv.-2.jpg",
	}
	images := make([]entity.ImageRef, len(files))
	for i, f := range files {
		images[i] = nailImage(f)
	}

	results := p.RunBatch(context.Background(), images, nil, 3)

	require.Len(t, results, len(images))
	for i, res := range results {
		require.True(t, res.Accepted, "image %s", files[i])
		assert.Equal(t, files[i], res.Card.Source.ImageFileName)
	}
	assert.Equal(t, int64(len(images)), ocrStub.calls.Load())
}

func TestRunBatchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewProcessor(&stubOCR{}, &stubLLM{}, lexicon.Builtin(), "", testOptions(), nil)
	results := p.RunBatch(ctx, []entity.ImageRef{nailImage("C01-Nail-Lv.-1.jpg")}, nil, 2)

	require.Len(t, results, 1)
	assert.False(t, results[0].Accepted)
	assert.Nil(t, results[0].Card)
}

func TestRecomputeSets(t *testing.T) {
	lvl := 2
	cards := []entity.Card{
		{ID: "HNV-C02", SetCode: "HNV", PersonalityLevel: &lvl},
		{ID: "HNV-C05", SetCode: "HNV"},
		{ID: "VIL-U01", SetCode: "VIL"},
	}
	reviews := []entity.ReviewQueueItem{
		{CardID: "HNV-C07", ImagePath: "/images/HNV/C07.jpg"},
		{CardID: "AWK-UNK000", ImagePath: "/images/AWK/blur.jpg"},
	}
	prev := []entity.SetRecord{{Code: "HNV", Name: "Heroes and Villains", AcceptedCount: 99}}
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	run := RunInfo{RunID: "run-1", ParseModel: "llava:13b", MinConfidence: 0.9}

	sets := RecomputeSets(cards, reviews, prev, map[string]string{"VIL": "Villains"}, run, now)

	require.Len(t, sets, 3)
	assert.Equal(t, "AWK", sets[0].Code)
	assert.Equal(t, 0, sets[0].AcceptedCount)
	assert.Equal(t, 1, sets[0].ReviewCount)

	assert.Equal(t, "HNV", sets[1].Code)
	assert.Equal(t, "Heroes and Villains", sets[1].Name)
	assert.Equal(t, 2, sets[1].AcceptedCount)
	assert.Equal(t, 1, sets[1].ReviewCount)

	assert.Equal(t, "VIL", sets[2].Code)
	assert.Equal(t, "Villains", sets[2].Name)
	assert.Equal(t, 1, sets[2].AcceptedCount)

	for _, rec := range sets {
		assert.Equal(t, now, rec.LastRunAt)
		assert.Equal(t, "run-1", rec.RunID)
		assert.Equal(t, "llava:13b", rec.ParseModel)
		assert.Equal(t, 0.9, rec.MinConfidence)
	}
}

func acceptedNailCard() entity.Card {
	lvl := 2
	pur := 3
	return entity.Card{
		ID:                "HNV-C02",
		SetCode:           "HNV",
		SetName:           "Heroes and Villains",
		PrintedNumber:     "C02",
		RarityPrefix:      "C",
		Name:              "Nail",
		Title:             "Protector",
		CharacterKey:      "nail",
		CardType:          constants.TypePersonality,
		Affiliation:       constants.AffiliationHero,
		IsMainPersonality: true,
		PersonalityLevel:  &lvl,
		PUR:               &pur,
		PowerStageValues:  []int{1000, 800, 600, 400, 0},
		MainPowerText:     "Energy attack doing 4 life cards of damage.",
		CardTextRaw:       "LV. 2\nPOWER: Energy attack doing 4 life cards of damage.",
		Source: entity.SourceInfo{
			ImagePath:     "/images/HNV/C02-Nail-Protector-Lv.-2.jpg",
			ImageFileName: "C02-Nail-Protector-Lv.-2.jpg",
		},
	}
}
