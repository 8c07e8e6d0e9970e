package llm

import (
	"encoding/json"
	"strings"
)

const maxPromptOCRChars = 3000

// BuildPrompt composes the single prompt the model CLI reads on stdin:
// strict output rules, the filename priors as structured hints, the lexicon's
// icon markers, and the OCR transcription.
func BuildPrompt(req Request) string {
	var b strings.Builder

	b.WriteString("You are a trading-card parser. Return ONLY JSON matching the provided schema; no prose, no code fences.\n")
	b.WriteString("Fields you cannot read with confidence must be omitted entirely. Never output null.\n")
	b.WriteString("card_type is one of: personality, mastery, drill, combat, event, setup, dragon_ball, unknown.\n")
	b.WriteString("affiliation is one of: hero, villain, neutral, unknown.\n")
	b.WriteString("power_stage_values is the printed descending stage ladder ending in 0, main personalities only.\n")

	if req.Lexicon != nil && len(req.Lexicon.Icons) > 0 {
		b.WriteString("Report icon markers exactly as printed. Known markers: ")
		markers := make([]string, 0, len(req.Lexicon.Icons))
		for _, ic := range req.Lexicon.Icons {
			if ic.Marker != "" {
				markers = append(markers, ic.Marker)
			}
		}
		b.WriteString(strings.Join(markers, ", "))
		b.WriteString(".\n")
	}

	b.WriteString("\nImage file: ")
	b.WriteString(req.Image.ImageFileName)
	b.WriteString("\nSet: ")
	b.WriteString(req.Image.SetCode)
	if req.Image.SetName != "" {
		b.WriteString(" (")
		b.WriteString(req.Image.SetName)
		b.WriteString(")")
	}

	if hints, err := json.Marshal(req.Priors); err == nil {
		b.WriteString("\nFilename hints (may be wrong, verify against the image): ")
		b.Write(hints)
	}

	ocr := strings.TrimSpace(req.OCRText)
	if ocr != "" {
		b.WriteString("\n\nOCR transcription (noisy, cross-check against the image):\n")
		if len(ocr) > maxPromptOCRChars {
			b.WriteString(ocr[:maxPromptOCRChars])
			b.WriteString("\n…(truncated)")
		} else {
			b.WriteString(ocr)
		}
	}

	return b.String()
}
