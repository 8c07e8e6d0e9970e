package entity

import (
	"encoding/json"
	"time"
)

// ReviewQueueItem holds a rejected candidate pending manual correction.
// Keyed by (card_id, image_path): two images of the same print get separate
// entries, and a later rescan that accepts the image removes its entry.
type ReviewQueueItem struct {
	CardID          string          `json:"card_id"`
	ImagePath       string          `json:"image_path"`
	Candidate       json.RawMessage `json:"candidate"`
	CandidateValues map[string]any  `json:"candidate_values"`
	Reasons         []string        `json:"reasons"`
	FailedFields    []string        `json:"failed_fields,omitempty"`
	Confidence      ConfidenceInfo  `json:"confidence"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// SetRecord aggregates per-set counts plus run metadata; recomputed after
// every database-mutating run.
type SetRecord struct {
	Code          string    `json:"code"`
	Name          string    `json:"name,omitempty"`
	AcceptedCount int       `json:"accepted_count"`
	ReviewCount   int       `json:"review_count"`
	LastRunAt     time.Time `json:"last_run_at"`
	RunID         string    `json:"run_id,omitempty"`
	ParseModel    string    `json:"parse_model,omitempty"`
	MinConfidence float64   `json:"min_confidence"`
}
