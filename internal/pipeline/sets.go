package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/ccgtools/cardscan/internal/entity"
)

// RunInfo is the metadata stamped onto set records after a mutating run.
type RunInfo struct {
	RunID         string
	ParseModel    string
	MinConfidence float64
}

// RecomputeSets rebuilds the per-set counters from the persisted collections.
// Existing set names are kept; names may add display names for new codes.
func RecomputeSets(cards []entity.Card, reviews []entity.ReviewQueueItem, prev []entity.SetRecord, names map[string]string, run RunInfo, now time.Time) []entity.SetRecord {
	byCode := map[string]*entity.SetRecord{}
	get := func(code string) *entity.SetRecord {
		if rec, ok := byCode[code]; ok {
			return rec
		}
		rec := &entity.SetRecord{Code: code, Name: names[code]}
		byCode[code] = rec
		return rec
	}
	for _, rec := range prev {
		kept := rec
		kept.AcceptedCount = 0
		kept.ReviewCount = 0
		byCode[rec.Code] = &kept
	}

	for _, c := range cards {
		get(c.SetCode).AcceptedCount++
	}
	for _, it := range reviews {
		get(setCodeFromCardID(it.CardID)).ReviewCount++
	}

	out := make([]entity.SetRecord, 0, len(byCode))
	for _, rec := range byCode {
		rec.LastRunAt = now
		rec.RunID = run.RunID
		rec.ParseModel = run.ParseModel
		rec.MinConfidence = run.MinConfidence
		if rec.Name == "" {
			rec.Name = names[rec.Code]
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func setCodeFromCardID(cardID string) string {
	if i := strings.Index(cardID, "-"); i > 0 {
		return cardID[:i]
	}
	return cardID
}
