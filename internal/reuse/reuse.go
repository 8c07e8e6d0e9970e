// Package reuse short-circuits the extraction pipeline for reprints: when a
// new image resolves to a card already accepted (or already queued for
// review) under another print, the known record is cloned onto the new
// identity instead of re-running OCR and extraction.
//
// Matching is name/title based only. Cards that legitimately share a name
// across unrelated prints will misfire; that is a known heuristic limitation
// of the matching policy, not a bug to silently fix here.
package reuse

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/ccgtools/cardscan/internal/entity"
	"github.com/ccgtools/cardscan/internal/normalize"
	"github.com/ccgtools/cardscan/internal/schema"
)

// Index holds the per-run lookup tables. Built once before a batch; reads
// are plain map lookups with no locking (single writer, read-only after
// build).
type Index struct {
	cards   map[string]*entity.Card
	reviews map[string]*reviewEntry
}

type reviewEntry struct {
	item *entity.ReviewQueueItem
	card *entity.Card
}

// Result carries exactly one of an accepted-card clone or a review-item clone.
type Result struct {
	Card   *entity.Card
	Review *entity.ReviewQueueItem
}

// BuildIndex indexes accepted cards and review items by normalized name and
// by normalized name+title. Accepted cards win key collisions.
func BuildIndex(cards []entity.Card, reviews []entity.ReviewQueueItem) *Index {
	idx := &Index{
		cards:   map[string]*entity.Card{},
		reviews: map[string]*reviewEntry{},
	}
	for i := range reviews {
		item := &reviews[i]
		var card entity.Card
		if err := json.Unmarshal(item.Candidate, &card); err != nil {
			continue
		}
		entry := &reviewEntry{item: item, card: &card}
		for _, k := range keysFor(card.Name, card.Title) {
			if _, ok := idx.reviews[k]; !ok {
				idx.reviews[k] = entry
			}
		}
	}
	for i := range cards {
		card := &cards[i]
		for _, k := range keysFor(card.Name, card.Title) {
			if _, ok := idx.cards[k]; !ok {
				idx.cards[k] = card
			}
		}
	}
	return idx
}

// TryReuse returns nil when no known print matches the new image's priors.
// A match requires a different print (set code or printed number differs)
// and, when both sides carry a personality level, the same level.
func (idx *Index) TryReuse(image entity.ImageRef, priors entity.FilenamePriors) *Result {
	key := nameKey(normalize.StripLevelMarker(priors.NameGuess))
	if key == "" {
		return nil
	}

	if src, ok := idx.cards[key]; ok && reusable(src, image, priors) {
		return &Result{Card: cloneCard(src, image, priors)}
	}
	if entry, ok := idx.reviews[key]; ok && reusable(entry.card, image, priors) {
		return &Result{Review: cloneReview(entry, image, priors)}
	}
	return nil
}

func reusable(src *entity.Card, image entity.ImageRef, priors entity.FilenamePriors) bool {
	samePrint := src.SetCode == image.SetCode && src.PrintedNumber == priors.PrintedNumber
	if samePrint {
		return false
	}
	if priors.PersonalityLevel != nil && src.PersonalityLevel != nil &&
		*priors.PersonalityLevel != *src.PersonalityLevel {
		return false
	}
	return true
}

// cloneCard rewrites only the identity fields on a deep copy, then re-runs
// the persisted-record transform so derived metadata stays consistent.
func cloneCard(src *entity.Card, image entity.ImageRef, priors entity.FilenamePriors) *entity.Card {
	out := src.Clone()
	rewriteIdentity(out, image, priors)
	return schema.Transform(out)
}

func cloneReview(entry *reviewEntry, image entity.ImageRef, priors entity.FilenamePriors) *entity.ReviewQueueItem {
	card := entry.card.Clone()
	rewriteIdentity(card, image, priors)
	raw, _ := json.Marshal(card)

	item := *entry.item
	item.CardID = card.ID
	item.ImagePath = image.ImagePath
	item.Candidate = raw
	item.Reasons = append([]string(nil), entry.item.Reasons...)
	item.FailedFields = append([]string(nil), entry.item.FailedFields...)
	item.CandidateValues = map[string]any{}
	for k, v := range entry.item.CandidateValues {
		item.CandidateValues[k] = v
	}
	item.CandidateValues["printed_number"] = card.PrintedNumber
	item.CandidateValues["rarity_prefix"] = card.RarityPrefix
	item.CreatedAt = time.Now().UTC()
	return &item
}

func rewriteIdentity(card *entity.Card, image entity.ImageRef, priors entity.FilenamePriors) {
	card.SetCode = image.SetCode
	card.SetName = image.SetName
	card.PrintedNumber = priors.PrintedNumber
	card.RarityPrefix = priors.RarityPrefix
	card.ID = entity.CardID(card.SetCode, card.PrintedNumber)
	if card.CharacterKey != "" && card.PersonalityLike() {
		card.PersonalityFamilyID = card.CharacterKey
	}
	card.Source.ImagePath = image.ImagePath
	card.Source.ImageFileName = image.ImageFileName
	card.Source.ImageURL = image.ImageURL
}

// keysFor yields the normalized lookup keys for a record: name alone plus
// name+title when a title exists.
func keysFor(name, title string) []string {
	n := nameKey(name)
	if n == "" {
		return nil
	}
	keys := []string{n}
	if t := nameKey(name + " " + title); t != n {
		keys = append(keys, t)
	}
	return keys
}

func nameKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}
