package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ccgtools/cardscan/internal/entity"
)

const (
	cardsFile  = "cards.json"
	reviewFile = "review-queue.json"
	setsFile   = "sets.json"
)

// JSONStore keeps each collection as one sorted JSON array on disk. Reads
// and writes are whole-document; an upsert is read-modify-write.
type JSONStore struct {
	dir string
}

func NewJSONStore(dir string) *JSONStore {
	return &JSONStore{dir: dir}
}

func (s *JSONStore) LoadCards(context.Context) ([]entity.Card, error) {
	var cards []entity.Card
	if err := s.readFile(cardsFile, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

func (s *JSONStore) SaveCards(_ context.Context, cards []entity.Card) error {
	sortCards(cards)
	return s.writeFile(cardsFile, cards)
}

func (s *JSONStore) LoadReviewQueue(context.Context) ([]entity.ReviewQueueItem, error) {
	var items []entity.ReviewQueueItem
	if err := s.readFile(reviewFile, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *JSONStore) SaveReviewQueue(_ context.Context, items []entity.ReviewQueueItem) error {
	sortReviews(items)
	return s.writeFile(reviewFile, items)
}

func (s *JSONStore) LoadSets(context.Context) ([]entity.SetRecord, error) {
	var sets []entity.SetRecord
	if err := s.readFile(setsFile, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

func (s *JSONStore) SaveSets(_ context.Context, sets []entity.SetRecord) error {
	sortSets(sets)
	return s.writeFile(setsFile, sets)
}

func (s *JSONStore) UpsertCard(ctx context.Context, card entity.Card) error {
	cards, err := s.LoadCards(ctx)
	if err != nil {
		return err
	}
	return s.SaveCards(ctx, upsertCardSlice(cards, card))
}

func (s *JSONStore) UpsertReview(ctx context.Context, item entity.ReviewQueueItem) error {
	items, err := s.LoadReviewQueue(ctx)
	if err != nil {
		return err
	}
	return s.SaveReviewQueue(ctx, upsertReviewSlice(items, item))
}

func (s *JSONStore) RemoveReview(ctx context.Context, cardID, imagePath string) error {
	items, err := s.LoadReviewQueue(ctx)
	if err != nil {
		return err
	}
	kept := items[:0]
	for _, it := range items {
		if it.CardID == cardID && (imagePath == "" || it.ImagePath == imagePath) {
			continue
		}
		kept = append(kept, it)
	}
	return s.SaveReviewQueue(ctx, kept)
}

func (s *JSONStore) Close() error { return nil }

func (s *JSONStore) readFile(name string, out any) error {
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// writeFile writes via a temp file and rename so a crash mid-write never
// leaves a truncated document.
func (s *JSONStore) writeFile(name string, v any) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", s.dir, err)
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	raw = append(raw, '\n')

	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}
