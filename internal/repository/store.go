// Package repository persists the three card collections: accepted cards,
// the review queue, and per-set run records. Two backends implement the same
// Store contract: whole-file JSON documents (the default) and SQLite.
// Single-writer is assumed; there is no cross-process coordination.
package repository

import (
	"context"
	"sort"

	"github.com/ccgtools/cardscan/internal/common"
	"github.com/ccgtools/cardscan/internal/entity"
)

// Store is the persistence contract the pipeline and CLI depend on.
// Load methods return empty slices (not errors) for absent data; save
// methods replace the whole collection.
type Store interface {
	LoadCards(ctx context.Context) ([]entity.Card, error)
	SaveCards(ctx context.Context, cards []entity.Card) error

	LoadReviewQueue(ctx context.Context) ([]entity.ReviewQueueItem, error)
	SaveReviewQueue(ctx context.Context, items []entity.ReviewQueueItem) error

	LoadSets(ctx context.Context) ([]entity.SetRecord, error)
	SaveSets(ctx context.Context, sets []entity.SetRecord) error

	UpsertCard(ctx context.Context, card entity.Card) error
	UpsertReview(ctx context.Context, item entity.ReviewQueueItem) error
	// RemoveReview drops the queue entry for a card/image pair, e.g. after a
	// rescan accepted it. Removing a missing entry is not an error.
	RemoveReview(ctx context.Context, cardID, imagePath string) error

	Close() error
}

// New picks the backend from config.
func New(cfg common.DataConfig) (Store, error) {
	if cfg.Backend == "sqlite" {
		return NewSQLiteStore(cfg.SQLitePath)
	}
	return NewJSONStore(cfg.Dir), nil
}

func sortCards(cards []entity.Card) {
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })
}

func sortReviews(items []entity.ReviewQueueItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CardID != items[j].CardID {
			return items[i].CardID < items[j].CardID
		}
		return items[i].ImagePath < items[j].ImagePath
	})
}

func sortSets(sets []entity.SetRecord) {
	sort.Slice(sets, func(i, j int) bool { return sets[i].Code < sets[j].Code })
}

func upsertCardSlice(cards []entity.Card, card entity.Card) []entity.Card {
	for i := range cards {
		if cards[i].ID == card.ID {
			cards[i] = card
			return cards
		}
	}
	return append(cards, card)
}

func upsertReviewSlice(items []entity.ReviewQueueItem, item entity.ReviewQueueItem) []entity.ReviewQueueItem {
	for i := range items {
		if items[i].CardID == item.CardID && items[i].ImagePath == item.ImagePath {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}
