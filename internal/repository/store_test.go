package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccgtools/cardscan/constants"
	"github.com/ccgtools/cardscan/internal/common"
	"github.com/ccgtools/cardscan/internal/entity"
)

func card(id string) entity.Card {
	return entity.Card{
		ID:            id,
		SetCode:       "HNV",
		PrintedNumber: id[len("HNV-"):],
		RarityPrefix:  "C",
		Name:          "Card " + id,
		CardType:      constants.TypeCombat,
		Affiliation:   constants.AffiliationUnknown,
	}
}

func review(cardID, imagePath string) entity.ReviewQueueItem {
	return entity.ReviewQueueItem{
		CardID:    cardID,
		ImagePath: imagePath,
		Reasons:   []string{constants.ReasonLowConfidence},
	}
}

// both backends satisfy the same contract, so one suite covers them
func stores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })
	return map[string]Store{
		"json":   NewJSONStore(t.TempDir()),
		"sqlite": sqlite,
	}
}

func TestStoreRoundTripsCollections(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			loaded, err := store.LoadCards(ctx)
			require.NoError(t, err)
			assert.Empty(t, loaded, "missing data reads as empty")

			require.NoError(t, store.SaveCards(ctx, []entity.Card{card("HNV-C05"), card("HNV-C02")}))
			loaded, err = store.LoadCards(ctx)
			require.NoError(t, err)
			require.Len(t, loaded, 2)
			assert.Equal(t, "HNV-C02", loaded[0].ID, "sorted by id")
			assert.Equal(t, "HNV-C05", loaded[1].ID)

			require.NoError(t, store.SaveSets(ctx, []entity.SetRecord{
				{Code: "TRU", AcceptedCount: 3},
				{Code: "HNV", AcceptedCount: 2, ReviewCount: 1},
			}))
			sets, err := store.LoadSets(ctx)
			require.NoError(t, err)
			require.Len(t, sets, 2)
			assert.Equal(t, "HNV", sets[0].Code)
		})
	}
}

func TestStoreUpsertCard(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.UpsertCard(ctx, card("HNV-C02")))
			updated := card("HNV-C02")
			updated.Name = "renamed"
			require.NoError(t, store.UpsertCard(ctx, updated))
			require.NoError(t, store.UpsertCard(ctx, card("HNV-C05")))

			cards, err := store.LoadCards(ctx)
			require.NoError(t, err)
			require.Len(t, cards, 2)
			assert.Equal(t, "renamed", cards[0].Name)
		})
	}
}

func TestStoreReviewQueueLifecycle(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.UpsertReview(ctx, review("HNV-C02", "/a.jpg")))
			require.NoError(t, store.UpsertReview(ctx, review("HNV-C02", "/b.jpg")))
			require.NoError(t, store.UpsertReview(ctx, review("HNV-C02", "/a.jpg")))

			items, err := store.LoadReviewQueue(ctx)
			require.NoError(t, err)
			assert.Len(t, items, 2, "same card+image upserts in place")

			require.NoError(t, store.RemoveReview(ctx, "HNV-C02", "/a.jpg"))
			items, err = store.LoadReviewQueue(ctx)
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, "/b.jpg", items[0].ImagePath)

			require.NoError(t, store.RemoveReview(ctx, "HNV-C02", ""))
			items, err = store.LoadReviewQueue(ctx)
			require.NoError(t, err)
			assert.Empty(t, items, "empty image path removes all entries for the card")

			require.NoError(t, store.RemoveReview(ctx, "HNV-C99", ""), "removing missing entry is not an error")
		})
	}
}

func TestNewPicksBackend(t *testing.T) {
	jsonStore, err := New(common.DataConfig{Backend: "json", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &JSONStore{}, jsonStore)

	sqliteStore, err := New(common.DataConfig{
		Backend:    "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "x.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteStore.Close() })
	assert.IsType(t, &SQLiteStore{}, sqliteStore)
}
