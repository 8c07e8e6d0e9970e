package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/ccgtools/cardscan/internal/entity"
)

// SQLiteStore keeps one JSON document per row. The schema is deliberately
// dumb: the document is authoritative, the key columns exist only for upsert
// and ordering.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cards (
	id  TEXT PRIMARY KEY,
	doc TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS review_queue (
	card_id    TEXT NOT NULL,
	image_path TEXT NOT NULL,
	doc        TEXT NOT NULL,
	PRIMARY KEY (card_id, image_path)
);
CREATE TABLE IF NOT EXISTS sets (
	code TEXT PRIMARY KEY,
	doc  TEXT NOT NULL
);`

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// whole-store writes happen from one goroutine; a single connection
	// avoids SQLITE_BUSY on the replace-all paths
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) LoadCards(ctx context.Context) ([]entity.Card, error) {
	var cards []entity.Card
	err := s.loadDocs(ctx, `SELECT doc FROM cards ORDER BY id`, func(raw []byte) error {
		var c entity.Card
		if err := json.Unmarshal(raw, &c); err != nil {
			return err
		}
		cards = append(cards, c)
		return nil
	})
	return cards, err
}

func (s *SQLiteStore) SaveCards(ctx context.Context, cards []entity.Card) error {
	sortCards(cards)
	return s.replaceAll(ctx, `DELETE FROM cards`,
		`INSERT INTO cards (id, doc) VALUES (?, ?)`,
		len(cards), func(i int) ([]any, error) {
			doc, err := json.Marshal(cards[i])
			if err != nil {
				return nil, err
			}
			return []any{cards[i].ID, string(doc)}, nil
		})
}

func (s *SQLiteStore) LoadReviewQueue(ctx context.Context) ([]entity.ReviewQueueItem, error) {
	var items []entity.ReviewQueueItem
	err := s.loadDocs(ctx, `SELECT doc FROM review_queue ORDER BY card_id, image_path`, func(raw []byte) error {
		var it entity.ReviewQueueItem
		if err := json.Unmarshal(raw, &it); err != nil {
			return err
		}
		items = append(items, it)
		return nil
	})
	return items, err
}

func (s *SQLiteStore) SaveReviewQueue(ctx context.Context, items []entity.ReviewQueueItem) error {
	sortReviews(items)
	return s.replaceAll(ctx, `DELETE FROM review_queue`,
		`INSERT INTO review_queue (card_id, image_path, doc) VALUES (?, ?, ?)`,
		len(items), func(i int) ([]any, error) {
			doc, err := json.Marshal(items[i])
			if err != nil {
				return nil, err
			}
			return []any{items[i].CardID, items[i].ImagePath, string(doc)}, nil
		})
}

func (s *SQLiteStore) LoadSets(ctx context.Context) ([]entity.SetRecord, error) {
	var sets []entity.SetRecord
	err := s.loadDocs(ctx, `SELECT doc FROM sets ORDER BY code`, func(raw []byte) error {
		var rec entity.SetRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return err
		}
		sets = append(sets, rec)
		return nil
	})
	return sets, err
}

func (s *SQLiteStore) SaveSets(ctx context.Context, sets []entity.SetRecord) error {
	sortSets(sets)
	return s.replaceAll(ctx, `DELETE FROM sets`,
		`INSERT INTO sets (code, doc) VALUES (?, ?)`,
		len(sets), func(i int) ([]any, error) {
			doc, err := json.Marshal(sets[i])
			if err != nil {
				return nil, err
			}
			return []any{sets[i].Code, string(doc)}, nil
		})
}

func (s *SQLiteStore) UpsertCard(ctx context.Context, card entity.Card) error {
	doc, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("encode card %s: %w", card.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO cards (id, doc) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET doc = excluded.doc`,
		card.ID, string(doc))
	return err
}

func (s *SQLiteStore) UpsertReview(ctx context.Context, item entity.ReviewQueueItem) error {
	doc, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode review %s: %w", item.CardID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO review_queue (card_id, image_path, doc) VALUES (?, ?, ?)
		 ON CONFLICT(card_id, image_path) DO UPDATE SET doc = excluded.doc`,
		item.CardID, item.ImagePath, string(doc))
	return err
}

func (s *SQLiteStore) RemoveReview(ctx context.Context, cardID, imagePath string) error {
	if imagePath == "" {
		_, err := s.db.ExecContext(ctx, `DELETE FROM review_queue WHERE card_id = ?`, cardID)
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM review_queue WHERE card_id = ? AND image_path = ?`, cardID, imagePath)
	return err
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) loadDocs(ctx context.Context, query string, scan func([]byte) error) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return err
		}
		if err := scan([]byte(doc)); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *SQLiteStore) replaceAll(ctx context.Context, deleteStmt, insertStmt string, n int, row func(int) ([]any, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, deleteStmt); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		args, err := row(i)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insertStmt, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}
