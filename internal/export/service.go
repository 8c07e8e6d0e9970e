// Package export produces XLSX workbooks from the persisted collections:
// one sheet for accepted cards, one for the review queue.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ccgtools/cardscan/internal/entity"
	"github.com/ccgtools/cardscan/internal/repository"
)

// Service is a tiny façade over the store that produces XLSX bytes.
type Service struct {
	store  repository.Store
	logger *slog.Logger
}

func NewService(store repository.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// ExportCardsXLSX returns an XLSX workbook (as bytes) for the given set
// codes. An empty setCodes exports every set.
func (s *Service) ExportCardsXLSX(ctx context.Context, setCodes []string) ([]byte, error) {
	start := time.Now()

	cards, err := s.store.LoadCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cards: %w", err)
	}
	reviews, err := s.store.LoadReviewQueue(ctx)
	if err != nil {
		return nil, fmt.Errorf("load review queue: %w", err)
	}

	wanted := map[string]bool{}
	for _, code := range setCodes {
		wanted[strings.ToUpper(code)] = true
	}
	keep := func(setCode string) bool {
		return len(wanted) == 0 || wanted[strings.ToUpper(setCode)]
	}

	f := excelize.NewFile()
	cardRows, err := s.writeCardsSheet(f, cards, keep)
	if err != nil {
		return nil, err
	}
	reviewRows, err := s.writeReviewSheet(f, reviews, keep)
	if err != nil {
		return nil, err
	}
	// drop excelize's default sheet
	_ = f.DeleteSheet("Sheet1")
	if index, err := f.GetSheetIndex(sheetCards); err == nil && index >= 0 {
		f.SetActiveSheet(index)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"sets", strings.Join(setCodes, ","),
		"card_rows", cardRows,
		"review_rows", reviewRows,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

const (
	sheetCards  = "Cards"
	sheetReview = "Review Queue"
)

func (s *Service) writeCardsSheet(f *excelize.File, cards []entity.Card, keep func(string) bool) (int, error) {
	if _, err := f.NewSheet(sheetCards); err != nil {
		return 0, err
	}

	headers := []string{
		"Card ID",
		"Set",
		"Number",
		"Rarity",
		"Name",
		"Title",
		"Type",
		"Affiliation",
		"Style",
		"Level",
		"PUR",
		"Power Stages",
		"Main Power",
		"Card Text",
		"Confidence",
		"Image File",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetCards, cell, h)
	}

	row := 2
	for _, c := range cards {
		if !keep(c.SetCode) {
			continue
		}
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheetCards, cell, v)
		}
		write(1, c.ID)
		write(2, c.SetCode)
		write(3, c.PrintedNumber)
		write(4, c.RarityPrefix)
		write(5, c.Name)
		write(6, c.Title)
		write(7, string(c.CardType))
		write(8, string(c.Affiliation))
		write(9, c.Style)
		write(10, intCell(c.PersonalityLevel))
		write(11, intCell(c.PUR))
		write(12, stagesCell(c.PowerStageValues))
		write(13, truncate(c.MainPowerText, 140))
		write(14, truncate(c.CardTextRaw, 280))
		write(15, fmt.Sprintf("%.2f", c.Confidence.Overall))
		write(16, c.Source.ImageFileName)
		row++
	}

	_ = f.SetColWidth(sheetCards, "A", "A", 12)
	_ = f.SetColWidth(sheetCards, "E", "F", 22)
	_ = f.SetColWidth(sheetCards, "L", "L", 20)
	_ = f.SetColWidth(sheetCards, "M", "N", 48)
	_ = f.SetColWidth(sheetCards, "P", "P", 36)

	return row - 2, nil
}

func (s *Service) writeReviewSheet(f *excelize.File, items []entity.ReviewQueueItem, keep func(string) bool) (int, error) {
	if _, err := f.NewSheet(sheetReview); err != nil {
		return 0, err
	}

	headers := []string{"Card ID", "Image Path", "Reasons", "Failed Fields", "Confidence", "Queued At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetReview, cell, h)
	}

	row := 2
	for _, it := range items {
		if !keep(setCodeOf(it.CardID)) {
			continue
		}
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheetReview, cell, v)
		}
		write(1, it.CardID)
		write(2, it.ImagePath)
		write(3, strings.Join(it.Reasons, "; "))
		write(4, strings.Join(it.FailedFields, "; "))
		write(5, fmt.Sprintf("%.2f", it.Confidence.Overall))
		write(6, it.CreatedAt.Format("2006-01-02 15:04"))
		row++
	}

	_ = f.SetColWidth(sheetReview, "A", "A", 12)
	_ = f.SetColWidth(sheetReview, "B", "B", 60)
	_ = f.SetColWidth(sheetReview, "C", "D", 40)

	return row - 2, nil
}

func setCodeOf(cardID string) string {
	if i := strings.Index(cardID, "-"); i > 0 {
		return cardID[:i]
	}
	return cardID
}

func intCell(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}

func stagesCell(stages []int) string {
	if len(stages) == 0 {
		return ""
	}
	parts := make([]string, len(stages))
	for i, s := range stages {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, " / ")
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
