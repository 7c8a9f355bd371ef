package diseasetable

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/bovicare/bovicare/internal/core/domain"
	"github.com/bovicare/bovicare/internal/core/ports"
)

// Extractor flattens disease spreadsheets (vaccination schedules, outbreak
// registers) into text. Each row becomes one line with cells joined by
// " | " so chunking keeps a row intact, and header rows repeat per sheet.
type Extractor struct {
	storage ports.ObjectStorage
}

func New(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) ([]domain.Section, error) {
	source, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open source document: %w", err)
	}
	defer source.Close()

	workbook, err := excelize.OpenReader(source)
	if err != nil {
		return nil, fmt.Errorf("parse spreadsheet %s: %w", doc.Filename, err)
	}
	defer workbook.Close()

	var sections []domain.Section
	for _, sheet := range workbook.GetSheetList() {
		rows, err := workbook.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
		}

		lines := make([]string, 0, len(rows)+1)
		lines = append(lines, sheet)
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, " | "))
			if line == "" {
				continue
			}
			lines = append(lines, line)
		}
		if len(lines) == 1 {
			continue
		}

		sections = append(sections, domain.Section{
			Text:        strings.Join(lines, "\n"),
			SectionType: "table",
		})
	}
	return sections, nil
}
