package pdfdoc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/bovicare/bovicare/internal/core/domain"
	"github.com/bovicare/bovicare/internal/core/ports"
)

// Extractor pulls plain text out of PDF disease documents. The whole file
// is buffered because the pdf reader needs random access.
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

	raw, err := io.ReadAll(source)
	if err != nil {
		return nil, fmt.Errorf("read source document: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf %s: %w", doc.Filename, err)
	}

	sections := make([]domain.Section, 0, reader.NumPage())
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract pdf text %s page %d: %w", doc.Filename, pageNum, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		sections = append(sections, domain.Section{
			Text:        text,
			SectionType: "page",
			PageNumber:  strconv.Itoa(pageNum),
		})
	}
	return sections, nil
}
