package extractor

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/bovicare/bovicare/internal/core/domain"
	"github.com/bovicare/bovicare/internal/core/ports"
	"github.com/bovicare/bovicare/internal/infrastructure/extractor/diseasetable"
	"github.com/bovicare/bovicare/internal/infrastructure/extractor/pdfdoc"
	"github.com/bovicare/bovicare/internal/infrastructure/extractor/plaintext"
)

// Dispatcher routes a document to the extractor matching its file
// extension. Unknown extensions fall through to the plain-text reader,
// which rejects binary content on its own.
type Dispatcher struct {
	pdf   ports.TextExtractor
	table ports.TextExtractor
	plain ports.TextExtractor
}

func NewDispatcher(storage ports.ObjectStorage) *Dispatcher {
	return &Dispatcher{
		pdf:   pdfdoc.New(storage),
		table: diseasetable.New(storage),
		plain: plaintext.New(storage),
	}
}

func (d *Dispatcher) Extract(ctx context.Context, doc *domain.Document) ([]domain.Section, error) {
	switch strings.ToLower(filepath.Ext(doc.Filename)) {
	case ".pdf":
		return d.pdf.Extract(ctx, doc)
	case ".xlsx", ".xlsm":
		return d.table.Extract(ctx, doc)
	default:
		return d.plain.Extract(ctx, doc)
	}
}
