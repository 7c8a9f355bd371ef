package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bovicare/bovicare/internal/core/domain"
	"github.com/bovicare/bovicare/internal/core/ports"
)

// ProcessDocumentUseCase runs the ingestion pipeline for one uploaded
// document: extract text, classify the disease, chunk, embed, index, and
// record the disease relations in the graph.
type ProcessDocumentUseCase struct {
	repo       ports.DocumentRepository
	extractor  ports.TextExtractor
	classifier ports.DiseaseClassifier
	chunker    ports.Chunker
	embedder   ports.Embedder
	indexer    ports.VectorIndexer
	graph      ports.DiseaseGraph
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
	classifier ports.DiseaseClassifier,
	chunker ports.Chunker,
	embedder ports.Embedder,
	indexer ports.VectorIndexer,
	graph ports.DiseaseGraph,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:       repo,
		extractor:  extractor,
		classifier: classifier,
		chunker:    chunker,
		embedder:   embedder,
		indexer:    indexer,
		graph:      graph,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	doc, classification, err := uc.processPipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SaveClassification(ctx, doc.ID, classification); err != nil {
		saveErr := fmt.Errorf("save classification: %w", err)
		if failErr := uc.markFailed(ctx, documentID, saveErr); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", saveErr, failErr)
		}
		return saveErr
	}

	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, documentID string) (*domain.Document, domain.Classification, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, domain.Classification{}, fmt.Errorf("fetch document by id: %w", err)
	}

	sections, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return nil, domain.Classification{}, fmt.Errorf("extract text: %w", err)
	}
	text := joinSections(sections)
	if text == "" {
		return nil, domain.Classification{}, domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}

	classification, err := uc.classifier.Classify(ctx, text)
	if err != nil {
		return nil, domain.Classification{}, fmt.Errorf("classify disease: %w", err)
	}

	chunks := uc.splitSections(sections)
	if len(chunks) == 0 {
		return nil, domain.Classification{}, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero chunks"))
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, domain.Classification{}, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.Classification{}, domain.WrapError(
			domain.ErrInvalidInput,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}

	doc.DiseaseName = classification.DiseaseName
	doc.DiseaseType = classification.DiseaseType
	doc.Tags = classification.Tags
	doc.Confidence = classification.Confidence
	doc.Summary = classification.Summary

	if err := uc.indexer.IndexChunks(ctx, doc, chunks, vectors); err != nil {
		return nil, domain.Classification{}, fmt.Errorf("index chunks in vector db: %w", err)
	}

	uc.upsertGraph(ctx, classification)

	return doc, classification, nil
}

// splitSections chunks every section and numbers the chunks across the
// whole document, carrying each section's provenance onto its chunks.
func (uc *ProcessDocumentUseCase) splitSections(sections []domain.Section) []domain.Chunk {
	var chunks []domain.Chunk
	for _, section := range sections {
		for _, part := range uc.chunker.Split(section.Text) {
			chunks = append(chunks, domain.Chunk{
				Text:        part,
				SectionType: section.SectionType,
				PageNumber:  section.PageNumber,
				Index:       len(chunks),
			})
		}
	}
	return chunks
}

func joinSections(sections []domain.Section) string {
	parts := make([]string, 0, len(sections))
	for _, section := range sections {
		if text := strings.TrimSpace(section.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// upsertGraph records the document's disease and its co-mentions. The graph
// is an enrichment, so a graph outage does not fail the pipeline.
func (uc *ProcessDocumentUseCase) upsertGraph(ctx context.Context, cls domain.Classification) {
	if uc.graph == nil || cls.DiseaseName == "" {
		return
	}
	if err := uc.graph.UpsertDisease(ctx, cls.DiseaseName, cls.DiseaseType, cls.Related); err != nil {
		slog.Warn("disease_graph_upsert_failed", "disease", cls.DiseaseName, "error", err)
	}
}

func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, documentID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, processErr.Error())
}
