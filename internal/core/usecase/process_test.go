package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/bovicare/bovicare/internal/core/domain"
)

type repoFake struct {
	doc *domain.Document

	statuses          []domain.DocumentStatus
	lastErrMessage    string
	saved             domain.Classification
	classificationErr error
	updateStatusErr   error
	getErr            error
	createdDocs       []*domain.Document
	createErr         error
}

func (f *repoFake) Create(_ context.Context, doc *domain.Document) error {
	f.createdDocs = append(f.createdDocs, doc)
	return f.createErr
}

func (f *repoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.doc == nil || f.doc.ID != id {
		return nil, domain.ErrDocumentNotFound
	}
	return f.doc, nil
}

func (f *repoFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, errMessage string) error {
	f.statuses = append(f.statuses, status)
	f.lastErrMessage = errMessage
	return f.updateStatusErr
}

func (f *repoFake) SaveClassification(_ context.Context, _ string, cls domain.Classification) error {
	f.saved = cls
	return f.classificationErr
}

type extractorFake struct {
	sections []domain.Section
	err      error
}

func (f *extractorFake) Extract(_ context.Context, _ *domain.Document) ([]domain.Section, error) {
	return f.sections, f.err
}

type classifierFake struct {
	cls domain.Classification
	err error
}

func (f *classifierFake) Classify(_ context.Context, _ string) (domain.Classification, error) {
	return f.cls, f.err
}

type chunkerFake struct {
	chunks []string
}

// Split returns the fixed chunks when configured, otherwise echoes the
// input so per-section tests see one chunk per section.
func (f *chunkerFake) Split(text string) []string {
	if f.chunks != nil {
		return f.chunks
	}
	return []string{text}
}

type embedderFake struct {
	dims int
	err  error
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, f.dims)
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return make([]float32, f.dims), f.err
}

type indexerFake struct {
	err    error
	doc    *domain.Document
	chunks []domain.Chunk
}

func (f *indexerFake) IndexChunks(_ context.Context, doc *domain.Document, chunks []domain.Chunk, _ [][]float32) error {
	f.doc = doc
	f.chunks = chunks
	return f.err
}

type upsertGraphFake struct {
	name        string
	diseaseType string
	related     []string
	err         error
}

func (f *upsertGraphFake) UpsertDisease(_ context.Context, name, diseaseType string, related []string) error {
	f.name = name
	f.diseaseType = diseaseType
	f.related = related
	return f.err
}

func (f *upsertGraphFake) RelatedDiseases(context.Context, string, int) ([]string, error) {
	return nil, nil
}

func newProcessFixture() (*repoFake, *extractorFake, *classifierFake, *chunkerFake, *embedderFake, *indexerFake, *upsertGraphFake) {
	repo := &repoFake{doc: &domain.Document{ID: "doc-1", Filename: "ibr.pdf", Status: domain.StatusUploaded}}
	extractor := &extractorFake{sections: []domain.Section{
		{Text: "IBR is caused by bovine herpesvirus 1. Often co-occurs with BVD.", SectionType: "text"},
	}}
	classifier := &classifierFake{cls: domain.Classification{
		DiseaseName: "IBR",
		DiseaseType: "viral",
		Tags:        []string{"respiratory"},
		Related:     []string{"BVD"},
		Confidence:  0.92,
		Summary:     "Overview of IBR.",
	}}
	chunker := &chunkerFake{chunks: []string{"chunk one", "chunk two"}}
	embedder := &embedderFake{dims: 4}
	indexer := &indexerFake{}
	graph := &upsertGraphFake{}
	return repo, extractor, classifier, chunker, embedder, indexer, graph
}

func TestProcessByIDHappyPath(t *testing.T) {
	repo, extractor, classifier, chunker, embedder, indexer, graph := newProcessFixture()
	uc := NewProcessDocumentUseCase(repo, extractor, classifier, chunker, embedder, indexer, graph)

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.statuses) != 2 || repo.statuses[0] != domain.StatusProcessing || repo.statuses[1] != domain.StatusReady {
		t.Fatalf("unexpected status transitions: %v", repo.statuses)
	}
	if repo.saved.DiseaseName != "IBR" {
		t.Fatalf("classification not persisted: %+v", repo.saved)
	}
	if len(indexer.chunks) != 2 {
		t.Fatalf("expected 2 indexed chunks, got %d", len(indexer.chunks))
	}
	if indexer.doc.DiseaseName != "IBR" || indexer.doc.DiseaseType != "viral" {
		t.Fatalf("classification not applied before indexing: %+v", indexer.doc)
	}
	if graph.name != "IBR" || len(graph.related) != 1 {
		t.Fatalf("graph upsert missing: %+v", graph)
	}
}

func TestProcessByIDThreadsSectionMetadataToIndex(t *testing.T) {
	repo, extractor, classifier, _, embedder, indexer, graph := newProcessFixture()
	extractor.sections = []domain.Section{
		{Text: "Clinical signs of IBR.", SectionType: "page", PageNumber: "3"},
		{Text: "Vaccination schedule | spring", SectionType: "table"},
	}
	chunker := &chunkerFake{} // one chunk per section
	uc := NewProcessDocumentUseCase(repo, extractor, classifier, chunker, embedder, indexer, graph)

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(indexer.chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(indexer.chunks))
	}
	first, second := indexer.chunks[0], indexer.chunks[1]
	if first.SectionType != "page" || first.PageNumber != "3" || first.Index != 0 {
		t.Fatalf("section metadata lost on first chunk: %+v", first)
	}
	if second.SectionType != "table" || second.PageNumber != "" || second.Index != 1 {
		t.Fatalf("section metadata lost on second chunk: %+v", second)
	}
	if first.Text != "Clinical signs of IBR." {
		t.Fatalf("unexpected chunk text: %q", first.Text)
	}
}

func TestProcessByIDMarksFailedOnExtractionError(t *testing.T) {
	repo, extractor, classifier, chunker, embedder, indexer, graph := newProcessFixture()
	extractor.err = errors.New("corrupt pdf stream")
	uc := NewProcessDocumentUseCase(repo, extractor, classifier, chunker, embedder, indexer, graph)

	if err := uc.ProcessByID(context.Background(), "doc-1"); err == nil {
		t.Fatalf("expected extraction error")
	}
	if len(repo.statuses) != 2 || repo.statuses[1] != domain.StatusFailed {
		t.Fatalf("expected failed status, got %v", repo.statuses)
	}
	if repo.lastErrMessage == "" {
		t.Fatalf("expected failure reason recorded on the document")
	}
}

func TestProcessByIDRejectsEmptyText(t *testing.T) {
	repo, extractor, classifier, chunker, embedder, indexer, graph := newProcessFixture()
	extractor.sections = nil
	uc := NewProcessDocumentUseCase(repo, extractor, classifier, chunker, embedder, indexer, graph)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid-input kind, got %v", err)
	}
	if indexer.doc != nil {
		t.Fatalf("nothing should be indexed for empty text")
	}
}

func TestProcessByIDEmbeddingMismatchFails(t *testing.T) {
	repo, extractor, classifier, chunker, embedder, indexer, graph := newProcessFixture()
	embedder.err = errors.New("embedding model offline")
	uc := NewProcessDocumentUseCase(repo, extractor, classifier, chunker, embedder, indexer, graph)

	if err := uc.ProcessByID(context.Background(), "doc-1"); err == nil {
		t.Fatalf("expected embedding error")
	}
	if repo.statuses[len(repo.statuses)-1] != domain.StatusFailed {
		t.Fatalf("expected failed status, got %v", repo.statuses)
	}
}

func TestProcessByIDGraphOutageDoesNotFailPipeline(t *testing.T) {
	repo, extractor, classifier, chunker, embedder, indexer, graph := newProcessFixture()
	graph.err = errors.New("neo4j unreachable")
	uc := NewProcessDocumentUseCase(repo, extractor, classifier, chunker, embedder, indexer, graph)

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("graph upsert must be best effort: %v", err)
	}
	if repo.statuses[len(repo.statuses)-1] != domain.StatusReady {
		t.Fatalf("expected ready status, got %v", repo.statuses)
	}
}

func TestProcessByIDUnknownDocument(t *testing.T) {
	repo, extractor, classifier, chunker, embedder, indexer, graph := newProcessFixture()
	uc := NewProcessDocumentUseCase(repo, extractor, classifier, chunker, embedder, indexer, graph)

	err := uc.ProcessByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected document-not-found kind, got %v", err)
	}
}
