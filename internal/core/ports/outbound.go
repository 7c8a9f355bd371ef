package ports

import (
	"context"
	"io"

	"github.com/bovicare/bovicare/internal/core/domain"
)

// Retriever runs the two independent first-pass searches over the disease
// corpus. Both return fewer candidates than limit when the corpus is
// smaller; an empty result is not an error.
type Retriever interface {
	SearchDense(ctx context.Context, query string, limit int) ([]domain.Candidate, error)
	SearchSparse(ctx context.Context, query string, limit int) ([]domain.Candidate, error)
}

// Judge is the external arbiter for relevance scores and rubric verdicts.
// ScoreStructured asks for a JSON reply; ScoreText for free text. Both must
// be safe for concurrent calls.
type Judge interface {
	ScoreStructured(ctx context.Context, system, prompt string) (string, error)
	ScoreText(ctx context.Context, system, prompt string) (string, error)
}

// AnswerGenerator creates the final user-facing answer from ranked context.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, candidates []domain.Candidate) (string, error)
}

// Embedder builds dense vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndexer writes processed chunks into the vector store.
type VectorIndexer interface {
	IndexChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk, vectors [][]float32) error
}

// DiseaseGraph maintains disease co-occurrence relations.
type DiseaseGraph interface {
	UpsertDisease(ctx context.Context, name, diseaseType string, related []string) error
	RelatedDiseases(ctx context.Context, name string, limit int) ([]string, error)
}

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveClassification(ctx context.Context, id string, cls domain.Classification) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts a stored document's text as sections carrying
// per-region provenance.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) ([]domain.Section, error)
}

// DiseaseClassifier classifies extracted text into disease metadata.
type DiseaseClassifier interface {
	Classify(ctx context.Context, text string) (domain.Classification, error)
}

// Chunker splits text into semantically usable chunks.
type Chunker interface {
	Split(text string) []string
}
