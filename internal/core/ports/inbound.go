package ports

import (
	"context"
	"io"

	"github.com/bovicare/bovicare/internal/core/domain"
)

// QuestionService is the inbound contract for corpus-backed question
// answering.
type QuestionService interface {
	Ask(ctx context.Context, question string, topK int, useReranking bool) (*domain.Answer, error)
}

// AnswerEvaluator grades a generated answer against a rubric category,
// either chosen from the query or named by the caller.
type AnswerEvaluator interface {
	Evaluate(ctx context.Context, query, actualAnswer, contextTag string) (*domain.EvaluationResult, error)
	EvaluateCategory(ctx context.Context, query, actualAnswer, category string, exampleTags []string) (*domain.EvaluationResult, error)
}

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous document
// processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}
