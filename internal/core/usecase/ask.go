package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bovicare/bovicare/internal/core/domain"
	"github.com/bovicare/bovicare/internal/core/ports"
)

const noContextAnswer = "I couldn't find any relevant information about that query in our bovine disease database."

// AskUseCase orchestrates the question pipeline: hybrid fusion, best-effort
// judge reranking, answer generation, and related-disease enrichment.
type AskUseCase struct {
	fusion    *FusionRanker
	reranker  *RelevanceReranker
	generator ports.AnswerGenerator
	graph     ports.DiseaseGraph

	denseWeight  float64
	sparseWeight float64
}

func NewAskUseCase(
	fusion *FusionRanker,
	reranker *RelevanceReranker,
	generator ports.AnswerGenerator,
	graph ports.DiseaseGraph,
	denseWeight, sparseWeight float64,
) *AskUseCase {
	return &AskUseCase{
		fusion:       fusion,
		reranker:     reranker,
		generator:    generator,
		graph:        graph,
		denseWeight:  denseWeight,
		sparseWeight: sparseWeight,
	}
}

func (uc *AskUseCase) Ask(ctx context.Context, question string, topK int, useReranking bool) (*domain.Answer, error) {
	if topK <= 0 {
		topK = 5
	}

	// Fetch twice the final size so reranking has headroom to promote
	// candidates the fusion step ranked low.
	candidates := uc.fusion.Fuse(ctx, question, topK*2, uc.denseWeight, uc.sparseWeight)
	if len(candidates) == 0 {
		return &domain.Answer{Text: noContextAnswer, Sources: []domain.Candidate{}}, nil
	}

	if useReranking && uc.reranker != nil {
		candidates = uc.reranker.Rerank(ctx, question, candidates)
	}
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	text, err := uc.generator.GenerateAnswer(ctx, question, candidates)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.Answer{
		Text:            text,
		Sources:         candidates,
		RelatedDiseases: uc.relatedDiseases(ctx, candidates),
	}, nil
}

// relatedDiseases looks up graph neighbors of the top source's disease.
// Enrichment is best effort; a graph outage never fails the answer.
func (uc *AskUseCase) relatedDiseases(ctx context.Context, candidates []domain.Candidate) []string {
	if uc.graph == nil || len(candidates) == 0 || candidates[0].DiseaseName == "" {
		return nil
	}
	related, err := uc.graph.RelatedDiseases(ctx, candidates[0].DiseaseName, 5)
	if err != nil {
		slog.Warn("related_diseases_lookup_failed", "disease", candidates[0].DiseaseName, "error", err)
		return nil
	}
	return related
}
