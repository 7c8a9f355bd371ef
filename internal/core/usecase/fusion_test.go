package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/bovicare/bovicare/internal/core/domain"
)

type retrieverFake struct {
	dense     []domain.Candidate
	sparse    []domain.Candidate
	denseErr  error
	sparseErr error

	lastDenseLimit  int
	lastSparseLimit int
}

func (f *retrieverFake) SearchDense(_ context.Context, _ string, limit int) ([]domain.Candidate, error) {
	f.lastDenseLimit = limit
	if f.denseErr != nil {
		return nil, f.denseErr
	}
	return f.dense, nil
}

func (f *retrieverFake) SearchSparse(_ context.Context, _ string, limit int) ([]domain.Candidate, error) {
	f.lastSparseLimit = limit
	if f.sparseErr != nil {
		return nil, f.sparseErr
	}
	return f.sparse, nil
}

func scoredCandidate(id string, score float64) domain.Candidate {
	return domain.Candidate{ID: id, Text: id, FusionScore: score}
}

func TestFuseMergesAndDeduplicatesByID(t *testing.T) {
	retriever := &retrieverFake{
		dense: []domain.Candidate{
			scoredCandidate("a", 0.9),
			scoredCandidate("b", 0.5),
		},
		sparse: []domain.Candidate{
			scoredCandidate("b", 8.0),
			scoredCandidate("c", 2.0),
		},
	}
	ranker := NewFusionRanker(retriever, 3)

	fused := ranker.Fuse(context.Background(), "ibr symptoms", 10, 0.3, 0.7)
	if len(fused) != 3 {
		t.Fatalf("expected 3 fused candidates, got %d", len(fused))
	}
	// Normalized: a=1.0 dense-only (0.3), b=0 dense + 1 sparse (0.7), c=0.
	if fused[0].ID != "b" || fused[1].ID != "a" || fused[2].ID != "c" {
		t.Fatalf("unexpected order: %s %s %s", fused[0].ID, fused[1].ID, fused[2].ID)
	}
	if fused[0].FusionScore <= fused[1].FusionScore {
		t.Fatalf("expected descending fused scores, got %f then %f", fused[0].FusionScore, fused[1].FusionScore)
	}
}

func TestFuseIsDeterministic(t *testing.T) {
	retriever := &retrieverFake{
		dense: []domain.Candidate{
			scoredCandidate("a", 0.8),
			scoredCandidate("b", 0.6),
			scoredCandidate("c", 0.4),
		},
		sparse: []domain.Candidate{
			scoredCandidate("c", 3.0),
			scoredCandidate("d", 1.5),
		},
	}
	ranker := NewFusionRanker(retriever, 3)

	first := ranker.Fuse(context.Background(), "q", 10, 0.5, 0.5)
	for i := 0; i < 5; i++ {
		again := ranker.Fuse(context.Background(), "q", 10, 0.5, 0.5)
		if len(again) != len(first) {
			t.Fatalf("run %d: expected %d candidates, got %d", i, len(first), len(again))
		}
		for j := range first {
			if again[j].ID != first[j].ID {
				t.Fatalf("run %d: position %d changed from %s to %s", i, j, first[j].ID, again[j].ID)
			}
		}
	}
}

func TestFuseTieBreaksByRetrievalOrder(t *testing.T) {
	retriever := &retrieverFake{
		dense:  []domain.Candidate{scoredCandidate("dense-only", 1.0)},
		sparse: []domain.Candidate{scoredCandidate("sparse-only", 1.0)},
	}
	ranker := NewFusionRanker(retriever, 3)

	fused := ranker.Fuse(context.Background(), "q", 10, 0.5, 0.5)
	if len(fused) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(fused))
	}
	if fused[0].ID != "dense-only" {
		t.Fatalf("expected dense list to win the tie, got %s first", fused[0].ID)
	}
}

func TestFuseDenseWeightMonotonicity(t *testing.T) {
	retriever := &retrieverFake{
		dense:  []domain.Candidate{scoredCandidate("dense-only", 1.0)},
		sparse: []domain.Candidate{scoredCandidate("sparse-only", 1.0)},
	}
	ranker := NewFusionRanker(retriever, 3)

	fused := ranker.Fuse(context.Background(), "q", 10, 0.9, 0.1)
	if fused[0].ID != "dense-only" {
		t.Fatalf("expected dense-only candidate first with dominant dense weight, got %s", fused[0].ID)
	}

	fused = ranker.Fuse(context.Background(), "q", 10, 0.1, 0.9)
	if fused[0].ID != "sparse-only" {
		t.Fatalf("expected sparse-only candidate first with dominant sparse weight, got %s", fused[0].ID)
	}
}

func TestFuseReturnsEmptyWhenRetrieverFails(t *testing.T) {
	retriever := &retrieverFake{
		denseErr:  errors.New("connection refused"),
		sparseErr: errors.New("connection refused"),
	}
	ranker := NewFusionRanker(retriever, 3)

	fused := ranker.Fuse(context.Background(), "q", 5, 0.3, 0.7)
	if len(fused) != 0 {
		t.Fatalf("expected empty result on retriever outage, got %d candidates", len(fused))
	}
}

func TestFuseSurvivesSingleModalityFailure(t *testing.T) {
	retriever := &retrieverFake{
		denseErr: errors.New("timeout"),
		sparse: []domain.Candidate{
			scoredCandidate("a", 2.0),
			scoredCandidate("b", 1.0),
		},
	}
	ranker := NewFusionRanker(retriever, 3)

	fused := ranker.Fuse(context.Background(), "q", 5, 0.3, 0.7)
	if len(fused) != 2 {
		t.Fatalf("expected sparse-only results, got %d candidates", len(fused))
	}
	if fused[0].ID != "a" {
		t.Fatalf("expected a first, got %s", fused[0].ID)
	}
}

func TestFuseOverfetchesAndTruncates(t *testing.T) {
	dense := make([]domain.Candidate, 0, 8)
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		dense = append(dense, scoredCandidate(id, float64(len(dense)+1)))
	}
	retriever := &retrieverFake{dense: dense}
	ranker := NewFusionRanker(retriever, 3)

	fused := ranker.Fuse(context.Background(), "q", 2, 1.0, 1.0)
	if len(fused) != 2 {
		t.Fatalf("expected truncation to top_k=2, got %d", len(fused))
	}
	if retriever.lastDenseLimit != 6 || retriever.lastSparseLimit != 6 {
		t.Fatalf("expected overfetch limit 6, got dense=%d sparse=%d", retriever.lastDenseLimit, retriever.lastSparseLimit)
	}
}
