package usecase

import (
	"context"
	"log/slog"
	"sort"

	"github.com/bovicare/bovicare/internal/core/domain"
	"github.com/bovicare/bovicare/internal/core/ports"
)

// DefaultOverfetchFactor is how many times topK each modality is
// over-fetched before fusion, so that candidates ranked well in only one
// modality survive the merge.
const DefaultOverfetchFactor = 3

// FusionRanker combines the dense and sparse first-pass rankings into one
// ordering via weighted score fusion.
type FusionRanker struct {
	retriever ports.Retriever
	overfetch int
}

func NewFusionRanker(retriever ports.Retriever, overfetchFactor int) *FusionRanker {
	if overfetchFactor <= 0 {
		overfetchFactor = DefaultOverfetchFactor
	}
	return &FusionRanker{
		retriever: retriever,
		overfetch: overfetchFactor,
	}
}

type fusedEntry struct {
	candidate domain.Candidate
	score     float64
	order     int
}

// Fuse retrieves both modalities, merges them by candidate id and returns
// at most topK candidates sorted by fused score. A retriever outage or an
// empty corpus yields an empty slice, never an error: no matches is a
// valid answer.
func (f *FusionRanker) Fuse(
	ctx context.Context,
	query string,
	topK int,
	denseWeight, sparseWeight float64,
) []domain.Candidate {
	if topK <= 0 || f.retriever == nil {
		return nil
	}
	limit := topK * f.overfetch

	dense, err := f.retriever.SearchDense(ctx, query, limit)
	if err != nil {
		slog.Warn("dense_search_failed", "error", err)
		dense = nil
	}
	sparse, err := f.retriever.SearchSparse(ctx, query, limit)
	if err != nil {
		slog.Warn("sparse_search_failed", "error", err)
		sparse = nil
	}
	if len(dense) == 0 && len(sparse) == 0 {
		return nil
	}

	acc := make(map[string]*fusedEntry, len(dense)+len(sparse))
	next := 0
	addList := func(list []domain.Candidate, weight float64) {
		if len(list) == 0 {
			return
		}
		norms := normalizeScores(list)
		for i, cand := range list {
			entry, ok := acc[cand.ID]
			if !ok {
				entry = &fusedEntry{candidate: cand, order: next}
				next++
				acc[cand.ID] = entry
			}
			entry.score += weight * norms[i]
		}
	}
	addList(dense, denseWeight)
	addList(sparse, sparseWeight)

	out := make([]domain.Candidate, 0, len(acc))
	orders := make(map[string]int, len(acc))
	for _, entry := range acc {
		cand := entry.candidate
		cand.FusionScore = entry.score
		out = append(out, cand)
		orders[cand.ID] = entry.order
	}

	// Ties resolve by first-seen retrieval order so repeated calls with the
	// same inputs produce the same ordering.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FusionScore != out[j].FusionScore {
			return out[i].FusionScore > out[j].FusionScore
		}
		return orders[out[i].ID] < orders[out[j].ID]
	})

	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

// normalizeScores min-max scales one modality's raw scores into [0,1] so
// cosine similarities and BM25 weights fuse on a common footing. A
// degenerate list (all scores equal) maps positive scores to 1.
func normalizeScores(list []domain.Candidate) []float64 {
	minScore := list[0].FusionScore
	maxScore := list[0].FusionScore
	for _, cand := range list[1:] {
		if cand.FusionScore < minScore {
			minScore = cand.FusionScore
		}
		if cand.FusionScore > maxScore {
			maxScore = cand.FusionScore
		}
	}

	scoreRange := maxScore - minScore
	out := make([]float64, len(list))
	for i, cand := range list {
		if scoreRange <= 0 {
			if cand.FusionScore > 0 {
				out[i] = 1
			}
			continue
		}
		out[i] = (cand.FusionScore - minScore) / scoreRange
	}
	return out
}
