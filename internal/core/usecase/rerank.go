package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"sync"

	"github.com/bovicare/bovicare/internal/core/domain"
	"github.com/bovicare/bovicare/internal/core/ports"
)

const rerankSystemPrompt = "You are a relevance scoring expert for veterinary medicine documents that provides structured JSON output."

const rerankFallbackSystemPrompt = "You are a relevance scoring expert. Return only a number between 0.0 and 1.0 representing relevance."

// RelevanceReranker re-scores fused candidates against the query with one
// judge call per candidate. Reranking is a best-effort refinement: a judge
// outage leaves the input order untouched.
type RelevanceReranker struct {
	judge ports.Judge
}

func NewRelevanceReranker(judge ports.Judge) *RelevanceReranker {
	return &RelevanceReranker{judge: judge}
}

// relevanceVerdict is the structured judge reply for one candidate.
type relevanceVerdict struct {
	RelevanceScore *float64 `json:"relevance_score"`
	Reasoning      string   `json:"reasoning"`
}

// Rerank scores every candidate concurrently, then re-sorts descending by
// relevance. Each goroutine writes only its own slot, so no locking is
// needed; the stable sort keeps input order among equal scores.
func (r *RelevanceReranker) Rerank(ctx context.Context, query string, candidates []domain.Candidate) []domain.Candidate {
	if len(candidates) == 0 || r.judge == nil {
		return candidates
	}

	scored := make([]domain.Candidate, len(candidates))
	copy(scored, candidates)

	var wg sync.WaitGroup
	for i := range scored {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			scored[i].RelevanceScore = r.scoreCandidate(ctx, query, scored[i])
		}(i)
	}
	wg.Wait()

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RelevanceScore > scored[j].RelevanceScore
	})
	return scored
}

// scoreCandidate asks for a structured verdict first and falls back to a
// bare-number reply when the structured path fails; if even that is
// unparseable the candidate scores 0.0.
func (r *RelevanceReranker) scoreCandidate(ctx context.Context, query string, cand domain.Candidate) float64 {
	raw, err := r.judge.ScoreStructured(ctx, rerankSystemPrompt, buildRelevancePrompt(query, cand))
	if err == nil {
		var verdict relevanceVerdict
		if jsonErr := json.Unmarshal([]byte(stripMarkdownFences(raw)), &verdict); jsonErr == nil && verdict.RelevanceScore != nil {
			return clampScore(*verdict.RelevanceScore)
		}
		err = domain.WrapError(domain.ErrMalformedJudgeResponse, "parse relevance verdict", fmt.Errorf("reply: %.80s", raw))
	}

	slog.Warn("structured_rerank_failed", "candidate_id", cand.ID, "error", err)

	reply, err := r.judge.ScoreText(ctx, rerankFallbackSystemPrompt, buildRelevanceFallbackPrompt(query, cand))
	if err != nil {
		slog.Warn("fallback_rerank_failed", "candidate_id", cand.ID, "error", err)
		return 0.0
	}
	score, ok := firstNumber(reply)
	if !ok {
		return 0.0
	}
	return clampScore(score)
}

func buildRelevancePrompt(query string, cand domain.Candidate) string {
	return fmt.Sprintf(`Given the user query about bovine diseases, evaluate the following document's relevance.
Provide a score from 0.0 (not relevant) to 1.0 (highly relevant) and a brief reasoning.
Return a JSON object with fields "relevance_score" (number) and "reasoning" (string).

Query: %q

Document: %q`, query, cand.Text)
}

func buildRelevanceFallbackPrompt(query string, cand domain.Candidate) string {
	return fmt.Sprintf("Query: %q\nDocument: %q\nRelevance score (0.0-1.0):", query, cand.Text)
}

var numberPattern = regexp.MustCompile(`[-+]?\d*\.?\d+`)

// firstNumber extracts the first numeric token from a free-text reply.
func firstNumber(s string) (float64, bool) {
	match := numberPattern.FindString(s)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
