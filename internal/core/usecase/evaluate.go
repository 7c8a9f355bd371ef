package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/bovicare/bovicare/internal/core/domain"
	"github.com/bovicare/bovicare/internal/core/ports"
)

const graderSystemPrompt = "You are a veterinary medicine expert specializing in bovine diseases, evaluating AI responses for veterinary accuracy, animal welfare, farm practicality, and treatment safety."

const graderTemplate = `Your job is to look at a conversation and a rubric item, and score the last turn (i.e., the last assistant response, or the completion) in the conversation on how well it follows the rubric item for VETERINARY MEDICINE.

# Conversation
<<conversation>>

# Rubric item
<<rubric_item>>

# Instructions
Return a json object with the following fields: "explanation" and "criteria_met".
- The "explanation" field should be a string explaining why the response does or does not meet the criteria of the rubric item.
- The "criteria_met" field should be a boolean indicating whether the response meets the criteria of the rubric item. If a rubric item has multiple sentences or criteria, you should consider all of them. If any of the criteria is not met, the answer should be false. Only return true if all of the criteria are met.
- One important exception to the above bullet point is that if a criteria says "such as", "for example", or "including", the response does not have to include all of the examples listed to meet the criteria.

Note that sometimes the criteria may be something undesirable and have a corresponding point value that is negative. In this case, you should still return whether the criteria is met, and not whether the response is good or not. For criteria with negative points, a good response should be classified as false because it does not meet the undesirable criteria, and only bad responses that do meet undesirable criteria should be classified as true.

# Final instruction
Return just the json object in markdown format. Do not include any other text in the response.`

// GraderOptions tunes the per-item grading protocol.
type GraderOptions struct {
	// MaxAttempts caps how often one rubric item is re-graded after a
	// malformed judge reply. Zero preserves the retry-forever behavior.
	MaxAttempts int
}

// RubricEvaluationEngine grades free-text answers against weighted rubric
// categories via the judge. It shares the judge abstraction with the
// reranker but is otherwise independent of retrieval.
type RubricEvaluationEngine struct {
	judge      ports.Judge
	categories map[string][]domain.RubricItem
	opts       GraderOptions
}

func NewRubricEvaluationEngine(judge ports.Judge, categories map[string][]domain.RubricItem, opts GraderOptions) *RubricEvaluationEngine {
	if categories == nil {
		categories = BuiltinRubrics()
	}
	return &RubricEvaluationEngine{
		judge:      judge,
		categories: categories,
		opts:       opts,
	}
}

// Evaluate selects a rubric category for the query and grades the answer
// against it. contextTag is an example-level tag supplied by the caller;
// it receives the overall score in the metrics map.
func (e *RubricEvaluationEngine) Evaluate(ctx context.Context, query, actualAnswer, contextTag string) (*domain.EvaluationResult, error) {
	category, exampleTags := selectCategory(query)
	tags := make([]string, 0, len(exampleTags)+1)
	if contextTag != "" {
		tags = append(tags, contextTag)
	}
	tags = append(tags, exampleTags...)
	return e.EvaluateCategory(ctx, query, actualAnswer, category, tags)
}

// EvaluateCategory grades the answer against a named category. A judge that
// is entirely unavailable yields a failed result with empty metrics and the
// error recorded; it never yields a partially scored result.
func (e *RubricEvaluationEngine) EvaluateCategory(
	ctx context.Context,
	query, actualAnswer, category string,
	exampleTags []string,
) (*domain.EvaluationResult, error) {
	result := &domain.EvaluationResult{
		Query:        query,
		ActualAnswer: actualAnswer,
		Category:     category,
		Metrics:      map[string]float64{},
	}

	if e.judge == nil {
		result.Err = domain.ErrJudgeUnavailable.Error()
		return result, nil
	}
	items, ok := e.categories[category]
	if !ok || len(items) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "evaluate answer", fmt.Errorf("unknown rubric category %q", category))
	}

	convo := fmt.Sprintf("user: %s\n\nassistant: %s", query, actualAnswer)

	verdicts := make([]domain.GradingVerdict, len(items))
	errs := make([]error, len(items))
	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			verdicts[i], errs[i] = e.gradeItem(ctx, convo, items[i])
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	for i, item := range items {
		result.GradedItems = append(result.GradedItems, domain.GradedItem{
			Item:    item,
			Verdict: verdicts[i],
		})
	}

	overall, defined := scoreItems(items, verdicts)
	if defined {
		result.OverallScore = overall
		result.Metrics[domain.MetricOverallScore] = overall
		for _, tag := range exampleTags {
			result.Metrics[tag] = overall
		}
	} else {
		result.Undefined = true
	}

	for tag, score := range tagScores(items, verdicts) {
		result.Metrics[tag] = score
	}

	result.ExplanationTrail = explanationTrail(items, verdicts)
	return result, nil
}

// gradeItem asks the judge for a verdict on one rubric item, retrying the
// whole call while the reply cannot be parsed into a strict boolean
// criteria_met. With MaxAttempts 0 the loop only stops on a valid verdict
// or context cancellation.
func (e *RubricEvaluationEngine) gradeItem(ctx context.Context, convo string, item domain.RubricItem) (domain.GradingVerdict, error) {
	prompt := strings.ReplaceAll(graderTemplate, "<<conversation>>", convo)
	prompt = strings.ReplaceAll(prompt, "<<rubric_item>>", item.String())

	attempt := 0
	for {
		attempt++
		if err := ctx.Err(); err != nil {
			return domain.GradingVerdict{}, fmt.Errorf("grade rubric item: %w", err)
		}

		raw, err := e.judge.ScoreStructured(ctx, graderSystemPrompt, prompt)
		if err == nil {
			if verdict, ok := parseVerdict(raw); ok {
				return verdict, nil
			}
			err = fmt.Errorf("reply lacks boolean criteria_met: %.80s", raw)
		}

		slog.Warn("grading_retry",
			"criterion", item.Criterion,
			"attempt", attempt,
			"error", err,
		)
		if e.opts.MaxAttempts > 0 && attempt >= e.opts.MaxAttempts {
			return domain.GradingVerdict{}, domain.WrapError(
				domain.ErrMalformedJudgeResponse,
				"grade rubric item",
				fmt.Errorf("no valid verdict after %d attempts: %w", attempt, err),
			)
		}
	}
}

// parseVerdict accepts only replies whose criteria_met is a JSON boolean.
// Markdown code fences around the object are tolerated.
func parseVerdict(raw string) (domain.GradingVerdict, bool) {
	var payload struct {
		CriteriaMet *bool  `json:"criteria_met"`
		Explanation string `json:"explanation"`
	}
	if err := json.Unmarshal([]byte(stripMarkdownFences(raw)), &payload); err != nil {
		return domain.GradingVerdict{}, false
	}
	if payload.CriteriaMet == nil {
		return domain.GradingVerdict{}, false
	}
	return domain.GradingVerdict{
		CriteriaMet: *payload.CriteriaMet,
		Explanation: payload.Explanation,
	}, true
}

var markdownFencePattern = regexp.MustCompile("(?s)^```(?:json)?\\s*|\\s*```$")

func stripMarkdownFences(s string) string {
	return markdownFencePattern.ReplaceAllString(strings.TrimSpace(s), "")
}

// scoreItems computes achieved/totalPossible over one item set. Only
// positive points enter the denominator; a triggered negative item
// subtracts from the numerator. A set without positive-point items has no
// defined score.
func scoreItems(items []domain.RubricItem, verdicts []domain.GradingVerdict) (float64, bool) {
	var totalPossible float64
	for _, item := range items {
		if item.Points > 0 {
			totalPossible += item.Points
		}
	}
	if totalPossible == 0 {
		return 0, false
	}

	var achieved float64
	for i, item := range items {
		if verdicts[i].CriteriaMet {
			achieved += item.Points
		}
	}
	return achieved / totalPossible, true
}

// tagScores groups items by tag and applies the same ratio per tag. Tags
// whose items carry no positive points are skipped rather than reported as
// zero. A tag repeated within one item counts once.
func tagScores(items []domain.RubricItem, verdicts []domain.GradingVerdict) map[string]float64 {
	tagItems := map[string][]domain.RubricItem{}
	tagVerdicts := map[string][]domain.GradingVerdict{}
	for i, item := range items {
		seen := map[string]struct{}{}
		for _, tag := range item.Tags {
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			tagItems[tag] = append(tagItems[tag], item)
			tagVerdicts[tag] = append(tagVerdicts[tag], verdicts[i])
		}
	}

	out := make(map[string]float64, len(tagItems))
	for tag, grouped := range tagItems {
		if score, defined := scoreItems(grouped, tagVerdicts[tag]); defined {
			out[tag] = score
		}
	}
	return out
}

// explanationTrail renders one line per graded item and floats failed
// criteria to the front so a reviewer sees problems first. The stable sort
// keeps grading order within each group.
func explanationTrail(items []domain.RubricItem, verdicts []domain.GradingVerdict) []string {
	lines := make([]string, 0, len(items))
	failed := make([]bool, 0, len(items))
	for i, item := range items {
		explanation := verdicts[i].Explanation
		if explanation == "" {
			explanation = "No explanation provided"
		}
		lines = append(lines, fmt.Sprintf("[%t] %s\n\tExplanation: %s", verdicts[i].CriteriaMet, item, explanation))
		failed = append(failed, !verdicts[i].CriteriaMet)
	}

	idx := make([]int, len(lines))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return failed[idx[a]] && !failed[idx[b]]
	})

	out := make([]string, len(lines))
	for i, j := range idx {
		out[i] = lines[j]
	}
	return out
}
