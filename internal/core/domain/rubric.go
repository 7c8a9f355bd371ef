package domain

import "fmt"

// RubricItem is a single weighted grading criterion. Positive points reward
// a behavior; negative points penalize one. Tags group items for per-tag
// sub-scores and must not repeat within one item.
type RubricItem struct {
	Criterion string   `json:"criterion"`
	Points    float64  `json:"points"`
	Tags      []string `json:"tags"`
}

// String renders the judge-facing form of the item.
func (ri RubricItem) String() string {
	return fmt.Sprintf("[%g] %s", ri.Points, ri.Criterion)
}

// GradingVerdict is the judge's decision on one (item, answer) pair.
// CriteriaMet is strictly boolean; anything else is rejected at parse time.
type GradingVerdict struct {
	CriteriaMet bool   `json:"criteria_met"`
	Explanation string `json:"explanation"`
}

// GradedItem pairs a rubric item with its verdict, in grading order.
type GradedItem struct {
	Item    RubricItem     `json:"item"`
	Verdict GradingVerdict `json:"verdict"`
}
