package domain

// MetricOverallScore is the reserved key for the category-level score in
// EvaluationResult.Metrics.
const MetricOverallScore = "overall_score"

// EvaluationResult is the outcome of grading one answer against one rubric
// category. When Undefined is true the category had no positive-point items
// and OverallScore carries no meaning; callers must treat that as "not
// applicable", not as a zero score. When Err is non-empty the evaluation
// failed before any item was scored and Metrics is empty.
type EvaluationResult struct {
	Query        string `json:"query"`
	ActualAnswer string `json:"actual_answer"`
	Category     string `json:"category"`

	OverallScore float64            `json:"overall_score"`
	Undefined    bool               `json:"undefined,omitempty"`
	Metrics      map[string]float64 `json:"metrics"`

	GradedItems      []GradedItem `json:"graded_items"`
	ExplanationTrail []string     `json:"explanation_trail"`

	Err string `json:"error,omitempty"`
}
