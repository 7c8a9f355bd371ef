package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTemporary        = errors.New("temporary failure")

	// ErrRetrievalUnavailable marks a vector-store outage. Fusion degrades
	// to an empty result instead of propagating it.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	// ErrJudgeUnavailable marks a judge outage. Reranking leaves input order
	// unchanged; evaluation surfaces a failed result.
	ErrJudgeUnavailable = errors.New("judge unavailable")
	// ErrMalformedJudgeResponse marks a judge reply that could not be parsed
	// into the expected shape.
	ErrMalformedJudgeResponse = errors.New("malformed judge response")
	// ErrUndefinedScore marks a rubric category or tag without positive-point
	// items, distinct from a computed zero.
	ErrUndefinedScore = errors.New("undefined score")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
