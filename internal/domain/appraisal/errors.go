package appraisal

import (
	"errors"
	"fmt"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrIncompleteEvaluation = errors.New("evaluation incomplete")
	ErrAuthorization        = errors.New("actor not authorized for this action")
	ErrConflict             = errors.New("appraisal changed concurrently, re-read and retry")
	ErrNotFound             = errors.New("appraisal not found")
	ErrGoalNotFound         = errors.New("goal not found")
	ErrInvalidState         = errors.New("appraisal is not in a state that allows this action")
)

// ValidationError carries the field-level reason for a malformed value.
// errors.Is(err, ErrValidation) holds for every ValidationError.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IncompleteEvaluationError names the first unmet goal or overall field that
// blocks a transition, lowest goal id first, so the caller can present one
// actionable message.
type IncompleteEvaluationError struct {
	GoalID string
	Field  string
}

func (e *IncompleteEvaluationError) Error() string {
	if e.GoalID != "" {
		return fmt.Sprintf("goal %s is missing a %s", e.GoalID, e.Field)
	}
	return fmt.Sprintf("%s is missing", e.Field)
}

func (e *IncompleteEvaluationError) Unwrap() error { return ErrIncompleteEvaluation }
