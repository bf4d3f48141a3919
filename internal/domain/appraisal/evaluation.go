package appraisal

import (
	"fmt"
	"strings"
)

// ValidateEvaluationPair checks a rating and its comment as a unit. A rating
// is never accepted without an explanation.
func ValidateEvaluationPair(field string, rating int, comment string) error {
	if rating < RatingMin || rating > RatingMax {
		return validationErr(field, fmt.Sprintf("rating must be between %d and %d", RatingMin, RatingMax))
	}
	if strings.TrimSpace(comment) == "" {
		return validationErr(field, "a rating must be accompanied by a non-empty comment")
	}
	return nil
}

func pairComplete(p EvaluationPair) bool {
	return p.Rating != nil && strings.TrimSpace(p.Comment) != ""
}

// applyGoalEvaluations validates and writes a batch of per-goal evaluations
// into the slot selected by the caller. Re-submitting a goal overwrites its
// previous values.
func applyGoalEvaluations(goals []Goal, writes []GoalEvaluation, field string, slot func(*Goal) *EvaluationPair) error {
	byID := make(map[string]*Goal, len(goals))
	for i := range goals {
		byID[goals[i].ID] = &goals[i]
	}
	for _, w := range writes {
		g, ok := byID[w.GoalID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrGoalNotFound, w.GoalID)
		}
		if err := ValidateEvaluationPair(field, w.Rating, w.Comment); err != nil {
			return err
		}
		pair := slot(g)
		pair.Rating = intPtr(w.Rating)
		pair.Comment = strings.TrimSpace(w.Comment)
	}
	return nil
}
