package appraisal

import (
	"fmt"
	"sort"
	"strings"
)

// ValidateGoalFields checks a goal's editable fields before any write.
func ValidateGoalFields(fields GoalFields) error {
	if strings.TrimSpace(fields.Title) == "" {
		return validationErr("title", "must not be empty")
	}
	return ValidateWeightage(fields.Weightage)
}

// ValidateWeightage enforces the per-goal bound. The sum constraint is only
// checked at submit time.
func ValidateWeightage(w int) error {
	if w < WeightageMin || w > WeightageMax {
		return validationErr("weightage", fmt.Sprintf("must be between %d and %d", WeightageMin, WeightageMax))
	}
	return nil
}

func TotalWeightage(goals []Goal) int {
	total := 0
	for _, g := range goals {
		total += g.Weightage
	}
	return total
}

// CheckSubmitReady verifies the goal ledger can leave draft: at least one
// goal, and weightages summing to exactly the required total.
func CheckSubmitReady(goals []Goal) error {
	if len(goals) == 0 {
		return &IncompleteEvaluationError{Field: "at least one goal"}
	}
	if total := TotalWeightage(goals); total != WeightageTotal {
		return fmt.Errorf("%w: goal weightages sum to %d, must equal %d", ErrValidation, total, WeightageTotal)
	}
	return nil
}

// firstIncompleteGoal reports the lowest goal ID whose evaluation slot is
// incomplete. ok is true when every goal is complete.
func firstIncompleteGoal(goals []Goal, slot func(Goal) EvaluationPair) (goalID string, ok bool) {
	ids := make([]string, 0, len(goals))
	byID := make(map[string]Goal, len(goals))
	for _, g := range goals {
		ids = append(ids, g.ID)
		byID[g.ID] = g
	}
	sort.Strings(ids)
	for _, id := range ids {
		if !pairComplete(slot(byID[id])) {
			return id, false
		}
	}
	return "", true
}
