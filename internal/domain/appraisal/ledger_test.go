package appraisal

import (
	"errors"
	"testing"
)

func TestValidateWeightageBounds(t *testing.T) {
	for _, w := range []int{0, -5, 101, 200} {
		if err := ValidateWeightage(w); !errors.Is(err, ErrValidation) {
			t.Fatalf("weightage %d: got %v, want validation error", w, err)
		}
	}
	for _, w := range []int{1, 50, 100} {
		if err := ValidateWeightage(w); err != nil {
			t.Fatalf("weightage %d: got %v, want nil", w, err)
		}
	}
}

func TestValidateGoalFieldsRejectsBlankTitle(t *testing.T) {
	err := ValidateGoalFields(GoalFields{Title: "   ", Weightage: 50})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want validation error", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "title" {
		t.Fatalf("got %v, want title validation error", err)
	}
}

func TestCheckSubmitReadyTotals(t *testing.T) {
	cases := []struct {
		name    string
		weights []int
		wantErr error
	}{
		{"under by one", []int{50, 49}, ErrValidation},
		{"over by one", []int{50, 51}, ErrValidation},
		{"exactly full", []int{60, 40}, nil},
		{"single full goal", []int{100}, nil},
	}
	for _, tc := range cases {
		goals := make([]Goal, len(tc.weights))
		for i, w := range tc.weights {
			goals[i] = Goal{ID: "g", Title: "x", Weightage: w}
		}
		err := CheckSubmitReady(goals)
		if tc.wantErr == nil && err != nil {
			t.Fatalf("%s: got %v, want nil", tc.name, err)
		}
		if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.wantErr)
		}
	}
}

func TestCheckSubmitReadyRequiresAtLeastOneGoal(t *testing.T) {
	err := CheckSubmitReady(nil)
	if !errors.Is(err, ErrIncompleteEvaluation) {
		t.Fatalf("empty ledger: got %v, want incomplete evaluation", err)
	}
}
