package appraisal

import (
	"errors"
	"testing"
)

func TestStatusOrderIsFixed(t *testing.T) {
	want := []Status{
		StatusDraft,
		StatusSubmitted,
		StatusSelfAssessment,
		StatusAppraiserEvaluation,
		StatusReviewerEvaluation,
		StatusComplete,
	}
	for i, s := range want {
		if statusOrder[i] != s {
			t.Fatalf("statusOrder[%d] = %s, want %s", i, statusOrder[i], s)
		}
		if !s.Valid() {
			t.Fatalf("%s should be valid", s)
		}
	}
	if !StatusComplete.Terminal() {
		t.Fatal("complete should be terminal")
	}
	if _, ok := StatusComplete.Next(); ok {
		t.Fatal("complete should have no successor")
	}
	if _, ok := StatusDraft.Prev(); ok {
		t.Fatal("draft should have no predecessor")
	}
}

func TestValidateTransitionRejectsSkipsAndBackwardMoves(t *testing.T) {
	a := &Appraisal{Status: StatusDraft, Goals: []Goal{{ID: "g1", Title: "x", Weightage: 100}}}

	if err := ValidateTransition(a, StatusSelfAssessment); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("skip forward: got %v, want invalid transition", err)
	}
	if err := ValidateTransition(a, StatusComplete); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("skip to terminal: got %v, want invalid transition", err)
	}

	a.Status = StatusSelfAssessment
	if err := ValidateTransition(a, StatusDraft); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("backward: got %v, want invalid transition", err)
	}
	if err := ValidateTransition(a, StatusSelfAssessment); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("self loop: got %v, want invalid transition", err)
	}
}

func TestValidateTransitionFromTerminal(t *testing.T) {
	a := &Appraisal{Status: StatusComplete}
	for _, target := range statusOrder {
		if err := ValidateTransition(a, target); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("complete -> %s: got %v, want invalid transition", target, err)
		}
	}
}

func completeSelfGoals(goals []Goal) []Goal {
	for i := range goals {
		goals[i].Self = EvaluationPair{Rating: intPtr(3), Comment: "done"}
	}
	return goals
}

func completeAppraiserGoals(goals []Goal) []Goal {
	for i := range goals {
		goals[i].Appraiser = EvaluationPair{Rating: intPtr(4), Comment: "agreed"}
	}
	return goals
}

func TestGuardSelfCompleteNamesLowestIncompleteGoal(t *testing.T) {
	a := &Appraisal{
		Status: StatusSelfAssessment,
		Goals: []Goal{
			{ID: "g2", Title: "b", Weightage: 30},
			{ID: "g1", Title: "a", Weightage: 40, Self: EvaluationPair{Rating: intPtr(4), Comment: "ok"}},
			{ID: "g3", Title: "c", Weightage: 30},
		},
	}
	err := ValidateTransition(a, StatusAppraiserEvaluation)
	if !errors.Is(err, ErrIncompleteEvaluation) {
		t.Fatalf("got %v, want incomplete evaluation", err)
	}
	var inc *IncompleteEvaluationError
	if !errors.As(err, &inc) {
		t.Fatalf("got %T, want *IncompleteEvaluationError", err)
	}
	if inc.GoalID != "g2" {
		t.Fatalf("incomplete goal = %q, want g2", inc.GoalID)
	}
}

func TestGuardAppraiserCompleteRequiresOverallPair(t *testing.T) {
	a := &Appraisal{
		Status: StatusAppraiserEvaluation,
		Goals:  completeAppraiserGoals(completeSelfGoals([]Goal{{ID: "g1", Title: "a", Weightage: 100}})),
	}
	err := ValidateTransition(a, StatusReviewerEvaluation)
	if !errors.Is(err, ErrIncompleteEvaluation) {
		t.Fatalf("missing overall: got %v, want incomplete evaluation", err)
	}

	a.AppraiserOverall = EvaluationPair{Rating: intPtr(4), Comment: "solid"}
	if err := ValidateTransition(a, StatusReviewerEvaluation); err != nil {
		t.Fatalf("complete appraiser pass: got %v, want nil", err)
	}
}

func TestGuardReviewerComplete(t *testing.T) {
	a := &Appraisal{
		Status: StatusReviewerEvaluation,
		Goals:  completeAppraiserGoals(completeSelfGoals([]Goal{{ID: "g1", Title: "a", Weightage: 100}})),
	}
	a.AppraiserOverall = EvaluationPair{Rating: intPtr(4), Comment: "solid"}

	err := ValidateTransition(a, StatusComplete)
	if !errors.Is(err, ErrIncompleteEvaluation) {
		t.Fatalf("missing reviewer overall: got %v, want incomplete evaluation", err)
	}

	a.ReviewerOverall = EvaluationPair{Rating: intPtr(5), Comment: "approved"}
	if err := ValidateTransition(a, StatusComplete); err != nil {
		t.Fatalf("complete reviewer pass: got %v, want nil", err)
	}
}
