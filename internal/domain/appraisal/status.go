package appraisal

import "fmt"

// statusOrder is the single legal path through the workflow. Draft is the
// only initial state and Complete the only terminal one.
var statusOrder = []Status{
	StatusDraft,
	StatusSubmitted,
	StatusSelfAssessment,
	StatusAppraiserEvaluation,
	StatusReviewerEvaluation,
	StatusComplete,
}

var statusRank = func() map[Status]int {
	ranks := make(map[Status]int, len(statusOrder))
	for i, s := range statusOrder {
		ranks[s] = i
	}
	return ranks
}()

func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Next returns the immediate successor of s, or false when s is terminal
// or unknown.
func (s Status) Next() (Status, bool) {
	rank, ok := statusRank[s]
	if !ok || rank == len(statusOrder)-1 {
		return "", false
	}
	return statusOrder[rank+1], true
}

func (s Status) Terminal() bool {
	return s == StatusComplete
}

// Prev returns the immediate predecessor of s, or false when s is initial
// or unknown.
func (s Status) Prev() (Status, bool) {
	rank, ok := statusRank[s]
	if !ok || rank == 0 {
		return "", false
	}
	return statusOrder[rank-1], true
}

// transitionGuards are the completeness predicates gating entry into a
// target status. A nil guard means the transition has no data precondition.
var transitionGuards = map[Status]func(a *Appraisal) error{
	StatusSubmitted:           guardSubmit,
	StatusSelfAssessment:      nil,
	StatusAppraiserEvaluation: guardSelfComplete,
	StatusReviewerEvaluation:  guardAppraiserComplete,
	StatusComplete:            guardReviewerComplete,
}

// ValidateTransition checks that target is the immediate successor of the
// appraisal's current status and that the transition's completeness
// predicate holds. Authorization is checked separately, and first.
func ValidateTransition(a *Appraisal, target Status) error {
	next, ok := a.Status.Next()
	if !ok {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, a.Status)
	}
	if target != next {
		return fmt.Errorf("%w: %s -> %s (next legal state is %s)", ErrInvalidTransition, a.Status, target, next)
	}
	if guard := transitionGuards[target]; guard != nil {
		return guard(a)
	}
	return nil
}

func guardSubmit(a *Appraisal) error {
	return CheckSubmitReady(a.Goals)
}

func guardSelfComplete(a *Appraisal) error {
	if goalID, ok := firstIncompleteGoal(a.Goals, func(g Goal) EvaluationPair { return g.Self }); !ok {
		return &IncompleteEvaluationError{GoalID: goalID, Field: "self rating and comment"}
	}
	return nil
}

func guardAppraiserComplete(a *Appraisal) error {
	if goalID, ok := firstIncompleteGoal(a.Goals, func(g Goal) EvaluationPair { return g.Appraiser }); !ok {
		return &IncompleteEvaluationError{GoalID: goalID, Field: "appraiser rating and comment"}
	}
	if !pairComplete(a.AppraiserOverall) {
		return &IncompleteEvaluationError{Field: "appraiser overall rating and comment"}
	}
	return nil
}

func guardReviewerComplete(a *Appraisal) error {
	if !pairComplete(a.ReviewerOverall) {
		return &IncompleteEvaluationError{Field: "reviewer overall rating and comment"}
	}
	return nil
}
