package appraisal

import "context"

// TransitionCommit carries everything a status advance writes atomically:
// the status rows to record, any evaluation values being persisted alongside
// the transition, and the acting employee for the history trail.
type TransitionCommit struct {
	ActorID              string
	Statuses             []Status
	SelfEvaluations      []GoalEvaluation
	AppraiserEvaluations []GoalEvaluation
	AppraiserOverall     *EvaluationPair
	ReviewerOverall      *EvaluationPair
}

// StoreAPI is the persistence surface the service depends on. Every mutation
// takes the expected version and fails with ErrConflict when the row moved.
type StoreAPI interface {
	CreateAppraisal(ctx context.Context, a Appraisal) (string, error)
	GetAppraisal(ctx context.Context, tenantID, id string) (Appraisal, error)
	ListAppraisals(ctx context.Context, tenantID, employeeID string, limit, offset int) ([]Appraisal, int, error)
	DeleteDraft(ctx context.Context, tenantID, id string, version int) error

	AddGoals(ctx context.Context, tenantID, appraisalID string, version int, goals []Goal) ([]string, error)
	UpdateGoal(ctx context.Context, tenantID, appraisalID, goalID string, version int, fields GoalFields) error
	DeleteGoal(ctx context.Context, tenantID, appraisalID, goalID string, version int) error

	CommitTransition(ctx context.Context, tenantID, id string, version int, commit TransitionCommit) error
	History(ctx context.Context, tenantID, appraisalID string) ([]StatusChange, error)

	EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error)
	EmployeeUserID(ctx context.Context, tenantID, employeeID string) (string, error)
	EmployeeName(ctx context.Context, tenantID, employeeID string) (string, error)
}
