package appraisal

import "time"

// Status is the workflow state of an appraisal. States only ever advance
// forward through the fixed order; there are no backward or skipping moves.
type Status string

const (
	StatusDraft               Status = "draft"
	StatusSubmitted           Status = "submitted"
	StatusSelfAssessment      Status = "self_assessment"
	StatusAppraiserEvaluation Status = "appraiser_evaluation"
	StatusReviewerEvaluation  Status = "reviewer_evaluation"
	StatusComplete            Status = "complete"
)

// Role is the relationship of the acting employee to one specific appraisal,
// derived per request. It is not a global role label.
type Role string

const (
	RoleAppraisee Role = "appraisee"
	RoleAppraiser Role = "appraiser"
	RoleReviewer  Role = "reviewer"
	RoleOther     Role = "other"
)

const (
	RatingMin = 1
	RatingMax = 5

	WeightageMin   = 1
	WeightageMax   = 100
	WeightageTotal = 100
)

// EvaluationPair is a rating with its mandatory comment. The two fields are
// always written together; a pair is either fully present or fully absent.
type EvaluationPair struct {
	Rating  *int   `json:"rating"`
	Comment string `json:"comment"`
}

func (p EvaluationPair) Present() bool {
	return p.Rating != nil
}

type Goal struct {
	ID                string         `json:"id"`
	AppraisalID       string         `json:"appraisalId"`
	Title             string         `json:"title"`
	Description       string         `json:"description"`
	Importance        string         `json:"importance"`
	PerformanceFactor string         `json:"performanceFactor"`
	Weightage         int            `json:"weightage"`
	Categories        []string       `json:"categories"`
	Self              EvaluationPair `json:"selfEvaluation"`
	Appraiser         EvaluationPair `json:"appraiserEvaluation"`
	CreatedAt         time.Time      `json:"createdAt"`
}

type Appraisal struct {
	ID               string         `json:"id"`
	TenantID         string         `json:"-"`
	AppraiseeID      string         `json:"appraiseeId"`
	AppraiserID      string         `json:"appraiserId"`
	ReviewerID       string         `json:"reviewerId"`
	Type             string         `json:"type"`
	PeriodStart      time.Time      `json:"periodStart"`
	PeriodEnd        time.Time      `json:"periodEnd"`
	Status           Status         `json:"status"`
	Version          int            `json:"version"`
	AppraiserOverall EvaluationPair `json:"appraiserOverall"`
	ReviewerOverall  EvaluationPair `json:"reviewerOverall"`
	Goals            []Goal         `json:"goals"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// StatusChange is one committed transition, kept as an append-only history.
type StatusChange struct {
	ID          string    `json:"id"`
	AppraisalID string    `json:"appraisalId"`
	FromStatus  Status    `json:"from"`
	ToStatus    Status    `json:"to"`
	ActorID     string    `json:"actorId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// GoalFields carries the caller-supplied fields when adding or editing a
// goal on a draft appraisal.
type GoalFields struct {
	Title             string
	Description       string
	Importance        string
	PerformanceFactor string
	Weightage         int
	Categories        []string
}

// GoalEvaluation is one per-goal rating/comment write within a submit call.
type GoalEvaluation struct {
	GoalID  string
	Rating  int
	Comment string
}

func intPtr(v int) *int { return &v }
