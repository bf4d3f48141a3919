package appraisal

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Actor identifies who is performing an operation. EmployeeID may be empty
// for accounts without an employee record; HR grants tenant-wide read.
type Actor struct {
	UserID     string
	EmployeeID string
	HR         bool
}

// GoalTemplate is a reusable goal definition from the tenant catalog.
type GoalTemplate struct {
	ID                string
	Title             string
	Description       string
	Importance        string
	PerformanceFactor string
	DefaultWeightage  int
	Categories        []string
}

// TemplateSource resolves template IDs against the tenant catalog.
type TemplateSource interface {
	TemplatesByIDs(ctx context.Context, tenantID string, ids []string) ([]GoalTemplate, error)
}

type Service struct {
	store     StoreAPI
	templates TemplateSource
}

func NewService(store StoreAPI, templates TemplateSource) *Service {
	return &Service{store: store, templates: templates}
}

type CreateDraftInput struct {
	AppraiseeID string
	AppraiserID string
	ReviewerID  string
	Type        string
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// CreateDraft opens a new appraisal in draft with an empty goal ledger.
func (s *Service) CreateDraft(ctx context.Context, tenantID string, actor Actor, in CreateDraftInput) (Appraisal, error) {
	if err := validateParticipants(in); err != nil {
		return Appraisal{}, err
	}
	if actor.EmployeeID != in.AppraiseeID && actor.EmployeeID != in.AppraiserID {
		return Appraisal{}, fmt.Errorf("%w: only the appraisee or appraiser may open a draft", ErrAuthorization)
	}
	a := Appraisal{
		TenantID:    tenantID,
		AppraiseeID: in.AppraiseeID,
		AppraiserID: in.AppraiserID,
		ReviewerID:  in.ReviewerID,
		Type:        strings.TrimSpace(in.Type),
		PeriodStart: in.PeriodStart,
		PeriodEnd:   in.PeriodEnd,
		Status:      StatusDraft,
		Version:     1,
	}
	id, err := s.store.CreateAppraisal(ctx, a)
	if err != nil {
		return Appraisal{}, err
	}
	return s.store.GetAppraisal(ctx, tenantID, id)
}

func validateParticipants(in CreateDraftInput) error {
	if strings.TrimSpace(in.AppraiseeID) == "" {
		return validationErr("appraiseeId", "must not be empty")
	}
	if strings.TrimSpace(in.AppraiserID) == "" {
		return validationErr("appraiserId", "must not be empty")
	}
	if strings.TrimSpace(in.ReviewerID) == "" {
		return validationErr("reviewerId", "must not be empty")
	}
	if in.AppraiseeID == in.AppraiserID || in.AppraiseeID == in.ReviewerID || in.AppraiserID == in.ReviewerID {
		return validationErr("participants", "appraisee, appraiser and reviewer must be three distinct employees")
	}
	if !in.PeriodEnd.After(in.PeriodStart) {
		return validationErr("period", "periodEnd must be after periodStart")
	}
	return nil
}

// Get loads an appraisal with the view redacted for the actor's role. HR
// accounts see the full record regardless of involvement.
func (s *Service) Get(ctx context.Context, tenantID string, actor Actor, id string) (Appraisal, error) {
	a, err := s.store.GetAppraisal(ctx, tenantID, id)
	if err != nil {
		return Appraisal{}, err
	}
	if actor.HR {
		return a, nil
	}
	role := RelationOf(&a, actor.EmployeeID)
	if !Can(role, a.Status, CapRead) {
		return Appraisal{}, fmt.Errorf("%w: no access to this appraisal", ErrAuthorization)
	}
	return Redact(a, role), nil
}

// List returns the actor's appraisals in any role, each redacted the same
// way Get would redact it. HR accounts list the whole tenant unredacted.
func (s *Service) List(ctx context.Context, tenantID string, actor Actor, limit, offset int) ([]Appraisal, int, error) {
	if actor.HR {
		return s.store.ListAppraisals(ctx, tenantID, "", limit, offset)
	}
	items, total, err := s.store.ListAppraisals(ctx, tenantID, actor.EmployeeID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	visible := make([]Appraisal, 0, len(items))
	for _, a := range items {
		role := RelationOf(&a, actor.EmployeeID)
		if !Can(role, a.Status, CapRead) {
			continue
		}
		visible = append(visible, Redact(a, role))
	}
	return visible, total, nil
}

// History returns the status trail for an appraisal the actor may read.
func (s *Service) History(ctx context.Context, tenantID string, actor Actor, id string) ([]StatusChange, error) {
	a, err := s.store.GetAppraisal(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !actor.HR {
		role := RelationOf(&a, actor.EmployeeID)
		if !Can(role, a.Status, CapRead) {
			return nil, fmt.Errorf("%w: no access to this appraisal", ErrAuthorization)
		}
	}
	return s.store.History(ctx, tenantID, id)
}

// AddGoal appends a goal to a draft's ledger.
func (s *Service) AddGoal(ctx context.Context, tenantID string, actor Actor, appraisalID string, fields GoalFields) (Goal, error) {
	a, err := s.loadForGoalEdit(ctx, tenantID, actor, appraisalID)
	if err != nil {
		return Goal{}, err
	}
	if err := ValidateGoalFields(fields); err != nil {
		return Goal{}, err
	}
	ids, err := s.store.AddGoals(ctx, tenantID, appraisalID, a.Version, []Goal{goalFromFields(appraisalID, fields)})
	if err != nil {
		return Goal{}, err
	}
	refreshed, err := s.store.GetAppraisal(ctx, tenantID, appraisalID)
	if err != nil {
		return Goal{}, err
	}
	return findGoal(refreshed.Goals, ids[0])
}

// ImportTemplateGoals copies catalog templates into a draft's ledger as
// regular goals. Every requested ID must resolve.
func (s *Service) ImportTemplateGoals(ctx context.Context, tenantID string, actor Actor, appraisalID string, templateIDs []string) ([]Goal, error) {
	if s.templates == nil {
		return nil, fmt.Errorf("%w: goal templates are not available", ErrValidation)
	}
	if len(templateIDs) == 0 {
		return nil, validationErr("templateIds", "must name at least one template")
	}
	a, err := s.loadForGoalEdit(ctx, tenantID, actor, appraisalID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(templateIDs))
	unique := make([]string, 0, len(templateIDs))
	for _, id := range templateIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	tpls, err := s.templates.TemplatesByIDs(ctx, tenantID, unique)
	if err != nil {
		return nil, err
	}
	if len(tpls) != len(unique) {
		return nil, fmt.Errorf("%w: one or more goal templates", ErrNotFound)
	}
	goals := make([]Goal, 0, len(tpls))
	for _, t := range tpls {
		fields := GoalFields{
			Title:             t.Title,
			Description:       t.Description,
			Importance:        t.Importance,
			PerformanceFactor: t.PerformanceFactor,
			Weightage:         t.DefaultWeightage,
			Categories:        t.Categories,
		}
		if err := ValidateGoalFields(fields); err != nil {
			return nil, err
		}
		goals = append(goals, goalFromFields(appraisalID, fields))
	}
	if _, err := s.store.AddGoals(ctx, tenantID, appraisalID, a.Version, goals); err != nil {
		return nil, err
	}
	refreshed, err := s.store.GetAppraisal(ctx, tenantID, appraisalID)
	if err != nil {
		return nil, err
	}
	return refreshed.Goals, nil
}

// UpdateGoal replaces a draft goal's fields, weightage included.
func (s *Service) UpdateGoal(ctx context.Context, tenantID string, actor Actor, appraisalID, goalID string, fields GoalFields) (Goal, error) {
	a, err := s.loadForGoalEdit(ctx, tenantID, actor, appraisalID)
	if err != nil {
		return Goal{}, err
	}
	if !hasGoal(a.Goals, goalID) {
		return Goal{}, fmt.Errorf("%w: %s", ErrGoalNotFound, goalID)
	}
	if err := ValidateGoalFields(fields); err != nil {
		return Goal{}, err
	}
	if err := s.store.UpdateGoal(ctx, tenantID, appraisalID, goalID, a.Version, fields); err != nil {
		return Goal{}, err
	}
	refreshed, err := s.store.GetAppraisal(ctx, tenantID, appraisalID)
	if err != nil {
		return Goal{}, err
	}
	return findGoal(refreshed.Goals, goalID)
}

// RemoveGoal deletes a goal from a draft's ledger.
func (s *Service) RemoveGoal(ctx context.Context, tenantID string, actor Actor, appraisalID, goalID string) error {
	a, err := s.loadForGoalEdit(ctx, tenantID, actor, appraisalID)
	if err != nil {
		return err
	}
	if !hasGoal(a.Goals, goalID) {
		return fmt.Errorf("%w: %s", ErrGoalNotFound, goalID)
	}
	return s.store.DeleteGoal(ctx, tenantID, appraisalID, goalID, a.Version)
}

// DiscardDraft deletes an appraisal that never left draft.
func (s *Service) DiscardDraft(ctx context.Context, tenantID string, actor Actor, id string) error {
	a, err := s.store.GetAppraisal(ctx, tenantID, id)
	if err != nil {
		return err
	}
	role := RelationOf(&a, actor.EmployeeID)
	if !Can(role, a.Status, CapDiscard) {
		if a.Status != StatusDraft {
			return fmt.Errorf("%w: only drafts may be discarded", ErrInvalidState)
		}
		return fmt.Errorf("%w: only the appraisee may discard a draft", ErrAuthorization)
	}
	return s.store.DeleteDraft(ctx, tenantID, id, a.Version)
}

// Submit moves a draft into the workflow. The submitted state advances to
// self assessment in the same commit, so both history rows land atomically.
func (s *Service) Submit(ctx context.Context, tenantID string, actor Actor, id string) (Appraisal, error) {
	a, err := s.store.GetAppraisal(ctx, tenantID, id)
	if err != nil {
		return Appraisal{}, err
	}
	role := RelationOf(&a, actor.EmployeeID)
	if role != RoleAppraisee || !Can(role, a.Status, CapTransition) {
		return Appraisal{}, fmt.Errorf("%w: only the appraisee may submit", ErrAuthorization)
	}
	if err := ValidateTransition(&a, StatusSubmitted); err != nil {
		return Appraisal{}, err
	}
	a.Status = StatusSubmitted
	if err := ValidateTransition(&a, StatusSelfAssessment); err != nil {
		return Appraisal{}, err
	}
	commit := TransitionCommit{
		ActorID:  actor.EmployeeID,
		Statuses: []Status{StatusSubmitted, StatusSelfAssessment},
	}
	if err := s.store.CommitTransition(ctx, tenantID, id, a.Version, commit); err != nil {
		return Appraisal{}, err
	}
	return s.store.GetAppraisal(ctx, tenantID, id)
}

// SubmitSelfAssessment records the appraisee's per-goal evaluations and
// advances to appraiser evaluation. Every goal must carry a complete pair.
func (s *Service) SubmitSelfAssessment(ctx context.Context, tenantID string, actor Actor, id string, writes []GoalEvaluation) (Appraisal, error) {
	a, err := s.store.GetAppraisal(ctx, tenantID, id)
	if err != nil {
		return Appraisal{}, err
	}
	role := RelationOf(&a, actor.EmployeeID)
	if !Can(role, a.Status, CapWriteSelf) {
		return Appraisal{}, fmt.Errorf("%w: only the appraisee may record the self assessment", ErrAuthorization)
	}
	if err := applyGoalEvaluations(a.Goals, writes, "selfEvaluation", func(g *Goal) *EvaluationPair { return &g.Self }); err != nil {
		return Appraisal{}, err
	}
	if err := ValidateTransition(&a, StatusAppraiserEvaluation); err != nil {
		return Appraisal{}, err
	}
	commit := TransitionCommit{
		ActorID:         actor.EmployeeID,
		Statuses:        []Status{StatusAppraiserEvaluation},
		SelfEvaluations: writes,
	}
	if err := s.store.CommitTransition(ctx, tenantID, id, a.Version, commit); err != nil {
		return Appraisal{}, err
	}
	return s.store.GetAppraisal(ctx, tenantID, id)
}

// OverallInput is a summary rating and comment for a whole appraisal.
type OverallInput struct {
	Rating  int
	Comment string
}

// SubmitAppraiserEvaluation records the appraiser's per-goal evaluations and
// overall verdict, then advances to reviewer evaluation.
func (s *Service) SubmitAppraiserEvaluation(ctx context.Context, tenantID string, actor Actor, id string, writes []GoalEvaluation, overall OverallInput) (Appraisal, error) {
	a, err := s.store.GetAppraisal(ctx, tenantID, id)
	if err != nil {
		return Appraisal{}, err
	}
	role := RelationOf(&a, actor.EmployeeID)
	if !Can(role, a.Status, CapWriteAppraiser) {
		return Appraisal{}, fmt.Errorf("%w: only the appraiser may record this evaluation", ErrAuthorization)
	}
	if err := applyGoalEvaluations(a.Goals, writes, "appraiserEvaluation", func(g *Goal) *EvaluationPair { return &g.Appraiser }); err != nil {
		return Appraisal{}, err
	}
	if err := ValidateEvaluationPair("appraiserOverall", overall.Rating, overall.Comment); err != nil {
		return Appraisal{}, err
	}
	a.AppraiserOverall = EvaluationPair{Rating: intPtr(overall.Rating), Comment: strings.TrimSpace(overall.Comment)}
	if err := ValidateTransition(&a, StatusReviewerEvaluation); err != nil {
		return Appraisal{}, err
	}
	commit := TransitionCommit{
		ActorID:              actor.EmployeeID,
		Statuses:             []Status{StatusReviewerEvaluation},
		AppraiserEvaluations: writes,
		AppraiserOverall:     &a.AppraiserOverall,
	}
	if err := s.store.CommitTransition(ctx, tenantID, id, a.Version, commit); err != nil {
		return Appraisal{}, err
	}
	return s.store.GetAppraisal(ctx, tenantID, id)
}

// SubmitReviewerEvaluation records the reviewer's overall verdict and closes
// the appraisal.
func (s *Service) SubmitReviewerEvaluation(ctx context.Context, tenantID string, actor Actor, id string, overall OverallInput) (Appraisal, error) {
	a, err := s.store.GetAppraisal(ctx, tenantID, id)
	if err != nil {
		return Appraisal{}, err
	}
	role := RelationOf(&a, actor.EmployeeID)
	if !Can(role, a.Status, CapWriteReviewer) {
		return Appraisal{}, fmt.Errorf("%w: only the reviewer may finalize", ErrAuthorization)
	}
	if err := ValidateEvaluationPair("reviewerOverall", overall.Rating, overall.Comment); err != nil {
		return Appraisal{}, err
	}
	a.ReviewerOverall = EvaluationPair{Rating: intPtr(overall.Rating), Comment: strings.TrimSpace(overall.Comment)}
	if err := ValidateTransition(&a, StatusComplete); err != nil {
		return Appraisal{}, err
	}
	commit := TransitionCommit{
		ActorID:         actor.EmployeeID,
		Statuses:        []Status{StatusComplete},
		ReviewerOverall: &a.ReviewerOverall,
	}
	if err := s.store.CommitTransition(ctx, tenantID, id, a.Version, commit); err != nil {
		return Appraisal{}, err
	}
	return s.store.GetAppraisal(ctx, tenantID, id)
}

// EmployeeIDByUserID resolves the employee record behind a user account.
func (s *Service) EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error) {
	return s.store.EmployeeIDByUserID(ctx, tenantID, userID)
}

// EmployeeUserID resolves the user account behind an employee record.
func (s *Service) EmployeeUserID(ctx context.Context, tenantID, employeeID string) (string, error) {
	return s.store.EmployeeUserID(ctx, tenantID, employeeID)
}

func (s *Service) loadForGoalEdit(ctx context.Context, tenantID string, actor Actor, appraisalID string) (Appraisal, error) {
	a, err := s.store.GetAppraisal(ctx, tenantID, appraisalID)
	if err != nil {
		return Appraisal{}, err
	}
	role := RelationOf(&a, actor.EmployeeID)
	if !Can(role, a.Status, CapEditGoals) {
		if a.Status != StatusDraft {
			return Appraisal{}, fmt.Errorf("%w: goals are frozen once the appraisal leaves draft", ErrInvalidState)
		}
		return Appraisal{}, fmt.Errorf("%w: only the appraisee may edit goals", ErrAuthorization)
	}
	return a, nil
}

func goalFromFields(appraisalID string, fields GoalFields) Goal {
	return Goal{
		AppraisalID:       appraisalID,
		Title:             strings.TrimSpace(fields.Title),
		Description:       fields.Description,
		Importance:        fields.Importance,
		PerformanceFactor: fields.PerformanceFactor,
		Weightage:         fields.Weightage,
		Categories:        fields.Categories,
	}
}

func findGoal(goals []Goal, id string) (Goal, error) {
	for _, g := range goals {
		if g.ID == id {
			return g, nil
		}
	}
	return Goal{}, fmt.Errorf("%w: %s", ErrGoalNotFound, id)
}

func hasGoal(goals []Goal, id string) bool {
	for _, g := range goals {
		if g.ID == id {
			return true
		}
	}
	return false
}
