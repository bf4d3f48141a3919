package appraisal

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

const testTenant = "t1"

var (
	appraisee = Actor{UserID: "u-e1", EmployeeID: "e1"}
	appraiser = Actor{UserID: "u-m1", EmployeeID: "m1"}
	reviewer  = Actor{UserID: "u-r1", EmployeeID: "r1"}
	outsider  = Actor{UserID: "u-x1", EmployeeID: "x1"}
	hrActor   = Actor{UserID: "u-hr", EmployeeID: "", HR: true}
)

// fakeStore is an in-memory StoreAPI that mirrors the version semantics of
// the real store: every mutation checks the expected version, bumps it, and
// fails with ErrConflict on a mismatch.
type fakeStore struct {
	appraisals map[string]*Appraisal
	history    []StatusChange
	nextApp    int
	nextGoal   int

	// raceNextCommit bumps the stored version just before the next commit's
	// version check, simulating a concurrent writer.
	raceNextCommit bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{appraisals: map[string]*Appraisal{}}
}

func (f *fakeStore) CreateAppraisal(_ context.Context, a Appraisal) (string, error) {
	f.nextApp++
	a.ID = fmt.Sprintf("a%d", f.nextApp)
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	f.appraisals[a.ID] = &a
	return a.ID, nil
}

func (f *fakeStore) GetAppraisal(_ context.Context, tenantID, id string) (Appraisal, error) {
	a, ok := f.appraisals[id]
	if !ok || a.TenantID != tenantID {
		return Appraisal{}, fmt.Errorf("%w: appraisal %s", ErrNotFound, id)
	}
	out := *a
	out.Goals = make([]Goal, len(a.Goals))
	copy(out.Goals, a.Goals)
	return out, nil
}

func (f *fakeStore) ListAppraisals(_ context.Context, tenantID, employeeID string, limit, offset int) ([]Appraisal, int, error) {
	var out []Appraisal
	for _, a := range f.appraisals {
		if a.TenantID != tenantID {
			continue
		}
		if employeeID != "" && a.AppraiseeID != employeeID && a.AppraiserID != employeeID && a.ReviewerID != employeeID {
			continue
		}
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (f *fakeStore) checkVersion(tenantID, id string, version int) (*Appraisal, error) {
	a, ok := f.appraisals[id]
	if !ok || a.TenantID != tenantID {
		return nil, fmt.Errorf("%w: appraisal %s", ErrNotFound, id)
	}
	if a.Version != version {
		return nil, ErrConflict
	}
	return a, nil
}

func (f *fakeStore) DeleteDraft(_ context.Context, tenantID, id string, version int) error {
	a, err := f.checkVersion(tenantID, id, version)
	if err != nil {
		return err
	}
	if a.Status != StatusDraft {
		return ErrConflict
	}
	delete(f.appraisals, id)
	return nil
}

func (f *fakeStore) AddGoals(_ context.Context, tenantID, appraisalID string, version int, goals []Goal) ([]string, error) {
	a, err := f.checkVersion(tenantID, appraisalID, version)
	if err != nil {
		return nil, err
	}
	a.Version++
	ids := make([]string, 0, len(goals))
	for _, g := range goals {
		f.nextGoal++
		g.ID = fmt.Sprintf("g%02d", f.nextGoal)
		g.AppraisalID = appraisalID
		a.Goals = append(a.Goals, g)
		ids = append(ids, g.ID)
	}
	return ids, nil
}

func (f *fakeStore) UpdateGoal(_ context.Context, tenantID, appraisalID, goalID string, version int, fields GoalFields) error {
	a, err := f.checkVersion(tenantID, appraisalID, version)
	if err != nil {
		return err
	}
	a.Version++
	for i := range a.Goals {
		if a.Goals[i].ID == goalID {
			a.Goals[i].Title = fields.Title
			a.Goals[i].Description = fields.Description
			a.Goals[i].Importance = fields.Importance
			a.Goals[i].PerformanceFactor = fields.PerformanceFactor
			a.Goals[i].Weightage = fields.Weightage
			a.Goals[i].Categories = fields.Categories
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrGoalNotFound, goalID)
}

func (f *fakeStore) DeleteGoal(_ context.Context, tenantID, appraisalID, goalID string, version int) error {
	a, err := f.checkVersion(tenantID, appraisalID, version)
	if err != nil {
		return err
	}
	a.Version++
	for i := range a.Goals {
		if a.Goals[i].ID == goalID {
			a.Goals = append(a.Goals[:i], a.Goals[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrGoalNotFound, goalID)
}

func (f *fakeStore) CommitTransition(_ context.Context, tenantID, id string, version int, commit TransitionCommit) error {
	if len(commit.Statuses) == 0 {
		return fmt.Errorf("%w: transition commit carries no statuses", ErrValidation)
	}
	if f.raceNextCommit {
		f.raceNextCommit = false
		f.appraisals[id].Version++
	}
	a, err := f.checkVersion(tenantID, id, version)
	if err != nil {
		return err
	}
	a.Version++
	a.Status = commit.Statuses[len(commit.Statuses)-1]
	if commit.AppraiserOverall != nil {
		a.AppraiserOverall = *commit.AppraiserOverall
	}
	if commit.ReviewerOverall != nil {
		a.ReviewerOverall = *commit.ReviewerOverall
	}
	for _, w := range commit.SelfEvaluations {
		for i := range a.Goals {
			if a.Goals[i].ID == w.GoalID {
				a.Goals[i].Self = EvaluationPair{Rating: intPtr(w.Rating), Comment: w.Comment}
			}
		}
	}
	for _, w := range commit.AppraiserEvaluations {
		for i := range a.Goals {
			if a.Goals[i].ID == w.GoalID {
				a.Goals[i].Appraiser = EvaluationPair{Rating: intPtr(w.Rating), Comment: w.Comment}
			}
		}
	}
	from, _ := commit.Statuses[0].Prev()
	for _, to := range commit.Statuses {
		f.history = append(f.history, StatusChange{
			AppraisalID: id,
			FromStatus:  from,
			ToStatus:    to,
			ActorID:     commit.ActorID,
			CreatedAt:   time.Now(),
		})
		from = to
	}
	return nil
}

func (f *fakeStore) History(_ context.Context, _, appraisalID string) ([]StatusChange, error) {
	var out []StatusChange
	for _, c := range f.history {
		if c.AppraisalID == appraisalID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) EmployeeIDByUserID(_ context.Context, _, userID string) (string, error) {
	return "", nil
}

func (f *fakeStore) EmployeeUserID(_ context.Context, _, employeeID string) (string, error) {
	return "u-" + employeeID, nil
}

func (f *fakeStore) EmployeeName(_ context.Context, _, employeeID string) (string, error) {
	return "Employee " + employeeID, nil
}

type fakeTemplates struct {
	templates map[string]GoalTemplate
}

func (f *fakeTemplates) TemplatesByIDs(_ context.Context, _ string, ids []string) ([]GoalTemplate, error) {
	var out []GoalTemplate
	for _, id := range ids {
		if t, ok := f.templates[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func draftInput() CreateDraftInput {
	return CreateDraftInput{
		AppraiseeID: "e1",
		AppraiserID: "m1",
		ReviewerID:  "r1",
		Type:        "annual",
		PeriodStart: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	}
}

func newTestService() (*Service, *fakeStore) {
	store := newFakeStore()
	templates := &fakeTemplates{templates: map[string]GoalTemplate{
		"tpl1": {ID: "tpl1", Title: "Delivery", DefaultWeightage: 60},
		"tpl2": {ID: "tpl2", Title: "Collaboration", DefaultWeightage: 60},
	}}
	return NewService(store, templates), store
}

func draftWithGoals(t *testing.T, svc *Service, weights ...int) Appraisal {
	t.Helper()
	ctx := context.Background()
	a, err := svc.CreateDraft(ctx, testTenant, appraisee, draftInput())
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	for i, w := range weights {
		if _, err := svc.AddGoal(ctx, testTenant, appraisee, a.ID, GoalFields{Title: fmt.Sprintf("goal %d", i+1), Weightage: w}); err != nil {
			t.Fatalf("add goal %d: %v", i+1, err)
		}
	}
	refreshed, err := svc.Get(ctx, testTenant, appraisee, a.ID)
	if err != nil {
		t.Fatalf("get draft: %v", err)
	}
	return refreshed
}

func selfWrites(goals []Goal, rating int) []GoalEvaluation {
	out := make([]GoalEvaluation, 0, len(goals))
	for _, g := range goals {
		out = append(out, GoalEvaluation{GoalID: g.ID, Rating: rating, Comment: "self view"})
	}
	return out
}

func appraiserWrites(goals []Goal, rating int) []GoalEvaluation {
	out := make([]GoalEvaluation, 0, len(goals))
	for _, g := range goals {
		out = append(out, GoalEvaluation{GoalID: g.ID, Rating: rating, Comment: "manager view"})
	}
	return out
}

func TestCreateDraftRequiresDistinctParticipants(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	in := draftInput()
	in.ReviewerID = in.AppraiserID
	if _, err := svc.CreateDraft(ctx, testTenant, appraisee, in); !errors.Is(err, ErrValidation) {
		t.Fatalf("duplicate participants: got %v, want validation error", err)
	}

	in = draftInput()
	in.PeriodEnd = in.PeriodStart
	if _, err := svc.CreateDraft(ctx, testTenant, appraisee, in); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty period: got %v, want validation error", err)
	}
}

func TestCreateDraftRejectsUnrelatedCreator(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.CreateDraft(context.Background(), testTenant, outsider, draftInput()); !errors.Is(err, ErrAuthorization) {
		t.Fatalf("got %v, want authorization error", err)
	}
}

func TestAddGoalWeightageBoundaries(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a, err := svc.CreateDraft(ctx, testTenant, appraisee, draftInput())
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}

	if _, err := svc.AddGoal(ctx, testTenant, appraisee, a.ID, GoalFields{Title: "x", Weightage: 0}); !errors.Is(err, ErrValidation) {
		t.Fatalf("weightage 0: got %v, want validation error", err)
	}
	if _, err := svc.AddGoal(ctx, testTenant, appraisee, a.ID, GoalFields{Title: "x", Weightage: 101}); !errors.Is(err, ErrValidation) {
		t.Fatalf("weightage 101: got %v, want validation error", err)
	}
	if _, err := svc.AddGoal(ctx, testTenant, appraisee, a.ID, GoalFields{Title: "x", Weightage: 1}); err != nil {
		t.Fatalf("weightage 1: got %v, want nil", err)
	}
	if _, err := svc.AddGoal(ctx, testTenant, appraisee, a.ID, GoalFields{Title: "y", Weightage: 100}); err != nil {
		t.Fatalf("weightage 100: got %v, want nil", err)
	}
}

func TestImportedTemplatesMayOverfillUntilSubmit(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a, err := svc.CreateDraft(ctx, testTenant, appraisee, draftInput())
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}

	goals, err := svc.ImportTemplateGoals(ctx, testTenant, appraisee, a.ID, []string{"tpl1", "tpl2"})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if total := TotalWeightage(goals); total != 120 {
		t.Fatalf("total = %d, want 120", total)
	}

	if _, err := svc.Submit(ctx, testTenant, appraisee, a.ID); !errors.Is(err, ErrValidation) {
		t.Fatalf("submit at 120%%: got %v, want validation error", err)
	}
}

func TestImportRejectsUnknownTemplate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a, err := svc.CreateDraft(ctx, testTenant, appraisee, draftInput())
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if _, err := svc.ImportTemplateGoals(ctx, testTenant, appraisee, a.ID, []string{"tpl1", "nope"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want not found", err)
	}
}

func TestSubmitRejectsOffByOneTotals(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, weights := range [][]int{{50, 49}, {50, 51}} {
		a := draftWithGoals(t, svc, weights...)
		if _, err := svc.Submit(ctx, testTenant, appraisee, a.ID); !errors.Is(err, ErrValidation) {
			t.Fatalf("weights %v: got %v, want validation error", weights, err)
		}
	}
}

func TestSubmitRequiresAtLeastOneGoal(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a, err := svc.CreateDraft(ctx, testTenant, appraisee, draftInput())
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if _, err := svc.Submit(ctx, testTenant, appraisee, a.ID); !errors.Is(err, ErrIncompleteEvaluation) {
		t.Fatalf("empty ledger: got %v, want incomplete evaluation", err)
	}
}

func TestSubmitAdvancesToSelfAssessmentAtomically(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	a := draftWithGoals(t, svc, 60, 40)

	got, err := svc.Submit(ctx, testTenant, appraisee, a.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.Status != StatusSelfAssessment {
		t.Fatalf("status = %s, want %s", got.Status, StatusSelfAssessment)
	}

	history, err := store.History(ctx, testTenant, a.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history rows = %d, want 2", len(history))
	}
	if history[0].ToStatus != StatusSubmitted || history[1].ToStatus != StatusSelfAssessment {
		t.Fatalf("history = %s, %s", history[0].ToStatus, history[1].ToStatus)
	}
}

func TestSubmitByWrongActor(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a := draftWithGoals(t, svc, 100)

	for _, actor := range []Actor{appraiser, reviewer, outsider} {
		if _, err := svc.Submit(ctx, testTenant, actor, a.ID); !errors.Is(err, ErrAuthorization) {
			t.Fatalf("actor %s: got %v, want authorization error", actor.EmployeeID, err)
		}
	}
}

func TestGoalsFrozenAfterDraft(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a := draftWithGoals(t, svc, 100)
	if _, err := svc.Submit(ctx, testTenant, appraisee, a.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := svc.AddGoal(ctx, testTenant, appraisee, a.ID, GoalFields{Title: "late", Weightage: 10}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("add after submit: got %v, want invalid state", err)
	}
	if err := svc.RemoveGoal(ctx, testTenant, appraisee, a.ID, a.Goals[0].ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("remove after submit: got %v, want invalid state", err)
	}
}

func TestFullLifecycle(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a := draftWithGoals(t, svc, 50, 30, 20)

	if _, err := svc.Submit(ctx, testTenant, appraisee, a.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	cur, err := svc.Get(ctx, testTenant, appraisee, a.ID)
	if err != nil {
		t.Fatalf("get after submit: %v", err)
	}

	// Self assessment by anyone but the appraisee fails.
	if _, err := svc.SubmitSelfAssessment(ctx, testTenant, appraiser, a.ID, selfWrites(cur.Goals, 4)); !errors.Is(err, ErrAuthorization) {
		t.Fatalf("self by appraiser: got %v, want authorization error", err)
	}
	cur, err = svc.SubmitSelfAssessment(ctx, testTenant, appraisee, a.ID, selfWrites(cur.Goals, 4))
	if err != nil {
		t.Fatalf("self assessment: %v", err)
	}
	if cur.Status != StatusAppraiserEvaluation {
		t.Fatalf("status = %s, want %s", cur.Status, StatusAppraiserEvaluation)
	}

	// Appraiser pass needs the overall verdict to be complete.
	if _, err := svc.SubmitAppraiserEvaluation(ctx, testTenant, appraiser, a.ID, appraiserWrites(cur.Goals, 4), OverallInput{Rating: 4}); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing overall comment: got %v, want validation error", err)
	}
	cur, err = svc.SubmitAppraiserEvaluation(ctx, testTenant, appraiser, a.ID, appraiserWrites(cur.Goals, 4), OverallInput{Rating: 4, Comment: "solid"})
	if err != nil {
		t.Fatalf("appraiser evaluation: %v", err)
	}
	if cur.Status != StatusReviewerEvaluation {
		t.Fatalf("status = %s, want %s", cur.Status, StatusReviewerEvaluation)
	}

	cur, err = svc.SubmitReviewerEvaluation(ctx, testTenant, reviewer, a.ID, OverallInput{Rating: 5, Comment: "approved"})
	if err != nil {
		t.Fatalf("reviewer evaluation: %v", err)
	}
	if cur.Status != StatusComplete {
		t.Fatalf("status = %s, want %s", cur.Status, StatusComplete)
	}

	// Nothing writes after completion.
	if _, err := svc.SubmitReviewerEvaluation(ctx, testTenant, reviewer, a.ID, OverallInput{Rating: 4, Comment: "again"}); !errors.Is(err, ErrAuthorization) {
		t.Fatalf("re-finalize: got %v, want authorization error", err)
	}
	if _, err := svc.SubmitSelfAssessment(ctx, testTenant, appraisee, a.ID, nil); !errors.Is(err, ErrAuthorization) {
		t.Fatalf("self after complete: got %v, want authorization error", err)
	}
}

func TestSelfAssessmentNamesFirstIncompleteGoal(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a := draftWithGoals(t, svc, 60, 40)
	if _, err := svc.Submit(ctx, testTenant, appraisee, a.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	cur, err := svc.Get(ctx, testTenant, appraisee, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	// Only the second goal gets an evaluation.
	writes := []GoalEvaluation{{GoalID: cur.Goals[1].ID, Rating: 3, Comment: "partial"}}
	_, err = svc.SubmitSelfAssessment(ctx, testTenant, appraisee, a.ID, writes)
	var inc *IncompleteEvaluationError
	if !errors.As(err, &inc) {
		t.Fatalf("got %v, want incomplete evaluation error", err)
	}
	if inc.GoalID != cur.Goals[0].ID {
		t.Fatalf("incomplete goal = %q, want %q", inc.GoalID, cur.Goals[0].ID)
	}
}

func TestConcurrentWriterLosesWithConflict(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	a := draftWithGoals(t, svc, 100)

	store.raceNextCommit = true
	if _, err := svc.Submit(ctx, testTenant, appraisee, a.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("got %v, want conflict", err)
	}
}

func TestReadAccessByRoleAndStage(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a := draftWithGoals(t, svc, 100)

	if _, err := svc.Get(ctx, testTenant, outsider, a.ID); !errors.Is(err, ErrAuthorization) {
		t.Fatalf("outsider read: got %v, want authorization error", err)
	}
	if _, err := svc.Get(ctx, testTenant, appraiser, a.ID); !errors.Is(err, ErrAuthorization) {
		t.Fatalf("appraiser read in draft: got %v, want authorization error", err)
	}
	if _, err := svc.Get(ctx, testTenant, hrActor, a.ID); err != nil {
		t.Fatalf("hr read: %v", err)
	}
}

func TestDiscardDraft(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a := draftWithGoals(t, svc, 100)

	if err := svc.DiscardDraft(ctx, testTenant, appraiser, a.ID); !errors.Is(err, ErrAuthorization) {
		t.Fatalf("discard by appraiser: got %v, want authorization error", err)
	}
	if err := svc.DiscardDraft(ctx, testTenant, appraisee, a.ID); err != nil {
		t.Fatalf("discard: %v", err)
	}
	if _, err := svc.Get(ctx, testTenant, appraisee, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after discard: got %v, want not found", err)
	}

	b := draftWithGoals(t, svc, 100)
	if _, err := svc.Submit(ctx, testTenant, appraisee, b.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := svc.DiscardDraft(ctx, testTenant, appraisee, b.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("discard after submit: got %v, want invalid state", err)
	}
}

func TestSummaryPDFOnlyWhenComplete(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a := draftWithGoals(t, svc, 100)

	if _, err := svc.SummaryPDF(ctx, testTenant, appraisee, a.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("summary in draft: got %v, want invalid state", err)
	}

	if _, err := svc.Submit(ctx, testTenant, appraisee, a.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	cur, err := svc.Get(ctx, testTenant, appraisee, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := svc.SubmitSelfAssessment(ctx, testTenant, appraisee, a.ID, selfWrites(cur.Goals, 4)); err != nil {
		t.Fatalf("self assessment: %v", err)
	}
	cur, _ = svc.Get(ctx, testTenant, hrActor, a.ID)
	if _, err := svc.SubmitAppraiserEvaluation(ctx, testTenant, appraiser, a.ID, appraiserWrites(cur.Goals, 4), OverallInput{Rating: 4, Comment: "solid"}); err != nil {
		t.Fatalf("appraiser evaluation: %v", err)
	}
	if _, err := svc.SubmitReviewerEvaluation(ctx, testTenant, reviewer, a.ID, OverallInput{Rating: 5, Comment: "approved"}); err != nil {
		t.Fatalf("reviewer evaluation: %v", err)
	}

	pdf, err := svc.SummaryPDF(ctx, testTenant, appraisee, a.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(pdf) == 0 {
		t.Fatal("summary pdf is empty")
	}
}

func TestListRedactsEachItemForTheActor(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	// One appraisal mid-flight with appraiser feedback on record, one
	// still in draft.
	a := draftWithGoals(t, svc, 100)
	if _, err := svc.Submit(ctx, testTenant, appraisee, a.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	cur, err := svc.Get(ctx, testTenant, appraisee, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := svc.SubmitSelfAssessment(ctx, testTenant, appraisee, a.ID, selfWrites(cur.Goals, 4)); err != nil {
		t.Fatalf("self assessment: %v", err)
	}
	cur, _ = svc.Get(ctx, testTenant, hrActor, a.ID)
	if _, err := svc.SubmitAppraiserEvaluation(ctx, testTenant, appraiser, a.ID, appraiserWrites(cur.Goals, 4), OverallInput{Rating: 4, Comment: "solid"}); err != nil {
		t.Fatalf("appraiser evaluation: %v", err)
	}
	draftWithGoals(t, svc, 100)

	// The appraisee's listing hides appraiser and reviewer feedback the
	// same way a direct read does.
	items, _, err := svc.List(ctx, testTenant, appraisee, 10, 0)
	if err != nil {
		t.Fatalf("list as appraisee: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("appraisee list = %d items, want 2", len(items))
	}
	for _, item := range items {
		if item.AppraiserOverall.Present() || item.ReviewerOverall.Present() {
			t.Fatalf("appraisee list exposes overall feedback on %s (%s)", item.ID, item.Status)
		}
		for _, g := range item.Goals {
			if g.Appraiser.Present() {
				t.Fatalf("appraisee list exposes appraiser rating on goal %s", g.ID)
			}
		}
	}

	// The appraiser never sees draft-stage rows and never the reviewer's
	// verdict.
	items, _, err = svc.List(ctx, testTenant, appraiser, 10, 0)
	if err != nil {
		t.Fatalf("list as appraiser: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("appraiser list = %d items, want 1", len(items))
	}
	if items[0].Status != StatusReviewerEvaluation {
		t.Fatalf("appraiser sees %s item, want %s", items[0].Status, StatusReviewerEvaluation)
	}
	if items[0].ReviewerOverall.Present() {
		t.Fatal("appraiser list exposes reviewer overall")
	}
	if !items[0].AppraiserOverall.Present() {
		t.Fatal("appraiser list hides the appraiser's own overall")
	}

	// HR lists everything unredacted.
	items, _, err = svc.List(ctx, testTenant, hrActor, 10, 0)
	if err != nil {
		t.Fatalf("list as hr: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("hr list = %d items, want 2", len(items))
	}
}

func TestImportIgnoresDuplicateTemplateIDs(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a, err := svc.CreateDraft(ctx, testTenant, appraisee, draftInput())
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}

	goals, err := svc.ImportTemplateGoals(ctx, testTenant, appraisee, a.ID, []string{"tpl1", "tpl1", "tpl2"})
	if err != nil {
		t.Fatalf("import with duplicates: %v", err)
	}
	if len(goals) != 2 {
		t.Fatalf("imported goals = %d, want 2", len(goals))
	}
}
