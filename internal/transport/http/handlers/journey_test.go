package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"appraisal/internal/app/server"
	"appraisal/internal/domain/appraisal"
	"appraisal/internal/platform/config"
)

// TestAppraisalJourney drives a full review cycle over HTTP against a real
// database: draft, goals from templates, submit, self assessment, appraiser
// and reviewer evaluation, then history and the PDF summary. Set
// TEST_DATABASE_URL to run it.
func TestAppraisalJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := config.Config{
		Addr:               ":0",
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		Environment:        "test",
		SeedTenantName:     "Journey Tenant",
		SeedAdminEmail:     "admin@example.com",
		SeedAdminPassword:  "ChangeMe123!",
		RunMigrations:      true,
		RunSeed:            true,
		MigrationsDir:      "../../../../migrations",
		MaxBodyBytes:       1 << 20,
		RateLimitPerMinute: 1000,
	}

	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()

	alice := login(t, ts, "alice@example.com", cfg.SeedAdminPassword)
	bruno := login(t, ts, "bruno@example.com", cfg.SeedAdminPassword)
	chiara := login(t, ts, "chiara@example.com", cfg.SeedAdminPassword)

	aliceEmp := employeeID(t, app, "alice@example.com")
	brunoEmp := employeeID(t, app, "bruno@example.com")
	chiaraEmp := employeeID(t, app, "chiara@example.com")

	// Draft with the appraisee as creator.
	var draft appraisal.Appraisal
	status := call(t, ts, alice, http.MethodPost, "/api/v1/appraisals", map[string]any{
		"appraiseeId": aliceEmp,
		"appraiserId": brunoEmp,
		"reviewerId":  chiaraEmp,
		"type":        "annual",
		"periodStart": "2026-01-01",
		"periodEnd":   "2026-12-31",
	}, &draft)
	if status != http.StatusCreated {
		t.Fatalf("create draft: status %d", status)
	}
	if draft.Status != appraisal.StatusDraft {
		t.Fatalf("draft status = %s", draft.Status)
	}

	// The seeded templates carry weightages that sum to exactly 100.
	var templates []struct {
		ID string `json:"id"`
	}
	if status := call(t, ts, alice, http.MethodGet, "/api/v1/goal-templates", nil, &templates); status != http.StatusOK {
		t.Fatalf("list templates: status %d", status)
	}
	if len(templates) != 3 {
		t.Fatalf("seeded templates = %d, want 3", len(templates))
	}

	ids := make([]string, 0, len(templates))
	for _, tpl := range templates {
		ids = append(ids, tpl.ID)
	}
	var goals []appraisal.Goal
	if status := call(t, ts, alice, http.MethodPost, "/api/v1/appraisals/"+draft.ID+"/goals/import", map[string]any{"templateIds": ids}, &goals); status != http.StatusCreated {
		t.Fatalf("import goals: status %d", status)
	}
	if len(goals) != 3 {
		t.Fatalf("imported goals = %d, want 3", len(goals))
	}

	// Only the appraisee may submit; the appraiser is rejected.
	if status := call(t, ts, bruno, http.MethodPost, "/api/v1/appraisals/"+draft.ID+"/submit", nil, nil); status != http.StatusForbidden {
		t.Fatalf("appraiser submit: status %d, want 403", status)
	}

	var current appraisal.Appraisal
	if status := call(t, ts, alice, http.MethodPost, "/api/v1/appraisals/"+draft.ID+"/submit", nil, &current); status != http.StatusOK {
		t.Fatalf("submit: status %d", status)
	}
	if current.Status != appraisal.StatusSelfAssessment {
		t.Fatalf("after submit status = %s, want %s", current.Status, appraisal.StatusSelfAssessment)
	}

	var history []appraisal.StatusChange
	if status := call(t, ts, alice, http.MethodGet, "/api/v1/appraisals/"+draft.ID+"/history", nil, &history); status != http.StatusOK {
		t.Fatalf("history: status %d", status)
	}
	if len(history) != 2 {
		t.Fatalf("history after submit = %d rows, want 2", len(history))
	}
	// Both rows commit in one transaction and share a timestamp; the order
	// reported must still be the order the transitions happened in.
	if history[0].ToStatus != appraisal.StatusSubmitted || history[1].ToStatus != appraisal.StatusSelfAssessment {
		t.Fatalf("history order = [%s, %s], want [%s, %s]",
			history[0].ToStatus, history[1].ToStatus, appraisal.StatusSubmitted, appraisal.StatusSelfAssessment)
	}

	if status := call(t, ts, alice, http.MethodPost, "/api/v1/appraisals/"+draft.ID+"/self-assessment",
		evaluationBody(goals, 4, "went well", 0, ""), &current); status != http.StatusOK {
		t.Fatalf("self assessment: status %d", status)
	}
	if current.Status != appraisal.StatusAppraiserEvaluation {
		t.Fatalf("after self assessment status = %s", current.Status)
	}

	if status := call(t, ts, bruno, http.MethodPost, "/api/v1/appraisals/"+draft.ID+"/appraiser-evaluation",
		evaluationBody(goals, 3, "solid delivery", 4, "strong year overall"), &current); status != http.StatusOK {
		t.Fatalf("appraiser evaluation: status %d", status)
	}
	if current.Status != appraisal.StatusReviewerEvaluation {
		t.Fatalf("after appraiser evaluation status = %s", current.Status)
	}

	// Mid-flight the appraisee must not see appraiser feedback.
	var redacted appraisal.Appraisal
	if status := call(t, ts, alice, http.MethodGet, "/api/v1/appraisals/"+draft.ID, nil, &redacted); status != http.StatusOK {
		t.Fatalf("get as appraisee: status %d", status)
	}
	if redacted.AppraiserOverall.Present() {
		t.Fatal("appraisee can see appraiser overall before completion")
	}
	for _, g := range redacted.Goals {
		if g.Appraiser.Present() {
			t.Fatalf("appraisee can see appraiser rating on goal %s", g.ID)
		}
	}

	if status := call(t, ts, chiara, http.MethodPost, "/api/v1/appraisals/"+draft.ID+"/reviewer-evaluation",
		map[string]any{"overall": map[string]any{"rating": 4, "comment": "agreed with the assessment"}}, &current); status != http.StatusOK {
		t.Fatalf("reviewer evaluation: status %d", status)
	}
	if current.Status != appraisal.StatusComplete {
		t.Fatalf("final status = %s, want %s", current.Status, appraisal.StatusComplete)
	}

	// Completion lifts the redaction.
	var final appraisal.Appraisal
	if status := call(t, ts, alice, http.MethodGet, "/api/v1/appraisals/"+draft.ID, nil, &final); status != http.StatusOK {
		t.Fatalf("get complete: status %d", status)
	}
	if !final.AppraiserOverall.Present() || !final.ReviewerOverall.Present() {
		t.Fatal("completed appraisal still hides overall evaluations")
	}

	if status := call(t, ts, alice, http.MethodGet, "/api/v1/appraisals/"+draft.ID+"/history", nil, &history); status != http.StatusOK {
		t.Fatalf("final history: status %d", status)
	}
	if len(history) != 5 {
		t.Fatalf("final history = %d rows, want 5", len(history))
	}
	wantOrder := []appraisal.Status{
		appraisal.StatusSubmitted,
		appraisal.StatusSelfAssessment,
		appraisal.StatusAppraiserEvaluation,
		appraisal.StatusReviewerEvaluation,
		appraisal.StatusComplete,
	}
	for i, want := range wantOrder {
		if history[i].ToStatus != want {
			t.Fatalf("history[%d].to = %s, want %s", i, history[i].ToStatus, want)
		}
	}

	resp := do(t, ts, alice, http.MethodGet, "/api/v1/appraisals/"+draft.ID+"/summary.pdf", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary pdf: status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("summary content type = %q", ct)
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func login(t *testing.T, ts *httptest.Server, email, password string) string {
	t.Helper()
	var out struct {
		Token string `json:"token"`
	}
	status := call(t, ts, "", http.MethodPost, "/api/v1/auth/login", map[string]string{"email": email, "password": password}, &out)
	if status != http.StatusOK {
		t.Fatalf("login %s: status %d", email, status)
	}
	if out.Token == "" {
		t.Fatalf("login %s: empty token", email)
	}
	return out.Token
}

func employeeID(t *testing.T, app *server.App, email string) string {
	t.Helper()
	var id string
	err := app.DB.QueryRow(context.Background(), `
    SELECT e.id FROM employees e
    JOIN users u ON e.user_id = u.id
    WHERE u.email = $1
  `, email).Scan(&id)
	if err != nil {
		t.Fatalf("employee lookup %s: %v", email, err)
	}
	return id
}

func do(t *testing.T, ts *httptest.Server, token, method, path string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// call performs a request, unwraps the response envelope and decodes data
// into out when both are non-nil.
func call(t *testing.T, ts *httptest.Server, token, method, path string, body, out any) int {
	t.Helper()
	resp := do(t, ts, token, method, path, body)
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: decode envelope: %v", method, path, err)
	}
	if out != nil && env.Data != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("%s %s: decode data: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func evaluationBody(goals []appraisal.Goal, rating int, comment string, overallRating int, overallComment string) map[string]any {
	evaluations := make([]map[string]any, 0, len(goals))
	for _, g := range goals {
		evaluations = append(evaluations, map[string]any{
			"goalId":  g.ID,
			"rating":  rating,
			"comment": fmt.Sprintf("%s (%s)", comment, g.Title),
		})
	}
	body := map[string]any{"evaluations": evaluations}
	if overallRating > 0 {
		body["overall"] = map[string]any{"rating": overallRating, "comment": overallComment}
	}
	return body
}
