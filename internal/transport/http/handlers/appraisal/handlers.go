package appraisalhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"appraisal/internal/domain/appraisal"
	"appraisal/internal/domain/audit"
	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/notifications"
	"appraisal/internal/domain/template"
	"appraisal/internal/platform/metrics"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

type Handler struct {
	Service   *appraisal.Service
	Templates *template.Store
	Perms     middleware.PermissionStore
	Notify    *notifications.Service
	Audit     *audit.Service
	Metrics   *metrics.Collector
}

func NewHandler(service *appraisal.Service, templates *template.Store, perms middleware.PermissionStore, notify *notifications.Service, auditSvc *audit.Service, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Templates: templates, Perms: perms, Notify: notify, Audit: auditSvc, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/appraisals", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAppraisalsWrite, h.Perms)).Post("/", h.handleCreateDraft)
		r.With(middleware.RequirePermission(auth.PermAppraisalsRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermAppraisalsRead, h.Perms)).Get("/{appraisalID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermAppraisalsWrite, h.Perms)).Delete("/{appraisalID}", h.handleDiscardDraft)
		r.With(middleware.RequirePermission(auth.PermAppraisalsRead, h.Perms)).Get("/{appraisalID}/history", h.handleHistory)
		r.With(middleware.RequirePermission(auth.PermAppraisalsRead, h.Perms)).Get("/{appraisalID}/summary.pdf", h.handleSummaryPDF)

		r.With(middleware.RequirePermission(auth.PermAppraisalsWrite, h.Perms)).Post("/{appraisalID}/goals", h.handleAddGoal)
		r.With(middleware.RequirePermission(auth.PermAppraisalsWrite, h.Perms)).Post("/{appraisalID}/goals/import", h.handleImportGoals)
		r.With(middleware.RequirePermission(auth.PermAppraisalsWrite, h.Perms)).Put("/{appraisalID}/goals/{goalID}", h.handleUpdateGoal)
		r.With(middleware.RequirePermission(auth.PermAppraisalsWrite, h.Perms)).Delete("/{appraisalID}/goals/{goalID}", h.handleRemoveGoal)

		r.With(middleware.RequirePermission(auth.PermAppraisalsWrite, h.Perms)).Post("/{appraisalID}/submit", h.handleSubmit)
		r.With(middleware.RequirePermission(auth.PermAppraisalsWrite, h.Perms)).Post("/{appraisalID}/self-assessment", h.handleSelfAssessment)
		r.With(middleware.RequirePermission(auth.PermAppraisalsEvaluate, h.Perms)).Post("/{appraisalID}/appraiser-evaluation", h.handleAppraiserEvaluation)
		r.With(middleware.RequirePermission(auth.PermAppraisalsFinalize, h.Perms)).Post("/{appraisalID}/reviewer-evaluation", h.handleReviewerEvaluation)
	})

	r.With(middleware.RequirePermission(auth.PermAppraisalsRead, h.Perms)).Get("/goal-templates", h.handleListTemplates)
}

// actorFrom resolves the authenticated user into a workflow actor. HR
// accounts keep tenant-wide read even without an employee record.
func (h *Handler) actorFrom(r *http.Request, user auth.UserContext) appraisal.Actor {
	actor := appraisal.Actor{UserID: user.UserID, HR: user.RoleName == auth.RoleHR}
	employeeID, err := h.Service.EmployeeIDByUserID(r.Context(), user.TenantID, user.UserID)
	if err != nil {
		slog.Warn("employee lookup failed", "err", err)
		return actor
	}
	actor.EmployeeID = employeeID
	return actor
}

// failDomain translates domain errors into the API error vocabulary.
func failDomain(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())

	var ve *appraisal.ValidationError
	if errors.As(err, &ve) {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: ve.Field, Reason: ve.Reason}})
		return
	}

	switch {
	case errors.Is(err, appraisal.ErrValidation):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, appraisal.ErrAuthorization):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	case errors.Is(err, appraisal.ErrNotFound), errors.Is(err, appraisal.ErrGoalNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, appraisal.ErrIncompleteEvaluation):
		api.Fail(w, http.StatusUnprocessableEntity, "incomplete_evaluation", err.Error(), requestID)
	case errors.Is(err, appraisal.ErrInvalidTransition):
		api.Fail(w, http.StatusConflict, "invalid_transition", err.Error(), requestID)
	case errors.Is(err, appraisal.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", err.Error(), requestID)
	case errors.Is(err, appraisal.ErrConflict):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), requestID)
	default:
		slog.Error("appraisal operation failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "operation failed", requestID)
	}
}

func (h *Handler) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		AppraiseeID string `json:"appraiseeId"`
		AppraiserID string `json:"appraiserId"`
		ReviewerID  string `json:"reviewerId"`
		Type        string `json:"type"`
		PeriodStart string `json:"periodStart"`
		PeriodEnd   string `json:"periodEnd"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("appraiseeId", payload.AppraiseeID, "appraisee id is required")
	v.Required("appraiserId", payload.AppraiserID, "appraiser id is required")
	v.Required("reviewerId", payload.ReviewerID, "reviewer id is required")
	start, _ := v.Date("periodStart", payload.PeriodStart)
	end, _ := v.Date("periodEnd", payload.PeriodEnd)
	v.DateOrder("periodStart", start, "periodEnd", end)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	actor := h.actorFrom(r, user)
	created, err := h.Service.CreateDraft(r.Context(), user.TenantID, actor, appraisal.CreateDraftInput{
		AppraiseeID: payload.AppraiseeID,
		AppraiserID: payload.AppraiserID,
		ReviewerID:  payload.ReviewerID,
		Type:        payload.Type,
		PeriodStart: start,
		PeriodEnd:   end,
	})
	if err != nil {
		failDomain(w, r, err)
		return
	}

	h.recordAudit(r, user, "appraisal.create", created.ID, nil, created)
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 20, 100)
	actor := h.actorFrom(r, user)
	items, total, err := h.Service.List(r.Context(), user.TenantID, actor, page.Limit, page.Offset)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	api.Success(w, map[string]any{"items": items, "total": total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	actor := h.actorFrom(r, user)
	a, err := h.Service.Get(r.Context(), user.TenantID, actor, chi.URLParam(r, "appraisalID"))
	if err != nil {
		failDomain(w, r, err)
		return
	}
	api.Success(w, a, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	actor := h.actorFrom(r, user)
	history, err := h.Service.History(r.Context(), user.TenantID, actor, chi.URLParam(r, "appraisalID"))
	if err != nil {
		failDomain(w, r, err)
		return
	}
	api.Success(w, history, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSummaryPDF(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	actor := h.actorFrom(r, user)
	pdf, err := h.Service.SummaryPDF(r.Context(), user.TenantID, actor, chi.URLParam(r, "appraisalID"))
	if err != nil {
		failDomain(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=appraisal-summary.pdf")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		slog.Warn("pdf write failed", "err", err)
	}
}

func (h *Handler) handleDiscardDraft(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	id := chi.URLParam(r, "appraisalID")
	actor := h.actorFrom(r, user)
	if err := h.Service.DiscardDraft(r.Context(), user.TenantID, actor, id); err != nil {
		failDomain(w, r, err)
		return
	}

	h.recordAudit(r, user, "appraisal.discard", id, nil, nil)
	api.Success(w, map[string]any{"id": id, "discarded": true}, middleware.GetRequestID(r.Context()))
}

type goalPayload struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Importance        string   `json:"importance"`
	PerformanceFactor string   `json:"performanceFactor"`
	Weightage         int      `json:"weightage"`
	Categories        []string `json:"categories"`
}

func (p goalPayload) fields() appraisal.GoalFields {
	return appraisal.GoalFields{
		Title:             p.Title,
		Description:       p.Description,
		Importance:        p.Importance,
		PerformanceFactor: p.PerformanceFactor,
		Weightage:         p.Weightage,
		Categories:        p.Categories,
	}
}

func (h *Handler) handleAddGoal(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload goalPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	actor := h.actorFrom(r, user)
	goal, err := h.Service.AddGoal(r.Context(), user.TenantID, actor, chi.URLParam(r, "appraisalID"), payload.fields())
	if err != nil {
		failDomain(w, r, err)
		return
	}

	h.recordAudit(r, user, "appraisal.goal.add", goal.AppraisalID, nil, goal)
	api.Created(w, goal, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleImportGoals(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		TemplateIDs []string `json:"templateIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	id := chi.URLParam(r, "appraisalID")
	actor := h.actorFrom(r, user)
	goals, err := h.Service.ImportTemplateGoals(r.Context(), user.TenantID, actor, id, payload.TemplateIDs)
	if err != nil {
		failDomain(w, r, err)
		return
	}

	h.recordAudit(r, user, "appraisal.goal.import", id, nil, payload.TemplateIDs)
	api.Created(w, goals, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload goalPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	actor := h.actorFrom(r, user)
	goal, err := h.Service.UpdateGoal(r.Context(), user.TenantID, actor, chi.URLParam(r, "appraisalID"), chi.URLParam(r, "goalID"), payload.fields())
	if err != nil {
		failDomain(w, r, err)
		return
	}

	h.recordAudit(r, user, "appraisal.goal.update", goal.AppraisalID, nil, goal)
	api.Success(w, goal, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRemoveGoal(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	id := chi.URLParam(r, "appraisalID")
	goalID := chi.URLParam(r, "goalID")
	actor := h.actorFrom(r, user)
	if err := h.Service.RemoveGoal(r.Context(), user.TenantID, actor, id, goalID); err != nil {
		failDomain(w, r, err)
		return
	}

	h.recordAudit(r, user, "appraisal.goal.remove", id, map[string]string{"goalId": goalID}, nil)
	api.Success(w, map[string]any{"id": goalID, "removed": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	actor := h.actorFrom(r, user)
	a, err := h.Service.Submit(r.Context(), user.TenantID, actor, chi.URLParam(r, "appraisalID"))
	if err != nil {
		failDomain(w, r, err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordTransition(string(a.Status))
	}
	h.recordAudit(r, user, "appraisal.submit", a.ID, nil, map[string]any{"status": a.Status})
	h.notifyEmployee(r, user.TenantID, a.AppraiseeID, notifications.TypeAppraisalSubmitted,
		"Appraisal submitted", "Your appraisal has been submitted and is ready for self assessment.")
	api.Success(w, a, middleware.GetRequestID(r.Context()))
}

type evaluationPayload struct {
	Evaluations []struct {
		GoalID  string `json:"goalId"`
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	} `json:"evaluations"`
	Overall struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	} `json:"overall"`
}

func (p evaluationPayload) writes() []appraisal.GoalEvaluation {
	out := make([]appraisal.GoalEvaluation, 0, len(p.Evaluations))
	for _, e := range p.Evaluations {
		out = append(out, appraisal.GoalEvaluation{GoalID: e.GoalID, Rating: e.Rating, Comment: e.Comment})
	}
	return out
}

func (h *Handler) handleSelfAssessment(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload evaluationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	actor := h.actorFrom(r, user)
	a, err := h.Service.SubmitSelfAssessment(r.Context(), user.TenantID, actor, chi.URLParam(r, "appraisalID"), payload.writes())
	if err != nil {
		failDomain(w, r, err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordTransition(string(a.Status))
	}
	h.recordAudit(r, user, "appraisal.self_assessment", a.ID, nil, map[string]any{"status": a.Status})
	h.notifyEmployee(r, user.TenantID, a.AppraiserID, notifications.TypeAppraiserEvaluationDue,
		"Appraisal ready for evaluation", "A self assessment is complete and waiting for your evaluation.")
	api.Success(w, a, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAppraiserEvaluation(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload evaluationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	actor := h.actorFrom(r, user)
	a, err := h.Service.SubmitAppraiserEvaluation(r.Context(), user.TenantID, actor, chi.URLParam(r, "appraisalID"),
		payload.writes(), appraisal.OverallInput{Rating: payload.Overall.Rating, Comment: payload.Overall.Comment})
	if err != nil {
		failDomain(w, r, err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordTransition(string(a.Status))
	}
	h.recordAudit(r, user, "appraisal.appraiser_evaluation", a.ID, nil, map[string]any{"status": a.Status})
	h.notifyEmployee(r, user.TenantID, a.ReviewerID, notifications.TypeReviewerEvaluationDue,
		"Appraisal ready for review", "An appraiser evaluation is complete and waiting for your review.")
	api.Success(w, a, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReviewerEvaluation(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload evaluationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	actor := h.actorFrom(r, user)
	a, err := h.Service.SubmitReviewerEvaluation(r.Context(), user.TenantID, actor, chi.URLParam(r, "appraisalID"),
		appraisal.OverallInput{Rating: payload.Overall.Rating, Comment: payload.Overall.Comment})
	if err != nil {
		failDomain(w, r, err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordTransition(string(a.Status))
	}
	h.recordAudit(r, user, "appraisal.reviewer_evaluation", a.ID, nil, map[string]any{"status": a.Status})
	h.notifyEmployee(r, user.TenantID, a.AppraiseeID, notifications.TypeAppraisalCompleted,
		"Appraisal complete", "Your appraisal has been finalized and the full record is now visible.")
	h.notifyEmployee(r, user.TenantID, a.AppraiserID, notifications.TypeAppraisalCompleted,
		"Appraisal complete", "An appraisal you evaluated has been finalized.")
	api.Success(w, a, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	templates, err := h.Templates.List(r.Context(), user.TenantID)
	if err != nil {
		slog.Error("goal template list failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "failed to list goal templates", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, templates, middleware.GetRequestID(r.Context()))
}

func (h *Handler) recordAudit(r *http.Request, user auth.UserContext, action, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, action, "appraisal", entityID,
		middleware.GetRequestID(r.Context()), r.RemoteAddr, before, after)
	if err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}

// notifyEmployee resolves an employee to their user account and drops a
// notification. Delivery problems never fail the request.
func (h *Handler) notifyEmployee(r *http.Request, tenantID, employeeID, ntype, title, body string) {
	if h.Notify == nil || employeeID == "" {
		return
	}
	userID, err := h.Service.EmployeeUserID(r.Context(), tenantID, employeeID)
	if err != nil {
		slog.Warn("notification target lookup failed", "err", err)
		return
	}
	if err := h.Notify.Create(r.Context(), tenantID, userID, ntype, title, body); err != nil {
		slog.Warn("notification create failed", "type", ntype, "err", err)
	}
}
