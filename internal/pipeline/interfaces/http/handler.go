package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"octo-backend/internal/audit"
	"octo-backend/internal/pipeline/application"
	pipeline "octo-backend/internal/pipeline/domain"
)

const dateLayout = "2006-01-02"

// Handler serves pipeline fund, schedule and task endpoints.
type Handler struct {
	pipelines   *application.PipelineService
	schedules   *application.ScheduleService
	tasks       *application.TaskService
	auditLogger audit.Logger
	validate    *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(pipelines *application.PipelineService, schedules *application.ScheduleService, tasks *application.TaskService, auditLogger audit.Logger) (*Handler, error) {
	if pipelines == nil || schedules == nil || tasks == nil {
		return nil, errors.New("pipeline handler: nil service")
	}
	return &Handler{
		pipelines:   pipelines,
		schedules:   schedules,
		tasks:       tasks,
		auditLogger: auditLogger,
		validate:    validator.New(),
	}, nil
}

// ServeHTTP routes pipeline and task requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/pipeline":
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case strings.HasPrefix(r.URL.Path, "/api/v1/pipeline/"):
		h.routePipeline(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/tasks/"):
		h.routeTask(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) routePipeline(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/pipeline/")
	parts := strings.Split(path, "/")
	if len(parts) < 1 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	fundID := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, fundID)
		case http.MethodPatch:
			h.handleUpdate(w, r, fundID)
		case http.MethodDelete:
			h.handleDelete(w, r, fundID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	switch {
	case len(parts) == 2 && parts[1] == "schedule" && r.Method == http.MethodPost:
		h.handleGenerateSchedule(w, r, fundID)
	case len(parts) == 2 && parts[1] == "tasks" && r.Method == http.MethodGet:
		h.handleListTasks(w, r, fundID)
	case len(parts) == 2 && parts[1] == "tasks" && r.Method == http.MethodPost:
		h.handleCreateTask(w, r, fundID)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) routeTask(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/tasks/")
	parts := strings.Split(path, "/")
	if len(parts) < 1 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	taskID := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodPatch:
		h.handleEditTask(w, r, taskID)
	case len(parts) == 2 && parts[1] == "transition" && r.Method == http.MethodPost:
		h.handleTransition(w, r, taskID)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type createPipelineRequest struct {
	Name             string          `json:"name" validate:"required"`
	Manager          string          `json:"manager"`
	Strategy         string          `json:"strategy"`
	Currency         string          `json:"currency"`
	TargetCommitment decimal.Decimal `json:"target_commitment"`
	TargetClose      string          `json:"target_close"`
	Priority         string          `json:"priority"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createPipelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var targetClose time.Time
	if req.TargetClose != "" {
		parsed, err := time.Parse(dateLayout, req.TargetClose)
		if err != nil {
			http.Error(w, "invalid target_close", http.StatusBadRequest)
			return
		}
		targetClose = parsed
	}
	fund, err := h.pipelines.Create(r.Context(), application.PipelineFundInput{
		Name:             req.Name,
		Manager:          req.Manager,
		Strategy:         req.Strategy,
		Currency:         strings.ToUpper(req.Currency),
		TargetCommitment: req.TargetCommitment,
		TargetClose:      targetClose,
		Priority:         req.Priority,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, fund)
	h.logAudit(r, "pipeline.create", "pipeline_fund", fund.ID, req)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	funds, err := h.pipelines.List(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, funds)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, fundID string) {
	fund, err := h.pipelines.Get(r.Context(), fundID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, fund)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, fundID string) {
	var req struct {
		ReviewStatus *string `json:"review_status"`
		TargetClose  *string `json:"target_close"`
		Priority     *string `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	edit := application.PipelineFundEdit{
		ReviewStatus: req.ReviewStatus,
		Priority:     req.Priority,
	}
	if req.TargetClose != nil {
		parsed, err := time.Parse(dateLayout, *req.TargetClose)
		if err != nil {
			http.Error(w, "invalid target_close", http.StatusBadRequest)
			return
		}
		edit.TargetClose = &parsed
	}
	fund, err := h.pipelines.Update(r.Context(), fundID, edit)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, fund)
	h.logAudit(r, "pipeline.update", "pipeline_fund", fundID, req)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, fundID string) {
	if err := h.pipelines.Delete(r.Context(), fundID); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	h.logAudit(r, "pipeline.delete", "pipeline_fund", fundID, nil)
}

func (h *Handler) handleGenerateSchedule(w http.ResponseWriter, r *http.Request, fundID string) {
	var req struct {
		AnchorDate string `json:"anchor_date"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
	}
	tasks, err := h.schedules.Generate(r.Context(), fundID, req.AnchorDate)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, tasks)
	h.logAudit(r, "schedule.generate", "pipeline_fund", fundID, map[string]any{
		"anchor_date": req.AnchorDate,
		"task_count":  len(tasks),
	})
}

type createTaskRequest struct {
	Category  string `json:"category" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Assignee  string `json:"assignee"`
	StartDate string `json:"start_date" validate:"required"`
	DueDate   string `json:"due_date" validate:"required"`
	Priority  string `json:"priority"`
}

func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request, fundID string) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		http.Error(w, "invalid start_date", http.StatusBadRequest)
		return
	}
	dueDate, err := time.Parse(dateLayout, req.DueDate)
	if err != nil {
		http.Error(w, "invalid due_date", http.StatusBadRequest)
		return
	}
	task, err := h.tasks.Create(r.Context(), fundID, application.TaskInput{
		Category:  req.Category,
		Name:      req.Name,
		Assignee:  req.Assignee,
		StartDate: startDate,
		DueDate:   dueDate,
		Priority:  req.Priority,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, task)
	h.logAudit(r, "task.create", "task", task.ID, req)
}

func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request, fundID string) {
	status := r.URL.Query().Get("status")
	category := r.URL.Query().Get("category")
	tasks, err := h.tasks.List(r.Context(), fundID, status, category)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tasks)
}

func (h *Handler) handleEditTask(w http.ResponseWriter, r *http.Request, taskID string) {
	var req struct {
		StartDate *string `json:"start_date"`
		DueDate   *string `json:"due_date"`
		Assignee  *string `json:"assignee"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	edit := application.TaskEdit{Assignee: req.Assignee}
	if req.StartDate != nil {
		parsed, err := time.Parse(dateLayout, *req.StartDate)
		if err != nil {
			http.Error(w, "invalid start_date", http.StatusBadRequest)
			return
		}
		edit.StartDate = &parsed
	}
	if req.DueDate != nil {
		parsed, err := time.Parse(dateLayout, *req.DueDate)
		if err != nil {
			http.Error(w, "invalid due_date", http.StatusBadRequest)
			return
		}
		edit.DueDate = &parsed
	}
	task, err := h.tasks.Edit(r.Context(), taskID, edit)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
	h.logAudit(r, "task.edit", "task", taskID, req)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, taskID string) {
	var req struct {
		Status string `json:"status" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	task, err := h.tasks.Transition(r.Context(), taskID, req.Status)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
	h.logAudit(r, "task.transition", "task", taskID, req)
}

func (h *Handler) logAudit(r *http.Request, action, resourceType, resourceID string, payload any) {
	if h.auditLogger == nil {
		return
	}
	var metadata json.RawMessage
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			metadata = data
		}
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     metadata,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pipeline.ErrPipelineFundNotFound),
		errors.Is(err, pipeline.ErrTaskNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, pipeline.ErrInvalidAnchor),
		errors.Is(err, pipeline.ErrInvalidTransition),
		errors.Is(err, pipeline.ErrUnknownStatus),
		errors.Is(err, pipeline.ErrUnknownCategory),
		errors.Is(err, pipeline.ErrInvalidReviewStatus),
		errors.Is(err, pipeline.ErrNameRequired):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
