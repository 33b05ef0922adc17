package expenses

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/keystone-crm/keystone-crm/internal/platform/httpx"
	"github.com/keystone-crm/keystone-crm/internal/shared"
)

// Handler manages expense HTTP endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers expense routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(shared.RequireActor)
		r.Get("/", h.list)
		r.Get("/{id}", h.getOne)
		r.Post("/", h.submit)
	})

	r.Group(func(r chi.Router) {
		r.Use(shared.RequireRole(shared.RoleManager))
		r.Put("/{id}/manager-approve", h.managerApprove)
	})

	r.Group(func(r chi.Router) {
		r.Use(shared.RequireRole(shared.RoleFinance))
		r.Put("/{id}/approve", h.approve)
		r.Post("/approve-batch", h.approveBatch)
	})

	r.Group(func(r chi.Router) {
		r.Use(shared.RequireRole(shared.RoleManager, shared.RoleFinance))
		r.Put("/{id}/reject", h.reject)
	})
}

const dateLayout = "2006-01-02"

// submitRequest is the JSON body for a new claim.
type submitRequest struct {
	Category    string     `json:"category" validate:"required,max=100"`
	Description *string    `json:"description,omitempty"`
	Amount      float64    `json:"amount" validate:"required,gt=0"`
	IncurredAt  *time.Time `json:"incurred_at,omitempty"`
	ReceiptURL  *string    `json:"receipt_url,omitempty" validate:"omitempty,url"`
	Notes       *string    `json:"notes,omitempty"`
}

// rejectRequest optionally explains the decision.
type rejectRequest struct {
	Notes *string `json:"notes,omitempty"`
}

// batchRequest names the claims finance settles together.
type batchRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	results, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondError(w, "list expenses", err)
		return
	}
	if results == nil {
		results = []Expense{}
	}

	httpx.JSON(w, http.StatusOK, map[string]interface{}{
		"expenses": results,
		"total":    total,
		"limit":    req.Limit,
		"offset":   req.Offset,
	})
}

func (h *Handler) getOne(w http.ResponseWriter, r *http.Request) {
	id, ok := h.expenseID(w, r)
	if !ok {
		return
	}

	expense, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get expense", err)
		return
	}

	httpx.JSON(w, http.StatusOK, expense)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())

	var req submitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	expense, err := h.service.Submit(r.Context(), SubmitInput{
		Category:    req.Category,
		Description: req.Description,
		Amount:      req.Amount,
		IncurredAt:  req.IncurredAt,
		ReceiptURL:  req.ReceiptURL,
		Notes:       req.Notes,
	}, actor)
	if err != nil {
		h.respondError(w, "submit expense", err)
		return
	}

	httpx.JSON(w, http.StatusCreated, expense)
}

func (h *Handler) managerApprove(w http.ResponseWriter, r *http.Request) {
	h.stageChange(w, r, func(id int64, actor shared.Actor) (*Expense, error) {
		return h.service.ManagerApprove(r.Context(), id, actor)
	})
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.stageChange(w, r, func(id int64, actor shared.Actor) (*Expense, error) {
		return h.service.Approve(r.Context(), id, actor)
	})
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.expenseID(w, r)
	if !ok {
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())

	var req rejectRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	expense, err := h.service.Reject(r.Context(), id, req.Notes, actor)
	if err != nil {
		h.respondError(w, "reject expense", err)
		return
	}

	httpx.JSON(w, http.StatusOK, expense)
}

func (h *Handler) approveBatch(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())

	var req batchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	results, err := h.service.ApproveBatch(r.Context(), req.IDs, actor)
	if err != nil {
		h.respondError(w, "approve batch", err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]interface{}{"expenses": results})
}

func (h *Handler) stageChange(w http.ResponseWriter, r *http.Request, fn func(int64, shared.Actor) (*Expense, error)) {
	id, ok := h.expenseID(w, r)
	if !ok {
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())

	expense, err := fn(id, actor)
	if err != nil {
		h.respondError(w, "expense stage change", err)
		return
	}

	httpx.JSON(w, http.StatusOK, expense)
}

func (h *Handler) expenseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Error(w, http.StatusBadRequest, "invalid expense id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Error(w, http.StatusNotFound, "expense not found")
	case errors.Is(err, ErrIllegalTransition):
		httpx.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrCategoryRequired),
		errors.Is(err, ErrInvalidStage),
		errors.Is(err, ErrEmptyBatch):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(op+" failed", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, err.Error())
	}
}

func parseListRequest(r *http.Request) (ListRequest, error) {
	q := r.URL.Query()
	var req ListRequest

	if v := q.Get("stage"); v != "" {
		stage := Stage(v)
		req.Stage = &stage
	}
	if v := q.Get("category"); v != "" {
		req.Category = &v
	}
	if v := q.Get("submitted_by"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return req, errors.New("submitted_by must be a positive integer")
		}
		req.SubmittedBy = &id
	}
	if v := q.Get("from"); v != "" {
		from, err := time.Parse(dateLayout, v)
		if err != nil {
			return req, errors.New("from must be formatted YYYY-MM-DD")
		}
		req.From = &from
	}
	if v := q.Get("to"); v != "" {
		to, err := time.Parse(dateLayout, v)
		if err != nil {
			return req, errors.New("to must be formatted YYYY-MM-DD")
		}
		end := to.AddDate(0, 0, 1).Add(-time.Millisecond)
		req.To = &end
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return req, errors.New("limit must be a non-negative integer")
		}
		req.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return req, errors.New("offset must be a non-negative integer")
		}
		req.Offset = offset
	}

	return req, nil
}
