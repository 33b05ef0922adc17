package training

import (
	"context"
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

// Handler manages training session HTTP endpoints.
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

// MountRoutes registers training routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(shared.RequireActor)
		r.Get("/", h.list)
		r.Get("/{id}", h.getOne)
	})

	r.Group(func(r chi.Router) {
		r.Use(shared.RequireRole(shared.RoleTrainer, shared.RoleManager))
		r.Post("/", h.schedule)
		r.Put("/{id}", h.reschedule)
		r.Put("/{id}/complete", h.complete)
		r.Put("/{id}/cancel", h.cancel)
	})
}

const dateLayout = "2006-01-02"

// scheduleRequest is the JSON body for booking a session.
type scheduleRequest struct {
	SchoolName  string     `json:"school_name" validate:"required,max=300"`
	TrainerID   int64      `json:"trainer_id" validate:"required,gt=0"`
	Topic       *string    `json:"topic,omitempty" validate:"omitempty,max=300"`
	ScheduledAt *time.Time `json:"scheduled_at" validate:"required"`
	Notes       *string    `json:"notes,omitempty"`
	OrderID     *int64     `json:"order_id,omitempty" validate:"omitempty,gt=0"`
}

// rescheduleRequest is a field merge on an open session.
type rescheduleRequest struct {
	TrainerID   *int64     `json:"trainer_id,omitempty" validate:"omitempty,gt=0"`
	Topic       *string    `json:"topic,omitempty" validate:"omitempty,max=300"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

// closeRequest optionally annotates a completion or cancellation.
type closeRequest struct {
	Notes *string `json:"notes,omitempty"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	sessions, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondError(w, "list sessions", err)
		return
	}
	if sessions == nil {
		sessions = []Session{}
	}

	httpx.JSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"total":    total,
		"limit":    req.Limit,
		"offset":   req.Offset,
	})
}

func (h *Handler) getOne(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	session, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get session", err)
		return
	}

	httpx.JSON(w, http.StatusOK, session)
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())

	var req scheduleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	session, err := h.service.Schedule(r.Context(), ScheduleInput{
		SchoolName:  req.SchoolName,
		TrainerID:   req.TrainerID,
		Topic:       req.Topic,
		ScheduledAt: req.ScheduledAt,
		Notes:       req.Notes,
		OrderID:     req.OrderID,
	}, actor)
	if err != nil {
		h.respondError(w, "schedule session", err)
		return
	}

	httpx.JSON(w, http.StatusCreated, session)
}

func (h *Handler) reschedule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())

	var req rescheduleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	session, err := h.service.Reschedule(r.Context(), id, RescheduleInput{
		TrainerID:   req.TrainerID,
		Topic:       req.Topic,
		ScheduledAt: req.ScheduledAt,
		Notes:       req.Notes,
	}, actor)
	if err != nil {
		h.respondError(w, "reschedule session", err)
		return
	}

	httpx.JSON(w, http.StatusOK, session)
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	h.close(w, r, h.service.Complete)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.close(w, r, h.service.Cancel)
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int64, notes *string, actor shared.Actor) (*Session, error)) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())

	var req closeRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	session, err := fn(r.Context(), id, req.Notes, actor)
	if err != nil {
		h.respondError(w, "close session", err)
		return
	}

	httpx.JSON(w, http.StatusOK, session)
}

func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Error(w, http.StatusBadRequest, "invalid session id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Error(w, http.StatusNotFound, "session not found")
	case errors.Is(err, ErrIllegalTransition):
		httpx.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrSchoolRequired),
		errors.Is(err, ErrTrainerRequired),
		errors.Is(err, ErrScheduleRequired):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(op+" failed", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, err.Error())
	}
}

func parseListRequest(r *http.Request) (ListRequest, error) {
	q := r.URL.Query()
	var req ListRequest

	if v := q.Get("status"); v != "" {
		status := Status(v)
		req.Status = &status
	}
	if v := q.Get("trainer_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return req, errors.New("trainer_id must be a positive integer")
		}
		req.TrainerID = &id
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
