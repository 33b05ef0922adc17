package leads

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/keystone-crm/keystone-crm/internal/dc"
	"github.com/keystone-crm/keystone-crm/internal/platform/httpx"
	"github.com/keystone-crm/keystone-crm/internal/shared"
)

// Handler manages lead HTTP endpoints.
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

const dateLayout = "2006-01-02"

// list handles GET /api/leads
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	results, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondError(w, "list leads", err)
		return
	}
	if results == nil {
		results = []Lead{}
	}

	httpx.JSON(w, http.StatusOK, ListResponse{
		Leads:  results,
		Total:  total,
		Limit:  req.Limit,
		Offset: req.Offset,
	})
}

// getOne handles GET /api/leads/{id}
func (h *Handler) getOne(w http.ResponseWriter, r *http.Request) {
	id, ok := h.leadID(w, r)
	if !ok {
		return
	}

	lead, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get lead", err)
		return
	}

	httpx.JSON(w, http.StatusOK, lead)
}

// create handles POST /api/leads
func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())

	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	lead, err := h.service.Create(r.Context(), req, actor)
	if err != nil {
		h.respondError(w, "create lead", err)
		return
	}

	httpx.JSON(w, http.StatusCreated, lead)
}

// update handles PUT /api/leads/{id}
func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.leadID(w, r)
	if !ok {
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())

	var req UpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	lead, err := h.service.Update(r.Context(), id, req, actor)
	if err != nil {
		h.respondError(w, "update lead", err)
		return
	}

	httpx.JSON(w, http.StatusOK, lead)
}

// remove handles DELETE /api/leads/{id}
func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.leadID(w, r)
	if !ok {
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())

	if err := h.service.Delete(r.Context(), id, actor); err != nil {
		h.respondError(w, "delete lead", err)
		return
	}

	httpx.JSON(w, http.StatusOK, httpx.Message{Message: "lead deleted"})
}

// convert handles POST /api/leads/{id}/convert
func (h *Handler) convert(w http.ResponseWriter, r *http.Request) {
	id, ok := h.leadID(w, r)
	if !ok {
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())

	var req ConvertRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := h.validator.Struct(req); err != nil {
			httpx.Error(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}

	order, err := h.service.Convert(r.Context(), id, req, actor)
	if err != nil {
		h.respondError(w, "convert lead", err)
		return
	}

	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) leadID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Error(w, http.StatusBadRequest, "invalid lead id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Error(w, http.StatusNotFound, "lead not found")
	case errors.Is(err, ErrAlreadyConverted):
		httpx.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrSchoolRequired), errors.Is(err, ErrInvalidStatus):
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
		grade := dc.Grade(v)
		req.Status = &grade
	}
	if v := q.Get("zone"); v != "" {
		req.Zone = &v
	}
	if v := q.Get("assigned_to"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return req, errors.New("assigned_to must be a positive integer")
		}
		req.AssignedTo = &id
	}
	if v := q.Get("q"); v != "" {
		req.Query = &v
	}
	if v := q.Get("due_before"); v != "" {
		due, err := time.Parse(dateLayout, v)
		if err != nil {
			return req, errors.New("due_before must be formatted YYYY-MM-DD")
		}
		end := due.AddDate(0, 0, 1).Add(-time.Millisecond)
		req.DueBefore = &end
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
