package dc

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/keystone-crm/keystone-crm/internal/observability"
	"github.com/keystone-crm/keystone-crm/internal/platform/httpx"
	"github.com/keystone-crm/keystone-crm/internal/shared"
)

// Handler manages DC order HTTP endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	metrics   *observability.Metrics
}

// NewHandler creates a new handler.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
		metrics:   metrics,
	}
}

const dateLayout = "2006-01-02"

// list handles GET /api/dc-orders
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	orders, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondError(w, "list orders", err)
		return
	}
	if orders == nil {
		orders = []WithDetails{}
	}

	httpx.JSON(w, http.StatusOK, ListResponse{
		Orders: orders,
		Total:  total,
		Limit:  req.Limit,
		Offset: req.Offset,
	})
}

// getOne handles GET /api/dc-orders/{id}
func (h *Handler) getOne(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get order", err)
		return
	}

	httpx.JSON(w, http.StatusOK, order)
}

// getByCode handles GET /api/dc-orders/code/{dcCode}
func (h *Handler) getByCode(w http.ResponseWriter, r *http.Request) {
	dcCode := chi.URLParam(r, "dcCode")
	if dcCode == "" {
		httpx.Error(w, http.StatusBadRequest, "dc code is required")
		return
	}

	order, err := h.service.GetByCode(r.Context(), dcCode)
	if err != nil {
		h.respondError(w, "get order by code", err)
		return
	}

	httpx.JSON(w, http.StatusOK, order)
}

// create handles POST /api/dc-orders/create
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

	order, err := h.service.Create(r.Context(), req, actor)
	if err != nil {
		h.respondError(w, "create order", err)
		return
	}

	httpx.JSON(w, http.StatusCreated, order)
}

// update handles PUT /api/dc-orders/{id}
func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
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

	order, err := h.service.Update(r.Context(), id, req, actor)
	if err != nil {
		h.respondError(w, "update order", err)
		return
	}

	httpx.JSON(w, http.StatusOK, order)
}

// assign handles PUT /api/dc-orders/{id}/assign
func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())

	var req AssignRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	order, err := h.service.Assign(r.Context(), id, req, actor)
	if err != nil {
		h.respondError(w, "assign order", err)
		return
	}

	httpx.JSON(w, http.StatusOK, order)
}

// submit handles PUT /api/dc-orders/{id}/submit
func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, "pending", func(id int64, actor shared.Actor) (*Order, error) {
		return h.service.Submit(r.Context(), id, actor)
	})
}

// markInTransit handles PUT /api/dc-orders/{id}/in-transit
func (h *Handler) markInTransit(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, "in_transit", func(id int64, actor shared.Actor) (*Order, error) {
		return h.service.MarkInTransit(r.Context(), id, actor)
	})
}

// complete handles PUT /api/dc-orders/{id}/complete
func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())

	var req CompleteRequest
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

	order, err := h.service.Complete(r.Context(), id, req, actor)
	if err != nil {
		h.observeTransition("completed", "rejected")
		h.respondError(w, "complete order", err)
		return
	}

	h.observeTransition("completed", "ok")
	httpx.JSON(w, http.StatusOK, order)
}

// hold handles PUT /api/dc-orders/{id}/hold
func (h *Handler) hold(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())

	var req HoldRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	order, err := h.service.Hold(r.Context(), id, req, actor)
	if err != nil {
		h.observeTransition("hold", "rejected")
		h.respondError(w, "hold order", err)
		return
	}

	h.observeTransition("hold", "ok")
	httpx.JSON(w, http.StatusOK, order)
}

// Helpers

func (h *Handler) lifecycle(w http.ResponseWriter, r *http.Request, target string, fn func(int64, shared.Actor) (*Order, error)) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())

	order, err := fn(id, actor)
	if err != nil {
		h.observeTransition(target, "rejected")
		h.respondError(w, "transition order", err)
		return
	}

	h.observeTransition(target, "ok")
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Error(w, http.StatusBadRequest, "invalid order id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Error(w, http.StatusNotFound, "DC not found")
	case errors.Is(err, ErrIllegalTransition):
		httpx.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrDuplicateCode):
		httpx.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrSchoolNameRequired),
		errors.Is(err, ErrNegativeQuantity),
		errors.Is(err, ErrNegativePrice),
		errors.Is(err, ErrInvalidGrade),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrAssigneeRequired):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(op+" failed", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) observeTransition(target, outcome string) {
	if h.metrics != nil {
		h.metrics.ObserveTransition(target, outcome)
	}
}

// parseListRequest builds the typed filter struct from query parameters.
// Malformed dates are rejected up front instead of flowing into the store
// as invalid bounds.
func parseListRequest(r *http.Request) (ListRequest, error) {
	q := r.URL.Query()
	var req ListRequest

	if v := q.Get("status"); v != "" {
		status := Status(v)
		req.Status = &status
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
	if v := q.Get("lead_status"); v != "" {
		grade := Grade(v)
		req.LeadStatus = &grade
	}
	if v := q.Get("q"); v != "" {
		req.Query = &v
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
		// Inclusive upper bound covering the whole day.
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
