package payments

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

// Handler manages payment HTTP endpoints.
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

// MountRoutes registers payment routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(shared.RequireActor)
		r.Get("/order/{orderID}", h.orderSummary)
	})

	r.Group(func(r chi.Router) {
		r.Use(shared.RequireRole(shared.RoleFinance, shared.RoleManager))
		r.Post("/", h.record)
		r.Delete("/{id}", h.remove)
	})
}

// recordRequest is the JSON body for recording a payment.
type recordRequest struct {
	OrderID     int64      `json:"order_id" validate:"required,gt=0"`
	Amount      float64    `json:"amount" validate:"required,gt=0"`
	Mode        Mode       `json:"mode" validate:"required,oneof=cash cheque transfer upi"`
	ReferenceNo *string    `json:"reference_no,omitempty" validate:"omitempty,max=100"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())

	var req recordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	payment, err := h.service.Record(r.Context(), RecordInput{
		OrderID:     req.OrderID,
		Amount:      req.Amount,
		Mode:        req.Mode,
		ReferenceNo: req.ReferenceNo,
		PaidAt:      req.PaidAt,
		Notes:       req.Notes,
	}, actor)
	if err != nil {
		h.respondError(w, "record payment", err)
		return
	}

	httpx.JSON(w, http.StatusCreated, payment)
}

func (h *Handler) orderSummary(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil || orderID <= 0 {
		httpx.Error(w, http.StatusBadRequest, "invalid order id")
		return
	}

	summary, err := h.service.Summary(r.Context(), orderID)
	if err != nil {
		h.respondError(w, "order summary", err)
		return
	}

	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Error(w, http.StatusBadRequest, "invalid payment id")
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())

	if err := h.service.Remove(r.Context(), id, actor); err != nil {
		h.respondError(w, "delete payment", err)
		return
	}

	httpx.JSON(w, http.StatusOK, httpx.Message{Message: "payment deleted"})
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrOrderNotFound):
		httpx.Error(w, http.StatusNotFound, "DC not found")
	case errors.Is(err, ErrNotFound):
		httpx.Error(w, http.StatusNotFound, "payment not found")
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidMode):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(op+" failed", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, err.Error())
	}
}
