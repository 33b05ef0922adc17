package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/keystone-crm/keystone-crm/internal/platform/httpx"
	"github.com/keystone-crm/keystone-crm/internal/shared"
)

// Handler manages inventory HTTP endpoints.
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

// MountRoutes registers inventory routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(shared.RequireActor)
		r.Get("/stock", h.listStock)
		r.Get("/stock/{item}", h.getStock)
		r.Get("/stock/{item}/movements", h.movements)
	})

	r.Group(func(r chi.Router) {
		r.Use(shared.RequireRole(shared.RoleWarehouse, shared.RoleManager))
		r.Post("/receive", h.receive)
		r.Post("/issue", h.issue)
	})
}

// movementRequest is the JSON body for receive and issue.
type movementRequest struct {
	ItemName string  `json:"item_name" validate:"required,max=300"`
	Quantity float64 `json:"quantity" validate:"required,gt=0"`
	UOM      *string `json:"uom,omitempty" validate:"omitempty,max=30"`
	Ref      *string `json:"ref,omitempty" validate:"omitempty,max=100"`
	Note     *string `json:"note,omitempty"`
}

func (h *Handler) listStock(w http.ResponseWriter, r *http.Request) {
	stock, err := h.service.ListStock(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.respondError(w, "list stock", err)
		return
	}
	if stock == nil {
		stock = []Stock{}
	}
	httpx.JSON(w, http.StatusOK, stock)
}

func (h *Handler) getStock(w http.ResponseWriter, r *http.Request) {
	stock, err := h.service.GetStock(r.Context(), chi.URLParam(r, "item"))
	if err != nil {
		h.respondError(w, "get stock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, stock)
}

func (h *Handler) movements(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httpx.Error(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	movements, err := h.service.Movements(r.Context(), chi.URLParam(r, "item"), limit)
	if err != nil {
		h.respondError(w, "list movements", err)
		return
	}
	if movements == nil {
		movements = []Movement{}
	}
	httpx.JSON(w, http.StatusOK, movements)
}

func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())

	var req movementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	stock, err := h.service.Receive(r.Context(), ReceiveInput{
		ItemName: req.ItemName,
		Quantity: req.Quantity,
		UOM:      req.UOM,
		Ref:      req.Ref,
		Note:     req.Note,
		ActorID:  actor.ID,
	})
	if err != nil {
		h.respondError(w, "receive stock", err)
		return
	}

	httpx.JSON(w, http.StatusCreated, stock)
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())

	var req movementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	stock, err := h.service.Issue(r.Context(), IssueInput{
		ItemName: req.ItemName,
		Quantity: req.Quantity,
		Ref:      req.Ref,
		Note:     req.Note,
		ActorID:  actor.ID,
	})
	if err != nil {
		h.respondError(w, "issue stock", err)
		return
	}

	httpx.JSON(w, http.StatusCreated, stock)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrStockNotFound):
		httpx.Error(w, http.StatusNotFound, "stock not found")
	case errors.Is(err, ErrInsufficientStock):
		httpx.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrItemRequired), errors.Is(err, ErrInvalidQuantity):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(op+" failed", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, err.Error())
	}
}
