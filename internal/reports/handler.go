package reports

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/keystone-crm/keystone-crm/internal/platform/httpx"
	"github.com/keystone-crm/keystone-crm/internal/shared"
)

// Handler manages report HTTP endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler creates a new handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(shared.RequireRole(shared.RoleManager, shared.RoleFinance))
		r.Get("/dashboard", h.dashboard)
	})
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	dash, err := h.service.Dashboard(r.Context(), from, to)
	if err != nil {
		h.logger.Error("dashboard failed", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	httpx.JSON(w, http.StatusOK, dash)
}

// parseWindow reads the collection window, defaulting to the last 30
// days ending today.
func parseWindow(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()

	now := time.Now().UTC()
	to := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 999000000, time.UTC)
	from := to.AddDate(0, 0, -30)

	if v := q.Get("from"); v != "" {
		parsed, err := time.Parse(dateLayout, v)
		if err != nil {
			return from, to, errors.New("from must be formatted YYYY-MM-DD")
		}
		from = parsed
	}
	if v := q.Get("to"); v != "" {
		parsed, err := time.Parse(dateLayout, v)
		if err != nil {
			return from, to, errors.New("to must be formatted YYYY-MM-DD")
		}
		to = parsed.AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	if to.Before(from) {
		return from, to, errors.New("to must not precede from")
	}
	return from, to, nil
}
