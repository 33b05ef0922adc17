package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/keystone-crm/keystone-crm/internal/dc"
	"github.com/keystone-crm/keystone-crm/internal/expenses"
	"github.com/keystone-crm/keystone-crm/internal/inventory"
	"github.com/keystone-crm/keystone-crm/internal/leads"
	"github.com/keystone-crm/keystone-crm/internal/metadata"
	"github.com/keystone-crm/keystone-crm/internal/observability"
	"github.com/keystone-crm/keystone-crm/internal/payments"
	"github.com/keystone-crm/keystone-crm/internal/reports"
	"github.com/keystone-crm/keystone-crm/internal/shared"
	"github.com/keystone-crm/keystone-crm/internal/training"
	"github.com/keystone-crm/keystone-crm/internal/users"
	"github.com/keystone-crm/keystone-crm/jobs"
)

// RouterParams collects every handler the API mounts.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	Metrics        *observability.Metrics

	DC        *dc.Handler
	Metadata  *metadata.Handler
	Leads     *leads.Handler
	Inventory *inventory.Handler
	Payments  *payments.Handler
	Expenses  *expenses.Handler
	Training  *training.Handler
	Reports   *reports.Handler
	Users     *users.Handler
	Jobs      *jobs.Handler
}

// NewRouter assembles the HTTP surface: middleware stack, the JSON API
// under /api, and the operational endpoints.
func NewRouter(p RouterParams) chi.Router {
	r := chi.NewRouter()
	r.Use(MiddlewareStack(MiddlewareConfig{
		Logger:         p.Logger,
		Config:         p.Config,
		SessionManager: p.SessionManager,
		Metrics:        p.Metrics,
	})...)

	r.Route("/api", func(api chi.Router) {
		api.Route("/dc-orders", p.DC.MountRoutes)
		api.Route("/metadata", p.Metadata.MountRoutes)
		api.Route("/leads", p.Leads.MountRoutes)
		api.Route("/inventory", p.Inventory.MountRoutes)
		api.Route("/payments", p.Payments.MountRoutes)
		api.Route("/expenses", p.Expenses.MountRoutes)
		api.Route("/training", p.Training.MountRoutes)
		api.Route("/reports", p.Reports.MountRoutes)
		api.Route("/users", p.Users.MountRoutes)
		if p.Jobs != nil {
			api.Route("/jobs", p.Jobs.MountRoutes)
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", p.Metrics.Handler())
	}

	return r
}
