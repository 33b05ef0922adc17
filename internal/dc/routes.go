package dc

import (
	"github.com/go-chi/chi/v5"

	"github.com/keystone-crm/keystone-crm/internal/shared"
)

// MountRoutes registers DC order routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(shared.RequireActor)
		r.Get("/", h.list)
		r.Get("/code/{dcCode}", h.getByCode)
		r.Get("/{id}", h.getOne)
	})

	r.Group(func(r chi.Router) {
		r.Use(shared.RequireRole(shared.RoleSales, shared.RoleManager))
		r.Post("/create", h.create)
		r.Put("/{id}", h.update)
		r.Put("/{id}/submit", h.submit)
	})

	r.Group(func(r chi.Router) {
		r.Use(shared.RequireRole(shared.RoleManager))
		r.Put("/{id}/assign", h.assign)
	})

	r.Group(func(r chi.Router) {
		r.Use(shared.RequireRole(shared.RoleWarehouse, shared.RoleManager))
		r.Put("/{id}/in-transit", h.markInTransit)
		r.Put("/{id}/complete", h.complete)
		r.Put("/{id}/hold", h.hold)
	})
}
