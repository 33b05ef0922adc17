package leads

import (
	"github.com/go-chi/chi/v5"

	"github.com/keystone-crm/keystone-crm/internal/shared"
)

// MountRoutes registers lead routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(shared.RequireActor)
		r.Get("/", h.list)
		r.Get("/{id}", h.getOne)
	})

	r.Group(func(r chi.Router) {
		r.Use(shared.RequireRole(shared.RoleSales, shared.RoleManager))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Post("/{id}/convert", h.convert)
	})

	r.Group(func(r chi.Router) {
		r.Use(shared.RequireRole(shared.RoleManager))
		r.Delete("/{id}", h.remove)
	})
}
