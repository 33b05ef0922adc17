package metadata

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/keystone-crm/keystone-crm/internal/platform/httpx"
	"github.com/keystone-crm/keystone-crm/internal/shared"
)

// Handler serves the static catalog.
type Handler struct{}

// NewHandler creates a new handler.
func NewHandler() *Handler {
	return &Handler{}
}

// MountRoutes registers metadata routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(shared.RequireActor)
		r.Get("/", h.catalog)
		r.Get("/products", h.products)
		r.Get("/uoms", h.uoms)
		r.Get("/item-types", h.itemTypes)
		r.Get("/vendors", h.vendors)
	})
}

func (h *Handler) catalog(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, DefaultCatalog())
}

func (h *Handler) products(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, DefaultCatalog().Products)
}

func (h *Handler) uoms(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, DefaultCatalog().UOMs)
}

func (h *Handler) itemTypes(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, DefaultCatalog().ItemTypes)
}

func (h *Handler) vendors(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, DefaultCatalog().Vendors)
}
