package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/authz/internal/platform/httpx"
)

// Handler serves the read-only permission catalog.
type Handler struct {
	catalog *Catalog
}

// NewHandler builds Handler instance.
func NewHandler(cat *Catalog) *Handler {
	return &Handler{catalog: cat}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listPermissions)
}

type permissionResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms := h.catalog.List()
	out := make([]permissionResponse, len(perms))
	for i, p := range perms {
		out[i] = permissionResponse{
			ID:          string(p.ID),
			Name:        p.Name,
			Description: p.Description,
			Category:    p.Category,
		}
	}
	httpx.JSON(w, http.StatusOK, out)
}
