package role

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/authz/internal/authz/catalog"
	"github.com/meridian-erp/authz/internal/platform/httpx"
)

// Handler manages role administration endpoints.
type Handler struct {
	logger   *slog.Logger
	store    *Store
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, store *Store) *Handler {
	return &Handler{logger: logger, store: store, validate: validator.New()}
}

// MountRoutes registers role administration routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listRoles)
	r.Get("/{id}", h.getRole)
	r.Post("/", h.upsertRole)
	r.Put("/{id}", h.upsertRole)
	r.Delete("/{id}", h.deleteRole)
}

type roleRequest struct {
	ID          string   `json:"id"`
	Name        string   `json:"name" validate:"required,max=120"`
	Description string   `json:"description" validate:"max=500"`
	Level       int      `json:"level" validate:"gte=0,lte=99"`
	Permissions []string `json:"permissions" validate:"dive,required"`
	IsCustom    bool     `json:"is_custom"`
	UpdatedBy   string   `json:"updated_by" validate:"max=120"`
}

type roleResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Level       int       `json:"level"`
	Permissions []string  `json:"permissions"`
	IsCustom    bool      `json:"is_custom"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
	UpdatedBy   string    `json:"updated_by,omitempty"`
}

// respondError maps role store errors to problem responses.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInUse):
		httpx.Problem(w, http.StatusConflict, "Role In Use", err.Error())
	case errors.Is(err, ErrDuplicateLevel):
		httpx.Problem(w, http.StatusConflict, "Duplicate Role Level", err.Error())
	case errors.Is(err, ErrInvalidPermissionRef):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Permission Reference", err.Error())
	case errors.Is(err, ErrSystemRole):
		httpx.Problem(w, http.StatusForbidden, "System Role", err.Error())
	default:
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	out := make([]roleResponse, len(roles))
	for i, rl := range roles {
		out[i] = toResponse(rl)
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rl, found, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get role", slog.String("role", id), slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	if !found {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "role "+id+" does not exist")
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(rl))
}

func (h *Handler) upsertRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		req.ID = id
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	perms := make([]catalog.ID, len(req.Permissions))
	for i, p := range req.Permissions {
		perms[i] = catalog.ID(p)
	}
	saved, err := h.store.Upsert(r.Context(), Role{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Level:       req.Level,
		Permissions: perms,
		IsCustom:    req.IsCustom,
		CreatedBy:   req.UpdatedBy,
		UpdatedBy:   req.UpdatedBy,
	})
	if err != nil {
		h.logger.Error("upsert role", slog.String("role", req.ID), slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(saved))
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	reassignTo := r.URL.Query().Get("reassign_to")
	if err := h.store.Delete(r.Context(), id, reassignTo); err != nil {
		h.logger.Error("delete role", slog.String("role", id), slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toResponse(rl Role) roleResponse {
	perms := make([]string, len(rl.Permissions))
	for i, p := range rl.Permissions {
		perms[i] = string(p)
	}
	return roleResponse{
		ID:          rl.ID,
		Name:        rl.Name,
		Description: rl.Description,
		Level:       rl.Level,
		Permissions: perms,
		IsCustom:    rl.IsCustom,
		CreatedAt:   rl.CreatedAt,
		CreatedBy:   rl.CreatedBy,
		UpdatedAt:   rl.UpdatedAt,
		UpdatedBy:   rl.UpdatedBy,
	}
}
