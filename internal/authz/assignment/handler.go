package assignment

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/authz/internal/authz/role"
	"github.com/meridian-erp/authz/internal/platform/httpx"
)

// Reconciler repairs one actor's permission snapshot on demand.
type Reconciler interface {
	Reconcile(ctx context.Context, actorID string) (bool, error)
}

// Handler manages actor assignment endpoints.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	reconciler Reconciler
	validate   *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, reconciler Reconciler) *Handler {
	return &Handler{logger: logger, service: service, reconciler: reconciler, validate: validator.New()}
}

// MountRoutes registers assignment routes under /actors.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}/assignment", h.getAssignment)
	r.Put("/{id}/assignment", h.putAssignment)
	r.Delete("/{id}/assignment", h.deleteAssignment)
	r.Post("/{id}/reconcile", h.reconcile)
}

type assignmentRequest struct {
	RoleID    string     `json:"role_id" validate:"required,max=120"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type assignmentResponse struct {
	ActorID            string     `json:"actor_id"`
	RoleID             string     `json:"role_id"`
	AssignedAt         time.Time  `json:"assigned_at"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
	Expired            bool       `json:"expired"`
	PermissionSnapshot []string   `json:"permission_snapshot,omitempty"`
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, role.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) getAssignment(w http.ResponseWriter, r *http.Request) {
	actorID := chi.URLParam(r, "id")
	a, found, err := h.service.Get(r.Context(), actorID)
	if err != nil {
		h.logger.Error("get assignment", slog.String("actor", actorID), slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	if !found {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "actor "+actorID+" has no assignment")
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(a))
}

func (h *Handler) putAssignment(w http.ResponseWriter, r *http.Request) {
	actorID := chi.URLParam(r, "id")
	var req assignmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	a, err := h.service.Assign(r.Context(), actorID, req.RoleID, req.ExpiresAt)
	if err != nil {
		h.logger.Error("assign role", slog.String("actor", actorID), slog.String("role", req.RoleID), slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(a))
}

func (h *Handler) deleteAssignment(w http.ResponseWriter, r *http.Request) {
	actorID := chi.URLParam(r, "id")
	if err := h.service.Revoke(r.Context(), actorID); err != nil {
		h.logger.Error("revoke assignment", slog.String("actor", actorID), slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	actorID := chi.URLParam(r, "id")
	changed, err := h.reconciler.Reconcile(r.Context(), actorID)
	if err != nil {
		h.logger.Error("reconcile actor", slog.String("actor", actorID), slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"changed": changed})
}

func toResponse(a Assignment) assignmentResponse {
	var snapshot []string
	if a.PermissionSnapshot != nil {
		snapshot = make([]string, len(a.PermissionSnapshot))
		for i, p := range a.PermissionSnapshot {
			snapshot[i] = string(p)
		}
	}
	return assignmentResponse{
		ActorID:            a.ActorID,
		RoleID:             a.RoleID,
		AssignedAt:         a.AssignedAt,
		ExpiresAt:          a.ExpiresAt,
		Expired:            a.Expired(time.Now().UTC()),
		PermissionSnapshot: snapshot,
	}
}
