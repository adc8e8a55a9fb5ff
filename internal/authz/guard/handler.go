package guard

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/authz/internal/authz/catalog"
	"github.com/meridian-erp/authz/internal/authz/resolver"
	"github.com/meridian-erp/authz/internal/observability"
	"github.com/meridian-erp/authz/internal/platform/httpx"
)

// Handler serves guard decisions to in-process and sidecar callers.
type Handler struct {
	logger   *slog.Logger
	guard    *Guard
	metrics  *observability.Metrics
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, g *Guard, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, guard: g, metrics: metrics, validate: validator.New()}
}

// MountRoutes registers the decision route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.check)
}

type scopeRequest struct {
	Scope          string `json:"scope" validate:"required,oneof=all department own none"`
	ResourceOwner  string `json:"resource_owner"`
	SameDepartment bool   `json:"same_department"`
}

type checkRequest struct {
	ActorID      string        `json:"actor_id" validate:"required,max=120"`
	Permission   string        `json:"permission"`
	AnyOf        []string      `json:"any_of"`
	AllOf        []string      `json:"all_of"`
	MinLevel     *int          `json:"min_level"`
	RequireOwner bool          `json:"require_owner"`
	Scope        *scopeRequest `json:"scope"`
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	requirement := Requirement{
		Permission:   catalog.ID(req.Permission),
		AnyOf:        toIDs(req.AnyOf),
		AllOf:        toIDs(req.AllOf),
		MinLevel:     req.MinLevel,
		RequireOwner: req.RequireOwner,
	}
	if req.Scope != nil {
		requirement.Scope = &ScopeRule{
			Scope:          Scope(req.Scope.Scope),
			ResourceOwner:  req.Scope.ResourceOwner,
			SameDepartment: req.Scope.SameDepartment,
		}
	}

	decision, err := h.guard.Allow(r.Context(), req.ActorID, requirement)
	if err != nil {
		h.logger.Error("guard check", slog.String("actor", req.ActorID), slog.Any("error", err))
		if errors.Is(err, resolver.ErrActorNotFound) {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Actor Not Resolvable", err.Error())
			return
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	h.metrics.RecordDecision(decision.Allowed)
	httpx.JSON(w, http.StatusOK, decision)
}

func toIDs(raw []string) []catalog.ID {
	if len(raw) == 0 {
		return nil
	}
	ids := make([]catalog.ID, len(raw))
	for i, s := range raw {
		ids[i] = catalog.ID(s)
	}
	return ids
}
