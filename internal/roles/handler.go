package roles

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/academe-hq/academe/internal/platform/httpx"
	"github.com/academe-hq/academe/internal/rbac"
	"github.com/academe-hq/academe/internal/shared"
)

// Handler wires HTTP endpoints for role management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers role routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
}

type createRoleRequest struct {
	SchoolID    string   `json:"schoolId" validate:"required,uuid4"`
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions" validate:"required,min=1"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validation("schoolId, name and permissions are required"))
		return
	}
	schoolID, err := uuid.Parse(req.SchoolID)
	if err != nil {
		httpx.RespondError(w, shared.InvalidID("invalid school id"))
		return
	}

	role, err := h.service.Create(r.Context(), rbac.FromContext(r.Context()), CreateInput{
		SchoolID:    schoolID,
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		h.respondError(w, "create role", err)
		return
	}
	httpx.Created(w, role)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	schoolID, err := uuid.Parse(r.URL.Query().Get("schoolId"))
	if err != nil {
		httpx.RespondError(w, shared.Validation("schoolId is required"))
		return
	}
	list, err := h.service.ListBySchool(r.Context(), rbac.FromContext(r.Context()), schoolID)
	if err != nil {
		h.respondError(w, "list roles", err)
		return
	}
	if list == nil {
		list = []Role{}
	}
	httpx.OK(w, list)
}

type updateRoleRequest struct {
	Name        *string  `json:"name"`
	Permissions []string `json:"permissions"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	roleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.InvalidID("invalid role id"))
		return
	}
	var req updateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("invalid request body"))
		return
	}

	role, err := h.service.Update(r.Context(), rbac.FromContext(r.Context()), roleID, UpdateInput{
		Name:        req.Name,
		Permissions: req.Permissions,
	})
	if err != nil {
		h.respondError(w, "update role", err)
		return
	}
	httpx.OK(w, role)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	roleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.InvalidID("invalid role id"))
		return
	}
	if err := h.service.Delete(r.Context(), rbac.FromContext(r.Context()), roleID); err != nil {
		h.respondError(w, "delete role", err)
		return
	}
	httpx.OK(w, map[string]string{"message": "role deleted"})
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if shared.KindOf(err) == shared.KindInternal {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
