package schools

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

// Handler wires HTTP endpoints for school management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers school routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
	r.Get("/{id}/members", h.members)
	r.Post("/{id}/members", h.addMember)
	r.Delete("/{id}/members/{userId}", h.removeMember)
}

type createSchoolRequest struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createSchoolRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validation("name is required"))
		return
	}

	school, err := h.service.Create(r.Context(), rbac.FromContext(r.Context()), CreateInput{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
	})
	if err != nil {
		h.respondError(w, "create school", err)
		return
	}
	httpx.Created(w, school)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context(), rbac.FromContext(r.Context()))
	if err != nil {
		h.respondError(w, "list schools", err)
		return
	}
	if list == nil {
		list = []School{}
	}
	httpx.OK(w, list)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.InvalidID("invalid school id"))
		return
	}
	school, err := h.service.Get(r.Context(), rbac.FromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, "get school", err)
		return
	}
	httpx.OK(w, school)
}

type updateSchoolRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.InvalidID("invalid school id"))
		return
	}
	var req updateSchoolRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("invalid request body"))
		return
	}

	school, err := h.service.Update(r.Context(), rbac.FromContext(r.Context()), id, UpdateInput{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
	})
	if err != nil {
		h.respondError(w, "update school", err)
		return
	}
	httpx.OK(w, school)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.InvalidID("invalid school id"))
		return
	}
	if err := h.service.Delete(r.Context(), rbac.FromContext(r.Context()), id); err != nil {
		h.respondError(w, "delete school", err)
		return
	}
	httpx.OK(w, map[string]string{"message": "school deleted"})
}

func (h *Handler) members(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.InvalidID("invalid school id"))
		return
	}
	list, err := h.service.Members(r.Context(), rbac.FromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, "list members", err)
		return
	}
	httpx.OK(w, list)
}

type addMemberRequest struct {
	UserID string `json:"userId" validate:"required,uuid4"`
	RoleID string `json:"roleId" validate:"required,uuid4"`
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	schoolID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.InvalidID("invalid school id"))
		return
	}
	var req addMemberRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validation("userId and roleId are required"))
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		httpx.RespondError(w, shared.InvalidID("invalid user id"))
		return
	}
	roleID, err := uuid.Parse(req.RoleID)
	if err != nil {
		httpx.RespondError(w, shared.InvalidID("invalid role id"))
		return
	}

	m, err := h.service.AddMember(r.Context(), rbac.FromContext(r.Context()), schoolID, userID, roleID)
	if err != nil {
		h.respondError(w, "add member", err)
		return
	}
	httpx.Created(w, m)
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	schoolID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.InvalidID("invalid school id"))
		return
	}
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		httpx.RespondError(w, shared.InvalidID("invalid user id"))
		return
	}
	if err := h.service.RemoveMember(r.Context(), rbac.FromContext(r.Context()), schoolID, userID); err != nil {
		h.respondError(w, "remove member", err)
		return
	}
	httpx.OK(w, map[string]string{"message": "member removed"})
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if shared.KindOf(err) == shared.KindInternal {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
