package classrooms

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

// Handler wires HTTP endpoints for classroom management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers classroom routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
}

type createClassroomRequest struct {
	Name      string   `json:"name" validate:"required"`
	SchoolID  string   `json:"schoolId" validate:"omitempty,uuid4"`
	Capacity  *int     `json:"capacity"`
	Resources []string `json:"resources"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createClassroomRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validation("name is required"))
		return
	}
	schoolID, err := optionalUUID(req.SchoolID, "invalid school id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	c, err := h.service.Create(r.Context(), rbac.FromContext(r.Context()), CreateInput{
		Name:      req.Name,
		SchoolID:  schoolID,
		Capacity:  req.Capacity,
		Resources: req.Resources,
	})
	if err != nil {
		h.respondError(w, "create classroom", err)
		return
	}
	httpx.Created(w, c)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	schoolID, err := optionalUUID(r.URL.Query().Get("schoolId"), "invalid school id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.List(r.Context(), rbac.FromContext(r.Context()), schoolID)
	if err != nil {
		h.respondError(w, "list classrooms", err)
		return
	}
	if list == nil {
		list = []Classroom{}
	}
	httpx.OK(w, list)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.InvalidID("invalid classroom id"))
		return
	}
	c, err := h.service.Get(r.Context(), rbac.FromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, "get classroom", err)
		return
	}
	httpx.OK(w, c)
}

type updateClassroomRequest struct {
	Name      *string  `json:"name"`
	Capacity  *int     `json:"capacity"`
	Resources []string `json:"resources"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.InvalidID("invalid classroom id"))
		return
	}
	var req updateClassroomRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("invalid request body"))
		return
	}

	c, err := h.service.Update(r.Context(), rbac.FromContext(r.Context()), id, UpdateInput{
		Name:      req.Name,
		Capacity:  req.Capacity,
		Resources: req.Resources,
	})
	if err != nil {
		h.respondError(w, "update classroom", err)
		return
	}
	httpx.OK(w, c)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.InvalidID("invalid classroom id"))
		return
	}
	if err := h.service.Delete(r.Context(), rbac.FromContext(r.Context()), id); err != nil {
		h.respondError(w, "delete classroom", err)
		return
	}
	httpx.OK(w, map[string]string{"message": "classroom deleted"})
}

// optionalUUID parses an optional ID field, distinguishing "absent" from
// "malformed".
func optionalUUID(raw, msg string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, shared.InvalidID("%s", msg)
	}
	return &id, nil
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if shared.KindOf(err) == shared.KindInternal {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
