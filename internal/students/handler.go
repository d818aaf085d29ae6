package students

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

// Handler wires HTTP endpoints for student management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers student routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
	r.Post("/{id}/transfer", h.transfer)
}

type createStudentRequest struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
	SchoolID    string `json:"schoolId" validate:"omitempty,uuid4"`
	ClassroomID string `json:"classroomId" validate:"omitempty,uuid4"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createStudentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validation("name is required and email must be valid"))
		return
	}
	schoolID, err := optionalUUID(req.SchoolID, "invalid school id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	classroomID, err := optionalUUID(req.ClassroomID, "invalid classroom id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	st, err := h.service.Create(r.Context(), rbac.FromContext(r.Context()), CreateInput{
		Name:        req.Name,
		Email:       req.Email,
		SchoolID:    schoolID,
		ClassroomID: classroomID,
	})
	if err != nil {
		h.respondError(w, "create student", err)
		return
	}
	httpx.Created(w, st)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	schoolID, err := optionalUUID(query.Get("schoolId"), "invalid school id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	classroomID, err := optionalUUID(query.Get("classroomId"), "invalid classroom id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	page := shared.ParsePagination(query)
	result, err := h.service.List(r.Context(), rbac.FromContext(r.Context()), schoolID, classroomID, page)
	if err != nil {
		h.respondError(w, "list students", err)
		return
	}
	httpx.OK(w, result)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.InvalidID("invalid student id"))
		return
	}
	st, err := h.service.Get(r.Context(), rbac.FromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, "get student", err)
		return
	}
	httpx.OK(w, st)
}

type updateStudentRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email" validate:"omitempty,email"`
	// ClassroomID distinguishes three cases: absent (unchanged), empty
	// string (unassign) and a UUID (reassign).
	ClassroomID *string `json:"classroomId"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.InvalidID("invalid student id"))
		return
	}
	var req updateStudentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validation("email must be valid"))
		return
	}

	input := UpdateInput{Name: req.Name, Email: req.Email}
	if req.ClassroomID != nil {
		input.ClassroomSet = true
		if *req.ClassroomID != "" {
			classroomID, err := uuid.Parse(*req.ClassroomID)
			if err != nil {
				httpx.RespondError(w, shared.InvalidID("invalid classroom id"))
				return
			}
			input.ClassroomID = &classroomID
		}
	}

	st, err := h.service.Update(r.Context(), rbac.FromContext(r.Context()), id, input)
	if err != nil {
		h.respondError(w, "update student", err)
		return
	}
	httpx.OK(w, st)
}

type transferStudentRequest struct {
	TargetSchoolID    string `json:"targetSchoolId" validate:"required,uuid4"`
	TargetClassroomID string `json:"targetClassroomId" validate:"omitempty,uuid4"`
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.InvalidID("invalid student id"))
		return
	}
	var req transferStudentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validation("targetSchoolId is required"))
		return
	}
	targetSchoolID, err := uuid.Parse(req.TargetSchoolID)
	if err != nil {
		httpx.RespondError(w, shared.InvalidID("invalid target school id"))
		return
	}
	targetClassroomID, err := optionalUUID(req.TargetClassroomID, "invalid target classroom id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	st, err := h.service.Transfer(r.Context(), rbac.FromContext(r.Context()), id, targetSchoolID, targetClassroomID)
	if err != nil {
		h.respondError(w, "transfer student", err)
		return
	}
	httpx.OK(w, st)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.InvalidID("invalid student id"))
		return
	}
	if err := h.service.Delete(r.Context(), rbac.FromContext(r.Context()), id); err != nil {
		h.respondError(w, "delete student", err)
		return
	}
	httpx.OK(w, map[string]string{"message": "student deleted"})
}

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
