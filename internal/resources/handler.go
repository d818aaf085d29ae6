package resources

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/academe-hq/academe/internal/platform/httpx"
	"github.com/academe-hq/academe/internal/rbac"
	"github.com/academe-hq/academe/internal/shared"
)

// Handler wires HTTP endpoints for resource management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers resource routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
}

type createResourceRequest struct {
	Name        string         `json:"name" validate:"required"`
	SchoolID    string         `json:"schoolId" validate:"omitempty,uuid4"`
	ClassroomID string         `json:"classroomId" validate:"omitempty,uuid4"`
	IsActive    *bool          `json:"isActive"`
	Quantity    int            `json:"quantity"`
	Description string         `json:"description"`
	ExtraData   map[string]any `json:"extraData"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createResourceRequest
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
	classroomID, err := optionalUUID(req.ClassroomID, "invalid classroom id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	res, err := h.service.Create(r.Context(), rbac.FromContext(r.Context()), CreateInput{
		Name:        req.Name,
		SchoolID:    schoolID,
		ClassroomID: classroomID,
		IsActive:    req.IsActive,
		Quantity:    req.Quantity,
		Description: req.Description,
		ExtraData:   req.ExtraData,
	})
	if err != nil {
		h.respondError(w, "create resource", err)
		return
	}
	httpx.Created(w, res)
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
	unassigned, _ := strconv.ParseBool(query.Get("unassigned"))

	list, err := h.service.List(r.Context(), rbac.FromContext(r.Context()), ListInput{
		SchoolID:    schoolID,
		ClassroomID: classroomID,
		Unassigned:  unassigned,
	})
	if err != nil {
		h.respondError(w, "list resources", err)
		return
	}
	if list == nil {
		list = []Resource{}
	}
	httpx.OK(w, list)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.InvalidID("invalid resource id"))
		return
	}
	res, err := h.service.Get(r.Context(), rbac.FromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, "get resource", err)
		return
	}
	httpx.OK(w, res)
}

type updateResourceRequest struct {
	Name *string `json:"name"`
	// ClassroomID distinguishes absent (unchanged), empty string (unassign)
	// and a UUID (reassign).
	ClassroomID *string        `json:"classroomId"`
	IsActive    *bool          `json:"isActive"`
	Quantity    *int           `json:"quantity"`
	Description *string        `json:"description"`
	ExtraData   map[string]any `json:"extraData"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.InvalidID("invalid resource id"))
		return
	}
	var req updateResourceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("invalid request body"))
		return
	}

	input := UpdateInput{
		Name:        req.Name,
		IsActive:    req.IsActive,
		Quantity:    req.Quantity,
		Description: req.Description,
		ExtraData:   req.ExtraData,
	}
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

	res, err := h.service.Update(r.Context(), rbac.FromContext(r.Context()), id, input)
	if err != nil {
		h.respondError(w, "update resource", err)
		return
	}
	httpx.OK(w, res)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.InvalidID("invalid resource id"))
		return
	}
	if err := h.service.Delete(r.Context(), rbac.FromContext(r.Context()), id); err != nil {
		h.respondError(w, "delete resource", err)
		return
	}
	httpx.OK(w, map[string]string{"message": "resource deleted"})
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
