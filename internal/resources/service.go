package resources

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/academe-hq/academe/internal/classrooms"
	"github.com/academe-hq/academe/internal/rbac"
	"github.com/academe-hq/academe/internal/shared"
)

// ClassroomGetter verifies classroom references.
type ClassroomGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (classrooms.Classroom, error)
}

// Service wraps resource business rules.
type Service struct {
	repo       RepositoryPort
	classrooms ClassroomGetter
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, classrooms ClassroomGetter) *Service {
	return &Service{repo: repo, classrooms: classrooms}
}

// checkClassroom verifies the classroom exists and belongs to schoolID.
func (s *Service) checkClassroom(ctx context.Context, classroomID, schoolID uuid.UUID) error {
	c, err := s.classrooms.GetByID(ctx, classroomID)
	if err != nil {
		return err
	}
	if c.SchoolID != schoolID {
		return shared.Validation("classroom does not belong to this school")
	}
	return nil
}

// CreateInput carries the fields for a new resource.
type CreateInput struct {
	Name        string
	SchoolID    *uuid.UUID
	ClassroomID *uuid.UUID
	IsActive    *bool
	Quantity    int
	Description string
	ExtraData   map[string]any
}

// Create registers a resource, optionally assigned to a classroom of the
// same school.
func (s *Service) Create(ctx context.Context, auth *rbac.AuthContext, input CreateInput) (Resource, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return Resource{}, shared.Validation("name is required")
	}
	if input.Quantity < 0 {
		return Resource{}, shared.Validation("quantity must not be negative")
	}
	schoolID, err := classrooms.ResolveSchoolID(auth, input.SchoolID)
	if err != nil {
		return Resource{}, err
	}
	if !rbac.HasPermission(auth, schoolID, "resource:create") {
		return Resource{}, shared.PermissionDenied()
	}
	if input.ClassroomID != nil {
		if err := s.checkClassroom(ctx, *input.ClassroomID, schoolID); err != nil {
			return Resource{}, err
		}
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	return s.repo.Create(ctx, Resource{
		Name:        input.Name,
		SchoolID:    schoolID,
		ClassroomID: input.ClassroomID,
		IsActive:    isActive,
		Quantity:    input.Quantity,
		Description: input.Description,
		ExtraData:   input.ExtraData,
	})
}

// Get fetches one resource.
func (s *Service) Get(ctx context.Context, auth *rbac.AuthContext, id uuid.UUID) (Resource, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Resource{}, err
	}
	if !rbac.HasPermission(auth, res.SchoolID, "resource:read") {
		return Resource{}, shared.PermissionDenied()
	}
	return res, nil
}

// ListInput narrows a listing. Unassigned and ClassroomID are mutually
// exclusive.
type ListInput struct {
	SchoolID    *uuid.UUID
	ClassroomID *uuid.UUID
	Unassigned  bool
}

// List returns a school's resources, optionally narrowed to one classroom or
// to those not assigned anywhere.
func (s *Service) List(ctx context.Context, auth *rbac.AuthContext, input ListInput) ([]Resource, error) {
	if input.Unassigned && input.ClassroomID != nil {
		return nil, shared.Validation("classroomId and unassigned are mutually exclusive")
	}
	schoolID, err := classrooms.ResolveSchoolID(auth, input.SchoolID)
	if err != nil {
		return nil, err
	}
	if !rbac.HasPermission(auth, schoolID, "resource:read") {
		return nil, shared.PermissionDenied()
	}
	return s.repo.List(ctx, Filter{
		SchoolID:    schoolID,
		ClassroomID: input.ClassroomID,
		Unassigned:  input.Unassigned,
	})
}

// UpdateInput carries the mutable resource fields. Nil means "leave
// unchanged"; ClassroomSet with a nil ClassroomID unassigns.
type UpdateInput struct {
	Name         *string
	ClassroomID  *uuid.UUID
	ClassroomSet bool
	IsActive     *bool
	Quantity     *int
	Description  *string
	ExtraData    map[string]any
}

// Update modifies a resource.
func (s *Service) Update(ctx context.Context, auth *rbac.AuthContext, id uuid.UUID, input UpdateInput) (Resource, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Resource{}, err
	}
	if !rbac.HasPermission(auth, res.SchoolID, "resource:update") {
		return Resource{}, shared.PermissionDenied()
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return Resource{}, shared.Validation("name is required")
		}
		res.Name = name
	}
	if input.ClassroomSet {
		if input.ClassroomID != nil {
			if err := s.checkClassroom(ctx, *input.ClassroomID, res.SchoolID); err != nil {
				return Resource{}, err
			}
		}
		res.ClassroomID = input.ClassroomID
	}
	if input.IsActive != nil {
		res.IsActive = *input.IsActive
	}
	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return Resource{}, shared.Validation("quantity must not be negative")
		}
		res.Quantity = *input.Quantity
	}
	if input.Description != nil {
		res.Description = *input.Description
	}
	if input.ExtraData != nil {
		res.ExtraData = input.ExtraData
	}
	return s.repo.Update(ctx, res)
}

// Delete removes a resource.
func (s *Service) Delete(ctx context.Context, auth *rbac.AuthContext, id uuid.UUID) error {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !rbac.HasPermission(auth, res.SchoolID, "resource:delete") {
		return shared.PermissionDenied()
	}
	return s.repo.Delete(ctx, id)
}
