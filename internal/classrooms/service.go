package classrooms

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/academe-hq/academe/internal/rbac"
	"github.com/academe-hq/academe/internal/shared"
)

// Service wraps classroom business rules.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ResolveSchoolID picks the target school: an explicit ID wins, otherwise it
// is inferred when the caller belongs to exactly one school.
func ResolveSchoolID(auth *rbac.AuthContext, explicit *uuid.UUID) (uuid.UUID, error) {
	if explicit != nil && *explicit != uuid.Nil {
		return *explicit, nil
	}
	if auth != nil {
		if id, ok := auth.SoleSchoolID(); ok {
			return id, nil
		}
	}
	return uuid.Nil, shared.Validation("schoolId is required")
}

// CreateInput carries the fields for a new classroom.
type CreateInput struct {
	Name      string
	SchoolID  *uuid.UUID
	Capacity  *int
	Resources []string
}

// Create adds a classroom to a school.
func (s *Service) Create(ctx context.Context, auth *rbac.AuthContext, input CreateInput) (Classroom, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return Classroom{}, shared.Validation("name is required")
	}
	schoolID, err := ResolveSchoolID(auth, input.SchoolID)
	if err != nil {
		return Classroom{}, err
	}
	if !rbac.HasPermission(auth, schoolID, "classroom:create") {
		return Classroom{}, shared.PermissionDenied()
	}

	capacity := DefaultCapacity
	if input.Capacity != nil {
		if *input.Capacity <= 0 {
			return Classroom{}, shared.Validation("capacity must be positive")
		}
		capacity = *input.Capacity
	}
	if input.Resources == nil {
		input.Resources = []string{}
	}

	return s.repo.Create(ctx, Classroom{
		Name:      input.Name,
		SchoolID:  schoolID,
		Capacity:  capacity,
		Resources: input.Resources,
	})
}

// Get fetches one classroom.
func (s *Service) Get(ctx context.Context, auth *rbac.AuthContext, id uuid.UUID) (Classroom, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Classroom{}, err
	}
	if !rbac.HasPermission(auth, c.SchoolID, "classroom:read") {
		return Classroom{}, shared.PermissionDenied()
	}
	return c, nil
}

// List returns a school's classrooms.
func (s *Service) List(ctx context.Context, auth *rbac.AuthContext, schoolID *uuid.UUID) ([]Classroom, error) {
	id, err := ResolveSchoolID(auth, schoolID)
	if err != nil {
		return nil, err
	}
	if !rbac.HasPermission(auth, id, "classroom:read") {
		return nil, shared.PermissionDenied()
	}
	return s.repo.ListBySchool(ctx, id)
}

// UpdateInput carries the mutable classroom fields. Nil means "leave
// unchanged".
type UpdateInput struct {
	Name      *string
	Capacity  *int
	Resources []string
}

// Update modifies a classroom. Renames re-check per-school uniqueness.
func (s *Service) Update(ctx context.Context, auth *rbac.AuthContext, id uuid.UUID, input UpdateInput) (Classroom, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Classroom{}, err
	}
	if !rbac.HasPermission(auth, c.SchoolID, "classroom:update") {
		return Classroom{}, shared.PermissionDenied()
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return Classroom{}, shared.Validation("name is required")
		}
		c.Name = name
	}
	if input.Capacity != nil {
		if *input.Capacity <= 0 {
			return Classroom{}, shared.Validation("capacity must be positive")
		}
		c.Capacity = *input.Capacity
	}
	if input.Resources != nil {
		c.Resources = input.Resources
	}
	return s.repo.Update(ctx, c)
}

// Delete removes a classroom, unassigning its students and deleting its
// resources in the same transaction.
func (s *Service) Delete(ctx context.Context, auth *rbac.AuthContext, id uuid.UUID) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !rbac.HasPermission(auth, c.SchoolID, "classroom:delete") {
		return shared.PermissionDenied()
	}
	return s.repo.DeleteCascade(ctx, id)
}
