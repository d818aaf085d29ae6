package schools

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/academe-hq/academe/internal/memberships"
	"github.com/academe-hq/academe/internal/rbac"
	"github.com/academe-hq/academe/internal/roles"
	"github.com/academe-hq/academe/internal/shared"
)

// RoleGetter looks up a role when adding a member.
type RoleGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (roles.Role, error)
}

// Invalidator evicts cached auth contexts for users affected by school
// mutations.
type Invalidator interface {
	InvalidateUser(ctx context.Context, userID uuid.UUID)
}

// Service wraps school business rules.
type Service struct {
	repo        RepositoryPort
	memberships *memberships.Service
	roles       RoleGetter
	invalidator Invalidator
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, memberships *memberships.Service, roles RoleGetter, invalidator Invalidator) *Service {
	return &Service{repo: repo, memberships: memberships, roles: roles, invalidator: invalidator}
}

// CreateInput carries the fields for a new school.
type CreateInput struct {
	Name    string
	Address string
	Phone   string
}

// Create registers a school. Any authenticated user may create one and
// becomes its owner in the same transaction.
func (s *Service) Create(ctx context.Context, auth *rbac.AuthContext, input CreateInput) (School, error) {
	if auth == nil {
		return School{}, shared.Unauthorized("authentication required")
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return School{}, shared.Validation("name is required")
	}

	school, err := s.repo.CreateWithOwner(ctx, School{
		Name:    input.Name,
		Address: input.Address,
		Phone:   input.Phone,
	}, auth.UserID)
	if err != nil {
		return School{}, err
	}

	// The creator gained an owner grant; their cached context is stale.
	s.invalidator.InvalidateUser(ctx, auth.UserID)
	return school, nil
}

// Get fetches one school.
func (s *Service) Get(ctx context.Context, auth *rbac.AuthContext, id uuid.UUID) (School, error) {
	if !rbac.HasPermission(auth, id, "school:read") {
		return School{}, shared.PermissionDenied()
	}
	return s.repo.GetByID(ctx, id)
}

// List returns every school for supers, otherwise the caller's schools.
func (s *Service) List(ctx context.Context, auth *rbac.AuthContext) ([]School, error) {
	if auth == nil {
		return nil, shared.Unauthorized("authentication required")
	}
	if auth.IsSuper {
		return s.repo.ListAll(ctx)
	}
	return s.repo.ListByIDs(ctx, auth.SchoolIDs())
}

// UpdateInput carries the mutable school fields. Nil means "leave unchanged".
type UpdateInput struct {
	Name    *string
	Address *string
	Phone   *string
}

// Update modifies a school.
func (s *Service) Update(ctx context.Context, auth *rbac.AuthContext, id uuid.UUID, input UpdateInput) (School, error) {
	if !rbac.HasPermission(auth, id, "school:update") {
		return School{}, shared.PermissionDenied()
	}
	school, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return School{}, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return School{}, shared.Validation("name is required")
		}
		school.Name = name
	}
	if input.Address != nil {
		school.Address = *input.Address
	}
	if input.Phone != nil {
		school.Phone = *input.Phone
	}
	return s.repo.Update(ctx, school)
}

// Delete removes a school and everything it owns, then invalidates every
// former member's cached context.
func (s *Service) Delete(ctx context.Context, auth *rbac.AuthContext, id uuid.UUID) error {
	if !rbac.HasPermission(auth, id, "school:delete") {
		return shared.PermissionDenied()
	}
	userIDs, err := s.repo.DeleteCascade(ctx, id)
	if err != nil {
		return err
	}
	for _, userID := range userIDs {
		s.invalidator.InvalidateUser(ctx, userID)
	}
	return nil
}

// AddMember grants userID a role in the school. The role must belong to the
// school (or be its system owner role).
func (s *Service) AddMember(ctx context.Context, auth *rbac.AuthContext, schoolID, userID, roleID uuid.UUID) (memberships.Membership, error) {
	if !rbac.HasPermission(auth, schoolID, "school:manage_members") {
		return memberships.Membership{}, shared.PermissionDenied()
	}
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return memberships.Membership{}, err
	}
	if role.SchoolID == nil || *role.SchoolID != schoolID {
		return memberships.Membership{}, shared.Validation("role does not belong to this school")
	}
	return s.memberships.Create(ctx, userID, schoolID, roleID)
}

// RemoveMember revokes userID's membership. Removing yourself is forbidden so
// a school can never silently lose its last administrator.
func (s *Service) RemoveMember(ctx context.Context, auth *rbac.AuthContext, schoolID, userID uuid.UUID) error {
	if !rbac.HasPermission(auth, schoolID, "school:manage_members") {
		return shared.PermissionDenied()
	}
	if auth != nil && auth.UserID == userID {
		return shared.Validation("cannot remove yourself from the school")
	}
	return s.memberships.Remove(ctx, userID, schoolID)
}

// Members returns the school roster.
func (s *Service) Members(ctx context.Context, auth *rbac.AuthContext, schoolID uuid.UUID) ([]memberships.Member, error) {
	if !rbac.HasPermission(auth, schoolID, "school:read") {
		return nil, shared.PermissionDenied()
	}
	return s.memberships.GetSchoolMembers(ctx, schoolID)
}
