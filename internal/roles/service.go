package roles

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/academe-hq/academe/internal/rbac"
	"github.com/academe-hq/academe/internal/shared"
)

// KeyValidator checks permission keys supplied in role definitions against
// the seeded registry.
type KeyValidator interface {
	ValidateRoleKey(raw string) error
}

// Invalidator evicts the cached auth contexts of every holder of a role.
type Invalidator interface {
	InvalidateRole(ctx context.Context, roleID uuid.UUID)
}

// Service wraps role business rules.
type Service struct {
	repo        RepositoryPort
	registry    KeyValidator
	invalidator Invalidator
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, registry KeyValidator, invalidator Invalidator) *Service {
	return &Service{repo: repo, registry: registry, invalidator: invalidator}
}

// Seed upserts the global superadmin role. Idempotent.
func (s *Service) Seed(ctx context.Context) error {
	return s.repo.UpsertSystem(ctx, Role{
		Name:        SuperadminRole,
		Description: "Full system access",
		Permissions: []string{"*:*"},
		SchoolID:    nil,
	})
}

// CreateInput carries the fields for a new tenant role.
type CreateInput struct {
	SchoolID    uuid.UUID
	Name        string
	Description string
	Permissions []string
}

// Create adds a tenant role to a school.
func (s *Service) Create(ctx context.Context, auth *rbac.AuthContext, input CreateInput) (Role, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return Role{}, shared.Validation("name is required")
	}
	if input.SchoolID == uuid.Nil {
		return Role{}, shared.Validation("schoolId is required")
	}
	if len(input.Permissions) == 0 {
		return Role{}, shared.Validation("permissions are required")
	}

	if !rbac.HasPermission(auth, input.SchoolID, "school:manage_roles") {
		return Role{}, shared.PermissionDenied()
	}

	for _, key := range input.Permissions {
		if err := s.registry.ValidateRoleKey(key); err != nil {
			return Role{}, err
		}
	}

	if _, exists, err := s.repo.FindByName(ctx, &input.SchoolID, input.Name); err != nil {
		return Role{}, err
	} else if exists {
		return Role{}, shared.Duplicate("role name already exists in this school")
	}

	return s.repo.Create(ctx, Role{
		Name:        input.Name,
		Description: input.Description,
		Permissions: input.Permissions,
		SchoolID:    &input.SchoolID,
	})
}

// UpdateInput carries the mutable role fields. Nil means "leave unchanged".
type UpdateInput struct {
	Name        *string
	Permissions []string
}

// Update modifies a tenant role. Changing the permission set invalidates
// every holder's cached context before the call returns.
func (s *Service) Update(ctx context.Context, auth *rbac.AuthContext, roleID uuid.UUID, input UpdateInput) (Role, error) {
	role, err := s.repo.GetByID(ctx, roleID)
	if err != nil {
		return Role{}, err
	}
	if role.IsSystem {
		return Role{}, shared.Validation("cannot modify system role")
	}
	if role.SchoolID == nil || !rbac.HasPermission(auth, *role.SchoolID, "school:manage_roles") {
		return Role{}, shared.PermissionDenied()
	}

	name := role.Name
	if input.Name != nil {
		name = strings.TrimSpace(*input.Name)
		if name == "" {
			return Role{}, shared.Validation("name is required")
		}
	}

	perms := role.Permissions
	permsChanged := false
	if input.Permissions != nil {
		for _, key := range input.Permissions {
			if err := s.registry.ValidateRoleKey(key); err != nil {
				return Role{}, err
			}
		}
		perms = input.Permissions
		permsChanged = true
	}

	updated, err := s.repo.Update(ctx, roleID, name, perms)
	if err != nil {
		return Role{}, err
	}

	if permsChanged {
		s.invalidator.InvalidateRole(ctx, roleID)
	}
	return updated, nil
}

// Delete removes a tenant role and cascades its memberships. The caller must
// not currently hold the role.
func (s *Service) Delete(ctx context.Context, auth *rbac.AuthContext, roleID uuid.UUID) error {
	role, err := s.repo.GetByID(ctx, roleID)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return shared.Validation("cannot delete system role")
	}
	if role.SchoolID == nil || !rbac.HasPermission(auth, *role.SchoolID, "school:manage_roles") {
		return shared.PermissionDenied()
	}

	assigned, err := s.repo.IsAssigned(ctx, auth.UserID, roleID)
	if err != nil {
		return err
	}
	if assigned {
		return shared.Validation("cannot delete a role you are currently assigned to")
	}

	s.invalidator.InvalidateRole(ctx, roleID)
	return s.repo.DeleteWithMemberships(ctx, roleID)
}

// ListBySchool returns a school's roles. Callers must be a member of the
// school or super.
func (s *Service) ListBySchool(ctx context.Context, auth *rbac.AuthContext, schoolID uuid.UUID) ([]Role, error) {
	if auth == nil || (!auth.IsSuper && auth.SchoolGrant(schoolID) == nil) {
		return nil, shared.PermissionDenied()
	}
	return s.repo.ListBySchool(ctx, schoolID)
}

// GetByID fetches a single role.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (Role, error) {
	return s.repo.GetByID(ctx, id)
}
