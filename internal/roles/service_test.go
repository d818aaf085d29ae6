package roles

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/academe-hq/academe/internal/rbac"
	"github.com/academe-hq/academe/internal/shared"
)

type memoryRoleRepo struct {
	roles       map[uuid.UUID]Role
	assignments map[uuid.UUID][]uuid.UUID // roleID -> userIDs
}

func newMemoryRoleRepo() *memoryRoleRepo {
	return &memoryRoleRepo{
		roles:       make(map[uuid.UUID]Role),
		assignments: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (r *memoryRoleRepo) Create(ctx context.Context, role Role) (Role, error) {
	if role.ID == uuid.Nil {
		role.ID = uuid.New()
	}
	r.roles[role.ID] = role
	return role, nil
}

func (r *memoryRoleRepo) GetByID(ctx context.Context, id uuid.UUID) (Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return Role{}, shared.NotFound("role not found")
	}
	return role, nil
}

func (r *memoryRoleRepo) FindByName(ctx context.Context, schoolID *uuid.UUID, name string) (Role, bool, error) {
	for _, role := range r.roles {
		if role.Name != name {
			continue
		}
		if schoolID == nil && role.SchoolID == nil {
			return role, true, nil
		}
		if schoolID != nil && role.SchoolID != nil && *role.SchoolID == *schoolID {
			return role, true, nil
		}
	}
	return Role{}, false, nil
}

func (r *memoryRoleRepo) Update(ctx context.Context, id uuid.UUID, name string, permissions []string) (Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return Role{}, shared.NotFound("role not found")
	}
	role.Name = name
	role.Permissions = permissions
	r.roles[id] = role
	return role, nil
}

func (r *memoryRoleRepo) DeleteWithMemberships(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.roles[id]; !ok {
		return shared.NotFound("role not found")
	}
	delete(r.roles, id)
	delete(r.assignments, id)
	return nil
}

func (r *memoryRoleRepo) ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]Role, error) {
	var out []Role
	for _, role := range r.roles {
		if role.SchoolID != nil && *role.SchoolID == schoolID {
			out = append(out, role)
		}
	}
	return out, nil
}

func (r *memoryRoleRepo) IsAssigned(ctx context.Context, userID, roleID uuid.UUID) (bool, error) {
	for _, id := range r.assignments[roleID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRoleRepo) UpsertSystem(ctx context.Context, role Role) error {
	if existing, ok, _ := r.FindByName(ctx, role.SchoolID, role.Name); ok {
		existing.Permissions = role.Permissions
		existing.Description = role.Description
		r.roles[existing.ID] = existing
		return nil
	}
	role.ID = uuid.New()
	role.IsSystem = true
	r.roles[role.ID] = role
	return nil
}

type stubKeyValidator struct{}

func (stubKeyValidator) ValidateRoleKey(raw string) error {
	switch raw {
	case "*:*", "school:read", "school:update", "student:*", "school:manage_roles":
		return nil
	}
	return shared.Validation("invalid permission key: %s", raw)
}

type recordingRoleInvalidator struct {
	roles []uuid.UUID
}

func (i *recordingRoleInvalidator) InvalidateRole(ctx context.Context, roleID uuid.UUID) {
	i.roles = append(i.roles, roleID)
}

func managerContext(schoolID uuid.UUID) *rbac.AuthContext {
	return &rbac.AuthContext{
		UserID: uuid.New(),
		Memberships: []rbac.Grant{{
			MembershipID: uuid.New(),
			SchoolID:     &schoolID,
			RoleName:     "manager",
			Permissions:  []string{"school:manage_roles"},
		}},
	}
}

func TestCreateRole(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRoleRepo()
	svc := NewService(repo, stubKeyValidator{}, &recordingRoleInvalidator{})

	schoolID := uuid.New()
	auth := managerContext(schoolID)

	role, err := svc.Create(ctx, auth, CreateInput{
		SchoolID:    schoolID,
		Name:        "viewer",
		Permissions: []string{"school:read"},
	})
	require.NoError(t, err)
	require.Equal(t, "viewer", role.Name)
	require.False(t, role.IsSystem)

	// Duplicate name in the same school.
	_, err = svc.Create(ctx, auth, CreateInput{SchoolID: schoolID, Name: "viewer", Permissions: []string{"school:read"}})
	require.True(t, shared.IsKind(err, shared.KindDuplicate))

	// Same name in another school is allowed.
	otherSchool := uuid.New()
	_, err = svc.Create(ctx, managerContext(otherSchool), CreateInput{SchoolID: otherSchool, Name: "viewer", Permissions: []string{"school:read"}})
	require.NoError(t, err)
}

func TestCreateRoleRejectsUnknownKey(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryRoleRepo(), stubKeyValidator{}, &recordingRoleInvalidator{})

	schoolID := uuid.New()
	_, err := svc.Create(ctx, managerContext(schoolID), CreateInput{
		SchoolID:    schoolID,
		Name:        "typo",
		Permissions: []string{"studnet:create"},
	})
	require.True(t, shared.IsKind(err, shared.KindValidation))
}

func TestCreateRoleRequiresManagePermission(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryRoleRepo(), stubKeyValidator{}, &recordingRoleInvalidator{})

	schoolID := uuid.New()
	auth := &rbac.AuthContext{
		UserID:      uuid.New(),
		Memberships: []rbac.Grant{{SchoolID: &schoolID, Permissions: []string{"school:read"}}},
	}
	_, err := svc.Create(ctx, auth, CreateInput{SchoolID: schoolID, Name: "viewer", Permissions: []string{"school:read"}})
	require.True(t, shared.IsKind(err, shared.KindPermissionDenied))
}

func TestUpdateRoleInvalidatesHolders(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRoleRepo()
	inv := &recordingRoleInvalidator{}
	svc := NewService(repo, stubKeyValidator{}, inv)

	schoolID := uuid.New()
	auth := managerContext(schoolID)

	role, err := svc.Create(ctx, auth, CreateInput{SchoolID: schoolID, Name: "viewer", Permissions: []string{"school:read"}})
	require.NoError(t, err)

	// Name-only update does not touch the cache.
	newName := "observer"
	_, err = svc.Update(ctx, auth, role.ID, UpdateInput{Name: &newName})
	require.NoError(t, err)
	require.Empty(t, inv.roles)

	updated, err := svc.Update(ctx, auth, role.ID, UpdateInput{Permissions: []string{"school:read", "school:update"}})
	require.NoError(t, err)
	require.Equal(t, []string{"school:read", "school:update"}, updated.Permissions)
	require.Equal(t, []uuid.UUID{role.ID}, inv.roles)
}

func TestSystemRoleIsImmutable(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRoleRepo()
	svc := NewService(repo, stubKeyValidator{}, &recordingRoleInvalidator{})

	require.NoError(t, svc.Seed(ctx))
	system, ok, err := repo.FindByName(ctx, nil, SuperadminRole)
	require.NoError(t, err)
	require.True(t, ok)

	super := &rbac.AuthContext{UserID: uuid.New(), IsSuper: true}

	name := "renamed"
	_, err = svc.Update(ctx, super, system.ID, UpdateInput{Name: &name})
	require.True(t, shared.IsKind(err, shared.KindValidation))

	err = svc.Delete(ctx, super, system.ID)
	require.True(t, shared.IsKind(err, shared.KindValidation))
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRoleRepo()
	svc := NewService(repo, stubKeyValidator{}, &recordingRoleInvalidator{})

	require.NoError(t, svc.Seed(ctx))
	require.NoError(t, svc.Seed(ctx))
	require.Len(t, repo.roles, 1)
}

func TestDeleteRoleSelfLockout(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRoleRepo()
	inv := &recordingRoleInvalidator{}
	svc := NewService(repo, stubKeyValidator{}, inv)

	schoolID := uuid.New()
	auth := managerContext(schoolID)

	role, err := svc.Create(ctx, auth, CreateInput{SchoolID: schoolID, Name: "viewer", Permissions: []string{"school:read"}})
	require.NoError(t, err)

	// The caller currently holds the role.
	repo.assignments[role.ID] = []uuid.UUID{auth.UserID}
	err = svc.Delete(ctx, auth, role.ID)
	require.True(t, shared.IsKind(err, shared.KindValidation))
	require.Contains(t, err.Error(), "currently assigned")

	// After reassignment the delete goes through and cascades memberships.
	repo.assignments[role.ID] = []uuid.UUID{uuid.New()}
	require.NoError(t, svc.Delete(ctx, auth, role.ID))
	_, err = repo.GetByID(ctx, role.ID)
	require.True(t, shared.IsKind(err, shared.KindNotFound))
	require.Equal(t, []uuid.UUID{role.ID}, inv.roles)
}
