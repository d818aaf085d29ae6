package auth

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/academe-hq/academe/internal/memberships"
	"github.com/academe-hq/academe/internal/rbac"
	"github.com/academe-hq/academe/internal/roles"
	"github.com/academe-hq/academe/internal/shared"
	"github.com/academe-hq/academe/internal/users"
)

type fakeAdapter struct {
	byEmail map[string]string // email -> authID
	deleted []string
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{byEmail: make(map[string]string)}
}

func (a *fakeAdapter) Register(ctx context.Context, email, password string) (string, error) {
	if _, ok := a.byEmail[email]; ok {
		return "", shared.Duplicate("email already registered")
	}
	authID := uuid.NewString()
	a.byEmail[email] = authID
	return authID, nil
}

func (a *fakeAdapter) Login(ctx context.Context, email, password string) (string, string, error) {
	authID, ok := a.byEmail[email]
	if !ok {
		return "", "", shared.Unauthorized("invalid credentials")
	}
	return "token-" + authID, authID, nil
}

func (a *fakeAdapter) VerifyToken(ctx context.Context, token string) (string, error) {
	return "", shared.Unauthorized("invalid or expired token")
}

func (a *fakeAdapter) Lookup(ctx context.Context, email string) (string, bool, error) {
	authID, ok := a.byEmail[email]
	return authID, ok, nil
}

func (a *fakeAdapter) DeleteUser(ctx context.Context, authID string) error {
	a.deleted = append(a.deleted, authID)
	for email, id := range a.byEmail {
		if id == authID {
			delete(a.byEmail, email)
		}
	}
	return nil
}

type memoryMembershipRepo struct {
	items []memberships.Membership
}

func (r *memoryMembershipRepo) Create(ctx context.Context, userID uuid.UUID, schoolID *uuid.UUID, roleID uuid.UUID) (memberships.Membership, error) {
	m := memberships.Membership{ID: uuid.New(), UserID: userID, SchoolID: schoolID, RoleID: roleID}
	r.items = append(r.items, m)
	return m, nil
}

func (r *memoryMembershipRepo) Find(ctx context.Context, userID uuid.UUID, schoolID *uuid.UUID) (memberships.Membership, bool, error) {
	for _, m := range r.items {
		if m.UserID != userID {
			continue
		}
		if schoolID == nil && m.SchoolID == nil {
			return m, true, nil
		}
		if schoolID != nil && m.SchoolID != nil && *m.SchoolID == *schoolID {
			return m, true, nil
		}
	}
	return memberships.Membership{}, false, nil
}

func (r *memoryMembershipRepo) Delete(ctx context.Context, id uuid.UUID) error {
	for i, m := range r.items {
		if m.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *memoryMembershipRepo) ListGrantsByUser(ctx context.Context, userID uuid.UUID) ([]rbac.Grant, error) {
	var grants []rbac.Grant
	for _, m := range r.items {
		if m.UserID == userID {
			grants = append(grants, rbac.Grant{MembershipID: m.ID, SchoolID: m.SchoolID, IsGlobal: m.SchoolID == nil})
		}
	}
	return grants, nil
}

func (r *memoryMembershipRepo) ListMembersBySchool(ctx context.Context, schoolID uuid.UUID) ([]memberships.Member, error) {
	return nil, nil
}

func (r *memoryMembershipRepo) ListUserIDsByRole(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, m := range r.items {
		if m.RoleID == roleID {
			ids = append(ids, m.UserID)
		}
	}
	return ids, nil
}

type noopInvalidator struct{}

func (noopInvalidator) InvalidateUser(ctx context.Context, userID uuid.UUID) {}

type stubRoleFinder struct {
	superadminID uuid.UUID
}

func (s *stubRoleFinder) FindByName(ctx context.Context, schoolID *uuid.UUID, name string) (roles.Role, bool, error) {
	if schoolID == nil && name == roles.SuperadminRole && s.superadminID != uuid.Nil {
		return roles.Role{ID: s.superadminID, Name: name, Permissions: []string{"*:*"}, IsSystem: true}, true, nil
	}
	return roles.Role{}, false, nil
}

func globalCreatorContext() *rbac.AuthContext {
	return &rbac.AuthContext{
		UserID: uuid.New(),
		Memberships: []rbac.Grant{{
			MembershipID: uuid.New(),
			IsGlobal:     true,
			Permissions:  []string{"user:create"},
		}},
	}
}

func newTestService(adapter Adapter, userRepo users.RepositoryPort, memberRepo *memoryMembershipRepo, finder *stubRoleFinder) *Service {
	memberSvc := memberships.NewService(memberRepo, noopInvalidator{})
	return NewService(testLogger(), adapter, userRepo, memberSvc, finder)
}

func TestRegisterRequiresUserCreate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeAdapter(), newMemoryUserRepo(), &memoryMembershipRepo{}, &stubRoleFinder{})

	schoolID := uuid.New()
	bystander := &rbac.AuthContext{
		UserID:      uuid.New(),
		Memberships: []rbac.Grant{{SchoolID: &schoolID, Permissions: []string{"school:read"}}},
	}
	_, err := svc.Register(ctx, bystander,
		RegisterInput{Email: "new@example.com", Password: "hunter22", DisplayName: "New User"})
	require.True(t, shared.IsKind(err, shared.KindPermissionDenied))

	// user:create on any membership is enough, school-scoped included.
	scoped := &rbac.AuthContext{
		UserID:      uuid.New(),
		Memberships: []rbac.Grant{{SchoolID: &schoolID, Permissions: []string{"user:create"}}},
	}
	user, err := svc.Register(ctx, scoped,
		RegisterInput{Email: "staff@example.com", Password: "hunter22", DisplayName: "Staff User"})
	require.NoError(t, err)
	require.Equal(t, "Staff User", user.DisplayName)

	user, err = svc.Register(ctx, globalCreatorContext(),
		RegisterInput{Email: "new@example.com", Password: "hunter22", DisplayName: "New User"})
	require.NoError(t, err)
	require.Equal(t, "New User", user.DisplayName)
}

type failingUserRepo struct {
	*memoryUserRepo
}

func (r *failingUserRepo) Create(ctx context.Context, authID, displayName string) (users.User, error) {
	return users.User{}, fmt.Errorf("insert failed")
}

func TestRegisterRollsBackIdentityOnProfileFailure(t *testing.T) {
	ctx := context.Background()
	adapter := newFakeAdapter()
	svc := newTestService(adapter, &failingUserRepo{newMemoryUserRepo()}, &memoryMembershipRepo{}, &stubRoleFinder{})

	_, err := svc.Register(ctx, globalCreatorContext(), RegisterInput{
		Email: "new@example.com", Password: "hunter22", DisplayName: "New User",
	})
	require.Error(t, err)
	require.Len(t, adapter.deleted, 1)
	require.Empty(t, adapter.byEmail)
}

func TestSeedSuperAdminIsIdempotent(t *testing.T) {
	ctx := context.Background()
	adapter := newFakeAdapter()
	userRepo := newMemoryUserRepo()
	memberRepo := &memoryMembershipRepo{}
	finder := &stubRoleFinder{superadminID: uuid.New()}
	svc := newTestService(adapter, userRepo, memberRepo, finder)

	require.NoError(t, svc.SeedSuperAdmin(ctx, "root@example.com", "hunter22"))
	require.NoError(t, svc.SeedSuperAdmin(ctx, "root@example.com", "hunter22"))

	require.Len(t, adapter.byEmail, 1)
	require.Len(t, userRepo.byAuthID, 1)
	require.Len(t, memberRepo.items, 1)
	require.Nil(t, memberRepo.items[0].SchoolID)
	require.Equal(t, finder.superadminID, memberRepo.items[0].RoleID)

	// Blank credentials disable seeding entirely.
	require.NoError(t, svc.SeedSuperAdmin(ctx, "", ""))
	require.Len(t, adapter.byEmail, 1)
}

func TestLoginReturnsProfileAndGrants(t *testing.T) {
	ctx := context.Background()
	adapter := newFakeAdapter()
	userRepo := newMemoryUserRepo()
	memberRepo := &memoryMembershipRepo{}
	svc := newTestService(adapter, userRepo, memberRepo, &stubRoleFinder{})

	authID, err := adapter.Register(ctx, "admin@example.com", "hunter22")
	require.NoError(t, err)
	user, err := userRepo.Create(ctx, authID, "Admin")
	require.NoError(t, err)
	schoolID := uuid.New()
	_, err = memberRepo.Create(ctx, user.ID, &schoolID, uuid.New())
	require.NoError(t, err)

	result, err := svc.Login(ctx, "admin@example.com", "hunter22")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.Equal(t, user.ID, result.User.ID)
	require.Len(t, result.Memberships, 1)

	_, err = svc.Login(ctx, "ghost@example.com", "hunter22")
	require.True(t, shared.IsKind(err, shared.KindUnauthorized))
}
