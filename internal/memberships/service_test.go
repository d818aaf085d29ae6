package memberships

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/academe-hq/academe/internal/rbac"
)

type memoryMembershipRepo struct {
	memberships map[uuid.UUID]Membership
	rolePerms   map[uuid.UUID][]string
	roleNames   map[uuid.UUID]string
}

func newMemoryMembershipRepo() *memoryMembershipRepo {
	return &memoryMembershipRepo{
		memberships: make(map[uuid.UUID]Membership),
		rolePerms:   make(map[uuid.UUID][]string),
		roleNames:   make(map[uuid.UUID]string),
	}
}

func (r *memoryMembershipRepo) Create(ctx context.Context, userID uuid.UUID, schoolID *uuid.UUID, roleID uuid.UUID) (Membership, error) {
	m := Membership{ID: uuid.New(), UserID: userID, SchoolID: schoolID, RoleID: roleID}
	r.memberships[m.ID] = m
	return m, nil
}

func (r *memoryMembershipRepo) Find(ctx context.Context, userID uuid.UUID, schoolID *uuid.UUID) (Membership, bool, error) {
	for _, m := range r.memberships {
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
	return Membership{}, false, nil
}

func (r *memoryMembershipRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.memberships, id)
	return nil
}

func (r *memoryMembershipRepo) ListGrantsByUser(ctx context.Context, userID uuid.UUID) ([]rbac.Grant, error) {
	var grants []rbac.Grant
	for _, m := range r.memberships {
		if m.UserID != userID {
			continue
		}
		grants = append(grants, rbac.Grant{
			MembershipID: m.ID,
			SchoolID:     m.SchoolID,
			RoleName:     r.roleNames[m.RoleID],
			Permissions:  r.rolePerms[m.RoleID],
			IsGlobal:     m.SchoolID == nil,
		})
	}
	return grants, nil
}

func (r *memoryMembershipRepo) ListMembersBySchool(ctx context.Context, schoolID uuid.UUID) ([]Member, error) {
	var members []Member
	for _, m := range r.memberships {
		if m.SchoolID != nil && *m.SchoolID == schoolID {
			members = append(members, Member{MembershipID: m.ID, UserID: m.UserID, RoleName: r.roleNames[m.RoleID]})
		}
	}
	return members, nil
}

func (r *memoryMembershipRepo) ListUserIDsByRole(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, m := range r.memberships {
		if m.RoleID == roleID {
			ids = append(ids, m.UserID)
		}
	}
	return ids, nil
}

type recordingInvalidator struct {
	users []uuid.UUID
}

func (i *recordingInvalidator) InvalidateUser(ctx context.Context, userID uuid.UUID) {
	i.users = append(i.users, userID)
}

func TestCreateRejectsDuplicatePair(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryMembershipRepo()
	inv := &recordingInvalidator{}
	svc := NewService(repo, inv)

	userID := uuid.New()
	schoolID := uuid.New()
	roleID := uuid.New()

	_, err := svc.Create(ctx, userID, schoolID, roleID)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{userID}, inv.users)

	_, err = svc.Create(ctx, userID, schoolID, uuid.New())
	require.Error(t, err)
	require.Contains(t, err.Error(), "already a member")

	// Same user in a different school is fine.
	_, err = svc.Create(ctx, userID, uuid.New(), roleID)
	require.NoError(t, err)
}

func TestCreateGlobalIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryMembershipRepo()
	svc := NewService(repo, &recordingInvalidator{})

	userID := uuid.New()
	roleID := uuid.New()

	first, err := svc.CreateGlobal(ctx, userID, roleID)
	require.NoError(t, err)
	require.True(t, first.IsGlobal())

	second, err := svc.CreateGlobal(ctx, userID, roleID)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Len(t, repo.memberships, 1)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryMembershipRepo()
	inv := &recordingInvalidator{}
	svc := NewService(repo, inv)

	userID := uuid.New()
	schoolID := uuid.New()

	require.Error(t, svc.Remove(ctx, userID, schoolID))

	_, err := svc.Create(ctx, userID, schoolID, uuid.New())
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, userID, schoolID))
	require.Empty(t, repo.memberships)
	// One invalidation for the create, one for the removal.
	require.Len(t, inv.users, 2)
}

func TestGetMembershipsAnnotatesGlobal(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryMembershipRepo()
	svc := NewService(repo, &recordingInvalidator{})

	userID := uuid.New()
	roleID := uuid.New()
	repo.roleNames[roleID] = "superadmin"
	repo.rolePerms[roleID] = []string{"*:*"}

	_, err := svc.CreateGlobal(ctx, userID, roleID)
	require.NoError(t, err)

	grants, err := svc.GetMemberships(ctx, userID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	require.True(t, grants[0].IsGlobal)
	require.Nil(t, grants[0].SchoolID)
	require.Equal(t, "superadmin", grants[0].RoleName)
	require.Equal(t, []string{"*:*"}, grants[0].Permissions)
}
