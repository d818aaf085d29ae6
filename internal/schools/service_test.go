package schools

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/academe-hq/academe/internal/memberships"
	"github.com/academe-hq/academe/internal/rbac"
	"github.com/academe-hq/academe/internal/roles"
	"github.com/academe-hq/academe/internal/shared"
)

type memorySchoolRepo struct {
	schools map[uuid.UUID]School
	// owners records CreateWithOwner calls: school ID -> creator ID.
	owners map[uuid.UUID]uuid.UUID
	// members feeds DeleteCascade's affected-user list.
	members map[uuid.UUID][]uuid.UUID
}

func newMemorySchoolRepo() *memorySchoolRepo {
	return &memorySchoolRepo{
		schools: make(map[uuid.UUID]School),
		owners:  make(map[uuid.UUID]uuid.UUID),
		members: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (r *memorySchoolRepo) CreateWithOwner(ctx context.Context, school School, creatorID uuid.UUID) (School, error) {
	school.ID = uuid.New()
	r.schools[school.ID] = school
	r.owners[school.ID] = creatorID
	r.members[school.ID] = []uuid.UUID{creatorID}
	return school, nil
}

func (r *memorySchoolRepo) GetByID(ctx context.Context, id uuid.UUID) (School, error) {
	s, ok := r.schools[id]
	if !ok {
		return School{}, shared.NotFound("school not found")
	}
	return s, nil
}

func (r *memorySchoolRepo) ListAll(ctx context.Context) ([]School, error) {
	var out []School
	for _, s := range r.schools {
		out = append(out, s)
	}
	return out, nil
}

func (r *memorySchoolRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]School, error) {
	var out []School
	for _, id := range ids {
		if s, ok := r.schools[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memorySchoolRepo) Update(ctx context.Context, school School) (School, error) {
	if _, ok := r.schools[school.ID]; !ok {
		return School{}, shared.NotFound("school not found")
	}
	r.schools[school.ID] = school
	return school, nil
}

func (r *memorySchoolRepo) DeleteCascade(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	if _, ok := r.schools[id]; !ok {
		return nil, shared.NotFound("school not found")
	}
	delete(r.schools, id)
	return r.members[id], nil
}

type stubRoleGetter struct {
	roles map[uuid.UUID]roles.Role
}

func (s *stubRoleGetter) GetByID(ctx context.Context, id uuid.UUID) (roles.Role, error) {
	role, ok := s.roles[id]
	if !ok {
		return roles.Role{}, shared.NotFound("role not found")
	}
	return role, nil
}

type recordingInvalidator struct {
	users []uuid.UUID
}

func (i *recordingInvalidator) InvalidateUser(ctx context.Context, userID uuid.UUID) {
	i.users = append(i.users, userID)
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
	return nil, nil
}

func (r *memoryMembershipRepo) ListMembersBySchool(ctx context.Context, schoolID uuid.UUID) ([]memberships.Member, error) {
	return nil, nil
}

func (r *memoryMembershipRepo) ListUserIDsByRole(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func newTestService(repo RepositoryPort, roleGetter *stubRoleGetter, inv *recordingInvalidator) *Service {
	memberSvc := memberships.NewService(&memoryMembershipRepo{}, inv)
	return NewService(repo, memberSvc, roleGetter, inv)
}

func grantContext(schoolID uuid.UUID, perms ...string) *rbac.AuthContext {
	return &rbac.AuthContext{
		UserID: uuid.New(),
		Memberships: []rbac.Grant{{
			MembershipID: uuid.New(),
			SchoolID:     &schoolID,
			Permissions:  perms,
		}},
	}
}

func TestCreateSchoolGrantsOwnership(t *testing.T) {
	ctx := context.Background()
	repo := newMemorySchoolRepo()
	inv := &recordingInvalidator{}
	svc := newTestService(repo, &stubRoleGetter{}, inv)

	auth := &rbac.AuthContext{UserID: uuid.New()}
	school, err := svc.Create(ctx, auth, CreateInput{Name: "Springfield Elementary"})
	require.NoError(t, err)
	require.Equal(t, auth.UserID, repo.owners[school.ID])
	// The creator's cached context is stale the moment ownership lands.
	require.Equal(t, []uuid.UUID{auth.UserID}, inv.users)

	_, err = svc.Create(ctx, auth, CreateInput{Name: "   "})
	require.True(t, shared.IsKind(err, shared.KindValidation))

	_, err = svc.Create(ctx, nil, CreateInput{Name: "Shelbyville High"})
	require.True(t, shared.IsKind(err, shared.KindUnauthorized))
}

func TestGetSchoolScoping(t *testing.T) {
	ctx := context.Background()
	repo := newMemorySchoolRepo()
	svc := newTestService(repo, &stubRoleGetter{}, &recordingInvalidator{})

	creator := &rbac.AuthContext{UserID: uuid.New()}
	school, err := svc.Create(ctx, creator, CreateInput{Name: "Springfield Elementary"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, grantContext(school.ID, "school:read"), school.ID)
	require.NoError(t, err)

	// A grant in another school does not reach across tenants.
	_, err = svc.Get(ctx, grantContext(uuid.New(), "school:read"), school.ID)
	require.True(t, shared.IsKind(err, shared.KindPermissionDenied))

	super := &rbac.AuthContext{UserID: uuid.New(), IsSuper: true}
	_, err = svc.Get(ctx, super, school.ID)
	require.NoError(t, err)
}

func TestListSchoolsScoping(t *testing.T) {
	ctx := context.Background()
	repo := newMemorySchoolRepo()
	svc := newTestService(repo, &stubRoleGetter{}, &recordingInvalidator{})

	creator := &rbac.AuthContext{UserID: uuid.New()}
	a, err := svc.Create(ctx, creator, CreateInput{Name: "A"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, creator, CreateInput{Name: "B"})
	require.NoError(t, err)

	super := &rbac.AuthContext{UserID: uuid.New(), IsSuper: true}
	all, err := svc.List(ctx, super)
	require.NoError(t, err)
	require.Len(t, all, 2)

	mine, err := svc.List(ctx, grantContext(a.ID, "school:read"))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, a.ID, mine[0].ID)
}

func TestAddMemberRoleMustBelongToSchool(t *testing.T) {
	ctx := context.Background()
	repo := newMemorySchoolRepo()
	roleGetter := &stubRoleGetter{roles: make(map[uuid.UUID]roles.Role)}
	svc := newTestService(repo, roleGetter, &recordingInvalidator{})

	creator := &rbac.AuthContext{UserID: uuid.New()}
	school, err := svc.Create(ctx, creator, CreateInput{Name: "Springfield Elementary"})
	require.NoError(t, err)

	otherSchool := uuid.New()
	foreignRole := roles.Role{ID: uuid.New(), Name: "teacher", SchoolID: &otherSchool}
	localRole := roles.Role{ID: uuid.New(), Name: "teacher", SchoolID: &school.ID}
	roleGetter.roles[foreignRole.ID] = foreignRole
	roleGetter.roles[localRole.ID] = localRole

	manager := grantContext(school.ID, "school:manage_members")
	newMember := uuid.New()

	_, err = svc.AddMember(ctx, manager, school.ID, newMember, foreignRole.ID)
	require.True(t, shared.IsKind(err, shared.KindValidation))

	_, err = svc.AddMember(ctx, manager, school.ID, newMember, localRole.ID)
	require.NoError(t, err)

	// The (user, school) pair is unique.
	_, err = svc.AddMember(ctx, manager, school.ID, newMember, localRole.ID)
	require.True(t, shared.IsKind(err, shared.KindDuplicate))
}

func TestRemoveMemberSelfForbidden(t *testing.T) {
	ctx := context.Background()
	repo := newMemorySchoolRepo()
	roleGetter := &stubRoleGetter{roles: make(map[uuid.UUID]roles.Role)}
	svc := newTestService(repo, roleGetter, &recordingInvalidator{})

	creator := &rbac.AuthContext{UserID: uuid.New()}
	school, err := svc.Create(ctx, creator, CreateInput{Name: "Springfield Elementary"})
	require.NoError(t, err)

	manager := grantContext(school.ID, "school:manage_members")
	err = svc.RemoveMember(ctx, manager, school.ID, manager.UserID)
	require.True(t, shared.IsKind(err, shared.KindValidation))

	// Removing a user who is not a member.
	err = svc.RemoveMember(ctx, manager, school.ID, uuid.New())
	require.True(t, shared.IsKind(err, shared.KindNotFound))
}

func TestDeleteSchoolInvalidatesMembers(t *testing.T) {
	ctx := context.Background()
	repo := newMemorySchoolRepo()
	inv := &recordingInvalidator{}
	svc := newTestService(repo, &stubRoleGetter{}, inv)

	creator := &rbac.AuthContext{UserID: uuid.New()}
	school, err := svc.Create(ctx, creator, CreateInput{Name: "Springfield Elementary"})
	require.NoError(t, err)

	memberA, memberB := uuid.New(), uuid.New()
	repo.members[school.ID] = []uuid.UUID{creator.UserID, memberA, memberB}
	inv.users = nil

	err = svc.Delete(ctx, grantContext(uuid.New(), "school:delete"), school.ID)
	require.True(t, shared.IsKind(err, shared.KindPermissionDenied))

	require.NoError(t, svc.Delete(ctx, grantContext(school.ID, "school:delete"), school.ID))
	require.ElementsMatch(t, []uuid.UUID{creator.UserID, memberA, memberB}, inv.users)

	_, err = repo.GetByID(ctx, school.ID)
	require.True(t, shared.IsKind(err, shared.KindNotFound))
}
