package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/academe-hq/academe/internal/platform/cache"
	"github.com/academe-hq/academe/internal/rbac"
	"github.com/academe-hq/academe/internal/shared"
	"github.com/academe-hq/academe/internal/users"
)

type memoryUserRepo struct {
	byAuthID map[string]users.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{byAuthID: make(map[string]users.User)}
}

func (r *memoryUserRepo) Create(ctx context.Context, authID, displayName string) (users.User, error) {
	u := users.User{ID: uuid.New(), AuthID: authID, DisplayName: displayName, CreatedAt: time.Now()}
	r.byAuthID[authID] = u
	return u, nil
}

func (r *memoryUserRepo) GetByAuthID(ctx context.Context, authID string) (users.User, error) {
	u, ok := r.byAuthID[authID]
	if !ok {
		return users.User{}, shared.NotFound("user not found")
	}
	return u, nil
}

func (r *memoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (users.User, error) {
	for _, u := range r.byAuthID {
		if u.ID == id {
			return u, nil
		}
	}
	return users.User{}, shared.NotFound("user not found")
}

func (r *memoryUserRepo) DeleteByAuthID(ctx context.Context, authID string) error {
	delete(r.byAuthID, authID)
	return nil
}

type stubGrantSource struct {
	grants map[uuid.UUID][]rbac.Grant
	calls  int
}

func (s *stubGrantSource) ListGrantsByUser(ctx context.Context, userID uuid.UUID) ([]rbac.Grant, error) {
	s.calls++
	return s.grants[userID], nil
}

func testCache(t *testing.T) (cache.Port, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewRedis(client), mr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolveCachesContext(t *testing.T) {
	ctx := context.Background()
	port, mr := testCache(t)

	userRepo := newMemoryUserRepo()
	u, err := userRepo.Create(ctx, "auth-1", "Admin")
	require.NoError(t, err)

	schoolID := uuid.New()
	grants := &stubGrantSource{grants: map[uuid.UUID][]rbac.Grant{
		u.ID: {{MembershipID: uuid.New(), SchoolID: &schoolID, RoleName: "owner", Permissions: []string{"school:read"}}},
	}}

	resolver := NewResolver(testLogger(), userRepo, grants, port, 5*time.Minute, nil)

	authCtx, err := resolver.Resolve(ctx, "auth-1")
	require.NoError(t, err)
	require.Equal(t, u.ID, authCtx.UserID)
	require.Len(t, authCtx.Memberships, 1)
	require.True(t, mr.Exists("auth:auth-1"))
	require.Equal(t, 1, grants.calls)

	// The second resolve is a cache hit and never touches the grant source.
	again, err := resolver.Resolve(ctx, "auth-1")
	require.NoError(t, err)
	require.Equal(t, authCtx.UserID, again.UserID)
	require.Equal(t, 1, grants.calls)
}

func TestResolveUnknownAuthID(t *testing.T) {
	port, _ := testCache(t)
	resolver := NewResolver(testLogger(), newMemoryUserRepo(), &stubGrantSource{}, port, 5*time.Minute, nil)

	_, err := resolver.Resolve(context.Background(), "ghost")
	require.True(t, shared.IsKind(err, shared.KindUnauthorized))
}

func TestResolveSurvivesCacheOutage(t *testing.T) {
	ctx := context.Background()
	port, mr := testCache(t)

	userRepo := newMemoryUserRepo()
	u, err := userRepo.Create(ctx, "auth-1", "Admin")
	require.NoError(t, err)
	grants := &stubGrantSource{grants: map[uuid.UUID][]rbac.Grant{u.ID: nil}}

	resolver := NewResolver(testLogger(), userRepo, grants, port, 5*time.Minute, nil)

	mr.Close()
	authCtx, err := resolver.Resolve(ctx, "auth-1")
	require.NoError(t, err)
	require.Equal(t, u.ID, authCtx.UserID)
}

func TestResolveDropsCorruptCacheEntry(t *testing.T) {
	ctx := context.Background()
	port, mr := testCache(t)

	userRepo := newMemoryUserRepo()
	u, err := userRepo.Create(ctx, "auth-1", "Admin")
	require.NoError(t, err)
	grants := &stubGrantSource{grants: map[uuid.UUID][]rbac.Grant{u.ID: nil}}

	require.NoError(t, mr.Set("auth:auth-1", "{not json"))

	resolver := NewResolver(testLogger(), userRepo, grants, port, 5*time.Minute, nil)
	authCtx, err := resolver.Resolve(ctx, "auth-1")
	require.NoError(t, err)
	require.Equal(t, u.ID, authCtx.UserID)
	require.Equal(t, 1, grants.calls)
}

func TestResolveComputesIsSuper(t *testing.T) {
	ctx := context.Background()
	port, _ := testCache(t)

	userRepo := newMemoryUserRepo()
	superUser, err := userRepo.Create(ctx, "auth-super", "Root")
	require.NoError(t, err)
	scopedUser, err := userRepo.Create(ctx, "auth-scoped", "Scoped")
	require.NoError(t, err)

	schoolID := uuid.New()
	grants := &stubGrantSource{grants: map[uuid.UUID][]rbac.Grant{
		superUser.ID:  {{MembershipID: uuid.New(), RoleName: "superadmin", Permissions: []string{"*:*"}, IsGlobal: true}},
		scopedUser.ID: {{MembershipID: uuid.New(), SchoolID: &schoolID, RoleName: "owner", Permissions: []string{"*:*"}}},
	}}
	resolver := NewResolver(testLogger(), userRepo, grants, port, 5*time.Minute, nil)

	superCtx, err := resolver.Resolve(ctx, "auth-super")
	require.NoError(t, err)
	require.True(t, superCtx.IsSuper)

	// A school-scoped wildcard does not grant platform-wide superpowers.
	scopedCtx, err := resolver.Resolve(ctx, "auth-scoped")
	require.NoError(t, err)
	require.False(t, scopedCtx.IsSuper)
}

func TestInvalidateUserEvictsCachedContext(t *testing.T) {
	ctx := context.Background()
	port, mr := testCache(t)

	userRepo := newMemoryUserRepo()
	u, err := userRepo.Create(ctx, "auth-1", "Admin")
	require.NoError(t, err)
	grants := &stubGrantSource{grants: map[uuid.UUID][]rbac.Grant{u.ID: nil}}

	resolver := NewResolver(testLogger(), userRepo, grants, port, 5*time.Minute, nil)
	_, err = resolver.Resolve(ctx, "auth-1")
	require.NoError(t, err)
	require.True(t, mr.Exists("auth:auth-1"))

	inv := NewCacheInvalidator(testLogger(), port, userRepo, nil)
	inv.InvalidateUser(ctx, u.ID)
	require.False(t, mr.Exists("auth:auth-1"))

	// The next resolve rebuilds from the database.
	_, err = resolver.Resolve(ctx, "auth-1")
	require.NoError(t, err)
	require.Equal(t, 2, grants.calls)
}
