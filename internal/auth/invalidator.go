package auth

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/academe-hq/academe/internal/memberships"
	"github.com/academe-hq/academe/internal/platform/cache"
	"github.com/academe-hq/academe/internal/users"
)

// CacheInvalidator evicts cached auth contexts after permission-affecting
// mutations. Failures are logged and swallowed: a stale entry ages out with
// the TTL, it never blocks the mutation.
type CacheInvalidator struct {
	logger      *slog.Logger
	cache       cache.Port
	users       users.RepositoryPort
	memberships memberships.RepositoryPort
}

// NewCacheInvalidator constructs a CacheInvalidator.
func NewCacheInvalidator(logger *slog.Logger, cache cache.Port, users users.RepositoryPort, memberships memberships.RepositoryPort) *CacheInvalidator {
	return &CacheInvalidator{logger: logger, cache: cache, users: users, memberships: memberships}
}

// InvalidateUser drops the cached context for one user.
func (i *CacheInvalidator) InvalidateUser(ctx context.Context, userID uuid.UUID) {
	user, err := i.users.GetByID(ctx, userID)
	if err != nil {
		i.logger.Warn("auth cache invalidation skipped", slog.String("userId", userID.String()), slog.Any("error", err))
		return
	}
	if err := i.cache.Del(ctx, cacheKey(user.AuthID)); err != nil {
		i.logger.Warn("auth cache invalidation failed", slog.String("userId", userID.String()), slog.Any("error", err))
	}
}

// InvalidateRole drops the cached context of every holder of a role.
func (i *CacheInvalidator) InvalidateRole(ctx context.Context, roleID uuid.UUID) {
	userIDs, err := i.memberships.ListUserIDsByRole(ctx, roleID)
	if err != nil {
		i.logger.Warn("auth cache role fan-out failed", slog.String("roleId", roleID.String()), slog.Any("error", err))
		return
	}
	for _, id := range userIDs {
		i.InvalidateUser(ctx, id)
	}
}
