package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/academe-hq/academe/internal/platform/cache"
	"github.com/academe-hq/academe/internal/rbac"
	"github.com/academe-hq/academe/internal/shared"
	"github.com/academe-hq/academe/internal/users"
)

const cacheKeyPrefix = "auth:"

func cacheKey(authID string) string {
	return cacheKeyPrefix + authID
}

// GrantSource loads a user's resolved memberships.
type GrantSource interface {
	ListGrantsByUser(ctx context.Context, userID uuid.UUID) ([]rbac.Grant, error)
}

// CacheMetrics receives resolver cache hit and miss counts.
type CacheMetrics interface {
	AuthCacheHit()
	AuthCacheMiss()
}

// Resolver turns an auth ID into a full AuthContext. Contexts are cached in
// Redis with a short TTL; a cache failure is treated as a miss so the
// database remains the source of truth.
type Resolver struct {
	logger  *slog.Logger
	users   users.RepositoryPort
	grants  GrantSource
	cache   cache.Port
	ttl     time.Duration
	metrics CacheMetrics
	group   singleflight.Group
}

// NewResolver constructs a Resolver. metrics may be nil.
func NewResolver(logger *slog.Logger, users users.RepositoryPort, grants GrantSource, cache cache.Port, ttl time.Duration, metrics CacheMetrics) *Resolver {
	return &Resolver{logger: logger, users: users, grants: grants, cache: cache, ttl: ttl, metrics: metrics}
}

// Resolve returns the AuthContext for authID, from cache when possible.
func (r *Resolver) Resolve(ctx context.Context, authID string) (*rbac.AuthContext, error) {
	key := cacheKey(authID)
	if raw, ok := r.cache.Get(ctx, key); ok {
		var authCtx rbac.AuthContext
		if err := json.Unmarshal([]byte(raw), &authCtx); err == nil {
			r.hit()
			return &authCtx, nil
		}
		// Unreadable entry; drop it and rebuild.
		_ = r.cache.Del(ctx, key)
	}
	r.miss()

	// Concurrent requests for the same user share one database load.
	v, err, _ := r.group.Do(authID, func() (any, error) {
		return r.load(ctx, authID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*rbac.AuthContext), nil
}

func (r *Resolver) load(ctx context.Context, authID string) (*rbac.AuthContext, error) {
	user, err := r.users.GetByAuthID(ctx, authID)
	if err != nil {
		// A valid token for a deleted profile is still unauthenticated.
		if shared.IsKind(err, shared.KindNotFound) {
			return nil, shared.Unauthorized("user not found")
		}
		return nil, err
	}

	grants, err := r.grants.ListGrantsByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	authCtx := &rbac.AuthContext{
		UserID:      user.ID,
		AuthID:      authID,
		DisplayName: user.DisplayName,
		Memberships: grants,
		IsSuper:     isSuper(grants),
	}

	if raw, err := json.Marshal(authCtx); err == nil {
		if err := r.cache.Set(ctx, cacheKey(authID), string(raw), r.ttl); err != nil {
			r.logger.Warn("auth context cache write failed", slog.Any("error", err))
		}
	}
	return authCtx, nil
}

// isSuper reports whether any global membership carries the full wildcard.
func isSuper(grants []rbac.Grant) bool {
	for _, g := range grants {
		if !g.IsGlobal {
			continue
		}
		for _, p := range g.Permissions {
			if p == "*:*" {
				return true
			}
		}
	}
	return false
}

func (r *Resolver) hit() {
	if r.metrics != nil {
		r.metrics.AuthCacheHit()
	}
}

func (r *Resolver) miss() {
	if r.metrics != nil {
		r.metrics.AuthCacheMiss()
	}
}
