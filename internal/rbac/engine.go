// Package rbac implements the permission-matching engine: school-scoped and
// global checks over a resolved AuthContext.
package rbac

import (
	"github.com/google/uuid"

	"github.com/academe-hq/academe/internal/permissions"
)

// Can reports whether a permission list satisfies the required key. Stored
// keys that fail to parse never match.
func Can(granted []string, required permissions.Key) bool {
	for _, raw := range granted {
		key, err := permissions.ParseKey(raw)
		if err != nil {
			continue
		}
		if key.Matches(required) {
			return true
		}
	}
	return false
}

// CanKey is Can over a raw required key string. A malformed required key is
// never satisfied.
func CanKey(granted []string, required string) bool {
	key, err := permissions.ParseKey(required)
	if err != nil {
		return false
	}
	return Can(granted, key)
}

// HasPermission reports whether ctx may perform required within schoolID.
// Super-admins bypass the scoped lookup; otherwise only the membership bound
// to that exact school is consulted.
func HasPermission(ctx *AuthContext, schoolID uuid.UUID, required string) bool {
	if ctx == nil {
		return false
	}
	if ctx.IsSuper {
		return true
	}
	grant := ctx.SchoolGrant(schoolID)
	if grant == nil {
		return false
	}
	return CanKey(grant.Permissions, required)
}

// HasGlobalPermission reports whether any membership, school-scoped or
// global, satisfies required. Used for operations without a natural school
// scope, such as account issuance and cross-school transfers.
func HasGlobalPermission(ctx *AuthContext, required string) bool {
	if ctx == nil {
		return false
	}
	if ctx.IsSuper {
		return true
	}
	for _, m := range ctx.Memberships {
		if CanKey(m.Permissions, required) {
			return true
		}
	}
	return false
}
