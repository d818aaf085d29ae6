package permissions

import (
	"context"
	"sync"
)

// Catalog is the fixed set of grantable permission keys. Seeding upserts by
// key, so re-running it never drifts or duplicates.
var Catalog = []Permission{
	{Key: "school:create", Resource: "school", Action: "create", Description: "Create new schools", Category: "Schools"},
	{Key: "school:read", Resource: "school", Action: "read", Description: "View school details", Category: "Schools"},
	{Key: "school:update", Resource: "school", Action: "update", Description: "Update school information", Category: "Schools"},
	{Key: "school:delete", Resource: "school", Action: "delete", Description: "Delete schools", Category: "Schools"},
	{Key: "school:manage_roles", Resource: "school", Action: "manage_roles", Description: "Create/edit/delete roles for a school", Category: "Schools"},
	{Key: "school:manage_members", Resource: "school", Action: "manage_members", Description: "Invite/remove users, assign roles", Category: "Schools"},
	{Key: "user:create", Resource: "user", Action: "create", Description: "Create user accounts", Category: "Users"},
	{Key: "user:read", Resource: "user", Action: "read", Description: "View user profiles", Category: "Users"},
	{Key: "user:update", Resource: "user", Action: "update", Description: "Update user information", Category: "Users"},
	{Key: "user:delete", Resource: "user", Action: "delete", Description: "Delete user accounts", Category: "Users"},
	{Key: "classroom:create", Resource: "classroom", Action: "create", Description: "Create classrooms", Category: "Classrooms"},
	{Key: "classroom:read", Resource: "classroom", Action: "read", Description: "View classrooms", Category: "Classrooms"},
	{Key: "classroom:update", Resource: "classroom", Action: "update", Description: "Update classrooms", Category: "Classrooms"},
	{Key: "classroom:delete", Resource: "classroom", Action: "delete", Description: "Delete classrooms", Category: "Classrooms"},
	{Key: "student:create", Resource: "student", Action: "create", Description: "Enroll students", Category: "Students"},
	{Key: "student:read", Resource: "student", Action: "read", Description: "View student profiles", Category: "Students"},
	{Key: "student:update", Resource: "student", Action: "update", Description: "Update student information", Category: "Students"},
	{Key: "student:delete", Resource: "student", Action: "delete", Description: "Remove students", Category: "Students"},
	{Key: "student:transfer", Resource: "student", Action: "transfer", Description: "Transfer students between schools", Category: "Students"},
	{Key: "resource:create", Resource: "resource", Action: "create", Description: "Add resources", Category: "Resources"},
	{Key: "resource:read", Resource: "resource", Action: "read", Description: "View resources", Category: "Resources"},
	{Key: "resource:update", Resource: "resource", Action: "update", Description: "Update resources", Category: "Resources"},
	{Key: "resource:delete", Resource: "resource", Action: "delete", Description: "Remove resources", Category: "Resources"},
}

// RepositoryPort defines data access for the permission catalog.
type RepositoryPort interface {
	Upsert(ctx context.Context, perm Permission) error
	List(ctx context.Context) ([]Permission, error)
}

// Registry holds the process-wide validity set of permission keys. It is
// populated by Seed at startup and read-mostly afterwards; re-seeding is an
// administrative operation.
type Registry struct {
	repo RepositoryPort

	mu        sync.RWMutex
	keys      map[string]struct{}
	resources map[string]struct{}
}

// NewRegistry constructs an empty Registry. Call Seed before use.
func NewRegistry(repo RepositoryPort) *Registry {
	return &Registry{
		repo:      repo,
		keys:      map[string]struct{}{},
		resources: map[string]struct{}{},
	}
}

// Seed idempotently upserts the catalog and reloads the in-memory validity
// set from the store.
func (r *Registry) Seed(ctx context.Context) error {
	for _, perm := range Catalog {
		if err := r.repo.Upsert(ctx, perm); err != nil {
			return err
		}
	}

	all, err := r.repo.List(ctx)
	if err != nil {
		return err
	}

	keys := make(map[string]struct{}, len(all))
	resources := make(map[string]struct{})
	for _, p := range all {
		keys[p.Key] = struct{}{}
		resources[p.Resource] = struct{}{}
	}

	r.mu.Lock()
	r.keys = keys
	r.resources = resources
	r.mu.Unlock()
	return nil
}

// IsValidKey reports whether key names a seeded permission.
func (r *Registry) IsValidKey(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.keys[key]
	return ok
}

// IsKnownResource reports whether resource appears in the seeded catalog.
// Used to validate the literal resource of "resource:*" role keys.
func (r *Registry) IsKnownResource(resource string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.resources[resource]
	return ok
}

// ValidateRoleKey checks a permission key supplied in a role definition.
// "*:*" is always acceptable; "resource:*" requires a known resource;
// anything else must be a seeded key.
func (r *Registry) ValidateRoleKey(raw string) error {
	key, err := ParseKey(raw)
	if err != nil {
		return err
	}
	if key.IsWildcard() {
		return nil
	}
	if key.Action == Wildcard {
		if !r.IsKnownResource(key.Resource) {
			return invalidKeyError(raw)
		}
		return nil
	}
	if key.Resource == Wildcard {
		// "*:action" grants are not part of the vocabulary.
		return invalidKeyError(raw)
	}
	if !r.IsValidKey(raw) {
		return invalidKeyError(raw)
	}
	return nil
}

// List returns the full catalog from the store.
func (r *Registry) List(ctx context.Context) ([]Permission, error) {
	return r.repo.List(ctx)
}
