package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/academe-hq/academe/internal/memberships"
	"github.com/academe-hq/academe/internal/rbac"
	"github.com/academe-hq/academe/internal/roles"
	"github.com/academe-hq/academe/internal/shared"
	"github.com/academe-hq/academe/internal/users"
)

// RoleFinder looks up roles by name, used when seeding the super admin.
type RoleFinder interface {
	FindByName(ctx context.Context, schoolID *uuid.UUID, name string) (roles.Role, bool, error)
}

// Service wires the identity provider to user profiles and memberships.
type Service struct {
	logger      *slog.Logger
	adapter     Adapter
	users       users.RepositoryPort
	memberships *memberships.Service
	roles       RoleFinder
}

// NewService constructs a Service.
func NewService(logger *slog.Logger, adapter Adapter, users users.RepositoryPort, memberships *memberships.Service, roles RoleFinder) *Service {
	return &Service{logger: logger, adapter: adapter, users: users, memberships: memberships, roles: roles}
}

// LoginResult is returned to a successfully authenticated client.
type LoginResult struct {
	Token       string       `json:"token"`
	User        users.User   `json:"user"`
	Memberships []rbac.Grant `json:"memberships"`
}

// Login verifies credentials and returns a bearer token with the user's
// profile and memberships.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	token, authID, err := s.adapter.Login(ctx, email, password)
	if err != nil {
		return LoginResult{}, err
	}

	user, err := s.users.GetByAuthID(ctx, authID)
	if err != nil {
		if shared.IsKind(err, shared.KindNotFound) {
			return LoginResult{}, shared.Unauthorized("user not found")
		}
		return LoginResult{}, err
	}

	grants, err := s.memberships.GetMemberships(ctx, user.ID)
	if err != nil {
		return LoginResult{}, err
	}
	if grants == nil {
		grants = []rbac.Grant{}
	}
	return LoginResult{Token: token, User: user, Memberships: grants}, nil
}

// RegisterInput carries the fields for a new account.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

// Register creates an identity plus its profile. Callers need user:create on
// at least one of their memberships.
func (s *Service) Register(ctx context.Context, auth *rbac.AuthContext, input RegisterInput) (users.User, error) {
	if !rbac.HasGlobalPermission(auth, "user:create") {
		return users.User{}, shared.PermissionDenied()
	}
	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		return users.User{}, shared.Validation("displayName is required")
	}

	authID, err := s.adapter.Register(ctx, input.Email, input.Password)
	if err != nil {
		return users.User{}, err
	}

	user, err := s.users.Create(ctx, authID, displayName)
	if err != nil {
		// Roll the identity back so the email is not burned.
		if delErr := s.adapter.DeleteUser(ctx, authID); delErr != nil {
			s.logger.Error("orphaned identity after failed registration",
				slog.String("authId", authID), slog.Any("error", delErr))
		}
		return users.User{}, err
	}
	return user, nil
}

// SeedSuperAdmin idempotently ensures the configured super admin account
// exists with a global superadmin membership. A blank email or password
// disables seeding.
func (s *Service) SeedSuperAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	authID, found, err := s.adapter.Lookup(ctx, email)
	if err != nil {
		return err
	}
	if !found {
		if authID, err = s.adapter.Register(ctx, email, password); err != nil {
			return err
		}
	}

	user, err := s.users.GetByAuthID(ctx, authID)
	if shared.IsKind(err, shared.KindNotFound) {
		user, err = s.users.Create(ctx, authID, "Super Admin")
	}
	if err != nil {
		return err
	}

	role, ok, err := s.roles.FindByName(ctx, nil, roles.SuperadminRole)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("superadmin role not seeded")
	}

	_, err = s.memberships.CreateGlobal(ctx, user.ID, role.ID)
	return err
}
