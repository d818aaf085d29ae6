package memberships

import (
	"context"

	"github.com/google/uuid"

	"github.com/academe-hq/academe/internal/platform/db"
	"github.com/academe-hq/academe/internal/rbac"
	"github.com/academe-hq/academe/internal/shared"
)

// Invalidator evicts a user's cached auth context. Implemented by the auth
// package; mutations here must invalidate before returning success.
type Invalidator interface {
	InvalidateUser(ctx context.Context, userID uuid.UUID)
}

// Service wraps membership business rules.
type Service struct {
	repo        RepositoryPort
	invalidator Invalidator
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, invalidator Invalidator) *Service {
	return &Service{repo: repo, invalidator: invalidator}
}

// Create adds a school-scoped membership. A user holds at most one role per
// school.
func (s *Service) Create(ctx context.Context, userID, schoolID, roleID uuid.UUID) (Membership, error) {
	if _, exists, err := s.repo.Find(ctx, userID, &schoolID); err != nil {
		return Membership{}, err
	} else if exists {
		return Membership{}, shared.Duplicate("user is already a member of this school")
	}

	m, err := s.repo.Create(ctx, userID, &schoolID, roleID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			// Lost the race to a concurrent insert; same outcome.
			return Membership{}, shared.Duplicate("user is already a member of this school")
		}
		return Membership{}, err
	}

	s.invalidator.InvalidateUser(ctx, userID)
	return m, nil
}

// CreateGlobal idempotently ensures a global membership for userID. Used for
// super-admin seeding.
func (s *Service) CreateGlobal(ctx context.Context, userID, roleID uuid.UUID) (Membership, error) {
	if existing, exists, err := s.repo.Find(ctx, userID, nil); err != nil {
		return Membership{}, err
	} else if exists {
		return existing, nil
	}

	m, err := s.repo.Create(ctx, userID, nil, roleID)
	if err != nil {
		return Membership{}, err
	}

	s.invalidator.InvalidateUser(ctx, userID)
	return m, nil
}

// Remove deletes the membership binding userID to schoolID.
func (s *Service) Remove(ctx context.Context, userID, schoolID uuid.UUID) error {
	m, exists, err := s.repo.Find(ctx, userID, &schoolID)
	if err != nil {
		return err
	}
	if !exists {
		return shared.NotFound("membership not found")
	}

	if err := s.repo.Delete(ctx, m.ID); err != nil {
		return err
	}

	s.invalidator.InvalidateUser(ctx, userID)
	return nil
}

// GetMemberships returns the user's memberships joined with role and school
// details, the structure embedded into every AuthContext.
func (s *Service) GetMemberships(ctx context.Context, userID uuid.UUID) ([]rbac.Grant, error) {
	return s.repo.ListGrantsByUser(ctx, userID)
}

// GetSchoolMembers returns the roster for one school.
func (s *Service) GetSchoolMembers(ctx context.Context, schoolID uuid.UUID) ([]Member, error) {
	return s.repo.ListMembersBySchool(ctx, schoolID)
}

// UserIDsByRole lists the holders of a role, for cache invalidation fan-out.
func (s *Service) UserIDsByRole(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error) {
	return s.repo.ListUserIDsByRole(ctx, roleID)
}
