package students

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/academe-hq/academe/internal/classrooms"
	"github.com/academe-hq/academe/internal/rbac"
	"github.com/academe-hq/academe/internal/schools"
	"github.com/academe-hq/academe/internal/shared"
)

// SchoolGetter verifies the target school on transfers.
type SchoolGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (schools.School, error)
}

// Service wraps student business rules.
type Service struct {
	repo    RepositoryPort
	schools SchoolGetter
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, schools SchoolGetter) *Service {
	return &Service{repo: repo, schools: schools}
}

// CreateInput carries the fields for a new student.
type CreateInput struct {
	Name        string
	Email       string
	SchoolID    *uuid.UUID
	ClassroomID *uuid.UUID
}

// Create enrolls a student. When a classroom is given, the repository runs
// the locked capacity check in the same transaction as the insert.
func (s *Service) Create(ctx context.Context, auth *rbac.AuthContext, input CreateInput) (Student, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return Student{}, shared.Validation("name is required")
	}
	schoolID, err := classrooms.ResolveSchoolID(auth, input.SchoolID)
	if err != nil {
		return Student{}, err
	}
	if !rbac.HasPermission(auth, schoolID, "student:create") {
		return Student{}, shared.PermissionDenied()
	}

	return s.repo.Create(ctx, Student{
		Name:        input.Name,
		Email:       normalizeEmail(input.Email),
		SchoolID:    schoolID,
		ClassroomID: input.ClassroomID,
	})
}

// Get fetches one student.
func (s *Service) Get(ctx context.Context, auth *rbac.AuthContext, id uuid.UUID) (Student, error) {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if !rbac.HasPermission(auth, st.SchoolID, "student:read") {
		return Student{}, shared.PermissionDenied()
	}
	return st, nil
}

// List returns a paginated, name-sorted page of a school's students,
// optionally narrowed to one classroom.
func (s *Service) List(ctx context.Context, auth *rbac.AuthContext, schoolID *uuid.UUID, classroomID *uuid.UUID, page shared.Pagination) (shared.PageResult[Student], error) {
	id, err := classrooms.ResolveSchoolID(auth, schoolID)
	if err != nil {
		return shared.PageResult[Student]{}, err
	}
	if !rbac.HasPermission(auth, id, "student:read") {
		return shared.PageResult[Student]{}, shared.PermissionDenied()
	}

	list, total, err := s.repo.List(ctx, Filter{SchoolID: id, ClassroomID: classroomID}, page)
	if err != nil {
		return shared.PageResult[Student]{}, err
	}
	if list == nil {
		list = []Student{}
	}
	return shared.NewPageResult(list, total, page), nil
}

// UpdateInput carries the mutable student fields. Nil means "leave
// unchanged"; ClassroomSet with a nil ClassroomID unassigns.
type UpdateInput struct {
	Name         *string
	Email        *string
	ClassroomID  *uuid.UUID
	ClassroomSet bool
}

// Update modifies a student. Moving into a different classroom runs the
// locked capacity check; re-confirming the current one never does.
func (s *Service) Update(ctx context.Context, auth *rbac.AuthContext, id uuid.UUID, input UpdateInput) (Student, error) {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if !rbac.HasPermission(auth, st.SchoolID, "student:update") {
		return Student{}, shared.PermissionDenied()
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return Student{}, shared.Validation("name is required")
		}
		st.Name = name
	}
	if input.Email != nil {
		st.Email = normalizeEmail(*input.Email)
	}

	checkCapacity := false
	if input.ClassroomSet {
		if changedClassroom(st.ClassroomID, input.ClassroomID) {
			checkCapacity = input.ClassroomID != nil
		}
		st.ClassroomID = input.ClassroomID
	}
	return s.repo.Update(ctx, st, checkCapacity)
}

// Transfer moves a student to a different school, and optionally straight
// into one of its classrooms, in one atomic update. Crossing school
// boundaries, the student:transfer check spans all of the caller's
// memberships rather than either school alone.
func (s *Service) Transfer(ctx context.Context, auth *rbac.AuthContext, id, targetSchoolID uuid.UUID, targetClassroomID *uuid.UUID) (Student, error) {
	if !rbac.HasGlobalPermission(auth, "student:transfer") {
		return Student{}, shared.PermissionDenied()
	}
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if targetSchoolID == st.SchoolID {
		return Student{}, shared.Validation("student is already in this school")
	}
	if _, err := s.schools.GetByID(ctx, targetSchoolID); err != nil {
		return Student{}, err
	}

	st.SchoolID = targetSchoolID
	st.ClassroomID = targetClassroomID
	// The capacity check also verifies the classroom belongs to the target
	// school, inside the same transaction.
	return s.repo.Update(ctx, st, targetClassroomID != nil)
}

// Delete removes a student.
func (s *Service) Delete(ctx context.Context, auth *rbac.AuthContext, id uuid.UUID) error {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !rbac.HasPermission(auth, st.SchoolID, "student:delete") {
		return shared.PermissionDenied()
	}
	return s.repo.Delete(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func changedClassroom(current, next *uuid.UUID) bool {
	if current == nil && next == nil {
		return false
	}
	if current == nil || next == nil {
		return true
	}
	return *current != *next
}
