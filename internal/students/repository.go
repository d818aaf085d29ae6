package students

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/academe-hq/academe/internal/platform/db"
	"github.com/academe-hq/academe/internal/shared"
)

// capacityRetries bounds the serialization-conflict retry loop around the
// locked enrollment transaction.
const capacityRetries = 3

// Filter narrows a student listing.
type Filter struct {
	SchoolID    uuid.UUID
	ClassroomID *uuid.UUID
}

// RepositoryPort defines data access for students. Enrollment into a
// classroom always runs the locked capacity check in one transaction.
type RepositoryPort interface {
	Create(ctx context.Context, st Student) (Student, error)
	GetByID(ctx context.Context, id uuid.UUID) (Student, error)
	List(ctx context.Context, filter Filter, page shared.Pagination) ([]Student, int, error)
	// Update persists st; checkCapacity runs the locked capacity check on
	// st.ClassroomID against st.SchoolID.
	Update(ctx context.Context, st Student, checkCapacity bool) (Student, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the Postgres-backed student store.
func NewRepository(db *pgxpool.Pool) RepositoryPort {
	return &repository{db: db}
}

const studentColumns = `id, name, COALESCE(email, ''), school_id, classroom_id, created_at, updated_at`

func (r *repository) Create(ctx context.Context, st Student) (Student, error) {
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	insert := func(q querier) error {
		query := `INSERT INTO students (id, name, email, school_id, classroom_id)
			VALUES ($1, $2, NULLIF($3, ''), $4, $5) RETURNING created_at, updated_at`
		return q.QueryRow(ctx, query, st.ID, st.Name, st.Email, st.SchoolID, st.ClassroomID).
			Scan(&st.CreatedAt, &st.UpdatedAt)
	}

	var err error
	if st.ClassroomID == nil {
		err = insert(r.db)
	} else {
		err = db.WithTxRetry(ctx, r.db, capacityRetries, func(tx pgx.Tx) error {
			if err := lockAndCheckCapacity(ctx, tx, *st.ClassroomID, st.SchoolID, uuid.Nil); err != nil {
				return err
			}
			return insert(tx)
		})
	}
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Student{}, shared.Duplicate("email already in use")
		}
		return Student{}, err
	}
	return st, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (Student, error) {
	row := r.db.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
	return scanStudent(row)
}

func (r *repository) List(ctx context.Context, filter Filter, page shared.Pagination) ([]Student, int, error) {
	where := `WHERE school_id = $1`
	args := []any{filter.SchoolID}
	if filter.ClassroomID != nil {
		where += ` AND classroom_id = $2`
		args = append(args, *filter.ClassroomID)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM students `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM students %s ORDER BY name LIMIT $%d OFFSET $%d`,
		studentColumns, where, len(args)+1, len(args)+2)
	args = append(args, page.Limit, page.Offset)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Student
	for rows.Next() {
		var st Student
		if err := rows.Scan(&st.ID, &st.Name, &st.Email, &st.SchoolID, &st.ClassroomID, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, st)
	}
	return out, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, st Student, checkCapacity bool) (Student, error) {
	update := func(q querier) error {
		query := `UPDATE students SET name = $2, email = NULLIF($3, ''), school_id = $4,
			classroom_id = $5, updated_at = now()
			WHERE id = $1 RETURNING created_at, updated_at`
		return q.QueryRow(ctx, query, st.ID, st.Name, st.Email, st.SchoolID, st.ClassroomID).
			Scan(&st.CreatedAt, &st.UpdatedAt)
	}

	var err error
	if checkCapacity && st.ClassroomID != nil {
		err = db.WithTxRetry(ctx, r.db, capacityRetries, func(tx pgx.Tx) error {
			if err := lockAndCheckCapacity(ctx, tx, *st.ClassroomID, st.SchoolID, st.ID); err != nil {
				return err
			}
			return update(tx)
		})
	} else {
		err = update(r.db)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Student{}, shared.NotFound("student not found")
		}
		if db.IsUniqueViolation(err) {
			return Student{}, shared.Duplicate("email already in use")
		}
		return Student{}, err
	}
	return st, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("student not found")
	}
	return nil
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// lockAndCheckCapacity takes a row lock on the classroom, verifies it belongs
// to schoolID and counts current enrollment excluding excludeStudent (so
// re-saving an enrolled student never counts itself).
func lockAndCheckCapacity(ctx context.Context, tx pgx.Tx, classroomID, schoolID, excludeStudent uuid.UUID) error {
	var capacity int
	var classroomSchool uuid.UUID
	err := tx.QueryRow(ctx, `SELECT capacity, school_id FROM classrooms WHERE id = $1 FOR UPDATE`, classroomID).
		Scan(&capacity, &classroomSchool)
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.NotFound("classroom not found")
	}
	if err != nil {
		return err
	}
	if classroomSchool != schoolID {
		return shared.Validation("classroom does not belong to this school")
	}

	var enrolled int
	query := `SELECT COUNT(*) FROM students WHERE classroom_id = $1 AND id <> $2`
	if err := tx.QueryRow(ctx, query, classroomID, excludeStudent).Scan(&enrolled); err != nil {
		return err
	}
	if enrolled >= capacity {
		return shared.CapacityFull("classroom is at capacity (%d)", capacity)
	}
	return nil
}

func scanStudent(row pgx.Row) (Student, error) {
	var st Student
	err := row.Scan(&st.ID, &st.Name, &st.Email, &st.SchoolID, &st.ClassroomID, &st.CreatedAt, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Student{}, shared.NotFound("student not found")
	}
	if err != nil {
		return Student{}, err
	}
	return st, nil
}
