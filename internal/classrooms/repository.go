package classrooms

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/academe-hq/academe/internal/platform/db"
	"github.com/academe-hq/academe/internal/shared"
)

// RepositoryPort defines data access for classrooms.
type RepositoryPort interface {
	Create(ctx context.Context, c Classroom) (Classroom, error)
	GetByID(ctx context.Context, id uuid.UUID) (Classroom, error)
	ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]Classroom, error)
	Update(ctx context.Context, c Classroom) (Classroom, error)
	// DeleteCascade unassigns the classroom's students and deletes its
	// resources before the classroom row, in one transaction.
	DeleteCascade(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the Postgres-backed classroom store.
func NewRepository(db *pgxpool.Pool) RepositoryPort {
	return &repository{db: db}
}

const classroomColumns = `id, name, school_id, capacity, resources, created_at, updated_at`

func (r *repository) Create(ctx context.Context, c Classroom) (Classroom, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	query := `INSERT INTO classrooms (id, name, school_id, capacity, resources)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query, c.ID, c.Name, c.SchoolID, c.Capacity, c.Resources).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Classroom{}, shared.Duplicate("classroom name already exists in this school")
		}
		return Classroom{}, err
	}
	return c, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (Classroom, error) {
	row := r.db.QueryRow(ctx, `SELECT `+classroomColumns+` FROM classrooms WHERE id = $1`, id)
	return scanClassroom(row)
}

func (r *repository) ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]Classroom, error) {
	rows, err := r.db.Query(ctx, `SELECT `+classroomColumns+` FROM classrooms WHERE school_id = $1 ORDER BY name`, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Classroom
	for rows.Next() {
		var c Classroom
		if err := rows.Scan(&c.ID, &c.Name, &c.SchoolID, &c.Capacity, &c.Resources, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) Update(ctx context.Context, c Classroom) (Classroom, error) {
	query := `UPDATE classrooms SET name = $2, capacity = $3, resources = $4, updated_at = now()
		WHERE id = $1 RETURNING ` + classroomColumns
	updated, err := scanClassroom(r.db.QueryRow(ctx, query, c.ID, c.Name, c.Capacity, c.Resources))
	if err != nil && db.IsUniqueViolation(err) {
		return Classroom{}, shared.Duplicate("classroom name already exists in this school")
	}
	return updated, err
}

func (r *repository) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE students SET classroom_id = NULL, updated_at = now() WHERE classroom_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM resources WHERE classroom_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM classrooms WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.NotFound("classroom not found")
		}
		return nil
	})
}

func scanClassroom(row pgx.Row) (Classroom, error) {
	var c Classroom
	err := row.Scan(&c.ID, &c.Name, &c.SchoolID, &c.Capacity, &c.Resources, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Classroom{}, shared.NotFound("classroom not found")
	}
	if err != nil {
		return Classroom{}, err
	}
	return c, nil
}
