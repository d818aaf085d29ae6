package resources

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/academe-hq/academe/internal/platform/db"
	"github.com/academe-hq/academe/internal/shared"
)

// Filter narrows a resource listing. Unassigned selects resources with no
// classroom; it is mutually exclusive with ClassroomID.
type Filter struct {
	SchoolID    uuid.UUID
	ClassroomID *uuid.UUID
	Unassigned  bool
}

// RepositoryPort defines data access for resources.
type RepositoryPort interface {
	Create(ctx context.Context, res Resource) (Resource, error)
	GetByID(ctx context.Context, id uuid.UUID) (Resource, error)
	List(ctx context.Context, filter Filter) ([]Resource, error)
	Update(ctx context.Context, res Resource) (Resource, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the Postgres-backed resource store.
func NewRepository(db *pgxpool.Pool) RepositoryPort {
	return &repository{db: db}
}

const resourceColumns = `id, name, school_id, classroom_id, is_active, quantity, description, extra_data, created_at, updated_at`

func (r *repository) Create(ctx context.Context, res Resource) (Resource, error) {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	query := `INSERT INTO resources (id, name, school_id, classroom_id, is_active, quantity, description, extra_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query, res.ID, res.Name, res.SchoolID, res.ClassroomID,
		res.IsActive, res.Quantity, res.Description, res.ExtraData).
		Scan(&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Resource{}, shared.Duplicate("resource name already exists in this classroom")
		}
		return Resource{}, err
	}
	return res, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (Resource, error) {
	row := r.db.QueryRow(ctx, `SELECT `+resourceColumns+` FROM resources WHERE id = $1`, id)
	return scanResource(row)
}

func (r *repository) List(ctx context.Context, filter Filter) ([]Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE school_id = $1`
	args := []any{filter.SchoolID}
	switch {
	case filter.Unassigned:
		query += ` AND classroom_id IS NULL`
	case filter.ClassroomID != nil:
		query += ` AND classroom_id = $2`
		args = append(args, *filter.ClassroomID)
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Resource
	for rows.Next() {
		var res Resource
		if err := rows.Scan(&res.ID, &res.Name, &res.SchoolID, &res.ClassroomID, &res.IsActive,
			&res.Quantity, &res.Description, &res.ExtraData, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *repository) Update(ctx context.Context, res Resource) (Resource, error) {
	query := `UPDATE resources SET name = $2, classroom_id = $3, is_active = $4, quantity = $5,
		description = $6, extra_data = $7, updated_at = now()
		WHERE id = $1 RETURNING ` + resourceColumns
	updated, err := scanResource(r.db.QueryRow(ctx, query, res.ID, res.Name, res.ClassroomID,
		res.IsActive, res.Quantity, res.Description, res.ExtraData))
	if err != nil && db.IsUniqueViolation(err) {
		return Resource{}, shared.Duplicate("resource name already exists in this classroom")
	}
	return updated, err
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM resources WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("resource not found")
	}
	return nil
}

func scanResource(row pgx.Row) (Resource, error) {
	var res Resource
	err := row.Scan(&res.ID, &res.Name, &res.SchoolID, &res.ClassroomID, &res.IsActive,
		&res.Quantity, &res.Description, &res.ExtraData, &res.CreatedAt, &res.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Resource{}, shared.NotFound("resource not found")
	}
	if err != nil {
		return Resource{}, err
	}
	return res, nil
}
