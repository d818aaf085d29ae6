package roles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/academe-hq/academe/internal/platform/db"
	"github.com/academe-hq/academe/internal/shared"
)

// RepositoryPort defines data access for roles.
type RepositoryPort interface {
	Create(ctx context.Context, role Role) (Role, error)
	GetByID(ctx context.Context, id uuid.UUID) (Role, error)
	FindByName(ctx context.Context, schoolID *uuid.UUID, name string) (Role, bool, error)
	Update(ctx context.Context, id uuid.UUID, name string, permissions []string) (Role, error)
	DeleteWithMemberships(ctx context.Context, id uuid.UUID) error
	ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]Role, error)
	IsAssigned(ctx context.Context, userID, roleID uuid.UUID) (bool, error)
	UpsertSystem(ctx context.Context, role Role) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the Postgres-backed role store.
func NewRepository(db *pgxpool.Pool) RepositoryPort {
	return &repository{db: db}
}

const roleColumns = `id, name, description, permissions, school_id, is_system, created_at, updated_at`

func (r *repository) Create(ctx context.Context, role Role) (Role, error) {
	if role.ID == uuid.Nil {
		role.ID = uuid.New()
	}
	query := `INSERT INTO roles (id, name, description, permissions, school_id, is_system)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query, role.ID, role.Name, role.Description, role.Permissions, role.SchoolID, role.IsSystem).
		Scan(&role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Role{}, shared.Duplicate("role name already exists in this school")
		}
		return Role{}, err
	}
	return role, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (Role, error) {
	row := r.db.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id)
	return scanRole(row)
}

func (r *repository) FindByName(ctx context.Context, schoolID *uuid.UUID, name string) (Role, bool, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE school_id IS NOT DISTINCT FROM $1 AND name = $2`
	role, err := scanRole(r.db.QueryRow(ctx, query, schoolID, name))
	if shared.IsKind(err, shared.KindNotFound) {
		return Role{}, false, nil
	}
	if err != nil {
		return Role{}, false, err
	}
	return role, true, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, name string, permissions []string) (Role, error) {
	query := `UPDATE roles SET name = $2, permissions = $3, updated_at = now()
		WHERE id = $1 RETURNING ` + roleColumns
	role, err := scanRole(r.db.QueryRow(ctx, query, id, name, permissions))
	if err != nil && db.IsUniqueViolation(err) {
		return Role{}, shared.Duplicate("role name already exists in this school")
	}
	return role, err
}

// DeleteWithMemberships removes the role and every membership referencing it
// in one transaction.
func (r *repository) DeleteWithMemberships(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM school_memberships WHERE role_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.NotFound("role not found")
		}
		return nil
	})
}

func (r *repository) ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]Role, error) {
	rows, err := r.db.Query(ctx, `SELECT `+roleColumns+` FROM roles WHERE school_id = $1 ORDER BY name`, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Role
	for rows.Next() {
		role, err := scanRoleValues(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

func (r *repository) IsAssigned(ctx context.Context, userID, roleID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM school_memberships WHERE user_id = $1 AND role_id = $2)`
	err := r.db.QueryRow(ctx, query, userID, roleID).Scan(&exists)
	return exists, err
}

func (r *repository) UpsertSystem(ctx context.Context, role Role) error {
	if role.ID == uuid.Nil {
		role.ID = uuid.New()
	}
	// Matches on the (school_id, name) identity so reseeding never duplicates.
	query := `INSERT INTO roles (id, name, description, permissions, school_id, is_system)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		ON CONFLICT (COALESCE(school_id, '00000000-0000-0000-0000-000000000000'::uuid), name)
		DO UPDATE SET description = EXCLUDED.description, permissions = EXCLUDED.permissions, updated_at = now()`
	_, err := r.db.Exec(ctx, query, role.ID, role.Name, role.Description, role.Permissions, role.SchoolID)
	return err
}

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	err := row.Scan(&role.ID, &role.Name, &role.Description, &role.Permissions, &role.SchoolID, &role.IsSystem, &role.CreatedAt, &role.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, shared.NotFound("role not found")
	}
	if err != nil {
		return Role{}, err
	}
	return role, nil
}

func scanRoleValues(rows pgx.Rows) (Role, error) {
	var role Role
	err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.Permissions, &role.SchoolID, &role.IsSystem, &role.CreatedAt, &role.UpdatedAt)
	return role, err
}
