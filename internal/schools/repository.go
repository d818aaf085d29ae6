package schools

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/academe-hq/academe/internal/platform/db"
	"github.com/academe-hq/academe/internal/roles"
	"github.com/academe-hq/academe/internal/shared"
)

// RepositoryPort defines data access for schools.
type RepositoryPort interface {
	// CreateWithOwner inserts the school, its system owner role and the
	// creator's owner membership in one transaction.
	CreateWithOwner(ctx context.Context, school School, creatorID uuid.UUID) (School, error)
	GetByID(ctx context.Context, id uuid.UUID) (School, error)
	ListAll(ctx context.Context) ([]School, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]School, error)
	Update(ctx context.Context, school School) (School, error)
	// DeleteCascade removes everything the school owns before the school row
	// and returns the user IDs whose memberships were dropped.
	DeleteCascade(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the Postgres-backed school store.
func NewRepository(db *pgxpool.Pool) RepositoryPort {
	return &repository{db: db}
}

const schoolColumns = `id, name, address, phone, created_at, updated_at`

func (r *repository) CreateWithOwner(ctx context.Context, school School, creatorID uuid.UUID) (School, error) {
	if school.ID == uuid.Nil {
		school.ID = uuid.New()
	}
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `INSERT INTO schools (id, name, address, phone) VALUES ($1, $2, $3, $4)
			RETURNING created_at, updated_at`
		if err := tx.QueryRow(ctx, query, school.ID, school.Name, school.Address, school.Phone).
			Scan(&school.CreatedAt, &school.UpdatedAt); err != nil {
			return err
		}

		roleID := uuid.New()
		roleQuery := `INSERT INTO roles (id, name, description, permissions, school_id, is_system)
			VALUES ($1, $2, $3, $4, $5, TRUE)`
		if _, err := tx.Exec(ctx, roleQuery, roleID, roles.OwnerRole, "School owner", []string{"*:*"}, school.ID); err != nil {
			return err
		}

		memberQuery := `INSERT INTO school_memberships (id, user_id, school_id, role_id) VALUES ($1, $2, $3, $4)`
		_, err := tx.Exec(ctx, memberQuery, uuid.New(), creatorID, school.ID, roleID)
		return err
	})
	if err != nil {
		return School{}, err
	}
	return school, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (School, error) {
	row := r.db.QueryRow(ctx, `SELECT `+schoolColumns+` FROM schools WHERE id = $1`, id)
	return scanSchool(row)
}

func (r *repository) ListAll(ctx context.Context) ([]School, error) {
	rows, err := r.db.Query(ctx, `SELECT `+schoolColumns+` FROM schools ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collectSchools(rows)
}

func (r *repository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]School, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+schoolColumns+` FROM schools WHERE id = ANY($1) ORDER BY name`, ids)
	if err != nil {
		return nil, err
	}
	return collectSchools(rows)
}

func (r *repository) Update(ctx context.Context, school School) (School, error) {
	query := `UPDATE schools SET name = $2, address = $3, phone = $4, updated_at = now()
		WHERE id = $1 RETURNING ` + schoolColumns
	row := r.db.QueryRow(ctx, query, school.ID, school.Name, school.Address, school.Phone)
	return scanSchool(row)
}

func (r *repository) DeleteCascade(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	var userIDs []uuid.UUID
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT user_id FROM school_memberships WHERE school_id = $1`, id)
		if err != nil {
			return err
		}
		userIDs = userIDs[:0]
		for rows.Next() {
			var userID uuid.UUID
			if err := rows.Scan(&userID); err != nil {
				rows.Close()
				return err
			}
			userIDs = append(userIDs, userID)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		// Children before parents; the school row goes last.
		statements := []string{
			`DELETE FROM students WHERE school_id = $1`,
			`DELETE FROM resources WHERE school_id = $1`,
			`DELETE FROM classrooms WHERE school_id = $1`,
			`DELETE FROM school_memberships WHERE school_id = $1`,
			`DELETE FROM roles WHERE school_id = $1`,
		}
		for _, stmt := range statements {
			if _, err := tx.Exec(ctx, stmt, id); err != nil {
				return err
			}
		}

		tag, err := tx.Exec(ctx, `DELETE FROM schools WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.NotFound("school not found")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}

func scanSchool(row pgx.Row) (School, error) {
	var s School
	err := row.Scan(&s.ID, &s.Name, &s.Address, &s.Phone, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return School{}, shared.NotFound("school not found")
	}
	if err != nil {
		return School{}, err
	}
	return s, nil
}

func collectSchools(rows pgx.Rows) ([]School, error) {
	defer rows.Close()
	var out []School
	for rows.Next() {
		var s School
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.Phone, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
