package permissions

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/academe-hq/academe/internal/shared"
)

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the Postgres-backed permission store.
func NewRepository(db *pgxpool.Pool) RepositoryPort {
	return &repository{db: db}
}

func invalidKeyError(raw string) error {
	return shared.Validation("invalid permission key: %s", raw)
}

func (r *repository) Upsert(ctx context.Context, perm Permission) error {
	query := `INSERT INTO permissions (key, resource, action, description, category)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO UPDATE SET
			resource = EXCLUDED.resource,
			action = EXCLUDED.action,
			description = EXCLUDED.description,
			category = EXCLUDED.category`
	_, err := r.db.Exec(ctx, query, perm.Key, perm.Resource, perm.Action, perm.Description, perm.Category)
	return err
}

func (r *repository) List(ctx context.Context) ([]Permission, error) {
	query := `SELECT key, resource, action, description, category FROM permissions ORDER BY category, key`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.Key, &p.Resource, &p.Action, &p.Description, &p.Category); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
