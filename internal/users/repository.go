package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/academe-hq/academe/internal/shared"
)

// RepositoryPort defines data access for user profiles.
type RepositoryPort interface {
	Create(ctx context.Context, authID, displayName string) (User, error)
	GetByAuthID(ctx context.Context, authID string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	DeleteByAuthID(ctx context.Context, authID string) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the Postgres-backed profile store.
func NewRepository(db *pgxpool.Pool) RepositoryPort {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, authID, displayName string) (User, error) {
	u := User{ID: uuid.New(), AuthID: authID, DisplayName: displayName}
	query := `INSERT INTO users (id, auth_id, display_name) VALUES ($1, $2, $3) RETURNING created_at`
	if err := r.db.QueryRow(ctx, query, u.ID, u.AuthID, u.DisplayName).Scan(&u.CreatedAt); err != nil {
		return User{}, err
	}
	return u, nil
}

func (r *repository) GetByAuthID(ctx context.Context, authID string) (User, error) {
	query := `SELECT id, auth_id, display_name, created_at FROM users WHERE auth_id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, authID))
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	query := `SELECT id, auth_id, display_name, created_at FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *repository) DeleteByAuthID(ctx context.Context, authID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM users WHERE auth_id = $1`, authID)
	return err
}

func (r *repository) scanOne(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.AuthID, &u.DisplayName, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, shared.NotFound("user not found")
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}
