package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/academe-hq/academe/internal/platform/db"
	"github.com/academe-hq/academe/internal/shared"
)

// Identity is a local credential record. Its ID doubles as the auth ID seen
// by the rest of the application.
type Identity struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// IdentityRepositoryPort defines data access for local identities.
type IdentityRepositoryPort interface {
	Create(ctx context.Context, email, passwordHash string) (Identity, error)
	GetByEmail(ctx context.Context, email string) (Identity, bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type identityRepository struct {
	db *pgxpool.Pool
}

// NewIdentityRepository builds the Postgres-backed identity store.
func NewIdentityRepository(db *pgxpool.Pool) IdentityRepositoryPort {
	return &identityRepository{db: db}
}

func (r *identityRepository) Create(ctx context.Context, email, passwordHash string) (Identity, error) {
	id := Identity{ID: uuid.New(), Email: email, PasswordHash: passwordHash}
	query := `INSERT INTO auth_identities (id, email, password_hash) VALUES ($1, $2, $3) RETURNING created_at`
	if err := r.db.QueryRow(ctx, query, id.ID, id.Email, id.PasswordHash).Scan(&id.CreatedAt); err != nil {
		if db.IsUniqueViolation(err) {
			return Identity{}, shared.Duplicate("email already registered")
		}
		return Identity{}, err
	}
	return id, nil
}

func (r *identityRepository) GetByEmail(ctx context.Context, email string) (Identity, bool, error) {
	query := `SELECT id, email, password_hash, created_at FROM auth_identities WHERE email = $1`
	var id Identity
	err := r.db.QueryRow(ctx, query, email).Scan(&id.ID, &id.Email, &id.PasswordHash, &id.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Identity{}, false, nil
	}
	if err != nil {
		return Identity{}, false, err
	}
	return id, true, nil
}

func (r *identityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM auth_identities WHERE id = $1`, id)
	return err
}
