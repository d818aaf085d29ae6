package memberships

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/academe-hq/academe/internal/rbac"
)

// RepositoryPort defines data access for memberships.
type RepositoryPort interface {
	Create(ctx context.Context, userID uuid.UUID, schoolID *uuid.UUID, roleID uuid.UUID) (Membership, error)
	Find(ctx context.Context, userID uuid.UUID, schoolID *uuid.UUID) (Membership, bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListGrantsByUser(ctx context.Context, userID uuid.UUID) ([]rbac.Grant, error)
	ListMembersBySchool(ctx context.Context, schoolID uuid.UUID) ([]Member, error)
	ListUserIDsByRole(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the Postgres-backed membership store.
func NewRepository(db *pgxpool.Pool) RepositoryPort {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, userID uuid.UUID, schoolID *uuid.UUID, roleID uuid.UUID) (Membership, error) {
	m := Membership{ID: uuid.New(), UserID: userID, SchoolID: schoolID, RoleID: roleID}
	query := `INSERT INTO school_memberships (id, user_id, school_id, role_id) VALUES ($1, $2, $3, $4) RETURNING created_at`
	if err := r.db.QueryRow(ctx, query, m.ID, m.UserID, m.SchoolID, m.RoleID).Scan(&m.CreatedAt); err != nil {
		return Membership{}, err
	}
	return m, nil
}

func (r *repository) Find(ctx context.Context, userID uuid.UUID, schoolID *uuid.UUID) (Membership, bool, error) {
	query := `SELECT id, user_id, school_id, role_id, created_at FROM school_memberships
		WHERE user_id = $1 AND school_id IS NOT DISTINCT FROM $2`
	var m Membership
	err := r.db.QueryRow(ctx, query, userID, schoolID).Scan(&m.ID, &m.UserID, &m.SchoolID, &m.RoleID, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Membership{}, false, nil
	}
	if err != nil {
		return Membership{}, false, err
	}
	return m, true, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM school_memberships WHERE id = $1`, id)
	return err
}

func (r *repository) ListGrantsByUser(ctx context.Context, userID uuid.UUID) ([]rbac.Grant, error) {
	query := `SELECT m.id, m.school_id, COALESCE(s.name, ''), r.name, r.permissions
		FROM school_memberships m
		JOIN roles r ON r.id = m.role_id
		LEFT JOIN schools s ON s.id = m.school_id
		WHERE m.user_id = $1
		ORDER BY m.created_at`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []rbac.Grant
	for rows.Next() {
		var g rbac.Grant
		if err := rows.Scan(&g.MembershipID, &g.SchoolID, &g.SchoolName, &g.RoleName, &g.Permissions); err != nil {
			return nil, err
		}
		g.IsGlobal = g.SchoolID == nil
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

func (r *repository) ListMembersBySchool(ctx context.Context, schoolID uuid.UUID) ([]Member, error) {
	query := `SELECT m.id, m.user_id, u.display_name, r.name, r.permissions
		FROM school_memberships m
		JOIN users u ON u.id = m.user_id
		JOIN roles r ON r.id = m.role_id
		WHERE m.school_id = $1
		ORDER BY u.display_name`
	rows, err := r.db.Query(ctx, query, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.MembershipID, &m.UserID, &m.DisplayName, &m.RoleName, &m.Permissions); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *repository) ListUserIDsByRole(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id FROM school_memberships WHERE role_id = $1`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
