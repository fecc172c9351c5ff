package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

// Grant is one stored role assignment.
type Grant struct {
	UserID    uuid.UUID
	Role      string
	GrantedBy *uuid.UUID
	CreatedAt time.Time
}

const hasRoleQuery = `
	SELECT EXISTS (
		SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2
	)`

const grantRoleQuery = `
	INSERT INTO user_roles (user_id, role, granted_by)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id, role) DO NOTHING`

const revokeRoleQuery = `
	DELETE FROM user_roles WHERE user_id = $1 AND role = $2`

const listRolesQuery = `
	SELECT role FROM user_roles WHERE user_id = $1 ORDER BY role`

const listGrantsByRoleQuery = `
	SELECT user_id, role, granted_by, created_at
	FROM user_roles
	WHERE role = $1
	ORDER BY created_at`

const countRoleQuery = `
	SELECT count(*) FROM user_roles WHERE role = $1`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) HasRole(ctx context.Context, userID uuid.UUID, role string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, hasRoleQuery, userID, role).Scan(&ok)
	return ok, err
}

// Grant stores the assignment. It reports false when the user already had it.
func (r *Repository) Grant(ctx context.Context, userID uuid.UUID, role string, grantedBy *uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, grantRoleQuery, userID, role, grantedBy)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) Revoke(ctx context.Context, userID uuid.UUID, role string) error {
	tag, err := r.pool.Exec(ctx, revokeRoleQuery, userID, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) ListRoles(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx, listRolesQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := make([]string, 0)
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *Repository) ListByRole(ctx context.Context, role string) ([]Grant, error) {
	rows, err := r.pool.Query(ctx, listGrantsByRoleQuery, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grants := make([]Grant, 0)
	for rows.Next() {
		var g Grant
		if err := rows.Scan(&g.UserID, &g.Role, &g.GrantedBy, &g.CreatedAt); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

func (r *Repository) CountRole(ctx context.Context, role string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, countRoleQuery, role).Scan(&n)
	return n, err
}
