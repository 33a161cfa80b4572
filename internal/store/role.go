package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/trendystore/authserver/types"
)

// RoleRepository handles persistence for roles.
type RoleRepository struct {
	db *sql.DB
}

func NewRoleRepository(db *sql.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func scanRole(row rowScanner) (types.Role, error) {
	var role types.Role
	err := row.Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt)
	return role, err
}

func (r *RoleRepository) GetByID(ctx context.Context, id int) (types.Role, error) {
	const query = `SELECT id, name, created_at, updated_at FROM roles WHERE id = $1`
	role, err := scanRole(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Role{}, ErrNotFound
		}
		return types.Role{}, err
	}
	return role, nil
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (types.Role, error) {
	const query = `SELECT id, name, created_at, updated_at FROM roles WHERE name = $1`
	role, err := scanRole(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Role{}, ErrNotFound
		}
		return types.Role{}, err
	}
	return role, nil
}

// ListByNames returns the roles whose name is in names. Unknown names are skipped.
func (r *RoleRepository) ListByNames(ctx context.Context, names []string) ([]types.Role, error) {
	const query = `SELECT id, name, created_at, updated_at FROM roles WHERE name = ANY($1) ORDER BY id`
	return r.queryRoles(ctx, query, pq.Array(names))
}

// ListByUser returns the roles linked to userID.
func (r *RoleRepository) ListByUser(ctx context.Context, userID int) ([]types.Role, error) {
	const query = `
		SELECT r.id, r.name, r.created_at, r.updated_at
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.id`
	return r.queryRoles(ctx, query, userID)
}

// List returns a page of roles whose name contains name, and the total match count.
func (r *RoleRepository) List(ctx context.Context, name string, offset, limit int) ([]types.Role, int, error) {
	pattern := "%" + strings.TrimSpace(name) + "%"

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM roles WHERE name ILIKE $1`, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT id, name, created_at, updated_at
		FROM roles
		WHERE name ILIKE $1
		ORDER BY id
		OFFSET $2 LIMIT $3`
	roles, err := r.queryRoles(ctx, listQuery, pattern, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return roles, total, nil
}

func (r *RoleRepository) Create(ctx context.Context, role types.Role) (types.Role, error) {
	now := time.Now()
	role.CreatedAt = now
	role.UpdatedAt = now

	const query = `
		INSERT INTO roles (name, created_at, updated_at)
		VALUES ($1, $2, $3)
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, role.Name, role.CreatedAt, role.UpdatedAt).Scan(&role.ID); err != nil {
		return types.Role{}, translate(err)
	}
	return role, nil
}

func (r *RoleRepository) Update(ctx context.Context, role types.Role) (types.Role, error) {
	role.UpdatedAt = time.Now()

	const query = `UPDATE roles SET name = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, role.Name, role.UpdatedAt, role.ID)
	if err != nil {
		return types.Role{}, translate(err)
	}
	if err := expectAffected(result); err != nil {
		return types.Role{}, err
	}
	return role, nil
}

func (r *RoleRepository) queryRoles(ctx context.Context, query string, args ...any) ([]types.Role, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := []types.Role{}
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}
