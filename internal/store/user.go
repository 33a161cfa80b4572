package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/trendystore/authserver/internal/db"
	"github.com/trendystore/authserver/types"
)

// Lookup columns accepted by getBy and taken.
const (
	columnUsername = "username"
	columnEmail    = "email"
	columnPhone    = "phone"
)

const userColumns = `id, first_name, last_name, COALESCE(email, ''), username, COALESCE(phone, ''), ` +
	`password_hash, is_active, login_attempts_count, created_at, updated_at`

// UserRepository handles persistence for users and their role links.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.Username,
		&user.Phone,
		&user.PasswordHash,
		&user.IsActive,
		&user.LoginAttemptsCount,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return r.getBy(ctx, columnUsername, username)
}

func (r *UserRepository) getBy(ctx context.Context, column, value string) (types.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, column)
	user, err := scanUser(r.db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// UsernameTaken reports whether another user (id != excludeID) holds username.
// An excludeID of 0 matches every user.
func (r *UserRepository) UsernameTaken(ctx context.Context, username string, excludeID int) (bool, error) {
	return r.taken(ctx, columnUsername, username, excludeID)
}

func (r *UserRepository) EmailTaken(ctx context.Context, email string, excludeID int) (bool, error) {
	return r.taken(ctx, columnEmail, email, excludeID)
}

func (r *UserRepository) PhoneTaken(ctx context.Context, phone string, excludeID int) (bool, error) {
	return r.taken(ctx, columnPhone, phone, excludeID)
}

func (r *UserRepository) taken(ctx context.Context, column, value string, excludeID int) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM users WHERE %s = $1 AND id <> $2)`, column)
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, value, excludeID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Create inserts the user and links it to roleIDs in one transaction.
func (r *UserRepository) Create(ctx context.Context, user types.User, roleIDs []int) (types.User, error) {
	const query = `
		INSERT INTO users (first_name, last_name, email, username, phone, password_hash, is_active, login_attempts_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := db.WithTx(ctx, r.db, func(ctx context.Context, tx db.DBTX) error {
		if err := tx.QueryRowContext(
			ctx,
			query,
			user.FirstName,
			user.LastName,
			nullIfEmpty(user.Email),
			user.Username,
			nullIfEmpty(user.Phone),
			user.PasswordHash,
			user.IsActive,
			user.LoginAttemptsCount,
		).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return err
		}
		return linkRoles(ctx, tx, user.ID, roleIDs)
	})
	if err != nil {
		return types.User{}, translate(err)
	}
	return user, nil
}

// Update writes the profile and credential fields. Throttle and active
// state have their own conditional writes.
func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	user.UpdatedAt = time.Now()

	const query = `
		UPDATE users
		SET first_name = $1,
			last_name = $2,
			email = $3,
			username = $4,
			phone = $5,
			password_hash = $6,
			updated_at = $7
		WHERE id = $8`
	result, err := r.db.ExecContext(
		ctx,
		query,
		user.FirstName,
		user.LastName,
		nullIfEmpty(user.Email),
		user.Username,
		nullIfEmpty(user.Phone),
		user.PasswordHash,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return types.User{}, translate(err)
	}
	if err := expectAffected(result); err != nil {
		return types.User{}, err
	}
	return user, nil
}

// IncrementLoginAttempts adds one to the attempt counter of an active user
// whose counter is at most ceiling and returns the new value. ErrNotFound
// means no row matched: the user is gone, inactive or already past ceiling.
func (r *UserRepository) IncrementLoginAttempts(ctx context.Context, id, ceiling int) (int, error) {
	const query = `UPDATE users SET login_attempts_count = login_attempts_count + 1, updated_at = now() WHERE id = $1 AND is_active AND login_attempts_count <= $2 RETURNING login_attempts_count`
	var attempts int
	if err := r.db.QueryRowContext(ctx, query, id, ceiling).Scan(&attempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return attempts, nil
}

func (r *UserRepository) ResetLoginAttempts(ctx context.Context, id int) error {
	const query = `UPDATE users SET login_attempts_count = 0, updated_at = now() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *UserRepository) SetActive(ctx context.Context, id int, active bool) error {
	const query = `UPDATE users SET is_active = $1, updated_at = now() WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, active, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// SetRoles replaces the user's role links.
func (r *UserRepository) SetRoles(ctx context.Context, userID int, roleIDs []int) error {
	return db.WithTx(ctx, r.db, func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
			return err
		}
		return linkRoles(ctx, tx, userID, roleIDs)
	})
}

// List returns a page of users whose username, names, phone or email
// contain search (case-insensitive), and the total match count.
func (r *UserRepository) List(ctx context.Context, search string, offset, limit int) ([]types.User, int, error) {
	where := ""
	args := []any{}
	if search = strings.TrimSpace(search); search != "" {
		where = `WHERE username ILIKE $1 OR first_name ILIKE $1 OR last_name ILIKE $1 OR phone ILIKE $1 OR email ILIKE $1`
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := fmt.Sprintf(`SELECT %s FROM users %s ORDER BY id OFFSET $%d LIMIT $%d`,
		userColumns, where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, listQuery, append(args, offset, limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := []types.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func linkRoles(ctx context.Context, tx db.DBTX, userID int, roleIDs []int) error {
	const query = `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	for _, roleID := range roleIDs {
		if _, err := tx.ExecContext(ctx, query, userID, roleID); err != nil {
			return err
		}
	}
	return nil
}

func expectAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullIfEmpty(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
