package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/startup-vidyapith/apiserver/types"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, institutional_id, email, password_hash, role, branch, year,
	startup_name, designation, profile_complete, active, last_login_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	var lastLogin sql.NullTime
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.InstitutionalID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Branch,
		&user.Year,
		&user.StartupName,
		&user.Designation,
		&user.ProfileComplete,
		&user.Active,
		&lastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	if lastLogin.Valid {
		at := lastLogin.Time
		user.LastLoginAt = &at
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, strings.ToLower(email)))
}

func (r *UserRepository) GetByInstitutionalID(ctx context.Context, institutionalID string) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE institutional_id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, institutionalID))
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	const query = `
		INSERT INTO users (name, institutional_id, email, password_hash, role, branch, year,
			startup_name, designation, profile_complete, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Name,
		user.InstitutionalID,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Branch,
		user.Year,
		user.StartupName,
		user.Designation,
		user.ProfileComplete,
		user.Active,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		return types.User{}, mapWriteError(err)
	}
	return user, nil
}

// Update writes the editable profile fields of user. Credentials, email,
// institutional id and role are fixed at registration.
func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	user.UpdatedAt = time.Now().UTC()

	const query = `
		UPDATE users
		SET name = $1,
			branch = $2,
			year = $3,
			startup_name = $4,
			designation = $5,
			updated_at = $6
		WHERE id = $7`
	result, err := r.db.ExecContext(
		ctx,
		query,
		user.Name,
		user.Branch,
		user.Year,
		user.StartupName,
		user.Designation,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return types.User{}, mapWriteError(err)
	}
	if err := expectAffected(result); err != nil {
		return types.User{}, err
	}
	return r.GetByID(ctx, user.ID)
}

func (r *UserRepository) SetActive(ctx context.Context, id int, active bool) error {
	const query = `UPDATE users SET active = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, active, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *UserRepository) SetProfileComplete(ctx context.Context, id int, complete bool) error {
	const query = `UPDATE users SET profile_complete = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, complete, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *UserRepository) SetLastLogin(ctx context.Context, id int, at time.Time) error {
	const query = `UPDATE users SET last_login_at = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, at.UTC(), id)
	if err != nil {
		return err
	}
	return expectAffected(result)
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
