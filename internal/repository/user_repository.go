package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutor-moderation-api/internal/models"
)

const userColumns = `id, email, full_name, role, active, login_method, last_signed_in, deleted_at, created_at, updated_at`

// UserRepository provides database access for marketplace accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns a user by identifier, including soft-deleted accounts.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// SoftDelete anonymizes the account in a single statement. It reports false when the row
// was already deleted or does not exist; related sessions, ratings and overrides are untouched.
func (r *UserRepository) SoftDelete(ctx context.Context, id string, identity models.AnonymizedIdentity, at time.Time) (bool, error) {
	const query = `UPDATE users
		SET full_name = $2, email = $3, role = $4, active = FALSE, deleted_at = $5, updated_at = $5
		WHERE id = $1 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, identity.FullName, identity.Email, identity.Role, at)
	if err != nil {
		return false, fmt.Errorf("soft delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("soft delete user rows affected: %w", err)
	}
	return affected == 1, nil
}
