package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/counterpos/pos-service/internal/models"
)

const userSelect = `
	SELECT u.id, u.name, u.username, u.password_hash, u.role_id, r.name AS role,
	       u.status_id, s.name AS status, u.token_version, u.created_at, u.updated_at
	FROM users u
	JOIN roles r ON r.id = u.role_id
	JOIN user_statuses s ON s.id = u.status_id
`

// UserRepository handles user data access
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a user with role and status names
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, userSelect+` WHERE u.id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", translate(err))
	}
	return &user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, userSelect+` WHERE u.username = $1`, username); err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", translate(err))
	}
	return &user, nil
}

// List retrieves all users ordered by name
func (r *UserRepository) List(ctx context.Context, descending bool) ([]models.User, error) {
	query := userSelect + ` ORDER BY u.name ASC`
	if descending {
		query = userSelect + ` ORDER BY u.name DESC`
	}

	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user models.User) (*models.User, error) {
	query := `
		INSERT INTO users (name, username, password_hash, role_id, status_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id uuid.UUID
	err := r.db.GetContext(ctx, &id, query, user.Name, user.Username, user.PasswordHash, user.RoleID, user.StatusID)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", translate(err))
	}
	return r.GetByID(ctx, id)
}

// Update writes name, username, password hash, role and status as given.
// The token version is never taken from user; revoke bumps the stored value
// so a concurrent logout is not undone.
func (r *UserRepository) Update(ctx context.Context, user models.User, revoke bool) (*models.User, error) {
	query := `
		UPDATE users
		SET name = $1, username = $2, password_hash = $3, role_id = $4,
		    status_id = $5, token_version = token_version + $6, updated_at = now()
		WHERE id = $7
	`

	bump := 0
	if revoke {
		bump = 1
	}

	result, err := r.db.ExecContext(
		ctx,
		query,
		user.Name,
		user.Username,
		user.PasswordHash,
		user.RoleID,
		user.StatusID,
		bump,
		user.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", translate(err))
	}
	if err := requireAffected(result); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return r.GetByID(ctx, user.ID)
}

// IncrementTokenVersion revokes every token issued to the user so far
func (r *UserRepository) IncrementTokenVersion(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET token_version = token_version + 1, updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to increment token version: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return fmt.Errorf("failed to increment token version: %w", err)
	}
	return nil
}

// Delete deletes a user
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
