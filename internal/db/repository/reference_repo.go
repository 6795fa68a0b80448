package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/counterpos/pos-service/internal/models"
)

// ReferenceRepository reads and seeds the role and status lookup tables
type ReferenceRepository struct {
	db *sqlx.DB
}

func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

func (r *ReferenceRepository) RoleByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := r.db.GetContext(ctx, &role, `SELECT id, name FROM roles WHERE name = $1`, name); err != nil {
		return nil, fmt.Errorf("failed to get role %q: %w", name, translate(err))
	}
	return &role, nil
}

func (r *ReferenceRepository) StatusByName(ctx context.Context, name string) (*models.Status, error) {
	var status models.Status
	if err := r.db.GetContext(ctx, &status, `SELECT id, name FROM user_statuses WHERE name = $1`, name); err != nil {
		return nil, fmt.Errorf("failed to get status %q: %w", name, translate(err))
	}
	return &status, nil
}

// EnsureRole inserts the role if missing and reports whether it did.
func (r *ReferenceRepository) EnsureRole(ctx context.Context, name string) (bool, error) {
	return r.ensure(ctx, `INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
}

// EnsureStatus inserts the status if missing and reports whether it did.
func (r *ReferenceRepository) EnsureStatus(ctx context.Context, name string) (bool, error) {
	return r.ensure(ctx, `INSERT INTO user_statuses (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
}

func (r *ReferenceRepository) ensure(ctx context.Context, query, name string) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, name)
	if err != nil {
		return false, fmt.Errorf("failed to seed %q: %w", name, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}
