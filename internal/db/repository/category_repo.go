package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/counterpos/pos-service/internal/models"
)

// CategoryRepository handles category data access
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// GetByID retrieves a category by ID
func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM categories
		WHERE id = $1
	`

	var category models.Category
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		return nil, fmt.Errorf("failed to get category: %w", translate(err))
	}
	return &category, nil
}

// GetByName retrieves a category by exact name
func (r *CategoryRepository) GetByName(ctx context.Context, name string) (*models.Category, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM categories
		WHERE name = $1
	`

	var category models.Category
	if err := r.db.GetContext(ctx, &category, query, name); err != nil {
		return nil, fmt.Errorf("failed to get category by name: %w", translate(err))
	}
	return &category, nil
}

// List retrieves all categories sorted by name
func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM categories
		ORDER BY name ASC
	`

	categories := []models.Category{}
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Create creates a new category
func (r *CategoryRepository) Create(ctx context.Context, name string) (*models.Category, error) {
	query := `
		INSERT INTO categories (name)
		VALUES ($1)
		RETURNING id, name, created_at, updated_at
	`

	var created models.Category
	if err := r.db.GetContext(ctx, &created, query, name); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", translate(err))
	}
	return &created, nil
}

// Update renames a category
func (r *CategoryRepository) Update(ctx context.Context, id uuid.UUID, name string) (*models.Category, error) {
	query := `
		UPDATE categories
		SET name = $1, updated_at = now()
		WHERE id = $2
		RETURNING id, name, created_at, updated_at
	`

	var updated models.Category
	if err := r.db.GetContext(ctx, &updated, query, name, id); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", translate(err))
	}
	return &updated, nil
}

// Delete deletes a category
func (r *CategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

// CountProducts counts products that reference the category
func (r *CategoryRepository) CountProducts(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM products WHERE category_id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to count products in category: %w", err)
	}
	return count, nil
}
