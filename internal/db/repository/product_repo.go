package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/counterpos/pos-service/internal/models"
)

const productColumns = `
	p.id, p.name, p.description, p.price, p.image_url, p.category_id,
	c.name AS category_name, p.quantity, p.is_active, p.created_at, p.updated_at
`

// ProductRepository handles product data access
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// GetByID retrieves a product with its category name
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1
	`

	var product models.Product
	if err := r.db.GetContext(ctx, &product, query, id); err != nil {
		return nil, fmt.Errorf("failed to get product: %w", translate(err))
	}
	return &product, nil
}

// List retrieves products, optionally restricted to one category
func (r *ProductRepository) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE ($1::uuid IS NULL OR p.category_id = $1)
	`
	if filter.Descending {
		query += ` ORDER BY p.name DESC`
	} else {
		query += ` ORDER BY p.name ASC`
	}

	products := []models.Product{}
	if err := r.db.SelectContext(ctx, &products, query, filter.CategoryID); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Create creates a new product
func (r *ProductRepository) Create(ctx context.Context, product models.Product) (*models.Product, error) {
	query := `
		INSERT INTO products (name, description, price, image_url, category_id, quantity, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id uuid.UUID
	err := r.db.GetContext(
		ctx,
		&id,
		query,
		product.Name,
		product.Description,
		product.Price,
		product.ImageURL,
		product.CategoryID,
		product.Quantity,
		product.IsActive,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", translate(err))
	}
	return r.GetByID(ctx, id)
}

// Update replaces a product's editable fields
func (r *ProductRepository) Update(ctx context.Context, product models.Product) (*models.Product, error) {
	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, image_url = $4,
		    category_id = $5, quantity = $6, is_active = $7, updated_at = now()
		WHERE id = $8
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.Name,
		product.Description,
		product.Price,
		product.ImageURL,
		product.CategoryID,
		product.Quantity,
		product.IsActive,
		product.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", translate(err))
	}
	if err := requireAffected(result); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return r.GetByID(ctx, product.ID)
}

// Delete deletes a product. Historical orders keep their item snapshots.
func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}
