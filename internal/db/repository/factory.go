package repository

import (
	"github.com/jmoiron/sqlx"
)

// Factory provides access to all repositories
type Factory struct {
	User      *UserRepository
	Reference *ReferenceRepository
	Category  *CategoryRepository
	Product   *ProductRepository
	Order     *OrderRepository
}

// NewFactory creates a new repository factory
func NewFactory(db *sqlx.DB) *Factory {
	return &Factory{
		User:      NewUserRepository(db),
		Reference: NewReferenceRepository(db),
		Category:  NewCategoryRepository(db),
		Product:   NewProductRepository(db),
		Order:     NewOrderRepository(db),
	}
}
