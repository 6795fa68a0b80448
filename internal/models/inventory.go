package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category groups products on the catalog screen
type Category struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Product is a sellable item. Quantity is the live stock counter.
type Product struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	Name         string          `db:"name" json:"name"`
	Description  string          `db:"description" json:"description"`
	Price        decimal.Decimal `db:"price" json:"price"`
	ImageURL     string          `db:"image_url" json:"imageUrl"`
	CategoryID   uuid.UUID       `db:"category_id" json:"categoryId"`
	CategoryName string          `db:"category_name" json:"category"`
	Quantity     int             `db:"quantity" json:"quantity"`
	IsActive     bool            `db:"is_active" json:"isActive"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updatedAt"`
}

// CategoryRequest is used for category creation/update
type CategoryRequest struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
}

// ProductRequest is used for product creation/update
type ProductRequest struct {
	Name        string           `json:"name" validate:"required,notblank,max=200"`
	Description string           `json:"description" validate:"required,notblank"`
	Price       *decimal.Decimal `json:"price" validate:"required,gt=0"`
	ImageURL    string           `json:"imageUrl" validate:"required,notblank"`
	CategoryID  string           `json:"categoryId" validate:"required,uuid"`
	Quantity    *int             `json:"quantity" validate:"required,gte=0"`
	IsActive    *bool            `json:"isActive"`
}

// ProductFilter narrows and orders a product listing
type ProductFilter struct {
	CategoryID *uuid.UUID
	Descending bool
}
