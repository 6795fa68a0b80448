package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/counterpos/pos-service/internal/db/repository"
	"github.com/counterpos/pos-service/internal/models"
)

// The interfaces below are satisfied by the sqlx repositories in
// internal/db/repository and by in-memory fakes in tests.

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context, descending bool) ([]models.User, error)
	Create(ctx context.Context, user models.User) (*models.User, error)
	Update(ctx context.Context, user models.User, revoke bool) (*models.User, error)
	IncrementTokenVersion(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ReferenceStore interface {
	RoleByName(ctx context.Context, name string) (*models.Role, error)
	StatusByName(ctx context.Context, name string) (*models.Status, error)
	EnsureRole(ctx context.Context, name string) (bool, error)
	EnsureStatus(ctx context.Context, name string) (bool, error)
}

type CategoryStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	GetByName(ctx context.Context, name string) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, name string) (*models.Category, error)
	Update(ctx context.Context, id uuid.UUID, name string) (*models.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountProducts(ctx context.Context, id uuid.UUID) (int, error)
}

type ProductStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	Create(ctx context.Context, product models.Product) (*models.Product, error)
	Update(ctx context.Context, product models.Product) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type OrderStore interface {
	Checkout(ctx context.Context, fn func(tx repository.CheckoutTx) error) error
	GetByOrderID(ctx context.Context, orderID string) (*models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus, actorID *uuid.UUID) (models.OrderStatus, error)
	Delete(ctx context.Context, orderID string, actorID *uuid.UUID) error
	DeleteAll(ctx context.Context, actorID *uuid.UUID) (int64, error)
	Events(ctx context.Context, orderID string) ([]models.OrderEvent, error)
}

type SalesStore interface {
	SalesTotal(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
}
