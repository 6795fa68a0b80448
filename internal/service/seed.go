package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/counterpos/pos-service/internal/db/repository"
	"github.com/counterpos/pos-service/internal/models"
)

// Seeder bootstraps reference data and the first admin account. Every step
// is idempotent; existing rows are left untouched.
type Seeder struct {
	users      UserStore
	refs       ReferenceStore
	categories CategoryStore
	products   ProductStore
}

func NewSeeder(users UserStore, refs ReferenceStore, categories CategoryStore, products ProductStore) *Seeder {
	return &Seeder{users: users, refs: refs, categories: categories, products: products}
}

// SeedReference ensures the admin/cashier roles and active/inactive statuses
func (s *Seeder) SeedReference(ctx context.Context) error {
	for _, role := range []string{models.RoleAdmin, models.RoleCashier} {
		created, err := s.refs.EnsureRole(ctx, role)
		if err != nil {
			return err
		}
		if created {
			zap.L().Info("seeded role", zap.String("role", role))
		}
	}
	for _, status := range []string{models.StatusActive, models.StatusInactive} {
		created, err := s.refs.EnsureStatus(ctx, status)
		if err != nil {
			return err
		}
		if created {
			zap.L().Info("seeded status", zap.String("status", status))
		}
	}
	return nil
}

// SeedAdmin creates an active admin with the given credentials unless the
// username is already taken. It reports whether a user was created.
func (s *Seeder) SeedAdmin(ctx context.Context, username, password string) (bool, error) {
	_, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}

	role, err := s.refs.RoleByName(ctx, models.RoleAdmin)
	if err != nil {
		return false, err
	}
	status, err := s.refs.StatusByName(ctx, models.StatusActive)
	if err != nil {
		return false, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}

	if _, err := s.users.Create(ctx, models.User{
		Name:         "Administrator",
		Username:     username,
		PasswordHash: hash,
		RoleID:       role.ID,
		StatusID:     status.ID,
	}); err != nil {
		return false, err
	}

	zap.L().Info("seeded admin user", zap.String("username", username))
	return true, nil
}

type sampleProduct struct {
	name, description string
	price             string
	quantity          int
}

var sampleCatalog = []struct {
	category string
	products []sampleProduct
}{
	{"Meals", []sampleProduct{
		{"Chicken Adobo", "Braised chicken with rice", "120.00", 30},
		{"Pork Sinigang", "Sour tamarind soup with rice", "150.00", 20},
	}},
	{"Drinks", []sampleProduct{
		{"Iced Tea", "House-brewed, 16oz", "45.00", 50},
		{"Bottled Water", "500ml", "25.00", 80},
	}},
	{"Desserts", []sampleProduct{
		{"Halo-Halo", "Shaved ice with mixed sweets", "95.00", 15},
	}},
}

// SeedSampleCatalog adds a small demo menu when no categories exist
func (s *Seeder) SeedSampleCatalog(ctx context.Context) (int, error) {
	existing, err := s.categories.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	count := 0
	for _, group := range sampleCatalog {
		category, err := s.categories.Create(ctx, group.category)
		if err != nil {
			return count, fmt.Errorf("failed to seed category %s: %w", group.category, err)
		}
		for _, p := range group.products {
			_, err := s.products.Create(ctx, models.Product{
				Name:        p.name,
				Description: p.description,
				Price:       decimal.RequireFromString(p.price),
				ImageURL:    "/images/placeholder.png",
				CategoryID:  category.ID,
				Quantity:    p.quantity,
				IsActive:    true,
			})
			if err != nil {
				return count, fmt.Errorf("failed to seed product %s: %w", p.name, err)
			}
			count++
		}
	}

	zap.L().Info("seeded sample catalog", zap.Int("products", count))
	return count, nil
}
