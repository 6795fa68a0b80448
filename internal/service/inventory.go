package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/counterpos/pos-service/internal/apperr"
	"github.com/counterpos/pos-service/internal/db/repository"
	"github.com/counterpos/pos-service/internal/models"
)

// SortAlphaDesc selects descending name order on list endpoints
const SortAlphaDesc = "alpha-desc"

// InventoryService handles category and product business logic
type InventoryService struct {
	categories CategoryStore
	products   ProductStore
	notifier   Notifier
}

// NewInventoryService creates a new inventory service
func NewInventoryService(categories CategoryStore, products ProductStore, notifier Notifier) *InventoryService {
	return &InventoryService{
		categories: categories,
		products:   products,
		notifier:   notifierOrNop(notifier),
	}
}

// ListCategories returns all categories sorted by name
func (s *InventoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch categories", err)
	}
	return categories, nil
}

// CreateCategory creates a category with a unique name
func (s *InventoryService) CreateCategory(ctx context.Context, req models.CategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if err := s.ensureCategoryNameFree(ctx, name, uuid.Nil); err != nil {
		return nil, err
	}

	created, err := s.categories.Create(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("Category already exists")
		}
		return nil, apperr.Internal("Failed to create category", err)
	}

	s.notifier.Publish(EventInventoryUpdate, InventoryChange{Action: "created", Kind: "category", ID: created.ID.String()})
	return created, nil
}

// UpdateCategory renames a category
func (s *InventoryService) UpdateCategory(ctx context.Context, id uuid.UUID, req models.CategoryRequest) (*models.Category, error) {
	if _, err := s.getCategory(ctx, id); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if err := s.ensureCategoryNameFree(ctx, name, id); err != nil {
		return nil, err
	}

	updated, err := s.categories.Update(ctx, id, name)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound("Category not found")
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperr.Conflict("Category already exists")
		}
		return nil, apperr.Internal("Failed to update category", err)
	}

	s.notifier.Publish(EventInventoryUpdate, InventoryChange{Action: "updated", Kind: "category", ID: id.String()})
	return updated, nil
}

// DeleteCategory deletes a category that no product references
func (s *InventoryService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.getCategory(ctx, id); err != nil {
		return err
	}

	count, err := s.categories.CountProducts(ctx, id)
	if err != nil {
		return apperr.Internal("Failed to delete category", err)
	}
	if count > 0 {
		return apperr.Conflict("Cannot delete category: %d product(s) are using it.", count)
	}

	if err := s.categories.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Category not found")
		}
		return apperr.Internal("Failed to delete category", err)
	}

	s.notifier.Publish(EventInventoryUpdate, InventoryChange{Action: "deleted", Kind: "category", ID: id.String()})
	return nil
}

// ListProducts lists products. categoryID may be empty or "all" for no
// filter; sort "alpha-desc" orders by name descending.
func (s *InventoryService) ListProducts(ctx context.Context, categoryID, sort string) ([]models.Product, error) {
	var filter models.ProductFilter

	if categoryID != "" && categoryID != "all" {
		id, err := uuid.Parse(categoryID)
		if err != nil {
			return nil, apperr.Validation("Invalid category ID", apperr.FieldError{Field: "categoryId", Message: "must be a valid id"})
		}
		filter.CategoryID = &id
	}
	filter.Descending = sort == SortAlphaDesc

	products, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch products", err)
	}
	return products, nil
}

// GetProduct returns one product
func (s *InventoryService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, apperr.Internal("Failed to fetch product", err)
	}
	return product, nil
}

// CreateProduct validates and stores a new product
func (s *InventoryService) CreateProduct(ctx context.Context, req models.ProductRequest) (*models.Product, error) {
	product, err := s.productFromRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	created, err := s.products.Create(ctx, *product)
	if err != nil {
		return nil, apperr.Internal("Failed to create product", err)
	}

	zap.L().Info("product created", zap.String("id", created.ID.String()), zap.String("name", created.Name))
	s.notifier.Publish(EventInventoryUpdate, InventoryChange{Action: "created", Kind: "product", ID: created.ID.String(), Quantity: &created.Quantity})
	return created, nil
}

// UpdateProduct replaces a product's editable fields
func (s *InventoryService) UpdateProduct(ctx context.Context, id uuid.UUID, req models.ProductRequest) (*models.Product, error) {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return nil, err
	}

	product, err := s.productFromRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	product.ID = id

	updated, err := s.products.Update(ctx, *product)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, apperr.Internal("Failed to update product", err)
	}

	s.notifier.Publish(EventInventoryUpdate, InventoryChange{Action: "updated", Kind: "product", ID: id.String(), Quantity: &updated.Quantity})
	return updated, nil
}

// DeleteProduct removes a product from the catalog
func (s *InventoryService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Product not found")
		}
		return apperr.Internal("Failed to delete product", err)
	}

	s.notifier.Publish(EventInventoryUpdate, InventoryChange{Action: "deleted", Kind: "product", ID: id.String()})
	return nil
}

func (s *InventoryService) productFromRequest(ctx context.Context, req models.ProductRequest) (*models.Product, error) {
	var fields []apperr.FieldError

	name := strings.TrimSpace(req.Name)
	if name == "" {
		fields = append(fields, apperr.FieldError{Field: "name", Message: "name is required"})
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		fields = append(fields, apperr.FieldError{Field: "description", Message: "description is required"})
	}
	if req.Price == nil || !req.Price.IsPositive() {
		fields = append(fields, apperr.FieldError{Field: "price", Message: "price must be greater than 0"})
	}
	if req.Quantity == nil || *req.Quantity < 0 {
		fields = append(fields, apperr.FieldError{Field: "quantity", Message: "quantity must be 0 or more"})
	}
	imageURL := strings.TrimSpace(req.ImageURL)
	if imageURL == "" {
		fields = append(fields, apperr.FieldError{Field: "imageUrl", Message: "imageUrl is required"})
	}
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		fields = append(fields, apperr.FieldError{Field: "categoryId", Message: "must be a valid id"})
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("Validation failed", fields...)
	}

	if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Validation("Invalid category", apperr.FieldError{Field: "categoryId", Message: "category does not exist"})
		}
		return nil, apperr.Internal("Failed to look up category", err)
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	return &models.Product{
		Name:        name,
		Description: description,
		Price:       req.Price.Round(2),
		ImageURL:    imageURL,
		CategoryID:  categoryID,
		Quantity:    *req.Quantity,
		IsActive:    isActive,
	}, nil
}

func (s *InventoryService) getCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Category not found")
		}
		return nil, apperr.Internal("Failed to fetch category", err)
	}
	return category, nil
}

func (s *InventoryService) ensureCategoryNameFree(ctx context.Context, name string, self uuid.UUID) error {
	existing, err := s.categories.GetByName(ctx, name)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return apperr.Internal("Failed to check category name", err)
	case existing.ID != self:
		return apperr.Conflict("Category already exists")
	}
	return nil
}
