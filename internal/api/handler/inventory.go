package handler

import (
	"net/http"

	"github.com/counterpos/pos-service/internal/api"
	"github.com/counterpos/pos-service/internal/models"
	"github.com/counterpos/pos-service/internal/service"
)

// InventoryHandler handles category and product requests
type InventoryHandler struct {
	inventoryService *service.InventoryService
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(inventoryService *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

// ListCategories lists all categories
func (h *InventoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.inventoryService.ListCategories(r.Context())
	if err != nil {
		api.Error(w, err)
		return
	}

	api.Success(w, "Categories fetched successfully", categories)
}

// CreateCategory creates a new category
func (h *InventoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req models.CategoryRequest
	if err := api.DecodeAndValidate(r, &req); err != nil {
		api.Error(w, err)
		return
	}

	category, err := h.inventoryService.CreateCategory(r.Context(), req)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.Created(w, "Category created successfully", category)
}

// UpdateCategory renames a category
func (h *InventoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "category")
	if err != nil {
		api.Error(w, err)
		return
	}

	var req models.CategoryRequest
	if err := api.DecodeAndValidate(r, &req); err != nil {
		api.Error(w, err)
		return
	}

	category, err := h.inventoryService.UpdateCategory(r.Context(), id, req)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.Success(w, "Category updated successfully", category)
}

// DeleteCategory deletes an unused category
func (h *InventoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "category")
	if err != nil {
		api.Error(w, err)
		return
	}

	if err := h.inventoryService.DeleteCategory(r.Context(), id); err != nil {
		api.Error(w, err)
		return
	}

	api.Success(w, "Category deleted successfully", idResponse{ID: id.String()})
}

// ListProducts lists products, optionally by ?categoryId= and ?sort=alpha-desc
func (h *InventoryHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	products, err := h.inventoryService.ListProducts(r.Context(), query.Get("categoryId"), query.Get("sort"))
	if err != nil {
		api.Error(w, err)
		return
	}

	api.Success(w, "Products fetched successfully", products)
}

// GetProduct gets a product by ID
func (h *InventoryHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "product")
	if err != nil {
		api.Error(w, err)
		return
	}

	product, err := h.inventoryService.GetProduct(r.Context(), id)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.Success(w, "Product fetched successfully", product)
}

// CreateProduct creates a new product
func (h *InventoryHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req models.ProductRequest
	if err := api.DecodeAndValidate(r, &req); err != nil {
		api.Error(w, err)
		return
	}

	product, err := h.inventoryService.CreateProduct(r.Context(), req)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.Created(w, "Product created successfully", product)
}

// UpdateProduct updates a product
func (h *InventoryHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "product")
	if err != nil {
		api.Error(w, err)
		return
	}

	var req models.ProductRequest
	if err := api.DecodeAndValidate(r, &req); err != nil {
		api.Error(w, err)
		return
	}

	product, err := h.inventoryService.UpdateProduct(r.Context(), id, req)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.Success(w, "Product updated successfully", product)
}

// DeleteProduct deletes a product
func (h *InventoryHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "product")
	if err != nil {
		api.Error(w, err)
		return
	}

	if err := h.inventoryService.DeleteProduct(r.Context(), id); err != nil {
		api.Error(w, err)
		return
	}

	api.Success(w, "Product deleted successfully", idResponse{ID: id.String()})
}
