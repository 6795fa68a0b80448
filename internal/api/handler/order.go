package handler

import (
	"net/http"

	"github.com/counterpos/pos-service/internal/api"
	"github.com/counterpos/pos-service/internal/models"
	"github.com/counterpos/pos-service/internal/service"
)

// OrderHandler handles order-related requests
type OrderHandler struct {
	orderService *service.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

type deletedCount struct {
	DeletedCount int64 `json:"deletedCount"`
}

// CreateOrder checks out a cart. Field validation happens in the service so
// cart errors carry item positions.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		api.Error(w, err)
		return
	}

	var req models.OrderRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, err)
		return
	}

	result, err := h.orderService.CreateOrder(r.Context(), req, user)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.Created(w, "Order created successfully", result)
}

// ListOrders lists all orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.ListOrders(r.Context())
	if err != nil {
		api.Error(w, err)
		return
	}

	api.Success(w, "Orders fetched", orders)
}

// GetOrder gets an order by its order id
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderService.GetOrder(r.Context(), r.PathValue("orderId"))
	if err != nil {
		api.Error(w, err)
		return
	}

	api.Success(w, "Order fetched", order)
}

// UpdateOrderStatus corrects an order's status
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		api.Error(w, err)
		return
	}

	var req models.OrderStatusRequest
	if err := api.DecodeAndValidate(r, &req); err != nil {
		api.Error(w, err)
		return
	}

	order, err := h.orderService.UpdateOrderStatus(r.Context(), r.PathValue("orderId"), req.Status, user)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.Success(w, "Order status updated", order)
}

// DeleteOrder deletes one order
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		api.Error(w, err)
		return
	}

	orderID := r.PathValue("orderId")
	if err := h.orderService.DeleteOrder(r.Context(), orderID, user); err != nil {
		api.Error(w, err)
		return
	}

	api.Success(w, "Order deleted", idResponse{ID: orderID})
}

// DeleteAllOrders purges the order history
func (h *OrderHandler) DeleteAllOrders(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		api.Error(w, err)
		return
	}

	count, err := h.orderService.DeleteAllOrders(r.Context(), user)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.Success(w, "All orders deleted", deletedCount{DeletedCount: count})
}

// ListOrderEvents returns an order's audit trail
func (h *OrderHandler) ListOrderEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.orderService.OrderEvents(r.Context(), r.PathValue("orderId"))
	if err != nil {
		api.Error(w, err)
		return
	}

	api.Success(w, "Order events fetched", events)
}
