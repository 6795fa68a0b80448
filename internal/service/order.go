package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/counterpos/pos-service/internal/apperr"
	"github.com/counterpos/pos-service/internal/db/repository"
	"github.com/counterpos/pos-service/internal/models"
)

// OrderService handles checkout and order history
type OrderService struct {
	orders   OrderStore
	notifier Notifier
	newID    func() string
}

// NewOrderService creates a new order service
func NewOrderService(orders OrderStore, notifier Notifier) *OrderService {
	return &OrderService{
		orders:   orders,
		notifier: notifierOrNop(notifier),
		newID:    func() string { return uuid.NewString() },
	}
}

type cartLine struct {
	productID uuid.UUID
	quantity  int
}

// OrderNotice is pushed to live clients when an order changes
type OrderNotice struct {
	OrderID        string             `json:"orderId"`
	Status         models.OrderStatus `json:"status,omitempty"`
	PreviousStatus models.OrderStatus `json:"previousStatus,omitempty"`
	TotalAmount    *decimal.Decimal   `json:"totalAmount,omitempty"`
	CreatedBy      string             `json:"createdBy,omitempty"`
}

// CreateOrder validates the cart against live stock, charges catalog prices,
// decrements stock and stores the order. All reads and writes share one
// transaction, so a failure at any step leaves stock untouched.
func (s *OrderService) CreateOrder(ctx context.Context, req models.OrderRequest, actor *models.User) (*models.CheckoutResult, error) {
	lines, err := validateOrderRequest(req)
	if err != nil {
		return nil, err
	}
	// amount_paid is stored as NUMERIC(12,2)
	amountPaid := req.AmountPaid.Round(2)

	order := &models.Order{
		OrderID:       s.newID(),
		AmountPaid:    amountPaid,
		OrderType:     req.OrderType,
		PaymentMethod: req.PaymentMethod,
		Status:        models.OrderStatusCompleted,
		CreatedByID:   actorID(actor),
		Items:         make([]models.OrderItem, 0, len(lines)),
	}
	remaining := map[uuid.UUID]int{}

	err = s.orders.Checkout(ctx, func(tx repository.CheckoutTx) error {
		reserved := map[uuid.UUID]int{}
		total := decimal.Zero

		for _, line := range lines {
			product, err := tx.LockProduct(ctx, line.productID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return apperr.NotFound("Product %s not found", line.productID)
				}
				return apperr.Internal("Failed to create order", err)
			}
			if !product.IsActive {
				return apperr.NotFound("Product %s not found", line.productID)
			}

			available := product.Quantity - reserved[line.productID]
			if available < line.quantity {
				return apperr.BusinessRule("Insufficient stock for %s: available %d, ordered %d",
					product.Name, available, line.quantity)
			}
			reserved[line.productID] += line.quantity
			remaining[line.productID] = product.Quantity - reserved[line.productID]

			item := models.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Price:       product.Price,
				Quantity:    line.quantity,
			}
			total = total.Add(item.LineTotal())
			order.Items = append(order.Items, item)
		}

		if amountPaid.LessThan(total) {
			return apperr.BusinessRule("Insufficient payment: total %s, paid %s", total.String(), amountPaid.String())
		}
		order.TotalAmount = total
		order.ChangeGiven = amountPaid.Sub(total)

		for _, item := range order.Items {
			if err := tx.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return apperr.Internal(fmt.Sprintf("Failed to update quantity for %s", item.ProductID), err)
			}
		}

		if err := tx.InsertOrder(ctx, order); err != nil {
			return apperr.Internal("Failed to create order", err)
		}

		detail, _ := json.Marshal(map[string]any{
			"totalAmount": order.TotalAmount,
			"items":       len(order.Items),
		})
		if err := tx.AppendEvent(ctx, models.OrderEvent{
			OrderID: order.OrderID,
			Action:  models.OrderEventCreated,
			ActorID: order.CreatedByID,
			Detail:  detail,
		}); err != nil {
			return apperr.Internal("Failed to create order", err)
		}
		return nil
	})
	if err != nil {
		var appErr *apperr.Error
		if !errors.As(err, &appErr) {
			err = apperr.Internal("Failed to create order", err)
		}
		return nil, err
	}

	zap.L().Info("order created",
		zap.String("orderId", order.OrderID),
		zap.String("total", order.TotalAmount.String()),
		zap.Int("items", len(order.Items)))

	s.notifier.Publish(EventOrderNew, OrderNotice{
		OrderID:     order.OrderID,
		Status:      order.Status,
		TotalAmount: &order.TotalAmount,
		CreatedBy:   actorName(actor),
	})
	for id, qty := range remaining {
		s.notifier.Publish(EventInventoryUpdate, InventoryChange{Action: "stock", Kind: "product", ID: id.String(), Quantity: &qty})
	}

	return &models.CheckoutResult{OrderID: order.OrderID, ChangeGiven: order.ChangeGiven}, nil
}

func validateOrderRequest(req models.OrderRequest) ([]cartLine, error) {
	if len(req.Items) == 0 {
		return nil, apperr.Validation("Order must contain at least one item",
			apperr.FieldError{Field: "items", Message: "at least one item is required"})
	}
	if req.AmountPaid == nil || req.AmountPaid.IsNegative() {
		return nil, apperr.Validation("Invalid amountPaid. Must be a non-negative number.",
			apperr.FieldError{Field: "amountPaid", Message: "must be a non-negative number"})
	}

	var fields []apperr.FieldError
	switch req.OrderType {
	case models.OrderTypeDineIn, models.OrderTypeTakeOut, models.OrderTypeDelivery:
	default:
		fields = append(fields, apperr.FieldError{Field: "orderType", Message: "must be one of Dine In, Take Out, Delivery"})
	}
	switch req.PaymentMethod {
	case models.PaymentCash, models.PaymentGCash:
	default:
		fields = append(fields, apperr.FieldError{Field: "paymentMethod", Message: "must be one of Cash, GCash"})
	}

	lines := make([]cartLine, 0, len(req.Items))
	for i, item := range req.Items {
		id, err := uuid.Parse(item.ProductID)
		if err != nil {
			fields = append(fields, apperr.FieldError{Field: fmt.Sprintf("items[%d].productId", i), Message: "must be a valid id"})
			continue
		}
		if item.Quantity < 1 {
			fields = append(fields, apperr.FieldError{Field: fmt.Sprintf("items[%d].quantity", i), Message: "must be at least 1"})
			continue
		}
		lines = append(lines, cartLine{productID: id, quantity: item.Quantity})
	}

	if len(fields) > 0 {
		return nil, apperr.Validation("Validation failed", fields...)
	}
	return lines, nil
}

// ListOrders returns every order, newest first
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch orders", err)
	}
	return orders, nil
}

// GetOrder returns one order by its external id
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Order not found")
		}
		return nil, apperr.Internal("Failed to fetch order", err)
	}
	return order, nil
}

// UpdateOrderStatus is the administrative correction path. Only the status
// changes; cancelling does not restock.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus, actor *models.User) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperr.Validation("Invalid status",
			apperr.FieldError{Field: "status", Message: "must be one of Pending, Completed, Cancelled"})
	}

	prev, err := s.orders.UpdateStatus(ctx, orderID, status, actorID(actor))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Order not found")
		}
		return nil, apperr.Internal("Failed to update order status", err)
	}

	zap.L().Info("order status changed",
		zap.String("orderId", orderID),
		zap.String("from", string(prev)),
		zap.String("to", string(status)),
		zap.String("by", actorName(actor)))
	s.notifier.Publish(EventOrderUpdate, OrderNotice{OrderID: orderID, Status: status, PreviousStatus: prev})

	return s.GetOrder(ctx, orderID)
}

// DeleteOrder hard-deletes one order
func (s *OrderService) DeleteOrder(ctx context.Context, orderID string, actor *models.User) error {
	if err := s.orders.Delete(ctx, orderID, actorID(actor)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Order not found")
		}
		return apperr.Internal("Failed to delete order", err)
	}

	zap.L().Info("order deleted", zap.String("orderId", orderID), zap.String("by", actorName(actor)))
	s.notifier.Publish(EventOrderDelete, OrderNotice{OrderID: orderID})
	return nil
}

// DeleteAllOrders removes the whole order history
func (s *OrderService) DeleteAllOrders(ctx context.Context, actor *models.User) (int64, error) {
	count, err := s.orders.DeleteAll(ctx, actorID(actor))
	if err != nil {
		return 0, apperr.Internal("Failed to delete orders", err)
	}

	zap.L().Warn("order history purged", zap.Int64("count", count), zap.String("by", actorName(actor)))
	s.notifier.Publish(EventOrderDelete, OrderNotice{OrderID: "*"})
	return count, nil
}

// OrderEvents returns the audit trail of an order, which outlives the
// order itself.
func (s *OrderService) OrderEvents(ctx context.Context, orderID string) ([]models.OrderEvent, error) {
	events, err := s.orders.Events(ctx, orderID)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch order events", err)
	}
	if len(events) == 0 {
		if _, err := s.GetOrder(ctx, orderID); err != nil {
			return nil, err
		}
	}
	return events, nil
}

func actorID(u *models.User) *uuid.UUID {
	if u == nil {
		return nil
	}
	id := u.ID
	return &id
}

func actorName(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.Username
}
