package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusCompleted OrderStatus = "Completed"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

type OrderType string

const (
	OrderTypeDineIn   OrderType = "Dine In"
	OrderTypeTakeOut  OrderType = "Take Out"
	OrderTypeDelivery OrderType = "Delivery"
)

type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "Cash"
	PaymentGCash PaymentMethod = "GCash"
)

// Order is an immutable sale record; only Status and UpdatedAt change after
// creation. ID is the storage key and never leaves the service.
type Order struct {
	ID            int64           `db:"id" json:"-"`
	OrderID       string          `db:"order_id" json:"orderId"`
	TotalAmount   decimal.Decimal `db:"total_amount" json:"totalAmount"`
	AmountPaid    decimal.Decimal `db:"amount_paid" json:"amountPaid"`
	ChangeGiven   decimal.Decimal `db:"change_given" json:"changeGiven"`
	OrderType     OrderType       `db:"order_type" json:"orderType"`
	PaymentMethod PaymentMethod   `db:"payment_method" json:"paymentMethod"`
	Status        OrderStatus     `db:"status" json:"status"`
	CreatedByID   *uuid.UUID      `db:"created_by" json:"-"`
	CreatedBy     string          `db:"created_by_username" json:"createdBy"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`

	// Not stored directly in the orders table
	Items []OrderItem `db:"-" json:"items"`
}

// OrderItem is a snapshot of a product at purchase time
type OrderItem struct {
	OrderID     int64           `db:"order_id" json:"-"`
	LineNo      int             `db:"line_no" json:"-"`
	ProductID   uuid.UUID       `db:"product_id" json:"productId"`
	ProductName string          `db:"product_name" json:"productName"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Quantity    int             `db:"quantity" json:"quantity"`
}

// LineTotal is price times quantity
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderRequest is the checkout payload. Client-supplied prices and names are
// not part of it; they are always read from the catalog.
type OrderRequest struct {
	Items         []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	OrderType     OrderType          `json:"orderType" validate:"required,oneof='Dine In' 'Take Out' 'Delivery'"`
	PaymentMethod PaymentMethod      `json:"paymentMethod" validate:"required,oneof=Cash GCash"`
	AmountPaid    *decimal.Decimal   `json:"amountPaid" validate:"required,gte=0"`
}

// OrderItemRequest is one cart line
type OrderItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// OrderStatusRequest is used for status corrections
type OrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required,oneof=Pending Completed Cancelled"`
}

// CheckoutResult is returned to the cashier after a successful sale
type CheckoutResult struct {
	OrderID     string          `json:"orderId"`
	ChangeGiven decimal.Decimal `json:"changeGiven"`
}

// OrderEvent is an append-only audit entry. It keeps the external order id
// so entries survive deletion of the order itself.
type OrderEvent struct {
	ID        int64           `db:"id" json:"id"`
	OrderID   string          `db:"order_id" json:"orderId"`
	Action    string          `db:"action" json:"action"`
	ActorID   *uuid.UUID      `db:"actor_id" json:"actorId,omitempty"`
	Detail    json.RawMessage `db:"detail" json:"detail,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}

const (
	OrderEventCreated       = "order.created"
	OrderEventStatusChanged = "order.status_changed"
	OrderEventDeleted       = "order.deleted"
	OrderEventPurged        = "order.purged"
)
