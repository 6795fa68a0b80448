package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/counterpos/pos-service/internal/models"
)

// CheckoutTx is the set of writes available while placing an order. Every
// call runs in the same database transaction.
type CheckoutTx interface {
	// LockProduct reads a product and holds its row until the transaction ends.
	LockProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	// DecrementStock subtracts qty only while enough stock remains.
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) error
	InsertOrder(ctx context.Context, order *models.Order) error
	AppendEvent(ctx context.Context, event models.OrderEvent) error
}

// OrderRepository handles order data access
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Checkout runs fn inside one transaction. Any error from fn rolls back every
// write it made, including stock decrements.
func (r *OrderRepository) Checkout(ctx context.Context, fn func(tx CheckoutTx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&checkoutTx{tx: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type checkoutTx struct {
	tx *sqlx.Tx
}

func (c *checkoutTx) LockProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1
		FOR UPDATE OF p
	`

	var product models.Product
	if err := c.tx.GetContext(ctx, &product, query, id); err != nil {
		return nil, fmt.Errorf("failed to lock product: %w", translate(err))
	}
	return &product, nil
}

func (c *checkoutTx) DecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	query := `
		UPDATE products
		SET quantity = quantity - $1, updated_at = now()
		WHERE id = $2 AND quantity >= $1
	`

	result, err := c.tx.ExecContext(ctx, query, qty, id)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func (c *checkoutTx) InsertOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (order_id, total_amount, amount_paid, change_given,
		                    order_type, payment_method, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	row := c.tx.QueryRowxContext(
		ctx,
		query,
		order.OrderID,
		order.TotalAmount,
		order.AmountPaid,
		order.ChangeGiven,
		order.OrderType,
		order.PaymentMethod,
		order.Status,
		order.CreatedByID,
	)
	if err := row.Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create order: %w", translate(err))
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		item.LineNo = i + 1

		_, err := c.tx.NamedExecContext(ctx, `
			INSERT INTO order_items (order_id, line_no, product_id, product_name, price, quantity)
			VALUES (:order_id, :line_no, :product_id, :product_name, :price, :quantity)
		`, item)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}
	return nil
}

func (c *checkoutTx) AppendEvent(ctx context.Context, event models.OrderEvent) error {
	return appendEvent(ctx, c.tx, event)
}

func appendEvent(ctx context.Context, ext sqlx.ExecerContext, event models.OrderEvent) error {
	detail := "{}"
	if len(event.Detail) > 0 {
		detail = string(event.Detail)
	}
	_, err := ext.ExecContext(ctx, `
		INSERT INTO order_events (order_id, action, actor_id, detail)
		VALUES ($1, $2, $3, $4)
	`, event.OrderID, event.Action, event.ActorID, detail)
	if err != nil {
		return fmt.Errorf("failed to append order event: %w", err)
	}
	return nil
}

const orderColumns = `
	o.id, o.order_id, o.total_amount, o.amount_paid, o.change_given, o.order_type,
	o.payment_method, o.status, o.created_by, COALESCE(u.username, '') AS created_by_username,
	o.created_at, o.updated_at
`

// GetByOrderID retrieves an order and its items by the external order id
func (r *OrderRepository) GetByOrderID(ctx context.Context, orderID string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders o
		LEFT JOIN users u ON u.id = o.created_by
		WHERE o.order_id = $1
	`

	var order models.Order
	if err := r.db.GetContext(ctx, &order, query, orderID); err != nil {
		return nil, fmt.Errorf("failed to get order: %w", translate(err))
	}

	items := []models.OrderItem{}
	err := r.db.SelectContext(ctx, &items, `
		SELECT order_id, line_no, product_id, product_name, price, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY line_no
	`, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	order.Items = items

	return &order, nil
}

// List retrieves all orders, newest first, with their items
func (r *OrderRepository) List(ctx context.Context) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders o
		LEFT JOIN users u ON u.id = o.created_by
		ORDER BY o.created_at DESC, o.id DESC
	`

	orders := []models.Order{}
	if err := r.db.SelectContext(ctx, &orders, query); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Items = []models.OrderItem{}
	}

	itemQuery, args, err := sqlx.In(`
		SELECT order_id, line_no, product_id, product_name, price, quantity
		FROM order_items
		WHERE order_id IN (?)
		ORDER BY order_id, line_no
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build item query: %w", err)
	}

	var items []models.OrderItem
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(itemQuery), args...); err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	for _, item := range items {
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}

	return orders, nil
}

// UpdateStatus sets an order's status and records the transition.
// It returns the previous status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus, actorID *uuid.UUID) (prev models.OrderStatus, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = tx.GetContext(ctx, &prev, `SELECT status FROM orders WHERE order_id = $1 FOR UPDATE`, orderID)
	if err != nil {
		return "", fmt.Errorf("failed to get order status: %w", translate(err))
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = now()
		WHERE order_id = $2
	`, status, orderID)
	if err != nil {
		return "", fmt.Errorf("failed to update order status: %w", err)
	}

	detail, _ := json.Marshal(map[string]models.OrderStatus{"from": prev, "to": status})
	err = appendEvent(ctx, tx, models.OrderEvent{
		OrderID: orderID,
		Action:  models.OrderEventStatusChanged,
		ActorID: actorID,
		Detail:  detail,
	})
	if err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	return prev, nil
}

// Delete hard-deletes an order and its items, leaving an audit entry
func (r *OrderRepository) Delete(ctx context.Context, orderID string, actorID *uuid.UUID) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE order_id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	err = appendEvent(ctx, tx, models.OrderEvent{
		OrderID: orderID,
		Action:  models.OrderEventDeleted,
		ActorID: actorID,
	})
	if err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteAll removes every order and returns how many were deleted
func (r *OrderRepository) DeleteAll(ctx context.Context, actorID *uuid.UUID) (count int64, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result, err := tx.ExecContext(ctx, `DELETE FROM orders`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orders: %w", err)
	}
	if count, err = result.RowsAffected(); err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	detail, _ := json.Marshal(map[string]int64{"count": count})
	err = appendEvent(ctx, tx, models.OrderEvent{
		OrderID: "*",
		Action:  models.OrderEventPurged,
		ActorID: actorID,
		Detail:  detail,
	})
	if err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return count, nil
}

// Events lists audit entries for an order, oldest first
func (r *OrderRepository) Events(ctx context.Context, orderID string) ([]models.OrderEvent, error) {
	events := []models.OrderEvent{}
	err := r.db.SelectContext(ctx, &events, `
		SELECT id, order_id, action, actor_id, detail, created_at
		FROM order_events
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order events: %w", err)
	}
	return events, nil
}

// SalesTotal sums price*quantity over completed orders created in [from, to)
func (r *OrderRepository) SalesTotal(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(i.price * i.quantity), 0)
		FROM order_items i
		JOIN orders o ON o.id = i.order_id
		WHERE o.status = $1 AND o.created_at >= $2 AND o.created_at < $3
	`

	var total decimal.Decimal
	if err := r.db.GetContext(ctx, &total, query, models.OrderStatusCompleted, from, to); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum sales: %w", err)
	}
	return total, nil
}
