package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/counterpos/pos-service/internal/apperr"
	"github.com/counterpos/pos-service/internal/models"
	"github.com/counterpos/pos-service/internal/service/servicetest"
)

type orderFixture struct {
	store   *servicetest.Store
	events  *servicetest.Recorder
	svc     *OrderService
	cashier models.User
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	store := servicetest.NewSeeded()
	events := &servicetest.Recorder{}
	return &orderFixture{
		store:   store,
		events:  events,
		svc:     NewOrderService(store.Orders(), events),
		cashier: store.AddUser("cashier1", "", models.RoleCashier, models.StatusActive),
	}
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func cart(paid string, lines ...models.OrderItemRequest) models.OrderRequest {
	return models.OrderRequest{
		Items:         lines,
		OrderType:     models.OrderTypeDineIn,
		PaymentMethod: models.PaymentCash,
		AmountPaid:    dec(paid),
	}
}

func line(p models.Product, qty int) models.OrderItemRequest {
	return models.OrderItemRequest{ProductID: p.ID.String(), Quantity: qty}
}

func TestCreateOrderDecrementsStockAndRecordsSale(t *testing.T) {
	f := newOrderFixture(t)
	p := f.store.AddProduct("Adobo", "Meals", decimal.NewFromInt(100), 5)

	res, err := f.svc.CreateOrder(context.Background(), cart("200", line(p, 2)), &f.cashier)
	require.NoError(t, err)

	assert.NotEmpty(t, res.OrderID)
	assert.True(t, res.ChangeGiven.IsZero())
	assert.Equal(t, 3, f.store.Stock(p.ID))

	order, err := f.svc.GetOrder(context.Background(), res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, order.Status)
	assert.Equal(t, "cashier1", order.CreatedBy)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(200)))
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Adobo", order.Items[0].ProductName)
	assert.True(t, order.Items[0].Price.Equal(decimal.NewFromInt(100)))

	assert.Equal(t, []string{EventOrderNew, EventInventoryUpdate}, f.events.Types())

	events, err := f.svc.OrderEvents(context.Background(), res.OrderID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.OrderEventCreated, events[0].Action)
}

func TestCreateOrderComputesChange(t *testing.T) {
	f := newOrderFixture(t)
	p := f.store.AddProduct("Iced Tea", "Drinks", decimal.RequireFromString("12.50"), 10)

	res, err := f.svc.CreateOrder(context.Background(), cart("50", line(p, 3)), &f.cashier)
	require.NoError(t, err)
	assert.Equal(t, "12.5", res.ChangeGiven.String())
}

func TestCreateOrderRoundsPaymentToCents(t *testing.T) {
	f := newOrderFixture(t)
	p := f.store.AddProduct("Pancit", "Meals", decimal.NewFromInt(100), 10)

	res, err := f.svc.CreateOrder(context.Background(), cart("100.005", line(p, 1)), &f.cashier)
	require.NoError(t, err)
	assert.Equal(t, "0.01", res.ChangeGiven.String())

	order, err := f.svc.GetOrder(context.Background(), res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "100.01", order.AmountPaid.String())
	assert.True(t, order.ChangeGiven.Equal(res.ChangeGiven))
}

func TestCreateOrderRejections(t *testing.T) {
	tests := []struct {
		name    string
		stock   int
		active  bool
		request func(p models.Product) models.OrderRequest
		kind    apperr.Kind
		message string
	}{
		{
			name:    "insufficient stock",
			stock:   5,
			active:  true,
			request: func(p models.Product) models.OrderRequest { return cart("1000", line(p, 6)) },
			kind:    apperr.KindBusinessRule,
			message: "Insufficient stock for Adobo: available 5, ordered 6",
		},
		{
			name:    "duplicate lines are checked together",
			stock:   5,
			active:  true,
			request: func(p models.Product) models.OrderRequest { return cart("1000", line(p, 3), line(p, 3)) },
			kind:    apperr.KindBusinessRule,
			message: "Insufficient stock for Adobo: available 2, ordered 3",
		},
		{
			name:    "insufficient payment",
			stock:   5,
			active:  true,
			request: func(p models.Product) models.OrderRequest { return cart("150", line(p, 2)) },
			kind:    apperr.KindBusinessRule,
			message: "Insufficient payment: total 200, paid 150",
		},
		{
			name:    "inactive product",
			stock:   5,
			active:  false,
			request: func(p models.Product) models.OrderRequest { return cart("100", line(p, 1)) },
			kind:    apperr.KindNotFound,
		},
		{
			name:    "no items",
			stock:   5,
			active:  true,
			request: func(models.Product) models.OrderRequest { return cart("100") },
			kind:    apperr.KindValidation,
			message: "Order must contain at least one item",
		},
		{
			name:   "negative payment",
			stock:  5,
			active: true,
			request: func(p models.Product) models.OrderRequest {
				return cart("-1", line(p, 1))
			},
			kind:    apperr.KindValidation,
			message: "Invalid amountPaid. Must be a non-negative number.",
		},
		{
			name:   "unknown order type",
			stock:  5,
			active: true,
			request: func(p models.Product) models.OrderRequest {
				req := cart("100", line(p, 1))
				req.OrderType = "Drive Thru"
				return req
			},
			kind: apperr.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(t)
			p := f.store.AddProduct("Adobo", "Meals", decimal.NewFromInt(100), tt.stock)
			f.store.SetActive(p.ID, tt.active)

			_, err := f.svc.CreateOrder(context.Background(), tt.request(p), &f.cashier)

			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
			if tt.message != "" {
				var appErr *apperr.Error
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, tt.message, appErr.Message)
			}
			assert.Equal(t, tt.stock, f.store.Stock(p.ID), "stock must be unchanged")
			assert.Zero(t, f.store.OrderCount())
			assert.Empty(t, f.events.Types())
		})
	}
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.CreateOrder(context.Background(), cart("100",
		models.OrderItemRequest{ProductID: "6f1c2a57-0000-4000-8000-000000000000", Quantity: 1}), &f.cashier)

	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCreateOrderRollsBackEarlierLines(t *testing.T) {
	f := newOrderFixture(t)
	plenty := f.store.AddProduct("Rice", "Meals", decimal.NewFromInt(20), 5)
	scarce := f.store.AddProduct("Halo-Halo", "Desserts", decimal.NewFromInt(95), 1)

	_, err := f.svc.CreateOrder(context.Background(), cart("1000", line(plenty, 2), line(scarce, 2)), &f.cashier)

	require.Error(t, err)
	assert.Equal(t, 5, f.store.Stock(plenty.ID))
	assert.Equal(t, 1, f.store.Stock(scarce.ID))
}

func TestConcurrentOrdersNeverOversell(t *testing.T) {
	f := newOrderFixture(t)
	p := f.store.AddProduct("Adobo", "Meals", decimal.NewFromInt(100), 10)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.CreateOrder(context.Background(), cart("100", line(p, 1)), &f.cashier); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 0, f.store.Stock(p.ID))
	assert.Equal(t, 10, f.store.OrderCount())
}

func TestUpdateOrderStatusDoesNotRestock(t *testing.T) {
	f := newOrderFixture(t)
	p := f.store.AddProduct("Adobo", "Meals", decimal.NewFromInt(100), 5)
	res, err := f.svc.CreateOrder(context.Background(), cart("100", line(p, 1)), &f.cashier)
	require.NoError(t, err)

	order, err := f.svc.UpdateOrderStatus(context.Background(), res.OrderID, models.OrderStatusCancelled, &f.cashier)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusCancelled, order.Status)
	assert.Equal(t, 4, f.store.Stock(p.ID))
	assert.Equal(t, 1, f.events.Count(EventOrderUpdate))

	_, err = f.svc.UpdateOrderStatus(context.Background(), res.OrderID, "Refunded", &f.cashier)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.UpdateOrderStatus(context.Background(), "missing", models.OrderStatusPending, &f.cashier)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeletedOrderKeepsAuditTrail(t *testing.T) {
	f := newOrderFixture(t)
	p := f.store.AddProduct("Adobo", "Meals", decimal.NewFromInt(100), 5)
	res, err := f.svc.CreateOrder(context.Background(), cart("100", line(p, 1)), &f.cashier)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteOrder(context.Background(), res.OrderID, &f.cashier))

	_, err = f.svc.GetOrder(context.Background(), res.OrderID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	events, err := f.svc.OrderEvents(context.Background(), res.OrderID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.OrderEventDeleted, events[1].Action)

	err = f.svc.DeleteOrder(context.Background(), res.OrderID, &f.cashier)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.svc.OrderEvents(context.Background(), "never-existed")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeleteAllOrders(t *testing.T) {
	f := newOrderFixture(t)
	p := f.store.AddProduct("Adobo", "Meals", decimal.NewFromInt(100), 5)
	for i := 0; i < 3; i++ {
		_, err := f.svc.CreateOrder(context.Background(), cart("100", line(p, 1)), &f.cashier)
		require.NoError(t, err)
	}

	n, err := f.svc.DeleteAllOrders(context.Background(), &f.cashier)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	orders, err := f.svc.ListOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Equal(t, 2, f.store.Stock(p.ID))
}
