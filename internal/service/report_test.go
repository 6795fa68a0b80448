package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/counterpos/pos-service/internal/apperr"
	"github.com/counterpos/pos-service/internal/models"
	"github.com/counterpos/pos-service/internal/service/servicetest"
)

func TestWindows(t *testing.T) {
	loc := time.FixedZone("PHT", 8*60*60)

	tests := []struct {
		name      string
		now       time.Time
		weekStart time.Time
	}{
		{"midweek", time.Date(2026, 10, 14, 15, 30, 0, 0, loc), time.Date(2026, 10, 11, 0, 0, 0, 0, loc)},
		{"sunday", time.Date(2026, 10, 11, 0, 0, 0, 0, loc), time.Date(2026, 10, 11, 0, 0, 0, 0, loc)},
		{"saturday night", time.Date(2026, 10, 17, 23, 59, 59, 0, loc), time.Date(2026, 10, 11, 0, 0, 0, 0, loc)},
		{"week spans months", time.Date(2026, 11, 2, 9, 0, 0, 0, loc), time.Date(2026, 11, 1, 0, 0, 0, 0, loc)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			today, week, month := Windows(tt.now)

			y, m, d := tt.now.Date()
			assert.Equal(t, time.Date(y, m, d, 0, 0, 0, 0, loc), today.From)
			assert.Equal(t, time.Date(y, m, d+1, 0, 0, 0, 0, loc), today.To)

			assert.Equal(t, tt.weekStart, week.From)
			assert.Equal(t, tt.weekStart.AddDate(0, 0, 7), week.To)

			assert.Equal(t, time.Date(y, m, 1, 0, 0, 0, 0, loc), month.From)
			assert.Equal(t, time.Date(y, m+1, 1, 0, 0, 0, 0, loc), month.To)
		})
	}
}

func TestSalesReport(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, loc) // Wednesday
	store := servicetest.NewSeeded()

	sale := func(at time.Time, status models.OrderStatus, price string, qty int) {
		store.PutOrder(models.Order{
			OrderID:   at.String() + price,
			Status:    status,
			CreatedAt: at,
			Items:     []models.OrderItem{{Price: decimal.RequireFromString(price), Quantity: qty}},
		})
	}
	sale(now.Add(-time.Hour), models.OrderStatusCompleted, "100", 2)                      // today
	sale(time.Date(2026, 10, 14, 0, 0, 0, 0, loc), models.OrderStatusCompleted, "10", 1) // today, boundary
	sale(time.Date(2026, 10, 11, 8, 0, 0, 0, loc), models.OrderStatusCompleted, "50", 1) // sunday
	sale(time.Date(2026, 10, 2, 8, 0, 0, 0, loc), models.OrderStatusCompleted, "25", 4)  // earlier this month
	sale(time.Date(2026, 9, 30, 23, 0, 0, 0, loc), models.OrderStatusCompleted, "999", 1)
	sale(now.Add(-2*time.Hour), models.OrderStatusCancelled, "500", 1)
	sale(now.Add(-3*time.Hour), models.OrderStatusPending, "700", 1)

	svc := NewReportService(store.Orders(), loc)
	svc.now = func() time.Time { return now }

	report, err := svc.SalesReport(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "210", report.Today.String())
	assert.Equal(t, "260", report.ThisWeek.String())
	assert.Equal(t, "360", report.ThisMonth.String())
}

func TestSalesReportPeriodBoundaries(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 10, 31, 12, 0, 0, 0, loc) // Saturday, last day of the month
	store := servicetest.NewSeeded()

	sale := func(id string, at time.Time, price string) {
		store.PutOrder(models.Order{
			OrderID:   id,
			Status:    models.OrderStatusCompleted,
			CreatedAt: at,
			Items:     []models.OrderItem{{Price: decimal.RequireFromString(price), Quantity: 1}},
		})
	}
	sale("start", time.Date(2026, 10, 31, 0, 0, 0, 0, loc), "10")
	sale("last", time.Date(2026, 10, 31, 23, 59, 59, 999999000, loc), "20")
	sale("next-period", time.Date(2026, 11, 1, 0, 0, 0, 0, loc), "400")

	svc := NewReportService(store.Orders(), loc)
	svc.now = func() time.Time { return now }

	report, err := svc.SalesReport(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "30", report.Today.String())
	assert.Equal(t, "30", report.ThisWeek.String())
	assert.Equal(t, "30", report.ThisMonth.String())
}

type failingSales struct{}

func (failingSales) SalesTotal(context.Context, time.Time, time.Time) (decimal.Decimal, error) {
	return decimal.Zero, errors.New("db down")
}

func TestSalesReportFailure(t *testing.T) {
	svc := NewReportService(failingSales{}, time.UTC)

	_, err := svc.SalesReport(context.Background())

	assert.True(t, apperr.Is(err, apperr.KindInternal))
}
