package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/counterpos/pos-service/internal/models"
)

const receiptWidth = 40

// ReceiptService projects stored orders into printable receipts. It never
// changes the order.
type ReceiptService struct {
	orders *OrderService
	store  models.StoreDetails
}

func NewReceiptService(orders *OrderService, store models.StoreDetails) *ReceiptService {
	return &ReceiptService{orders: orders, store: store}
}

// GenerateReceipt builds the receipt for orderID, served by actor
func (s *ReceiptService) GenerateReceipt(ctx context.Context, orderID string, actor *models.User) (*models.Receipt, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	items := make([]models.ReceiptItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, models.ReceiptItem{
			ProductID: item.ProductID,
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Total:     item.LineTotal(),
		})
	}

	return &models.Receipt{
		StoreDetails:  s.store,
		OrderID:       order.OrderID,
		CreatedAt:     order.CreatedAt,
		Items:         items,
		SubTotal:      order.TotalAmount,
		TotalAmount:   order.TotalAmount,
		AmountPaid:    order.AmountPaid,
		ChangeGiven:   order.ChangeGiven,
		PaymentMethod: order.PaymentMethod,
		OrderType:     order.OrderType,
		ServedBy:      actorName(actor),
	}, nil
}

// RenderText lays a receipt out for a fixed-width thermal printer
func RenderText(r *models.Receipt) string {
	var sb strings.Builder
	rule := strings.Repeat("=", receiptWidth) + "\n"
	thin := strings.Repeat("-", receiptWidth) + "\n"

	sb.WriteString(rule)
	sb.WriteString(center(r.StoreDetails.Name))
	sb.WriteString(center(r.StoreDetails.Address))
	sb.WriteString(center(r.StoreDetails.Contact))
	sb.WriteString(center(r.StoreDetails.TIN))
	sb.WriteString(rule)

	sb.WriteString(fmt.Sprintf("Order #: %s\n", r.OrderID))
	sb.WriteString(fmt.Sprintf("Date: %s\n", r.CreatedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("Type: %s\n", r.OrderType))
	sb.WriteString(fmt.Sprintf("Served by: %s\n", r.ServedBy))
	sb.WriteString(thin)

	for _, item := range r.Items {
		sb.WriteString(fmt.Sprintf("%dx %s\n", item.Quantity, item.Name))
		sb.WriteString(columns(fmt.Sprintf("   @ %s", money(item.Price)), money(item.Total)))
	}

	sb.WriteString(thin)
	sb.WriteString(columns("Subtotal", money(r.SubTotal)))
	sb.WriteString(columns("TOTAL", money(r.TotalAmount)))
	sb.WriteString(columns(fmt.Sprintf("Paid (%s)", r.PaymentMethod), money(r.AmountPaid)))
	sb.WriteString(columns("Change", money(r.ChangeGiven)))
	sb.WriteString(rule)
	sb.WriteString(center("Thank You!"))
	sb.WriteString(rule)

	return sb.String()
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func center(s string) string {
	if len(s) >= receiptWidth {
		return s + "\n"
	}
	pad := (receiptWidth - len(s)) / 2
	return strings.Repeat(" ", pad) + s + "\n"
}

func columns(left, right string) string {
	gap := receiptWidth - len(left) - len(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right + "\n"
}
