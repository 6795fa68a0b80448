package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type StoreDetails struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Contact string `json:"contact"`
	TIN     string `json:"tin"`
}

type ReceiptItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`
}

// Receipt is the printable projection of an order
type Receipt struct {
	StoreDetails  StoreDetails    `json:"storeDetails"`
	OrderID       string          `json:"orderId"`
	CreatedAt     time.Time       `json:"createdAt"`
	Items         []ReceiptItem   `json:"items"`
	SubTotal      decimal.Decimal `json:"subTotal"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	AmountPaid    decimal.Decimal `json:"amountPaid"`
	ChangeGiven   decimal.Decimal `json:"changeGiven"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	OrderType     OrderType       `json:"orderType"`
	ServedBy      string          `json:"servedBy"`
}

// SalesReport holds completed-sales totals for the current calendar periods
type SalesReport struct {
	Today     decimal.Decimal `json:"today"`
	ThisWeek  decimal.Decimal `json:"thisWeek"`
	ThisMonth decimal.Decimal `json:"thisMonth"`
}
