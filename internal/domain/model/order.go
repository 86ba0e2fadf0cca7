package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus describes fulfilment lifecycle.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus is tracked independently from OrderStatus.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

var orderPredecessors = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    nil,
	OrderStatusProcessing: {OrderStatusPending},
	OrderStatusShipped:    {OrderStatusProcessing},
	OrderStatusDelivered:  {OrderStatusShipped},
	OrderStatusCancelled:  {OrderStatusPending, OrderStatusProcessing},
}

// ParseOrderStatus returns the status for one of the five recognized values.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	status := OrderStatus(s)
	if _, ok := orderPredecessors[status]; !ok {
		return "", false
	}
	return status, true
}

// Predecessors lists statuses from which target may be reached.
func (s OrderStatus) Predecessors() []OrderStatus {
	return orderPredecessors[s]
}

// CanTransition reports whether from -> s is allowed.
func (s OrderStatus) CanTransition(from OrderStatus) bool {
	for _, p := range orderPredecessors[s] {
		if p == from {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// ParsePaymentStatus validates payment status value.
func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch PaymentStatus(s) {
	case PaymentStatusUnpaid, PaymentStatusPaid:
		return PaymentStatus(s), true
	}
	return "", false
}

// Address is a snapshot captured at order creation.
type Address struct {
	FullName   string `json:"fullName"`
	Phone      string `json:"phone,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Totals groups the monetary components of an order.
type Totals struct {
	Subtotal       decimal.Decimal
	ShippingFee    decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
}

// FinalTotal is always derived from the components.
func (t Totals) FinalTotal() decimal.Decimal {
	return t.Subtotal.Add(t.ShippingFee).Add(t.TaxAmount).Sub(t.DiscountAmount)
}

// Order describes a purchase placed by a user.
type Order struct {
	ID              int64
	Number          string
	UserID          int64
	Status          OrderStatus
	PaymentStatus   PaymentStatus
	PaymentMethod   string
	Totals          Totals
	Note            string
	ShippingAddress Address
	BillingAddress  Address
	PromotionID     *int64
	Items           []OrderItem
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FinalTotal returns subtotal + shipping + tax - discount.
func (o Order) FinalTotal() decimal.Decimal {
	return o.Totals.FinalTotal()
}

// OrderItem is a line of an order with the unit price frozen at creation.
type OrderItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	VariantID *int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// LineTotal returns unit price times quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// StockLine is one (product, variant) quantity claimed from stock.
type StockLine struct {
	ProductID int64
	VariantID *int64
	Quantity  int
}

// StockLines collapses order items into stock lines.
func (o Order) StockLines() []StockLine {
	lines := make([]StockLine, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, StockLine{ProductID: item.ProductID, VariantID: item.VariantID, Quantity: item.Quantity})
	}
	return lines
}

// OrderPage is a page of user orders.
type OrderPage struct {
	Orders []Order
	Total  int
	Page   int
	Limit  int
}

// Pages returns total number of pages.
func (p OrderPage) Pages() int {
	if p.Limit <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}
