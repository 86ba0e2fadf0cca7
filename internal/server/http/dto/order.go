package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// AddressRequest is a shipping or billing address.
type AddressRequest struct {
	FullName   string `json:"fullName" binding:"required,max=200"`
	Phone      string `json:"phone" binding:"max=50"`
	Line1      string `json:"line1" binding:"required,max=200"`
	Line2      string `json:"line2" binding:"max=200"`
	City       string `json:"city" binding:"required,max=100"`
	State      string `json:"state" binding:"max=100"`
	PostalCode string `json:"postalCode" binding:"required,max=20"`
	Country    string `json:"country" binding:"required,max=100"`
}

// Model converts the request into a domain address snapshot.
func (a AddressRequest) Model() model.Address {
	return model.Address{
		FullName:   a.FullName,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

// OrderItemRequest is one requested line.
type OrderItemRequest struct {
	ProductID int64  `json:"productId" binding:"required,gt=0"`
	VariantID *int64 `json:"variantId" binding:"omitempty,gt=0"`
	Quantity  int    `json:"quantity"`
}

// CreateOrderRequest describes POST /api/orders payload.
// Billing address defaults to the shipping address.
type CreateOrderRequest struct {
	Items           []OrderItemRequest `json:"items" binding:"dive"`
	ShippingAddress AddressRequest     `json:"shippingAddress"`
	BillingAddress  *AddressRequest    `json:"billingAddress"`
	PaymentMethod   string             `json:"paymentMethod" binding:"required,max=50"`
	Note            string             `json:"note" binding:"max=1000"`
	PromotionID     *int64             `json:"promotionId" binding:"omitempty,gt=0"`
}

// Billing returns the billing address or the shipping address when absent.
func (r CreateOrderRequest) Billing() model.Address {
	if r.BillingAddress != nil {
		return r.BillingAddress.Model()
	}
	return r.ShippingAddress.Model()
}

// ListOrdersQuery holds paging parameters.
type ListOrdersQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// StatusRequest describes PUT /api/orders/:id/status and /payment payloads.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// OrderItemResponse is a line of an order.
type OrderItemResponse struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"productId"`
	VariantID *int64 `json:"variantId,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	LineTotal string `json:"lineTotal"`
}

// OrderResponse is an order with its items.
type OrderResponse struct {
	ID              int64               `json:"id"`
	OrderNumber     string              `json:"orderNumber"`
	UserID          int64               `json:"userId"`
	Status          string              `json:"status"`
	PaymentStatus   string              `json:"paymentStatus"`
	PaymentMethod   string              `json:"paymentMethod"`
	Subtotal        string              `json:"subtotal"`
	ShippingFee     string              `json:"shippingFee"`
	TaxAmount       string              `json:"taxAmount"`
	DiscountAmount  string              `json:"discountAmount"`
	FinalTotal      string              `json:"finalTotal"`
	Note            string              `json:"note,omitempty"`
	ShippingAddress model.Address       `json:"shippingAddress"`
	BillingAddress  model.Address       `json:"billingAddress"`
	PromotionID     *int64              `json:"promotionId,omitempty"`
	Items           []OrderItemResponse `json:"items"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// OrderListResponse is a page of orders.
type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
	Page   int             `json:"page"`
	Pages  int             `json:"pages"`
	Limit  int             `json:"limit"`
}

// Money formats an amount with two decimal places.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// NewOrderResponse converts a domain order.
func NewOrderResponse(order model.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: Money(item.UnitPrice),
			LineTotal: Money(item.LineTotal()),
		})
	}
	return OrderResponse{
		ID:              order.ID,
		OrderNumber:     order.Number,
		UserID:          order.UserID,
		Status:          string(order.Status),
		PaymentStatus:   string(order.PaymentStatus),
		PaymentMethod:   order.PaymentMethod,
		Subtotal:        Money(order.Totals.Subtotal),
		ShippingFee:     Money(order.Totals.ShippingFee),
		TaxAmount:       Money(order.Totals.TaxAmount),
		DiscountAmount:  Money(order.Totals.DiscountAmount),
		FinalTotal:      Money(order.FinalTotal()),
		Note:            order.Note,
		ShippingAddress: order.ShippingAddress,
		BillingAddress:  order.BillingAddress,
		PromotionID:     order.PromotionID,
		Items:           items,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}

// NewOrderListResponse converts a page of orders.
func NewOrderListResponse(page *model.OrderPage) OrderListResponse {
	orders := make([]OrderResponse, 0, len(page.Orders))
	for _, order := range page.Orders {
		orders = append(orders, NewOrderResponse(order))
	}
	return OrderListResponse{
		Orders: orders,
		Total:  page.Total,
		Page:   page.Page,
		Pages:  page.Pages(),
		Limit:  page.Limit,
	}
}
