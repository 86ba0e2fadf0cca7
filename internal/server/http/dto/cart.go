package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// CartItemRequest adds a product or variant to the cart.
type CartItemRequest struct {
	ProductID int64  `json:"productId" binding:"required,gt=0"`
	VariantID *int64 `json:"variantId" binding:"omitempty,gt=0"`
	Quantity  int    `json:"quantity"`
}

// CheckoutRequest carries what the cart does not know about the order.
type CheckoutRequest struct {
	ShippingAddress AddressRequest  `json:"shippingAddress"`
	BillingAddress  *AddressRequest `json:"billingAddress"`
	PaymentMethod   string          `json:"paymentMethod" binding:"required,max=50"`
	Note            string          `json:"note" binding:"max=1000"`
	PromotionID     *int64          `json:"promotionId" binding:"omitempty,gt=0"`
}

// Billing returns the billing address or the shipping address when absent.
func (r CheckoutRequest) Billing() model.Address {
	if r.BillingAddress != nil {
		return r.BillingAddress.Model()
	}
	return r.ShippingAddress.Model()
}

type CartItemResponse struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"productId"`
	VariantID *int64 `json:"variantId,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	LineTotal string `json:"lineTotal"`
}

type CartResponse struct {
	ID        int64              `json:"id"`
	Items     []CartItemResponse `json:"items"`
	Subtotal  string             `json:"subtotal"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// NewCartResponse converts a domain cart.
func NewCartResponse(cart model.Cart) CartResponse {
	items := make([]CartItemResponse, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, CartItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: Money(item.UnitPrice),
			LineTotal: Money(item.UnitPrice.Mul(decimalFromInt(item.Quantity))),
		})
	}
	return CartResponse{ID: cart.ID, Items: items, Subtotal: Money(cart.Subtotal()), UpdatedAt: cart.UpdatedAt}
}

func decimalFromInt(v int) decimal.Decimal {
	return decimal.NewFromInt(int64(v))
}
