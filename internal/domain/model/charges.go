package model

import "github.com/shopspring/decimal"

// ChargesRequest describes an order draft that needs shipping and tax.
type ChargesRequest struct {
	UserID          int64
	Subtotal        decimal.Decimal
	ShippingAddress Address
	Items           []OrderItem
}

// Charges are the shipping fee and tax amount for an order draft.
type Charges struct {
	ShippingFee decimal.Decimal
	TaxAmount   decimal.Decimal
}
