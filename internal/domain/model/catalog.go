package model

import "github.com/shopspring/decimal"

// Product is a catalog entry with base price and stock.
type Product struct {
	ID        int64
	Name      string
	BasePrice decimal.Decimal
	Stock     int
	IsActive  bool
}

// Variant is a purchasable configuration of a product overriding its price and stock.
type Variant struct {
	ID        int64
	ProductID int64
	Name      string
	Price     decimal.Decimal
	Stock     int
}

// PriceQuote is the current unit price and availability of a product or variant.
type PriceQuote struct {
	ProductID      int64
	VariantID      *int64
	UnitPrice      decimal.Decimal
	AvailableStock int
}
