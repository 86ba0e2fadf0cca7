package dto

import "github.com/polkiloo/storefront/internal/domain/model"

// ProductQuery selects an optional variant.
type ProductQuery struct {
	VariantID *int64 `form:"variantId" binding:"omitempty,gt=0"`
}

// ProductQuoteResponse is the current price and availability.
type ProductQuoteResponse struct {
	ProductID      int64  `json:"productId"`
	VariantID      *int64 `json:"variantId,omitempty"`
	UnitPrice      string `json:"unitPrice"`
	AvailableStock int    `json:"availableStock"`
	InStock        bool   `json:"inStock"`
}

// NewProductQuoteResponse converts a price quote.
func NewProductQuoteResponse(quote model.PriceQuote) ProductQuoteResponse {
	return ProductQuoteResponse{
		ProductID:      quote.ProductID,
		VariantID:      quote.VariantID,
		UnitPrice:      Money(quote.UnitPrice),
		AvailableStock: quote.AvailableStock,
		InStock:        quote.AvailableStock > 0,
	}
}
