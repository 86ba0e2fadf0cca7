package usecase

import (
	"context"
	"fmt"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// CatalogReader resolves current unit prices and availability.
type CatalogReader struct {
	catalog repository.CatalogRepository
}

// NewCatalogReader constructs CatalogReader.
func NewCatalogReader(catalog repository.CatalogRepository) *CatalogReader {
	return &CatalogReader{catalog: catalog}
}

// ResolvePrice returns the price quote for a product or one of its variants.
// Variant price and stock take precedence over product values.
func (r *CatalogReader) ResolvePrice(ctx context.Context, productID int64, variantID *int64) (*model.PriceQuote, error) {
	product, err := r.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, fmt.Errorf("product %d is inactive: %w", productID, domainErrors.ErrNotFound)
	}

	quote := &model.PriceQuote{
		ProductID:      product.ID,
		UnitPrice:      product.BasePrice,
		AvailableStock: product.Stock,
	}
	if variantID == nil {
		return quote, nil
	}

	variant, err := r.catalog.GetVariant(ctx, *variantID)
	if err != nil {
		return nil, err
	}
	if variant.ProductID != product.ID {
		return nil, fmt.Errorf("variant %d does not belong to product %d: %w", variant.ID, product.ID, domainErrors.ErrNotFound)
	}

	id := variant.ID
	quote.VariantID = &id
	quote.UnitPrice = variant.Price
	quote.AvailableStock = variant.Stock
	return quote, nil
}
