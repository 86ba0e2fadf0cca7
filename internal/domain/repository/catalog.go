package repository

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// CatalogRepository reads products and variants.
type CatalogRepository interface {
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	GetVariant(ctx context.Context, id int64) (*model.Variant, error)
}

// PromotionRepository reads promotions. Usage is incremented by OrderRepository.Place.
type PromotionRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Promotion, error)
}
