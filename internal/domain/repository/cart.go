package repository

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// CartRepository persists per-user carts.
type CartRepository interface {
	GetOrCreate(ctx context.Context, userID int64) (*model.Cart, error)
	AddItem(ctx context.Context, cartID int64, item model.CartItem) (*model.CartItem, error)
	RemoveItem(ctx context.Context, cartID, itemID int64) error
	Clear(ctx context.Context, cartID int64) error
}
