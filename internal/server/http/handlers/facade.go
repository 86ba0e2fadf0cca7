package handlers

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
	pkgAuth "github.com/polkiloo/storefront/internal/pkg/auth"
	"github.com/polkiloo/storefront/internal/usecase"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, login, password string) (string, error)
	Authenticate(ctx context.Context, login, password string) (string, error)
	ParseToken(token string) (pkgAuth.Claims, error)
}

// OrderFacade encapsulates order operations exposed via HTTP.
type OrderFacade interface {
	CreateOrder(ctx context.Context, in usecase.CreateOrderInput) (*model.Order, error)
	Order(ctx context.Context, id int64, requester pkgAuth.Claims) (*model.Order, error)
	Orders(ctx context.Context, userID int64, page, limit int) (*model.OrderPage, error)
	UpdateOrderStatus(ctx context.Context, id int64, status string) (*model.Order, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status string) (*model.Order, error)
}

// CartFacade provides cart operations.
type CartFacade interface {
	Cart(ctx context.Context, userID int64) (*model.Cart, error)
	AddCartItem(ctx context.Context, userID int64, line usecase.OrderLine) (*model.Cart, error)
	RemoveCartItem(ctx context.Context, userID, itemID int64) (*model.Cart, error)
	Checkout(ctx context.Context, userID int64, in usecase.CheckoutInput) (*model.Order, error)
}

// CatalogFacade resolves product prices.
type CatalogFacade interface {
	Quote(ctx context.Context, productID int64, variantID *int64) (*model.PriceQuote, error)
}

// HealthFacade reports dependency health.
type HealthFacade interface {
	HealthCheck(ctx context.Context) error
}

// StorefrontFacade aggregates the full set of operations used across handlers.
type StorefrontFacade interface {
	AuthFacade
	OrderFacade
	CartFacade
	CatalogFacade
	HealthFacade
}
