package app

import (
	"context"
	"time"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
	pkgAuth "github.com/polkiloo/storefront/internal/pkg/auth"
	"github.com/polkiloo/storefront/internal/usecase"
)

// HealthChecker reports whether backing storage is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// StorefrontFacade is the single entry point used by HTTP handlers and the outbox relay.
type StorefrontFacade struct {
	auth    *usecase.AuthUseCase
	catalog *usecase.CatalogReader
	orders  *usecase.OrderUseCase
	carts   *usecase.CartUseCase
	outbox  repository.OutboxRepository
	health  HealthChecker
}

func NewStorefrontFacade(
	auth *usecase.AuthUseCase,
	catalog *usecase.CatalogReader,
	orders *usecase.OrderUseCase,
	carts *usecase.CartUseCase,
	outbox repository.OutboxRepository,
	health HealthChecker,
) *StorefrontFacade {
	return &StorefrontFacade{auth: auth, catalog: catalog, orders: orders, carts: carts, outbox: outbox, health: health}
}

func (f *StorefrontFacade) Register(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Register(ctx, login, password)
	return token, err
}

func (f *StorefrontFacade) Authenticate(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Authenticate(ctx, login, password)
	return token, err
}

func (f *StorefrontFacade) ParseToken(token string) (pkgAuth.Claims, error) {
	return f.auth.ParseToken(token)
}

func (f *StorefrontFacade) Quote(ctx context.Context, productID int64, variantID *int64) (*model.PriceQuote, error) {
	return f.catalog.ResolvePrice(ctx, productID, variantID)
}

func (f *StorefrontFacade) CreateOrder(ctx context.Context, in usecase.CreateOrderInput) (*model.Order, error) {
	return f.orders.Create(ctx, in)
}

func (f *StorefrontFacade) Order(ctx context.Context, id int64, requester pkgAuth.Claims) (*model.Order, error) {
	return f.orders.Get(ctx, id, requester)
}

func (f *StorefrontFacade) Orders(ctx context.Context, userID int64, page, limit int) (*model.OrderPage, error) {
	return f.orders.List(ctx, userID, page, limit)
}

func (f *StorefrontFacade) UpdateOrderStatus(ctx context.Context, id int64, status string) (*model.Order, error) {
	return f.orders.UpdateStatus(ctx, id, status)
}

func (f *StorefrontFacade) UpdatePaymentStatus(ctx context.Context, id int64, status string) (*model.Order, error) {
	return f.orders.UpdatePayment(ctx, id, status)
}

func (f *StorefrontFacade) Cart(ctx context.Context, userID int64) (*model.Cart, error) {
	return f.carts.Get(ctx, userID)
}

func (f *StorefrontFacade) AddCartItem(ctx context.Context, userID int64, line usecase.OrderLine) (*model.Cart, error) {
	return f.carts.AddItem(ctx, userID, line)
}

func (f *StorefrontFacade) RemoveCartItem(ctx context.Context, userID, itemID int64) (*model.Cart, error) {
	return f.carts.RemoveItem(ctx, userID, itemID)
}

func (f *StorefrontFacade) Checkout(ctx context.Context, userID int64, in usecase.CheckoutInput) (*model.Order, error) {
	return f.carts.Checkout(ctx, userID, in)
}

func (f *StorefrontFacade) HealthCheck(ctx context.Context) error {
	return f.health.HealthCheck(ctx)
}

func (f *StorefrontFacade) ClaimOrderEvents(ctx context.Context, limit int, lease time.Duration) ([]model.OrderEvent, error) {
	return f.outbox.ClaimBatch(ctx, limit, lease)
}

func (f *StorefrontFacade) MarkEventPublished(ctx context.Context, id string) error {
	return f.outbox.MarkPublished(ctx, id)
}
