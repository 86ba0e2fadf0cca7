// Package facades holds HTTP facade stubs that depend on use-case input types.
package facades

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	pkgAuth "github.com/polkiloo/storefront/internal/pkg/auth"
	testhelpers "github.com/polkiloo/storefront/internal/test"
	"github.com/polkiloo/storefront/internal/usecase"
)

// SampleOrder returns a pending order with one item.
func SampleOrder(id, userID int64) *model.Order {
	return &model.Order{
		ID:            id,
		Number:        "ORD-1700000000000-deadbeef",
		UserID:        userID,
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusUnpaid,
		PaymentMethod: "card",
		Totals: model.Totals{
			Subtotal:       decimal.RequireFromString("25"),
			ShippingFee:    decimal.RequireFromString("4.99"),
			TaxAmount:      decimal.RequireFromString("1.01"),
			DiscountAmount: decimal.RequireFromString("5"),
		},
		Items: []model.OrderItem{
			{ID: 1, OrderID: id, ProductID: 3, Quantity: 2, UnitPrice: decimal.RequireFromString("12.5")},
		},
		CreatedAt: time.Unix(1700000000, 0).UTC(),
		UpdatedAt: time.Unix(1700000000, 0).UTC(),
	}
}

// OrderFacadeStub provides controllable behaviour for order endpoints.
type OrderFacadeStub struct {
	CreateFn  func(context.Context, usecase.CreateOrderInput) (*model.Order, error)
	GetFn     func(context.Context, int64, pkgAuth.Claims) (*model.Order, error)
	ListFn    func(context.Context, int64, int, int) (*model.OrderPage, error)
	StatusFn  func(context.Context, int64, string) (*model.Order, error)
	PaymentFn func(context.Context, int64, string) (*model.Order, error)
}

func (s OrderFacadeStub) CreateOrder(ctx context.Context, in usecase.CreateOrderInput) (*model.Order, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, in)
	}
	return SampleOrder(1, in.UserID), nil
}

func (s OrderFacadeStub) Order(ctx context.Context, id int64, requester pkgAuth.Claims) (*model.Order, error) {
	if s.GetFn != nil {
		return s.GetFn(ctx, id, requester)
	}
	return SampleOrder(id, requester.UserID), nil
}

func (s OrderFacadeStub) Orders(ctx context.Context, userID int64, page, limit int) (*model.OrderPage, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx, userID, page, limit)
	}
	return &model.OrderPage{Orders: []model.Order{*SampleOrder(1, userID)}, Total: 1, Page: 1, Limit: usecase.DefaultPageLimit}, nil
}

func (s OrderFacadeStub) UpdateOrderStatus(ctx context.Context, id int64, status string) (*model.Order, error) {
	if s.StatusFn != nil {
		return s.StatusFn(ctx, id, status)
	}
	parsed, ok := model.ParseOrderStatus(status)
	if !ok {
		return nil, domainErrors.ErrInvalidStatus
	}
	order := SampleOrder(id, 1)
	order.Status = parsed
	return order, nil
}

func (s OrderFacadeStub) UpdatePaymentStatus(ctx context.Context, id int64, status string) (*model.Order, error) {
	if s.PaymentFn != nil {
		return s.PaymentFn(ctx, id, status)
	}
	order := SampleOrder(id, 1)
	order.PaymentStatus = model.PaymentStatusPaid
	return order, nil
}

// CartFacadeStub provides controllable behaviour for cart endpoints.
type CartFacadeStub struct {
	CartFn     func(context.Context, int64) (*model.Cart, error)
	AddFn      func(context.Context, int64, usecase.OrderLine) (*model.Cart, error)
	RemoveFn   func(context.Context, int64, int64) (*model.Cart, error)
	CheckoutFn func(context.Context, int64, usecase.CheckoutInput) (*model.Order, error)
}

func (s CartFacadeStub) Cart(ctx context.Context, userID int64) (*model.Cart, error) {
	if s.CartFn != nil {
		return s.CartFn(ctx, userID)
	}
	return &model.Cart{ID: 1, UserID: userID}, nil
}

func (s CartFacadeStub) AddCartItem(ctx context.Context, userID int64, line usecase.OrderLine) (*model.Cart, error) {
	if s.AddFn != nil {
		return s.AddFn(ctx, userID, line)
	}
	return &model.Cart{ID: 1, UserID: userID, Items: []model.CartItem{
		{ID: 1, CartID: 1, ProductID: line.ProductID, VariantID: line.VariantID, Quantity: line.Quantity, UnitPrice: decimal.RequireFromString("12.5")},
	}}, nil
}

func (s CartFacadeStub) RemoveCartItem(ctx context.Context, userID, itemID int64) (*model.Cart, error) {
	if s.RemoveFn != nil {
		return s.RemoveFn(ctx, userID, itemID)
	}
	return &model.Cart{ID: 1, UserID: userID}, nil
}

func (s CartFacadeStub) Checkout(ctx context.Context, userID int64, in usecase.CheckoutInput) (*model.Order, error) {
	if s.CheckoutFn != nil {
		return s.CheckoutFn(ctx, userID, in)
	}
	return SampleOrder(1, userID), nil
}

// CatalogFacadeStub resolves quotes through QuoteFn or a fixed price.
type CatalogFacadeStub struct {
	QuoteFn func(context.Context, int64, *int64) (*model.PriceQuote, error)
}

func (s CatalogFacadeStub) Quote(ctx context.Context, productID int64, variantID *int64) (*model.PriceQuote, error) {
	if s.QuoteFn != nil {
		return s.QuoteFn(ctx, productID, variantID)
	}
	return &model.PriceQuote{ProductID: productID, VariantID: variantID, UnitPrice: decimal.RequireFromString("9.9"), AvailableStock: 3}, nil
}

// StorefrontFacadeStub aggregates every handler facade stub.
type StorefrontFacadeStub struct {
	testhelpers.AuthFacadeStub
	OrderFacadeStub
	CartFacadeStub
	CatalogFacadeStub
	testhelpers.HealthStub
}
