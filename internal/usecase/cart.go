package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// CheckoutInput is the order data the cart does not carry.
type CheckoutInput struct {
	ShippingAddress model.Address
	BillingAddress  model.Address
	PaymentMethod   string
	Note            string
	PromotionID     *int64
}

// CartUseCase stages items per user and turns them into orders.
type CartUseCase struct {
	carts   repository.CartRepository
	catalog *CatalogReader
	orders  *OrderUseCase
	logger  *slog.Logger
}

// NewCartUseCase constructs CartUseCase.
func NewCartUseCase(carts repository.CartRepository, catalog *CatalogReader, orders *OrderUseCase, logger *slog.Logger) *CartUseCase {
	return &CartUseCase{carts: carts, catalog: catalog, orders: orders, logger: logger}
}

// Get returns the user's cart, creating an empty one on first access.
func (u *CartUseCase) Get(ctx context.Context, userID int64) (*model.Cart, error) {
	return u.carts.GetOrCreate(ctx, userID)
}

// AddItem snapshots the current price and adds quantity to the cart line.
func (u *CartUseCase) AddItem(ctx context.Context, userID int64, line OrderLine) (*model.Cart, error) {
	if line.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive: %w", domainErrors.ErrInvalidItem)
	}
	if line.Quantity > MaxLineQuantity {
		return nil, fmt.Errorf("quantity exceeds %d: %w", MaxLineQuantity, domainErrors.ErrInvalidItem)
	}

	quote, err := u.catalog.ResolvePrice(ctx, line.ProductID, line.VariantID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, fmt.Errorf("product %d is not available: %w", line.ProductID, domainErrors.ErrInvalidItem)
		}
		return nil, err
	}

	cart, err := u.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	key := keyOf(line.ProductID, line.VariantID)
	for _, item := range cart.Items {
		if keyOf(item.ProductID, item.VariantID) == key && item.Quantity > MaxLineQuantity-line.Quantity {
			return nil, fmt.Errorf("cart already holds %d of product %d: %w", item.Quantity, line.ProductID, domainErrors.ErrInvalidItem)
		}
	}

	_, err = u.carts.AddItem(ctx, cart.ID, model.CartItem{
		ProductID: line.ProductID,
		VariantID: line.VariantID,
		Quantity:  line.Quantity,
		UnitPrice: quote.UnitPrice,
	})
	if err != nil {
		return nil, err
	}
	return u.carts.GetOrCreate(ctx, userID)
}

// RemoveItem deletes a line from the user's cart.
func (u *CartUseCase) RemoveItem(ctx context.Context, userID, itemID int64) (*model.Cart, error) {
	cart, err := u.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := u.carts.RemoveItem(ctx, cart.ID, itemID); err != nil {
		return nil, err
	}
	return u.carts.GetOrCreate(ctx, userID)
}

// Checkout places an order for the cart contents at current prices and empties the cart.
func (u *CartUseCase) Checkout(ctx context.Context, userID int64, in CheckoutInput) (*model.Order, error) {
	cart, err := u.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, fmt.Errorf("cart is empty: %w", domainErrors.ErrInvalidItem)
	}

	lines := make([]OrderLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, OrderLine{ProductID: item.ProductID, VariantID: item.VariantID, Quantity: item.Quantity})
	}

	order, err := u.orders.Create(ctx, CreateOrderInput{
		UserID:          userID,
		Items:           lines,
		ShippingAddress: in.ShippingAddress,
		BillingAddress:  in.BillingAddress,
		PaymentMethod:   in.PaymentMethod,
		Note:            in.Note,
		PromotionID:     in.PromotionID,
	})
	if err != nil {
		return nil, err
	}

	// The order is already placed; a stale cart is only an inconvenience.
	if err := u.carts.Clear(ctx, cart.ID); err != nil && u.logger != nil {
		u.logger.Warn("failed to clear cart after checkout",
			slog.Int64("user_id", userID),
			slog.String("order_number", order.Number),
			slog.String("error", err.Error()),
		)
	}
	return order, nil
}
