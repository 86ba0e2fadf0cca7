package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
	pkgAuth "github.com/polkiloo/storefront/internal/pkg/auth"
)

const (
	tracerName = "github.com/polkiloo/storefront/internal/usecase"

	// numberRetries is how many times placement is repeated with a fresh number after a collision.
	numberRetries = 1

	DefaultPageLimit = 10
	MaxPageLimit     = 100
	// MaxPage keeps the row offset of the deepest page inside a 32-bit integer.
	MaxPage = math.MaxInt32 / MaxPageLimit

	// MaxLineQuantity is the largest quantity a stock or item column can hold.
	MaxLineQuantity = math.MaxInt32
)

// PromotionPolicy decides whether an inapplicable promotion fails the order.
type PromotionPolicy string

const (
	PromotionStrict  PromotionPolicy = "strict"
	PromotionLenient PromotionPolicy = "lenient"
)

// ChargesCalculator prices shipping and tax for an order draft.
type ChargesCalculator interface {
	Quote(ctx context.Context, req model.ChargesRequest) (model.Charges, error)
}

// OrderObserver receives order lifecycle outcomes.
type OrderObserver interface {
	OrderPlaced(order *model.Order)
	OrderRejected(reason string)
	OrderStatusChanged(status model.OrderStatus)
}

// OrderLine is a requested product or variant with quantity.
type OrderLine struct {
	ProductID int64
	VariantID *int64
	Quantity  int
}

// CreateOrderInput carries everything needed to place an order.
type CreateOrderInput struct {
	UserID          int64
	Items           []OrderLine
	ShippingAddress model.Address
	BillingAddress  model.Address
	PaymentMethod   string
	Note            string
	PromotionID     *int64
}

// OrderUseCase assembles, places and tracks orders.
type OrderUseCase struct {
	orders     repository.OrderRepository
	catalog    *CatalogReader
	promotions *PromotionResolver
	charges    ChargesCalculator
	observer   OrderObserver
	policy     PromotionPolicy
	newNumber  func() string
	tracer     trace.Tracer
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(
	orders repository.OrderRepository,
	catalog *CatalogReader,
	promotions *PromotionResolver,
	charges ChargesCalculator,
	policy PromotionPolicy,
	observer OrderObserver,
) *OrderUseCase {
	if observer == nil {
		observer = nopObserver{}
	}
	return &OrderUseCase{
		orders:     orders,
		catalog:    catalog,
		promotions: promotions,
		charges:    charges,
		observer:   observer,
		policy:     policy,
		newNumber:  newOrderNumber,
		tracer:     otel.Tracer(tracerName),
	}
}

// Create prices every line, applies the promotion and charges, then places the order.
// Validation happens before anything is written.
func (u *OrderUseCase) Create(ctx context.Context, in CreateOrderInput) (*model.Order, error) {
	ctx, span := u.tracer.Start(ctx, "usecase.CreateOrder", trace.WithAttributes(
		attribute.Int64("user.id", in.UserID),
		attribute.Int("order.lines", len(in.Items)),
	))
	defer span.End()

	order, err := u.create(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create order failed")
		u.observer.OrderRejected(rejectionReason(err))
		return nil, err
	}

	span.SetAttributes(attribute.String("order.number", order.Number))
	u.observer.OrderPlaced(order)
	return order, nil
}

func (u *OrderUseCase) create(ctx context.Context, in CreateOrderInput) (*model.Order, error) {
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("order has no items: %w", domainErrors.ErrInvalidItem)
	}

	items := make([]model.OrderItem, 0, len(in.Items))
	subtotal := decimal.Zero
	merged := make(map[lineKey]int, len(in.Items))
	for i, line := range in.Items {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("item %d: quantity must be positive: %w", i, domainErrors.ErrInvalidItem)
		}
		if line.Quantity > MaxLineQuantity {
			return nil, fmt.Errorf("item %d: quantity exceeds %d: %w", i, MaxLineQuantity, domainErrors.ErrInvalidItem)
		}
		key := keyOf(line.ProductID, line.VariantID)
		if merged[key] > MaxLineQuantity-line.Quantity {
			return nil, fmt.Errorf("item %d: combined quantity for product %d exceeds %d: %w",
				i, line.ProductID, MaxLineQuantity, domainErrors.ErrInvalidItem)
		}
		merged[key] += line.Quantity
		quote, err := u.catalog.ResolvePrice(ctx, line.ProductID, line.VariantID)
		if err != nil {
			if errors.Is(err, domainErrors.ErrNotFound) {
				return nil, fmt.Errorf("item %d: product %d is not available: %w", i, line.ProductID, domainErrors.ErrInvalidItem)
			}
			return nil, err
		}
		item := model.OrderItem{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			UnitPrice: quote.UnitPrice,
		}
		subtotal = subtotal.Add(item.LineTotal())
		items = append(items, item)
	}

	totals := model.Totals{
		Subtotal:       subtotal,
		ShippingFee:    decimal.Zero,
		TaxAmount:      decimal.Zero,
		DiscountAmount: decimal.Zero,
	}

	var promotionID *int64
	if in.PromotionID != nil {
		discount, err := u.promotions.Apply(ctx, *in.PromotionID, subtotal)
		switch {
		case err == nil:
			totals.DiscountAmount = discount
			id := *in.PromotionID
			promotionID = &id
		case u.policy == PromotionLenient &&
			(errors.Is(err, domainErrors.ErrNotFound) || errors.Is(err, domainErrors.ErrNotEligible)):
			// order proceeds without a discount
		default:
			return nil, err
		}
	}

	charges, err := u.charges.Quote(ctx, model.ChargesRequest{
		UserID:          in.UserID,
		Subtotal:        subtotal,
		ShippingAddress: in.ShippingAddress,
		Items:           items,
	})
	if err != nil {
		return nil, fmt.Errorf("quote charges: %w", err)
	}
	totals.ShippingFee = charges.ShippingFee
	totals.TaxAmount = charges.TaxAmount

	order := &model.Order{
		UserID:          in.UserID,
		Status:          model.OrderStatusPending,
		PaymentStatus:   model.PaymentStatusUnpaid,
		PaymentMethod:   in.PaymentMethod,
		Totals:          totals,
		Note:            in.Note,
		ShippingAddress: in.ShippingAddress,
		BillingAddress:  in.BillingAddress,
		PromotionID:     promotionID,
		Items:           items,
	}

	placed, err := u.place(ctx, order)
	if err != nil && order.PromotionID != nil && u.policy == PromotionLenient &&
		errors.Is(err, domainErrors.ErrNotFound) {
		// the promotion ran out after it was applied
		trace.SpanFromContext(ctx).AddEvent("promotion exhausted", trace.WithAttributes(
			attribute.Int64("promotion.id", *order.PromotionID),
		))
		order.PromotionID = nil
		order.Totals.DiscountAmount = decimal.Zero
		return u.place(ctx, order)
	}
	return placed, err
}

func (u *OrderUseCase) place(ctx context.Context, order *model.Order) (*model.Order, error) {
	for attempt := 0; ; attempt++ {
		order.Number = u.newNumber()
		placed, err := u.orders.Place(ctx, order)
		if err == nil {
			return placed, nil
		}
		if errors.Is(err, domainErrors.ErrConflict) && attempt < numberRetries {
			continue
		}
		return nil, err
	}
}

type lineKey struct {
	product int64
	variant int64
}

func keyOf(productID int64, variantID *int64) lineKey {
	key := lineKey{product: productID}
	if variantID != nil {
		key.variant = *variantID
	}
	return key
}

// Get returns an order visible to requester: its owner or an admin.
func (u *OrderUseCase) Get(ctx context.Context, id int64, requester pkgAuth.Claims) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !requester.IsAdmin() && order.UserID != requester.UserID {
		return nil, domainErrors.ErrForbidden
	}
	return order, nil
}

// List returns a page of the user's orders, newest first.
func (u *OrderUseCase) List(ctx context.Context, userID int64, page, limit int) (*model.OrderPage, error) {
	page, limit = normalizePage(page, limit)
	if page > MaxPage {
		result, err := u.orders.ListByUser(ctx, userID, MaxPage, limit)
		if err != nil {
			return nil, err
		}
		result.Orders = []model.Order{}
		result.Page = page
		return result, nil
	}
	return u.orders.ListByUser(ctx, userID, page, limit)
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

// UpdateStatus moves an order along the fulfilment graph.
func (u *OrderUseCase) UpdateStatus(ctx context.Context, id int64, rawStatus string) (*model.Order, error) {
	ctx, span := u.tracer.Start(ctx, "usecase.UpdateOrderStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status", rawStatus),
	))
	defer span.End()

	status, ok := model.ParseOrderStatus(rawStatus)
	if !ok {
		return nil, fmt.Errorf("%q: %w", rawStatus, domainErrors.ErrInvalidStatus)
	}

	order, err := u.orders.UpdateStatus(ctx, id, status)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update order status failed")
		return nil, err
	}
	u.observer.OrderStatusChanged(status)
	return order, nil
}

// UpdatePayment marks an unpaid order as paid.
func (u *OrderUseCase) UpdatePayment(ctx context.Context, id int64, rawStatus string) (*model.Order, error) {
	status, ok := model.ParsePaymentStatus(rawStatus)
	if !ok {
		return nil, fmt.Errorf("%q: %w", rawStatus, domainErrors.ErrInvalidStatus)
	}
	if status != model.PaymentStatusPaid {
		return nil, fmt.Errorf("payment cannot return to %s: %w", status, domainErrors.ErrInvalidTransition)
	}
	return u.orders.UpdatePaymentStatus(ctx, id, status)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domainErrors.ErrInvalidItem):
		return "invalid_item"
	case errors.Is(err, domainErrors.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domainErrors.ErrNotFound):
		return "promotion_not_found"
	case errors.Is(err, domainErrors.ErrNotEligible):
		return "promotion_not_eligible"
	case errors.Is(err, domainErrors.ErrConflict):
		return "conflict"
	case errors.Is(err, domainErrors.ErrUnavailable):
		return "unavailable"
	default:
		return "internal"
	}
}

type nopObserver struct{}

func (nopObserver) OrderPlaced(*model.Order)             {}
func (nopObserver) OrderRejected(string)                 {}
func (nopObserver) OrderStatusChanged(model.OrderStatus) {}
