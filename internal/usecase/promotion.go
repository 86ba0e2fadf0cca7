package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

var hundred = decimal.NewFromInt(100)

// PromotionResolver computes the discount a promotion grants for a subtotal.
type PromotionResolver struct {
	promotions repository.PromotionRepository
	now        func() time.Time
}

// NewPromotionResolver constructs PromotionResolver.
func NewPromotionResolver(promotions repository.PromotionRepository) *PromotionResolver {
	return &PromotionResolver{promotions: promotions, now: time.Now}
}

// Apply returns the discount for subtotal. It does not consume promotion usage.
func (r *PromotionResolver) Apply(ctx context.Context, promotionID int64, subtotal decimal.Decimal) (decimal.Decimal, error) {
	promo, err := r.promotions.GetByID(ctx, promotionID)
	if err != nil {
		return decimal.Zero, err
	}
	if !promo.Redeemable(r.now()) {
		return decimal.Zero, fmt.Errorf("promotion %d is not redeemable: %w", promotionID, domainErrors.ErrNotFound)
	}
	if subtotal.LessThan(promo.MinOrderAmount) {
		return decimal.Zero, fmt.Errorf("subtotal %s below minimum %s: %w",
			subtotal.StringFixed(2), promo.MinOrderAmount.StringFixed(2), domainErrors.ErrNotEligible)
	}
	return discountFor(promo, subtotal), nil
}

func discountFor(promo *model.Promotion, subtotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch promo.DiscountType {
	case model.DiscountPercentage:
		discount = subtotal.Mul(promo.DiscountValue).Div(hundred).Round(2)
		if promo.MaxDiscountAmount != nil && discount.GreaterThan(*promo.MaxDiscountAmount) {
			discount = *promo.MaxDiscountAmount
		}
	case model.DiscountFixed:
		discount = promo.DiscountValue
	default:
		return decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount
}
