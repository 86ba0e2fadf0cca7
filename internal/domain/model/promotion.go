package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType selects how promotion value is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Promotion is a discount rule redeemable on orders.
type Promotion struct {
	ID                int64
	Code              string
	DiscountType      DiscountType
	DiscountValue     decimal.Decimal
	MaxDiscountAmount *decimal.Decimal
	MinOrderAmount    decimal.Decimal
	StartDate         time.Time
	EndDate           time.Time
	IsActive          bool
	UsageCount        int
	UsageLimit        *int
}

// Redeemable reports whether promotion is active, inside its validity window and not exhausted.
func (p Promotion) Redeemable(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if now.Before(p.StartDate) || now.After(p.EndDate) {
		return false
	}
	if p.UsageLimit != nil && p.UsageCount >= *p.UsageLimit {
		return false
	}
	return true
}
