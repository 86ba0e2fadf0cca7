package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart stages items before checkout; one per user.
type Cart struct {
	ID        int64
	UserID    int64
	Items     []CartItem
	UpdatedAt time.Time
}

// CartItem references a product/variant with price snapshot taken when added.
type CartItem struct {
	ID        int64
	CartID    int64
	ProductID int64
	VariantID *int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// Subtotal sums snapshot prices; it is informative only, orders reprice items.
func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
