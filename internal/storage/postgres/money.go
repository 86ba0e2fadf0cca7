package postgres

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Monetary columns are NUMERIC(12,2); they travel as text to keep exact values.

func moneyArg(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func parseMoney(column, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s: %w", column, err)
	}
	return d, nil
}

func parseOptionalMoney(column string, raw *string) (*decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	d, err := parseMoney(column, *raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
