package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

const (
	reserveProductStock = `UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2 AND stock >= $1`
	reserveVariantStock = `UPDATE product_variants SET stock = stock - $1 WHERE id = $2 AND product_id = $3 AND stock >= $1`
	releaseProductStock = `UPDATE products SET stock = stock + $1, updated_at = NOW() WHERE id = $2`
	releaseVariantStock = `UPDATE product_variants SET stock = stock + $1 WHERE id = $2 AND product_id = $3`
)

type stockKey struct {
	productID int64
	variantID int64
	variant   bool
}

// mergeStockLines sums quantities per (product, variant) and orders lines by
// product then variant so concurrent transactions lock rows in the same order.
func mergeStockLines(lines []model.StockLine) []model.StockLine {
	totals := make(map[stockKey]int, len(lines))
	keys := make([]stockKey, 0, len(lines))
	for _, line := range lines {
		key := stockKey{productID: line.ProductID}
		if line.VariantID != nil {
			key.variantID = *line.VariantID
			key.variant = true
		}
		if _, seen := totals[key]; !seen {
			keys = append(keys, key)
		}
		totals[key] += line.Quantity
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].productID != keys[j].productID {
			return keys[i].productID < keys[j].productID
		}
		if keys[i].variant != keys[j].variant {
			return !keys[i].variant
		}
		return keys[i].variantID < keys[j].variantID
	})

	merged := make([]model.StockLine, 0, len(keys))
	for _, key := range keys {
		line := model.StockLine{ProductID: key.productID, Quantity: totals[key]}
		if key.variant {
			variantID := key.variantID
			line.VariantID = &variantID
		}
		merged = append(merged, line)
	}
	return merged
}

// reserveStock decrements every line with a guarded update. A line that cannot be
// satisfied aborts with InsufficientStockError; the caller's transaction undoes
// lines already applied.
func reserveStock(ctx context.Context, tx pgx.Tx, lines []model.StockLine) error {
	for _, line := range mergeStockLines(lines) {
		var (
			tag pgconn.CommandTag
			err error
		)
		if line.VariantID != nil {
			tag, err = tx.Exec(ctx, reserveVariantStock, line.Quantity, *line.VariantID, line.ProductID)
		} else {
			tag, err = tx.Exec(ctx, reserveProductStock, line.Quantity, line.ProductID)
		}
		if err != nil {
			return fmt.Errorf("reserve stock for product %d: %w", line.ProductID, err)
		}
		if tag.RowsAffected() == 0 {
			return &domainErrors.InsufficientStockError{
				ProductID: line.ProductID,
				VariantID: line.VariantID,
				Requested: line.Quantity,
			}
		}
	}
	return nil
}

func releaseStock(ctx context.Context, tx pgx.Tx, lines []model.StockLine) error {
	for _, line := range mergeStockLines(lines) {
		var err error
		if line.VariantID != nil {
			_, err = tx.Exec(ctx, releaseVariantStock, line.Quantity, *line.VariantID, line.ProductID)
		} else {
			_, err = tx.Exec(ctx, releaseProductStock, line.Quantity, line.ProductID)
		}
		if err != nil {
			return fmt.Errorf("release stock for product %d: %w", line.ProductID, err)
		}
	}
	return nil
}
