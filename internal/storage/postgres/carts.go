package postgres

import (
	"context"
	"fmt"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

const (
	upsertCartQuery = `INSERT INTO carts (user_id) VALUES ($1)
    ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
    RETURNING id, updated_at`
	selectCartItemsQuery = `SELECT id, cart_id, product_id, variant_id, quantity, unit_price::text
    FROM cart_items WHERE cart_id=$1 ORDER BY id`
	upsertCartItemQuery = `INSERT INTO cart_items (cart_id, product_id, variant_id, quantity, unit_price)
    VALUES ($1, $2, $3, $4, $5)
    ON CONFLICT (cart_id, product_id, COALESCE(variant_id, 0))
    DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, unit_price = EXCLUDED.unit_price
    RETURNING id, quantity`
	touchCartQuery      = `UPDATE carts SET updated_at = NOW() WHERE id=$1`
	deleteCartItemQuery = `DELETE FROM cart_items WHERE id=$1 AND cart_id=$2`
	clearCartQuery      = `DELETE FROM cart_items WHERE cart_id=$1`
)

// --- CartRepository implementation ---

func (r *cartRepository) GetOrCreate(ctx context.Context, userID int64) (*model.Cart, error) {
	cart := model.Cart{UserID: userID, Items: []model.CartItem{}}
	if err := r.storage.pool.QueryRow(ctx, upsertCartQuery, userID).Scan(&cart.ID, &cart.UpdatedAt); err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	rows, err := r.storage.pool.Query(ctx, selectCartItemsQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item  model.CartItem
			price string
		)
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.VariantID, &item.Quantity, &price); err != nil {
			return nil, err
		}
		if item.UnitPrice, err = parseMoney("unit_price", price); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddItem merges quantities for an existing (product, variant) line and refreshes its price snapshot.
func (r *cartRepository) AddItem(ctx context.Context, cartID int64, item model.CartItem) (*model.CartItem, error) {
	stored := item
	stored.CartID = cartID
	err := r.storage.pool.QueryRow(ctx, upsertCartItemQuery,
		cartID, item.ProductID, item.VariantID, item.Quantity, moneyArg(item.UnitPrice),
	).Scan(&stored.ID, &stored.Quantity)
	if err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}
	if _, err := r.storage.pool.Exec(ctx, touchCartQuery, cartID); err != nil {
		return nil, fmt.Errorf("touch cart: %w", err)
	}
	return &stored, nil
}

func (r *cartRepository) RemoveItem(ctx context.Context, cartID, itemID int64) error {
	tag, err := r.storage.pool.Exec(ctx, deleteCartItemQuery, itemID, cartID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *cartRepository) Clear(ctx context.Context, cartID int64) error {
	if _, err := r.storage.pool.Exec(ctx, clearCartQuery, cartID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
