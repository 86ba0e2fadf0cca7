package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

// --- CatalogRepository implementation ---

func (r *catalogRepository) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	const query = `SELECT id, name, base_price::text, stock, is_active FROM products WHERE id=$1`
	var (
		p     model.Product
		price string
	)
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &price, &p.Stock, &p.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	if p.BasePrice, err = parseMoney("base_price", price); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *catalogRepository) GetVariant(ctx context.Context, id int64) (*model.Variant, error) {
	const query = `SELECT id, product_id, name, price::text, stock FROM product_variants WHERE id=$1`
	var (
		v     model.Variant
		price string
	)
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(&v.ID, &v.ProductID, &v.Name, &price, &v.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	if v.Price, err = parseMoney("price", price); err != nil {
		return nil, err
	}
	return &v, nil
}

// --- PromotionRepository implementation ---

func (r *promotionRepository) GetByID(ctx context.Context, id int64) (*model.Promotion, error) {
	const query = `SELECT id, code, discount_type, discount_value::text, max_discount_amount::text, min_order_amount::text,
                          start_date, end_date, is_active, used_count, usage_limit
                   FROM promotions WHERE id=$1`
	var (
		p                   model.Promotion
		discountType, value string
		maxDiscount         *string
		minOrder            string
	)
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Code, &discountType, &value, &maxDiscount, &minOrder,
		&p.StartDate, &p.EndDate, &p.IsActive, &p.UsageCount, &p.UsageLimit,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	p.DiscountType = model.DiscountType(discountType)
	if p.DiscountValue, err = parseMoney("discount_value", value); err != nil {
		return nil, err
	}
	if p.MaxDiscountAmount, err = parseOptionalMoney("max_discount_amount", maxDiscount); err != nil {
		return nil, err
	}
	if p.MinOrderAmount, err = parseMoney("min_order_amount", minOrder); err != nil {
		return nil, err
	}
	return &p, nil
}
