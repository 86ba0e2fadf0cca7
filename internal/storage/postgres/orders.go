package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/tracing"
)

const orderColumns = `id, order_number, user_id, status, payment_status, payment_method,
    subtotal::text, shipping_fee::text, tax_amount::text, discount_amount::text,
    note, shipping_address, billing_address, promotion_id, created_at, updated_at`

const (
	insertOrderQuery = `INSERT INTO orders (order_number, user_id, status, payment_status, payment_method,
        subtotal, shipping_fee, tax_amount, discount_amount, note, shipping_address, billing_address, promotion_id)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    RETURNING id, created_at, updated_at`
	insertOrderItemQuery = `INSERT INTO order_items (order_id, product_id, variant_id, quantity, unit_price)
    VALUES ($1, $2, $3, $4, $5) RETURNING id`
	redeemPromotionQuery = `UPDATE promotions SET used_count = used_count + 1
    WHERE id = $1 AND is_active AND NOW() BETWEEN start_date AND end_date
      AND (usage_limit IS NULL OR used_count < usage_limit)`
	insertOrderEventQuery = `INSERT INTO order_events (id, order_id, event_type, payload, trace_context) VALUES ($1, $2, $3, $4, $5)`
	selectOrderByIDQuery  = `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	selectUserOrdersQuery = `SELECT ` + orderColumns + ` FROM orders WHERE user_id=$1
    ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	countUserOrdersQuery  = `SELECT COUNT(*) FROM orders WHERE user_id=$1`
	selectOrderItemsQuery = `SELECT id, order_id, product_id, variant_id, quantity, unit_price::text
    FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, id`
	selectOrderStockQuery  = `SELECT product_id, variant_id, quantity FROM order_items WHERE order_id=$1`
	updateOrderStatusQuery = `UPDATE orders SET status = $1, updated_at = NOW()
    WHERE id = $2 AND status = ANY($3) RETURNING order_number, user_id`
	updatePaymentStatusQuery = `UPDATE orders SET payment_status = $1, updated_at = NOW()
    WHERE id = $2 AND payment_status = $3`
	selectOrderStatusQuery   = `SELECT status FROM orders WHERE id=$1`
	selectPaymentStatusQuery = `SELECT payment_status FROM orders WHERE id=$1`
)

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type orderEventPayload struct {
	OrderID       int64  `json:"orderId"`
	OrderNumber   string `json:"orderNumber"`
	UserID        int64  `json:"userId"`
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus,omitempty"`
	FinalTotal    string `json:"finalTotal,omitempty"`
	ItemCount     int    `json:"itemCount,omitempty"`
}

// --- OrderRepository implementation ---

func (r *orderRepository) Place(ctx context.Context, order *model.Order) (*model.Order, error) {
	ctx, span := r.storage.tracer.Start(ctx, "postgres.PlaceOrder", trace.WithAttributes(
		attribute.String("order.number", order.Number),
		attribute.Int("order.items", len(order.Items)),
	))
	defer span.End()

	placed := *order
	placed.Items = append([]model.OrderItem(nil), order.Items...)

	shipping, err := json.Marshal(placed.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("encode shipping address: %w", err)
	}
	billing, err := json.Marshal(placed.BillingAddress)
	if err != nil {
		return nil, fmt.Errorf("encode billing address: %w", err)
	}

	err = r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		if err := reserveStock(ctx, tx, placed.StockLines()); err != nil {
			return err
		}
		if placed.PromotionID != nil {
			if err := redeemPromotion(ctx, tx, *placed.PromotionID); err != nil {
				return err
			}
		}

		err := tx.QueryRow(ctx, insertOrderQuery,
			placed.Number,
			placed.UserID,
			string(placed.Status),
			string(placed.PaymentStatus),
			placed.PaymentMethod,
			moneyArg(placed.Totals.Subtotal),
			moneyArg(placed.Totals.ShippingFee),
			moneyArg(placed.Totals.TaxAmount),
			moneyArg(placed.Totals.DiscountAmount),
			placed.Note,
			shipping,
			billing,
			placed.PromotionID,
		).Scan(&placed.ID, &placed.CreatedAt, &placed.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return fmt.Errorf("order number %s: %w", placed.Number, domainErrors.ErrConflict)
			}
			return fmt.Errorf("insert order: %w", err)
		}

		for i := range placed.Items {
			item := &placed.Items[i]
			item.OrderID = placed.ID
			err := tx.QueryRow(ctx, insertOrderItemQuery,
				placed.ID, item.ProductID, item.VariantID, item.Quantity, moneyArg(item.UnitPrice),
			).Scan(&item.ID)
			if err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}

		return insertOrderEvent(ctx, tx, placed.ID, model.OrderEventCreated, orderEventPayload{
			OrderID:       placed.ID,
			OrderNumber:   placed.Number,
			UserID:        placed.UserID,
			Status:        string(placed.Status),
			PaymentStatus: string(placed.PaymentStatus),
			FinalTotal:    moneyArg(placed.FinalTotal()),
			ItemCount:     len(placed.Items),
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "place order failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int64("order.id", placed.ID))
	return &placed, nil
}

func redeemPromotion(ctx context.Context, tx pgx.Tx, promotionID int64) error {
	tag, err := tx.Exec(ctx, redeemPromotionQuery, promotionID)
	if err != nil {
		return fmt.Errorf("redeem promotion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("promotion %d is no longer redeemable: %w", promotionID, domainErrors.ErrNotFound)
	}
	return nil
}

// insertOrderEvent writes an outbox row carrying the span context of ctx,
// so the relay publishes it as part of the same trace.
func insertOrderEvent(ctx context.Context, tx pgx.Tx, orderID int64, eventType model.OrderEventType, payload orderEventPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode order event: %w", err)
	}
	var traceContext []byte
	if carrier := tracing.Inject(ctx); carrier != nil {
		if traceContext, err = json.Marshal(carrier); err != nil {
			return fmt.Errorf("encode trace context: %w", err)
		}
	}
	if _, err := tx.Exec(ctx, insertOrderEventQuery, uuid.NewString(), orderID, string(eventType), body, traceContext); err != nil {
		return fmt.Errorf("insert order event: %w", err)
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, selectOrderByIDQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}

	items, err := r.loadItems(ctx, []int64{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]
	return order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID int64, page, limit int) (*model.OrderPage, error) {
	result := &model.OrderPage{Orders: []model.Order{}, Page: page, Limit: limit}
	if err := r.storage.pool.QueryRow(ctx, countUserOrdersQuery, userID).Scan(&result.Total); err != nil {
		return nil, err
	}
	if result.Total == 0 {
		return result, nil
	}

	rows, err := r.storage.pool.Query(ctx, selectUserOrdersQuery, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0, limit)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result.Orders = append(result.Orders, *order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return result, nil
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range result.Orders {
		result.Orders[i].Items = items[result.Orders[i].ID]
	}
	return result, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderIDs []int64) (map[int64][]model.OrderItem, error) {
	rows, err := r.storage.pool.Query(ctx, selectOrderItemsQuery, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[int64][]model.OrderItem, len(orderIDs))
	for rows.Next() {
		var (
			item  model.OrderItem
			price string
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.VariantID, &item.Quantity, &price); err != nil {
			return nil, err
		}
		if item.UnitPrice, err = parseMoney("unit_price", price); err != nil {
			return nil, err
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error) {
	ctx, span := r.storage.tracer.Start(ctx, "postgres.UpdateOrderStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status", string(status)),
	))
	defer span.End()

	predecessors := make([]string, 0, len(status.Predecessors()))
	for _, p := range status.Predecessors() {
		predecessors = append(predecessors, string(p))
	}

	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		var (
			number string
			userID int64
		)
		err := tx.QueryRow(ctx, updateOrderStatusQuery, string(status), id, predecessors).Scan(&number, &userID)
		if errors.Is(err, pgx.ErrNoRows) {
			return transitionFailure(ctx, tx, selectOrderStatusQuery, id)
		}
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		if status == model.OrderStatusCancelled {
			lines, err := orderStockLines(ctx, tx, id)
			if err != nil {
				return err
			}
			if err := releaseStock(ctx, tx, lines); err != nil {
				return err
			}
		}

		return insertOrderEvent(ctx, tx, id, model.OrderEventStatusChanged, orderEventPayload{
			OrderID:     id,
			OrderNumber: number,
			UserID:      userID,
			Status:      string(status),
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update order status failed")
		return nil, err
	}

	return r.GetByID(ctx, id)
}

func (r *orderRepository) UpdatePaymentStatus(ctx context.Context, id int64, status model.PaymentStatus) (*model.Order, error) {
	if status != model.PaymentStatusPaid {
		return nil, fmt.Errorf("payment status %s: %w", status, domainErrors.ErrInvalidTransition)
	}

	tag, err := r.storage.pool.Exec(ctx, updatePaymentStatusQuery, string(status), id, string(model.PaymentStatusUnpaid))
	if err != nil {
		return nil, fmt.Errorf("update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, transitionFailure(ctx, r.storage.pool, selectPaymentStatusQuery, id)
	}
	return r.GetByID(ctx, id)
}

// transitionFailure tells a missing order apart from one whose current state
// does not allow the requested change.
func transitionFailure(ctx context.Context, q rowQuerier, query string, id int64) error {
	var current string
	if err := q.QueryRow(ctx, query, id).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainErrors.ErrNotFound
		}
		return err
	}
	return fmt.Errorf("order %d is %s: %w", id, current, domainErrors.ErrInvalidTransition)
}

func orderStockLines(ctx context.Context, tx pgx.Tx, orderID int64) ([]model.StockLine, error) {
	rows, err := tx.Query(ctx, selectOrderStockQuery, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []model.StockLine
	for rows.Next() {
		var line model.StockLine
		if err := rows.Scan(&line.ProductID, &line.VariantID, &line.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o                                 model.Order
		status, paymentStatus             string
		subtotal, shipping, tax, discount string
		shippingAddr, billingAddr         []byte
	)
	err := row.Scan(
		&o.ID, &o.Number, &o.UserID, &status, &paymentStatus, &o.PaymentMethod,
		&subtotal, &shipping, &tax, &discount,
		&o.Note, &shippingAddr, &billingAddr, &o.PromotionID, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.Status = model.OrderStatus(status)
	o.PaymentStatus = model.PaymentStatus(paymentStatus)
	if o.Totals.Subtotal, err = parseMoney("subtotal", subtotal); err != nil {
		return nil, err
	}
	if o.Totals.ShippingFee, err = parseMoney("shipping_fee", shipping); err != nil {
		return nil, err
	}
	if o.Totals.TaxAmount, err = parseMoney("tax_amount", tax); err != nil {
		return nil, err
	}
	if o.Totals.DiscountAmount, err = parseMoney("discount_amount", discount); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(shippingAddr, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("decode shipping address: %w", err)
	}
	if err := json.Unmarshal(billingAddr, &o.BillingAddress); err != nil {
		return nil, fmt.Errorf("decode billing address: %w", err)
	}
	return &o, nil
}
