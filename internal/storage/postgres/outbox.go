package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

const (
	claimOrderEventsQuery = `SELECT id, order_id, event_type, payload, created_at, trace_context FROM order_events
    WHERE published_at IS NULL AND (claimed_at IS NULL OR claimed_at < NOW() - ($2 * INTERVAL '1 second'))
    ORDER BY created_at
    LIMIT $1
    FOR UPDATE SKIP LOCKED`
	leaseOrderEventsQuery   = `UPDATE order_events SET claimed_at = NOW() WHERE id = ANY($1)`
	markEventPublishedQuery = `UPDATE order_events SET published_at = NOW() WHERE id=$1`
)

// ClaimBatch leases up to limit unpublished events. Rows held by another relay are skipped;
// a lease that expires without MarkPublished makes the event claimable again.
func (r *outboxRepository) ClaimBatch(ctx context.Context, limit int, lease time.Duration) ([]model.OrderEvent, error) {
	var events []model.OrderEvent
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, claimOrderEventsQuery, limit, lease.Seconds())
		if err != nil {
			return err
		}
		defer rows.Close()

		ids := make([]string, 0, limit)
		for rows.Next() {
			var (
				event        model.OrderEvent
				eventType    string
				traceContext []byte
			)
			if err := rows.Scan(&event.ID, &event.OrderID, &eventType, &event.Payload, &event.CreatedAt, &traceContext); err != nil {
				return err
			}
			event.Type = model.OrderEventType(eventType)
			if len(traceContext) > 0 {
				if err := json.Unmarshal(traceContext, &event.TraceContext); err != nil {
					return fmt.Errorf("decode trace context of event %s: %w", event.ID, err)
				}
			}
			events = append(events, event)
			ids = append(ids, event.ID)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		rows.Close()

		if len(ids) == 0 {
			return nil
		}
		if _, err := tx.Exec(ctx, leaseOrderEventsQuery, ids); err != nil {
			return fmt.Errorf("lease order events: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *outboxRepository) MarkPublished(ctx context.Context, id string) error {
	tag, err := r.storage.pool.Exec(ctx, markEventPublishedQuery, id)
	if err != nil {
		return fmt.Errorf("mark event published: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}
