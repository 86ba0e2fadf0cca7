package repository

import (
	"context"
	"time"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// OutboxRepository hands out unpublished order events.
type OutboxRepository interface {
	ClaimBatch(ctx context.Context, limit int, lease time.Duration) ([]model.OrderEvent, error)
	MarkPublished(ctx context.Context, id string) error
}
