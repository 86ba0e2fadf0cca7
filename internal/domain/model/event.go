package model

import "time"

// OrderEventType names outbox event kinds.
type OrderEventType string

const (
	OrderEventCreated       OrderEventType = "order.created"
	OrderEventStatusChanged OrderEventType = "order.status_changed"
)

// OrderEvent is an outbox record written in the same transaction as the order change.
type OrderEvent struct {
	ID        string
	OrderID   int64
	Type      OrderEventType
	Payload   []byte
	CreatedAt time.Time
	// TraceContext is the propagated span context of the request that wrote the event.
	TraceContext map[string]string
}
