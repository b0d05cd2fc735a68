package event

import (
	"encoding/json"
	"time"
)

const (
	OrderEventsTopic        = "orders.events"
	OrderNotificationsTopic = "orders.notifications"

	EventOrderCreated         = "order.created"
	EventOrderUpdated         = "order.updated"
	EventOrderDeleted         = "order.deleted"
	EventOrderProgressUpdated = "order.progress_updated"
)

// OrderEvent is the envelope for all order events published to NATS.
// OrderData carries the raw order payload: a full order for created/updated
// events, a partial progress fragment for progress events, nothing for
// deletes. It stays raw here because progress fragments may be malformed
// and are validated downstream before they touch any cached state.
type OrderEvent struct {
	EventType   string          `json:"event_type"`
	OccurredAt  time.Time       `json:"occurred_at"`
	OrderID     string          `json:"order_id,omitempty"`
	OrderNumber string          `json:"order_number"`
	OrderData   json.RawMessage `json:"order_data,omitempty"`
}

const (
	NotificationOrderCompleted = "order.completed"
	NotificationOrderReopened  = "order.reopened"
)

// OrderNotification is a user-facing message emitted when an order crosses
// a completion boundary. Consumers display it; no acknowledgment flows back.
type OrderNotification struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	OrderNumber string    `json:"order_number"`
	Message     string    `json:"message"`
	OccurredAt  time.Time `json:"occurred_at"`
}
