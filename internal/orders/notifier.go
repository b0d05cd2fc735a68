package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"
	"github.com/google/uuid"

	"github.com/glassline/glassline/pkg/event"
)

// Notifier receives user-facing completion and transition messages.
// Delivery is fire-and-forget; reconciliation never waits on it.
type Notifier interface {
	Notify(ctx context.Context, kind, orderNumber string)
}

// EventNotifier publishes order notifications to the notifications topic.
type EventNotifier struct {
	publisher events.Publisher
	logger    aqm.Logger
}

func NewEventNotifier(publisher events.Publisher, logger aqm.Logger) *EventNotifier {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &EventNotifier{
		publisher: publisher,
		logger:    logger,
	}
}

func (n *EventNotifier) Notify(ctx context.Context, kind, orderNumber string) {
	if n.publisher == nil {
		return
	}

	payload := event.OrderNotification{
		ID:          uuid.New().String(),
		Kind:        kind,
		OrderNumber: orderNumber,
		Message:     notificationMessage(kind, orderNumber),
		OccurredAt:  time.Now().UTC(),
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("cannot marshal notification", "kind", kind, "order_number", orderNumber, "error", err)
		return
	}
	if err := n.publisher.Publish(ctx, event.OrderNotificationsTopic, raw); err != nil {
		n.logger.Error("cannot publish notification", "kind", kind, "order_number", orderNumber, "error", err)
	}
}

func notificationMessage(kind, orderNumber string) string {
	switch kind {
	case event.NotificationOrderCompleted:
		return fmt.Sprintf("Order %s is fully completed", orderNumber)
	case event.NotificationOrderReopened:
		return fmt.Sprintf("Order %s moved back to pending", orderNumber)
	default:
		return fmt.Sprintf("Order %s updated", orderNumber)
	}
}
