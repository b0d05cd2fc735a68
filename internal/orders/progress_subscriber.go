package orders

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"

	"github.com/glassline/glassline/pkg/event"
)

// ProgressSubscriber consumes order events for one scope and reconciles
// them into the category store. Progress events are merged into the cached
// order, completion is recomputed, and the order is moved between the
// pending and completed buckets when its derived status changes.
//
// Events arrive serially and each one is processed to completion before
// the next; a reconciliation is atomic with respect to other
// reconciliations in the same scope.
type ProgressSubscriber struct {
	subscriber events.Subscriber
	store      CategoryStore
	merger     *Merger
	notifier   Notifier
	scope      Scope
	logger     aqm.Logger
}

func NewProgressSubscriber(sub events.Subscriber, store CategoryStore, notifier Notifier, scope Scope, logger aqm.Logger) *ProgressSubscriber {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &ProgressSubscriber{
		subscriber: sub,
		store:      store,
		merger:     NewMerger(logger),
		notifier:   notifier,
		scope:      scope,
		logger:     logger,
	}
}

func (s *ProgressSubscriber) Start(ctx context.Context) error {
	s.log().Info("starting order progress subscriber", "topic", event.OrderEventsTopic, "scope", s.scope.String())
	if s.subscriber == nil {
		return fmt.Errorf("progress subscriber not configured")
	}
	return s.subscriber.Subscribe(ctx, event.OrderEventsTopic, s.handleEvent)
}

// handleEvent never returns an error for bad payloads: a malformed event
// would fail identically on redelivery, so it is logged and dropped.
func (s *ProgressSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var evt event.OrderEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.log().Info("invalid order event", "error", err)
		return nil
	}

	switch evt.EventType {
	case event.EventOrderProgressUpdated:
		s.handleProgress(ctx, &evt)
	case event.EventOrderCreated, event.EventOrderUpdated:
		s.handleUpserted(ctx, &evt)
	case event.EventOrderDeleted:
		s.handleDeleted(ctx, &evt)
	default:
		s.log().Debug("unknown order event type", "event_type", evt.EventType)
	}
	return nil
}

// handleProgress runs one progress event end-to-end. Both buckets are
// always scanned so an order sitting in the wrong bucket after a prior
// inconsistency self-heals at its next progress event.
func (s *ProgressSubscriber) handleProgress(ctx context.Context, evt *event.OrderEvent) {
	if evt.OrderNumber == "" {
		s.log().Info("progress event missing order number, discarding")
		return
	}

	for _, category := range []string{CategoryPending, CategoryCompleted} {
		s.reconcileBucket(ctx, category, evt)
	}
}

func (s *ProgressSubscriber) reconcileBucket(ctx context.Context, category string, evt *event.OrderEvent) {
	bucket := s.store.Load(category, s.scope)
	idx := findByNumber(bucket, evt.OrderNumber)
	if idx < 0 {
		return
	}
	cached := bucket[idx]

	if !s.scope.Owns(cached) {
		s.log().Debug("progress event not for this scope", "order_number", evt.OrderNumber, "scope", s.scope.String())
		return
	}

	merged := s.merger.Merge(cached, evt.OrderData)
	previous := cached.Status
	derived := DeriveStatus(merged)

	if previous == derived {
		merged.Status = derived
		bucket[idx] = merged
		s.store.Save(category, s.scope, bucket)
		return
	}

	switch {
	case previous == StatusPending && derived == StatusCompleted && category == CategoryPending:
		merged.Status = StatusCompleted
		s.store.Save(CategoryPending, s.scope, removeAt(bucket, idx))
		completed := s.store.Load(CategoryCompleted, s.scope)
		s.store.Save(CategoryCompleted, s.scope, append(completed, merged))
		s.log().Info("order completed", "order_number", merged.Number, "scope", s.scope.String())
		if s.notifier != nil {
			s.notifier.Notify(ctx, event.NotificationOrderCompleted, merged.Number)
		}

	case previous == StatusCompleted && derived == StatusPending && category == CategoryCompleted:
		merged.Status = StatusPending
		s.store.Save(CategoryCompleted, s.scope, removeAt(bucket, idx))
		pending := s.store.Load(CategoryPending, s.scope)
		s.store.Save(CategoryPending, s.scope, append(pending, merged))
		s.log().Info("order moved back to pending", "order_number", merged.Number, "scope", s.scope.String())
		if s.notifier != nil {
			s.notifier.Notify(ctx, event.NotificationOrderReopened, merged.Number)
		}

	default:
		// Status flipped but the order was found in the bucket it is not
		// leaving. No movement; the scan of the other bucket handles it.
	}
}

// handleUpserted replaces or inserts the full order carried by a created or
// updated event, placed in the bucket matching its derived status.
func (s *ProgressSubscriber) handleUpserted(ctx context.Context, evt *event.OrderEvent) {
	if len(evt.OrderData) == 0 {
		s.log().Info("order upsert event missing order data", "order_number", evt.OrderNumber)
		return
	}

	var o Order
	if err := json.Unmarshal(evt.OrderData, &o); err != nil {
		s.log().Info("invalid order payload in upsert event", "order_number", evt.OrderNumber, "error", err)
		return
	}
	if o.Number == "" {
		o.Number = evt.OrderNumber
	}
	if o.Number == "" {
		s.log().Info("order upsert event missing order number, discarding")
		return
	}
	if !s.scope.Owns(&o) {
		return
	}

	o.Status = DeriveStatus(&o)
	target := CategoryPending
	if o.Status == StatusCompleted {
		target = CategoryCompleted
	}

	s.removeFromBuckets(o.Number)
	bucket := s.store.Load(target, s.scope)
	s.store.Save(target, s.scope, append(bucket, &o))
	s.log().Info("order upserted", "order_number", o.Number, "category", target, "scope", s.scope.String())
}

func (s *ProgressSubscriber) handleDeleted(ctx context.Context, evt *event.OrderEvent) {
	if evt.OrderNumber == "" {
		s.log().Info("order deleted event missing order number, discarding")
		return
	}
	s.removeFromBuckets(evt.OrderNumber)
	s.log().Info("order removed from cache", "order_number", evt.OrderNumber, "scope", s.scope.String())
}

func (s *ProgressSubscriber) removeFromBuckets(number string) {
	for _, category := range []string{CategoryPending, CategoryCompleted} {
		bucket := s.store.Load(category, s.scope)
		if idx := findByNumber(bucket, number); idx >= 0 {
			s.store.Save(category, s.scope, removeAt(bucket, idx))
		}
	}
}

func (s *ProgressSubscriber) log() aqm.Logger {
	return s.logger.With("component", "ProgressSubscriber")
}
