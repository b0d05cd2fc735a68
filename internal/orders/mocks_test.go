package orders

import (
	"context"
	"sync"

	"github.com/aquamarinepk/aqm/events"
)

// MockSubscriber is a mock implementation of events.Subscriber for testing
type MockSubscriber struct {
	SubscribeFunc func(ctx context.Context, topic string, handler events.HandlerFunc) error
}

func NewMockSubscriber() *MockSubscriber {
	return &MockSubscriber{}
}

func (m *MockSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx, topic, handler)
	}
	return nil
}

// MockPublisher is a mock implementation of events.Publisher for testing
type MockPublisher struct {
	mu        sync.Mutex
	Published []PublishedMessage
}

type PublishedMessage struct {
	Topic string
	Msg   []byte
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published = append(m.Published, PublishedMessage{Topic: topic, Msg: msg})
	return nil
}

// MockNotifier records notifications for assertions
type MockNotifier struct {
	mu            sync.Mutex
	Notifications []MockNotification
}

type MockNotification struct {
	Kind        string
	OrderNumber string
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Notify(ctx context.Context, kind, orderNumber string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notifications = append(m.Notifications, MockNotification{Kind: kind, OrderNumber: orderNumber})
}

func (m *MockNotifier) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Notifications)
}

// MockOrderRepo is a mock implementation of OrderRepo for testing
type MockOrderRepo struct {
	Orders   []*Order
	ListFunc func(ctx context.Context) ([]*Order, error)
}

func NewMockOrderRepo(orders ...*Order) *MockOrderRepo {
	return &MockOrderRepo{Orders: orders}
}

func (m *MockOrderRepo) List(ctx context.Context) ([]*Order, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return m.Orders, nil
}

func (m *MockOrderRepo) ListByStatus(ctx context.Context, status string) ([]*Order, error) {
	var out []*Order
	for _, o := range m.Orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *MockOrderRepo) Get(ctx context.Context, id string) (*Order, error) {
	for _, o := range m.Orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, nil
}

func (m *MockOrderRepo) GetByNumber(ctx context.Context, number string) (*Order, error) {
	for _, o := range m.Orders {
		if o.Number == number {
			return o, nil
		}
	}
	return nil, nil
}

func (m *MockOrderRepo) Save(ctx context.Context, o *Order) error {
	for i, existing := range m.Orders {
		if existing.ID == o.ID {
			m.Orders[i] = o
			return nil
		}
	}
	m.Orders = append(m.Orders, o)
	return nil
}

func (m *MockOrderRepo) Delete(ctx context.Context, id string) error {
	for i, o := range m.Orders {
		if o.ID == id {
			m.Orders = append(m.Orders[:i], m.Orders[i+1:]...)
			return nil
		}
	}
	return nil
}

// Test fixtures

func tracked(qty int) *Tracking {
	return &Tracking{TotalCompletedQty: qty}
}

func glassAssignment(id string, quantity, completed int) Assignment {
	return Assignment{
		ID:           id,
		Quantity:     quantity,
		TeamTracking: tracked(completed),
	}
}

func glassItem(id string, assignments ...Assignment) Item {
	return Item{
		ID:   id,
		Name: "Round bottle 100ml",
		TeamAssignments: map[string][]Assignment{
			TeamGlass: assignments,
		},
	}
}

func pendingOrder(number string, items ...Item) *Order {
	return &Order{
		ID:     "ord-" + number,
		Number: number,
		Status: StatusPending,
		Items:  items,
	}
}
