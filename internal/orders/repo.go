package orders

import (
	"context"
)

type OrderRepo interface {
	List(ctx context.Context) ([]*Order, error)
	ListByStatus(ctx context.Context, status string) ([]*Order, error)
	Get(ctx context.Context, id string) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	Save(ctx context.Context, order *Order) error
	Delete(ctx context.Context, id string) error
}
