package orders

import (
	"context"
	"sync"

	"github.com/aquamarinepk/aqm"
)

// CategoryStore is the two-bucket keyed cache the reconciler reads and
// rewrites: per (scope, category) an ordered list of orders. Implementations
// are local and synchronous; a reconciliation never blocks on I/O between
// a Load and its matching Save.
type CategoryStore interface {
	Load(category string, scope Scope) []*Order
	Save(category string, scope Scope, orders []*Order)
}

type bucketKey struct {
	category string
	scope    Scope
}

// CategoryCache is the in-memory CategoryStore, holding pending and
// completed order lists per scope. It can be warmed wholesale from the
// order repository, both at startup and whenever the host wants a full
// resync instead of incremental replay.
type CategoryCache struct {
	mu      sync.RWMutex
	buckets map[bucketKey][]*Order
	scopes  []Scope
	repo    OrderRepo
	logger  aqm.Logger
}

func NewCategoryCache(repo OrderRepo, scopes []Scope, logger aqm.Logger) *CategoryCache {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	if len(scopes) == 0 {
		scopes = []Scope{GlobalScope()}
	}
	return &CategoryCache{
		buckets: make(map[bucketKey][]*Order),
		scopes:  scopes,
		repo:    repo,
		logger:  logger,
	}
}

// Warm replaces every bucket with the repository's current view,
// partitioning orders per scope by their stored status. Orders with an
// unknown status land in pending; the next progress event for them
// self-heals their placement.
func (c *CategoryCache) Warm(ctx context.Context) error {
	if c.repo == nil {
		c.logger.Info("no repository configured, cache remains empty")
		return nil
	}

	all, err := c.repo.List(ctx)
	if err != nil {
		c.logger.Info("failed to warm order cache, cache remains empty", "error", err)
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.buckets = make(map[bucketKey][]*Order)
	for _, scope := range c.scopes {
		pending := make([]*Order, 0)
		completed := make([]*Order, 0)
		for _, o := range all {
			if o == nil || !scope.Owns(o) {
				continue
			}
			if o.Status == StatusCompleted {
				completed = append(completed, o)
			} else {
				pending = append(pending, o)
			}
		}
		c.buckets[bucketKey{CategoryPending, scope}] = pending
		c.buckets[bucketKey{CategoryCompleted, scope}] = completed
	}

	c.logger.Info("order cache warmed", "orders", len(all), "scopes", len(c.scopes))
	return nil
}

// Load returns a copy of the bucket's order list. Callers may reorder or
// truncate the slice freely before handing it back to Save; the orders
// themselves are shared.
func (c *CategoryCache) Load(category string, scope Scope) []*Order {
	c.mu.RLock()
	defer c.mu.RUnlock()

	bucket := c.buckets[bucketKey{category, scope}]
	out := make([]*Order, len(bucket))
	copy(out, bucket)
	return out
}

// Save replaces the bucket's order list.
func (c *CategoryCache) Save(category string, scope Scope, orders []*Order) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buckets[bucketKey{category, scope}] = orders
}

// Find locates an order by number in either bucket of the scope.
func (c *CategoryCache) Find(scope Scope, number string) (*Order, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, category := range []string{CategoryPending, CategoryCompleted} {
		bucket := c.buckets[bucketKey{category, scope}]
		if idx := findByNumber(bucket, number); idx >= 0 {
			return bucket[idx], category
		}
	}
	return nil, ""
}

// Count returns the number of orders in one bucket.
func (c *CategoryCache) Count(category string, scope Scope) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.buckets[bucketKey{category, scope}])
}
