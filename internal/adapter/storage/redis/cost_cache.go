package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// CostCache is a read-through cache for the cost registry. Costs are
// read on every charge but change rarely, so cached values carry a TTL
// and writes refresh the cache best-effort.
type CostCache struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewCostCache creates a Redis-backed cost cache.
func NewCostCache(client *goredis.Client, ttl time.Duration) *CostCache {
	return &CostCache{
		client: client,
		prefix: "cost:",
		ttl:    ttl,
	}
}

// Get retrieves a cached cost by canonical operation id.
// The second return value is false on a cache miss.
func (c *CostCache) Get(ctx context.Context, operationID string) (int64, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+operationID).Result()
	if err != nil {
		if err == goredis.Nil {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("redis cost get: %w", err)
	}
	cost, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("redis cost parse: %w", err)
	}
	return cost, true, nil
}

// Set stores a cost with the configured TTL.
func (c *CostCache) Set(ctx context.Context, operationID string, cost int64) error {
	err := c.client.Set(ctx, c.prefix+operationID, strconv.FormatInt(cost, 10), c.ttl).Err()
	if err != nil {
		return fmt.Errorf("redis cost set: %w", err)
	}
	return nil
}
