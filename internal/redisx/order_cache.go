package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/ariefcatur/go-microshop/internal/orders"
	"github.com/redis/go-redis/v9"
)

// OrderCache is a read-through cache of orders. The database stays the source
// of truth; Redis errors on reads and writes are logged and treated as a miss.
type OrderCache struct {
	Redis *redis.Client
}

func (c *OrderCache) Get(ctx context.Context, id int) (orders.Order, bool) {
	b, err := c.Redis.Get(ctx, fmt.Sprintf(KeyOrder, id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("redis get order %d: %v", id, err)
		}
		return orders.Order{}, false
	}
	var o orders.Order
	if err := json.Unmarshal(b, &o); err != nil {
		return orders.Order{}, false
	}
	return o, true
}

func (c *OrderCache) Set(ctx context.Context, o orders.Order) {
	b, _ := json.Marshal(o)
	if err := c.Redis.Set(ctx, fmt.Sprintf(KeyOrder, o.ID), b, TTLOrderCache).Err(); err != nil {
		log.Printf("redis set order %d: %v", o.ID, err)
	}
}

// Add stores o only when no entry exists for its id.
func (c *OrderCache) Add(ctx context.Context, o orders.Order) {
	b, _ := json.Marshal(o)
	if err := c.Redis.SetNX(ctx, fmt.Sprintf(KeyOrder, o.ID), b, TTLOrderCache).Err(); err != nil {
		log.Printf("redis add order %d: %v", o.ID, err)
	}
}

// Flush drops every cached order.
func (c *OrderCache) Flush(ctx context.Context) error {
	iter := c.Redis.Scan(ctx, 0, PatternOrders, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan orders: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.Redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis flush orders: %w", err)
	}
	return nil
}
