package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Client() *redis.Client {
	return c.client
}

// SetSlotHold takes a short-lived soft lock on a court window while the
// booking is written to the database. It is a fast-path guard only, the
// database transaction stays the source of truth.
func (c *Cache) SetSlotHold(ctx context.Context, courtID uuid.UUID, start time.Time, userID string, ttl time.Duration) (bool, error) {
	key := "hold:" + courtID.String() + ":" + start.UTC().Format(time.RFC3339)
	res := c.client.SetNX(ctx, key, userID, ttl)
	return res.Val(), res.Err()
}

// ReleaseSlotHold drops the hold once the booking outcome is known.
func (c *Cache) ReleaseSlotHold(ctx context.Context, courtID uuid.UUID, start time.Time) error {
	key := "hold:" + courtID.String() + ":" + start.UTC().Format(time.RFC3339)
	return c.client.Del(ctx, key).Err()
}
