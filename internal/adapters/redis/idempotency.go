package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyPrefix = "reservation:idemp:"

// Idempotency stores opaque response payloads keyed by a client's
// Idempotency-Key. Encoding is the caller's business, this layer only
// namespaces the keys and applies the TTL.
type Idempotency struct {
	client *redis.Client
}

func NewIdempotency(client *redis.Client) *Idempotency {
	return &Idempotency{client: client}
}

// Get returns nil with no error when the key has not been seen.
func (i *Idempotency) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := i.client.Get(ctx, idempotencyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (i *Idempotency) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	return i.client.Set(ctx, idempotencyPrefix+key, payload, ttl).Err()
}
