package idempotency

import (
	"context"
	"encoding/json"
	"time"

	redisadapter "github.com/robertarktes/tennis-court-reservations/internal/adapters/redis"
)

type Idempotency struct {
	redis *redisadapter.Idempotency
	ttl   time.Duration
}

func NewIdempotency(redis *redisadapter.Idempotency, ttl time.Duration) *Idempotency {
	return &Idempotency{redis: redis, ttl: ttl}
}

// Response is the replayable outcome of a booking request: the HTTP
// status and the response body exactly as first served.
type Response struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// Get returns the stored response for a previously seen Idempotency-Key,
// or nil when the key is new.
func (i *Idempotency) Get(ctx context.Context, key string) (*Response, error) {
	stored, err := i.redis.Get(ctx, key)
	if err != nil || stored == nil {
		return nil, err
	}
	var resp Response
	if err := json.Unmarshal(stored, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (i *Idempotency) Set(ctx context.Context, key string, resp Response) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return i.redis.Set(ctx, key, payload, i.ttl)
}
