package idempotency_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	redisclient "github.com/redis/go-redis/v9"
	redisadapter "github.com/robertarktes/tennis-court-reservations/internal/adapters/redis"
	"github.com/robertarktes/tennis-court-reservations/internal/idempotency"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startIdempotency(t *testing.T) (*idempotency.Idempotency, *redisclient.Client) {
	t.Helper()
	ctx := context.Background()

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForExec([]string{"redis-cli", "ping"}),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { redisContainer.Terminate(ctx) })

	host, err := redisContainer.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatal(err)
	}

	client := redisclient.NewClient(&redisclient.Options{Addr: host + ":" + port.Port()})
	t.Cleanup(func() { client.Close() })

	return idempotency.NewIdempotency(redisadapter.NewIdempotency(client), time.Hour), client
}

func TestIdempotency_Roundtrip(t *testing.T) {
	idemp, client := startIdempotency(t)
	ctx := context.Background()

	key := "b2c1d0e9f8a7b6c5d4e3f2a1b0c9d8e7"
	body := json.RawMessage(`{"id":"r-1","status":"BOOKED"}`)
	if err := idemp.Set(ctx, key, idempotency.Response{Status: http.StatusCreated, Body: body}); err != nil {
		t.Fatal(err)
	}

	got, err := idemp.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("expected stored response")
	}
	if got.Status != http.StatusCreated {
		t.Errorf("expected status 201, got %d", got.Status)
	}
	if string(got.Body) != string(body) {
		t.Errorf("expected body %s, got %s", body, got.Body)
	}

	// Keys live under their own namespace in redis.
	if n, err := client.Exists(ctx, "reservation:idemp:"+key).Result(); err != nil || n != 1 {
		t.Errorf("expected namespaced key, exists=%d err=%v", n, err)
	}
}

func TestIdempotency_UnknownKey(t *testing.T) {
	idemp, _ := startIdempotency(t)

	got, err := idemp.Get(context.Background(), "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6")
	if err != nil {
		t.Fatalf("expected no error for unknown key, got %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown key, got %+v", got)
	}
}

func TestIdempotency_StoreUnavailable(t *testing.T) {
	idemp, client := startIdempotency(t)
	client.Close()

	err := idemp.Set(context.Background(), "c9d8e7f6a5b4c3d2e1f0a9b8c7d6e5f4",
		idempotency.Response{Status: http.StatusCreated, Body: json.RawMessage(`{}`)})
	if err == nil {
		t.Fatal("expected error when the store is down")
	}
}
