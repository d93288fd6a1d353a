package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/tennis-court-reservations/internal/adapters/rabbit"
	"github.com/robertarktes/tennis-court-reservations/internal/config"
	"github.com/robertarktes/tennis-court-reservations/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdown, err := observability.SetupOTel(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdown()

	logger := observability.NewLogger()

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()

	consumer, err := rabbit.NewConsumer(conn, "notifications.q", "reservation.*")
	if err != nil {
		log.Fatalf("failed to create consumer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deliveries, err := consumer.Consume(ctx)
	if err != nil {
		log.Fatalf("failed to start consuming: %v", err)
	}

	go func() {
		for d := range deliveries {
			handleDelivery(logger, d)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutdown notification worker")
}

// handleDelivery stands in for a real notification channel. It logs the
// reservation event and acks; a failed decode is dropped, not requeued,
// since it will never parse.
func handleDelivery(logger observability.Logger, d amqp.Delivery) {
	var payload struct {
		ReservationID string `json:"reservation_id"`
		UserID        string `json:"user_id"`
		Status        string `json:"status"`
	}
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		logger.Error("failed to decode event payload: ", err)
		d.Nack(false, false)
		return
	}

	logger.
		WithField("routing_key", d.RoutingKey).
		WithField("reservation_id", payload.ReservationID).
		WithField("user_id", payload.UserID).
		Info("reservation event received")
	d.Ack(false)
}
