package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/tennis-court-reservations/internal/domain"
	"github.com/robertarktes/tennis-court-reservations/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AuditLogger struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewAuditLogger(db *mongo.Database, logger observability.Logger) *AuditLogger {
	return &AuditLogger{
		coll:   db.Collection("audit_logs"),
		logger: logger,
	}
}

type AuditLog struct {
	ID        uuid.UUID `bson:"_id"`
	Action    string    `bson:"action"`
	UserID    uuid.UUID `bson:"user_id"`
	Timestamp time.Time `bson:"timestamp"`
	Data      bson.M    `bson:"data"`
}

func (a *AuditLogger) LogEvent(ctx context.Context, action string, userID uuid.UUID, data map[string]interface{}) error {
	log := AuditLog{
		ID:        uuid.New(),
		Action:    action,
		UserID:    userID,
		Timestamp: time.Now(),
		Data:      bson.M(data),
	}
	_, err := a.coll.InsertOne(ctx, log)
	if err != nil {
		a.logger.Error("failed to insert audit log", err)
		return err
	}
	return nil
}

// LogReservation records a reservation lifecycle action, e.g.
// reservation.created or reservation.cancelled.
func (a *AuditLogger) LogReservation(ctx context.Context, action string, res *domain.Reservation) error {
	data := map[string]interface{}{
		"reservation_id": res.ID,
		"court_id":       res.CourtID,
		"start_time":     res.StartTime.Format(time.RFC3339),
		"end_time":       res.EndTime.Format(time.RFC3339),
		"total_cost":     res.TotalCost.String(),
		"status":         string(res.Status),
	}
	return a.LogEvent(ctx, action, res.UserID, data)
}

// ListByUser returns the most recent audit entries for a user, newest first.
func (a *AuditLogger) ListByUser(ctx context.Context, userID uuid.UUID, limit int64) ([]AuditLog, error) {
	opts := options.Find().SetSort(bson.M{"timestamp": -1}).SetLimit(limit)
	cur, err := a.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		a.logger.Error("failed to list audit logs", err)
		return nil, err
	}
	defer cur.Close(ctx)

	var logs []AuditLog
	if err := cur.All(ctx, &logs); err != nil {
		a.logger.Error("failed to decode audit logs", err)
		return nil, err
	}
	return logs, nil
}
