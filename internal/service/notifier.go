package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/snehachy12/campus-event-system-sub002/internal/domain"
	"github.com/snehachy12/campus-event-system-sub002/internal/kafka"
	"github.com/snehachy12/campus-event-system-sub002/internal/logger"
)

// Notifier announces reservation lifecycle events. Fire-and-forget:
// the core never depends on delivery succeeding.
type Notifier interface {
	ReservationChanged(ctx context.Context, r *domain.Reservation, event string)
}

// ReservationEvent is the published payload
type ReservationEvent struct {
	Event         string        `json:"event"`
	ReservationID string        `json:"reservation_id"`
	HumanID       string        `json:"human_id"`
	ResourceType  string        `json:"resource_type"`
	ResourceID    string        `json:"resource_id"`
	RequesterID   string        `json:"requester_id"`
	Status        domain.Status `json:"status"`
	Amount        int64         `json:"amount"`
	Currency      string        `json:"currency"`
	OccurredAt    time.Time     `json:"occurred_at"`
}

// KafkaNotifier publishes reservation events keyed by reservation ID
// so per-reservation ordering is preserved within a partition.
type KafkaNotifier struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaNotifier(producer *kafka.Producer) *KafkaNotifier {
	return &KafkaNotifier{
		producer: producer,
		log:      logger.Get().With(zap.String("component", "kafka_notifier")),
	}
}

func (n *KafkaNotifier) ReservationChanged(ctx context.Context, r *domain.Reservation, event string) {
	payload, err := json.Marshal(ReservationEvent{
		Event:         event,
		ReservationID: r.ID,
		HumanID:       r.HumanID,
		ResourceType:  string(r.ResourceType),
		ResourceID:    r.ResourceID,
		RequesterID:   r.RequesterID,
		Status:        r.Status,
		Amount:        r.Amount,
		Currency:      r.Currency,
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		n.log.Error("marshaling reservation event failed",
			zap.String("reservation_id", r.ID),
			zap.Error(err))
		return
	}
	n.producer.PublishAsync(ctx, r.ID, payload)
}

// NoOpNotifier is used when Kafka is disabled
type NoOpNotifier struct{}

func (NoOpNotifier) ReservationChanged(ctx context.Context, r *domain.Reservation, event string) {}
