package event

import (
	"context"
	"time"

	appctx "github.com/gatherly/event-service/internal/pkg/context"
)

const (
	EnvelopeVersion = 1
	Producer        = "event-service"
)

// Envelope is the stable contract for all domain events this service emits.
// Consumers should rely on version/producer/message_id/occurred_at + payload;
// trace_id is optional but recommended for observability.
type Envelope[T any] struct {
	Version    int       `json:"version"`
	Producer   string    `json:"producer"`
	MessageID  string    `json:"message_id"`
	TraceID    string    `json:"trace_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    T         `json:"payload"`
}

// EventPublishedPayload is the business payload for routing key: event.published
// (private -> public visibility transition).
type EventPublishedPayload struct {
	EventID     string    `json:"event_id"`
	OrganizerID string    `json:"organizer_id"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	Phase       string    `json:"phase"`
}

// EventCancelledPayload is the business payload for routing key: event.cancelled
type EventCancelledPayload struct {
	EventID     string    `json:"event_id"`
	OrganizerID string    `json:"organizer_id"`
	Name        string    `json:"name"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	ActorRole   string    `json:"actor_role,omitempty"`
}

// EventDeletedPayload is the business payload for routing key: event.deleted
type EventDeletedPayload struct {
	EventID     string `json:"event_id"`
	OrganizerID string `json:"organizer_id"`
}

// TraceIDFromContext reads the transport request id if middleware injected one.
func TraceIDFromContext(ctx context.Context) string {
	return appctx.GetRequestID(ctx)
}
