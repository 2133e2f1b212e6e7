package event

import (
	"context"
	"time"

	"github.com/gatherly/event-service/internal/domain"
)

type Clock interface{ Now() time.Time }

// EventRepo is the persistent store consumed by the lifecycle service.
type EventRepo interface {
	// Create persists the event together with its owner membership in one
	// transaction. A join-code uniqueness violation surfaces as
	// domain.ErrJoinCodeTaken.
	Create(ctx context.Context, e *domain.Event, owner *domain.Membership) error

	GetByID(ctx context.Context, id string) (*domain.Event, error)
	GetByJoinCode(ctx context.Context, code string) (*domain.Event, error)
	JoinCodeExists(ctx context.Context, code string) (bool, error)

	// UpdatePhaseIfNotCancelled is the reconciler's conditional write: it is a
	// no-op when the stored phase is already cancelled, so a lazy phase sync
	// can never clobber a concurrent cancellation.
	UpdatePhaseIfNotCancelled(ctx context.Context, id string, phase domain.Phase, updatedAt time.Time) error

	ListPublic(ctx context.Context, f ListFilter) ([]*domain.Event, int, error)
	ListByOrganizer(ctx context.Context, organizerID string, page, pageSize int) ([]*domain.Event, int, error)

	WithTx(ctx context.Context, fn func(tr TxEventRepo) error) error
}

// TxEventRepo is the slice of the repo available inside WithTx.
type TxEventRepo interface {
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Event, error)
	Update(ctx context.Context, e *domain.Event) error
	DeleteEvent(ctx context.Context, id string) error
	DeleteMemberships(ctx context.Context, eventID string) error
	InsertOutbox(ctx context.Context, msg OutboxMessage) error
}

// MembershipRepo is the authoritative record of which user holds which role
// on which event. Role gating happens in the transport layer before the
// lifecycle service is invoked.
type MembershipRepo interface {
	// Upsert creates the membership if the (event, user) pair is new and
	// leaves an existing row untouched. Returns whether a row was created.
	Upsert(ctx context.Context, m *domain.Membership) (bool, error)

	// HasRole returns the membership when the user holds one of the given
	// roles on the event, nil otherwise.
	HasRole(ctx context.Context, eventID, userID string, roles ...domain.Role) (*domain.Membership, error)

	ListByEvent(ctx context.Context, eventID string) ([]*domain.Membership, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// EventPublisher publishes a JSON envelope body to the message broker.
// messageID must be stable across retries (outbox.message_id).
type EventPublisher interface {
	PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error
}

type OutboxMessage struct {
	MessageID  string
	RoutingKey string
	Body       []byte
	CreatedAt  time.Time
}
