package event

import (
	"context"
	"encoding/json"

	"github.com/gatherly/event-service/internal/domain"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

type DeleteCmd struct {
	ActorID   string
	ActorRole domain.Role
	EventID   string
}

// Delete removes the event and its memberships in one transaction, dependents
// first so no orphan membership survives. This is a hard removal, not a phase
// transition.
func (s *Service) Delete(ctx context.Context, cmd DeleteCmd) error {
	now := s.clock.Now()

	err := s.repo.WithTx(ctx, func(r TxEventRepo) error {
		ev, err := r.GetByIDForUpdate(ctx, cmd.EventID)
		if err != nil {
			return err
		}

		if err := r.DeleteMemberships(ctx, ev.ID); err != nil {
			return err
		}
		if err := r.DeleteEvent(ctx, ev.ID); err != nil {
			return err
		}

		messageID := uuid.NewString()
		env := Envelope[EventDeletedPayload]{
			Version:    EnvelopeVersion,
			Producer:   Producer,
			MessageID:  messageID,
			TraceID:    TraceIDFromContext(ctx),
			OccurredAt: now.UTC(),
			Payload: EventDeletedPayload{
				EventID:     ev.ID,
				OrganizerID: ev.OrganizerID,
			},
		}
		body, err := json.Marshal(env)
		if err != nil {
			return err
		}
		return r.InsertOutbox(ctx, OutboxMessage{
			MessageID:  messageID,
			RoutingKey: "event.deleted",
			Body:       body,
			CreatedAt:  now.UTC(),
		})
	})
	if err != nil {
		return err
	}

	if s.cache != nil {
		key := cacheKeyEventDetails(cmd.EventID)
		if err := s.cache.Delete(ctx, key); err != nil {
			zlog.Warn().Err(err).Str("key", key).Msg("cache invalidate failed")
		}
	}
	return nil
}
