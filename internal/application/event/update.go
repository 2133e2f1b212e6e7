package event

import (
	"context"
	"encoding/json"

	"github.com/gatherly/event-service/internal/domain"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

type UpdateCmd struct {
	ActorID string
	// ActorRole is the caller's event role, already checked by the membership
	// gate in the transport layer. The service trusts the assertion.
	ActorRole domain.Role
	EventID   string

	Patch domain.Patch
}

// Update merges the patch, resolves the phase branch (cancellation dominates,
// otherwise the phase is re-derived unless the record is already cancelled),
// runs the visibility gate on a private->public transition, and persists
// atomically. The returned record is reconciled against the current clock.
func (s *Service) Update(ctx context.Context, cmd UpdateCmd) (*domain.Event, error) {
	now := s.clock.Now()

	var out *domain.Event
	var cancelled, published bool

	err := s.repo.WithTx(ctx, func(r TxEventRepo) error {
		ev, err := r.GetByIDForUpdate(ctx, cmd.EventID)
		if err != nil {
			return err
		}

		prevKind := ev.Kind
		wasCancelled := ev.Phase == domain.PhaseCancelled

		if err := ev.ApplyPatch(cmd.Patch, now); err != nil {
			return err
		}

		switch {
		case cmd.Patch.WantsCancel():
			// Unconditional and dominant: wins over any other patch content,
			// including an explicit kind=public in the same request.
			ev.Cancel(now)
			cancelled = !wasCancelled
		case !wasCancelled:
			ev.Phase = domain.DerivePhase(ev.StartAt, ev.EndAt, now)
		default:
			// Cancelled stays cancelled; there is no uncancel path.
			if ev.Kind == domain.KindPublic {
				return domain.ErrInvalidState("cancelled event cannot be public")
			}
		}

		if ev.Kind == domain.KindPublic && prevKind != domain.KindPublic {
			if missing := domain.MissingPublicFields(ev); len(missing) > 0 {
				// Rejects the whole update; the tx rolls back, no partial apply.
				return domain.ErrMissingFields(missing)
			}
			published = true
		}

		if err := r.Update(ctx, ev); err != nil {
			return err
		}

		if cancelled {
			messageID := uuid.NewString()
			env := Envelope[EventCancelledPayload]{
				Version:    EnvelopeVersion,
				Producer:   Producer,
				MessageID:  messageID,
				TraceID:    TraceIDFromContext(ctx),
				OccurredAt: now.UTC(),
				Payload: EventCancelledPayload{
					EventID:     ev.ID,
					OrganizerID: ev.OrganizerID,
					Name:        ev.Name,
					StartAt:     ev.StartAt,
					EndAt:       ev.EndAt,
					ActorRole:   string(cmd.ActorRole),
				},
			}
			body, err := json.Marshal(env)
			if err != nil {
				return err
			}
			if err := r.InsertOutbox(ctx, OutboxMessage{
				MessageID:  messageID,
				RoutingKey: "event.cancelled",
				Body:       body,
				CreatedAt:  now.UTC(),
			}); err != nil {
				return err
			}
		}

		out = ev
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		key := cacheKeyEventDetails(out.ID)
		if err := s.cache.Delete(ctx, key); err != nil {
			zlog.Warn().Err(err).Str("key", key).Msg("cache invalidate failed")
		}
	}

	// Visibility transition: best-effort broadcast, unlike the durable
	// cancellation message above.
	if published {
		messageID := uuid.NewString()
		env := Envelope[EventPublishedPayload]{
			Version:    EnvelopeVersion,
			Producer:   Producer,
			MessageID:  messageID,
			TraceID:    TraceIDFromContext(ctx),
			OccurredAt: now.UTC(),
			Payload: EventPublishedPayload{
				EventID:     out.ID,
				OrganizerID: out.OrganizerID,
				Name:        out.Name,
				Location:    out.Location,
				StartAt:     out.StartAt,
				EndAt:       out.EndAt,
				Phase:       string(out.Phase),
			},
		}
		if body, err := json.Marshal(env); err == nil {
			if err := s.pub.PublishEvent(ctx, "event.published", messageID, body); err != nil {
				zlog.Error().Err(err).Str("event_id", out.ID).Msg("publish domain event failed")
			}
		}
	}

	return s.rec.Reconcile(out), nil
}
