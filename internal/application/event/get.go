package event

import (
	"context"

	"github.com/gatherly/event-service/internal/domain"
	zlog "github.com/rs/zerolog/log"
)

// GetOne fetches a single event, read-through cached. The cache holds the
// stored record; the phase the caller sees is always recomputed afterwards so
// a stale cached phase cannot leak out.
func (s *Service) GetOne(ctx context.Context, eventID string) (*domain.Event, error) {
	key := cacheKeyEventDetails(eventID)

	if s.cache != nil {
		var cached domain.Event
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return s.rec.Reconcile(&cached), nil
		} else if err != nil {
			zlog.Warn().Err(err).Str("key", key).Msg("cache get failed; falling through")
		}
	}

	ev, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, ev, s.ttlDetails); err != nil {
			zlog.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
	}

	return s.rec.Reconcile(ev), nil
}
