package event

import (
	"context"
	"strings"
	"time"

	"github.com/gatherly/event-service/internal/domain"
	zlog "github.com/rs/zerolog/log"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListFilter narrows the public listing. Zero values mean "no constraint".
type ListFilter struct {
	Location string
	Query    string
	From     time.Time
	To       time.Time
	Page     int
	PageSize int
}

func (f *ListFilter) Normalize() {
	f.Location = strings.TrimSpace(f.Location)
	f.Query = strings.TrimSpace(f.Query)
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
}

// isFirstUnfiltered reports whether f is the hot path worth caching: page one
// of the listing with no filters applied.
func (f ListFilter) isFirstUnfiltered() bool {
	return f.Page == 1 && f.Location == "" && f.Query == "" && f.From.IsZero() && f.To.IsZero()
}

type listPage struct {
	Events []*domain.Event `json:"events"`
	Total  int             `json:"total"`
}

// ListPublic returns public events matching the filter plus the total match
// count. Only the stored public flag is consulted; phases are recomputed on
// every returned record.
func (s *Service) ListPublic(ctx context.Context, f ListFilter) ([]*domain.Event, int, error) {
	f.Normalize()

	cacheable := s.cache != nil && f.isFirstUnfiltered()
	key := cacheKeyPublicList(f)

	if cacheable {
		var page listPage
		if hit, err := s.cache.Get(ctx, key, &page); err == nil && hit {
			return s.rec.ReconcileAll(page.Events), page.Total, nil
		}
	}

	events, total, err := s.repo.ListPublic(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	if cacheable {
		if err := s.cache.Set(ctx, key, listPage{Events: events, Total: total}, s.ttlList); err != nil {
			zlog.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
	}

	return s.rec.ReconcileAll(events), total, nil
}

// ListMine returns every event the caller organizes, regardless of kind or
// phase.
func (s *Service) ListMine(ctx context.Context, organizerID string, page, pageSize int) ([]*domain.Event, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	events, total, err := s.repo.ListByOrganizer(ctx, organizerID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return s.rec.ReconcileAll(events), total, nil
}

// ListMembers returns the member roster of an event. Transport gates access:
// callers must hold some membership on the event.
func (s *Service) ListMembers(ctx context.Context, eventID string) ([]*domain.Membership, error) {
	return s.members.ListByEvent(ctx, eventID)
}
