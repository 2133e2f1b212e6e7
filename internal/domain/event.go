package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const MaxImages = 10

// Event is the central record of the lifecycle engine. StartAt/EndAt use the
// zero time to mean "absent"; DerivePhase treats an absent bound as scheduled.
type Event struct {
	ID          string
	OrganizerID string

	Name        string
	Description string
	Location    string
	ImageIDs    []string

	JoinCode string

	StartAt time.Time
	EndAt   time.Time

	Kind  Kind
	Phase Phase

	CancelledAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewEvent validates creation input and builds the initial record. The phase
// is derived from the window at creation time; the join code is assigned by
// the caller once issued. Creation is stricter than update: a provided bound
// may not lie in the past.
func NewEvent(organizerID, name, description, location string, imageIDs []string, startAt, endAt time.Time, kind Kind, now time.Time) (*Event, error) {
	organizerID = strings.TrimSpace(organizerID)
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	location = strings.TrimSpace(location)

	if organizerID == "" {
		return nil, ErrValidation("organizer_id is required")
	}
	if name == "" || len(name) > 120 {
		return nil, ErrValidation("name is required and must be <= 120 chars")
	}
	if description == "" || len(description) > 4000 {
		return nil, ErrValidation("description is required and must be <= 4000 chars")
	}
	if len(location) > 200 {
		return nil, ErrValidation("location must be <= 200 chars")
	}
	if len(imageIDs) > MaxImages {
		return nil, ErrValidation("too many images")
	}

	if kind == "" {
		kind = KindPrivate
	}
	if !kind.Valid() {
		return nil, ErrValidationMeta("invalid kind", map[string]string{
			"kind": "must be one of: private, public",
		})
	}

	if !startAt.IsZero() && startAt.Before(now) {
		return nil, ErrValidationMeta("invalid start_at", map[string]string{
			"start_at": "must not be in the past",
		})
	}
	if !endAt.IsZero() && endAt.Before(now) {
		return nil, ErrValidationMeta("invalid end_at", map[string]string{
			"end_at": "must not be in the past",
		})
	}
	if !startAt.IsZero() && !endAt.IsZero() && endAt.Before(startAt) {
		return nil, ErrValidationMeta("invalid time window", map[string]string{
			"end_at": "must be >= start_at",
		})
	}

	e := &Event{
		ID:          uuid.NewString(),
		OrganizerID: organizerID,
		Name:        name,
		Description: description,
		Location:    location,
		ImageIDs:    imageIDs,
		StartAt:     utcOrZero(startAt),
		EndAt:       utcOrZero(endAt),
		Kind:        kind,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
	e.Phase = DerivePhase(e.StartAt, e.EndAt, now)

	if e.Kind == KindPublic {
		if missing := MissingPublicFields(e); len(missing) > 0 {
			return nil, ErrMissingFields(missing)
		}
	}
	return e, nil
}

// Patch carries the fields of a partial update; nil means "leave unchanged".
// Phase may only request cancellation; everything else about the phase is
// derived, never patched.
type Patch struct {
	Name        *string
	Description *string
	Location    *string
	ImageIDs    *[]string
	StartAt     *time.Time
	EndAt       *time.Time
	Kind        *Kind
	Phase       *Phase
}

func (p Patch) WantsCancel() bool {
	return p.Phase != nil && *p.Phase == PhaseCancelled
}

// ApplyPatch merges the present descriptive and window fields in place.
// It does not touch the phase; the lifecycle service owns that branch.
func (e *Event) ApplyPatch(p Patch, now time.Time) error {
	if p.Phase != nil && *p.Phase != PhaseCancelled {
		return ErrValidationMeta("invalid phase", map[string]string{
			"phase": "only cancelled may be requested explicitly",
		})
	}

	if p.Name != nil {
		v := strings.TrimSpace(*p.Name)
		if v == "" || len(v) > 120 {
			return ErrValidation("name must be non-empty and <= 120 chars")
		}
		e.Name = v
	}
	if p.Description != nil {
		v := strings.TrimSpace(*p.Description)
		if v == "" || len(v) > 4000 {
			return ErrValidation("description must be non-empty and <= 4000 chars")
		}
		e.Description = v
	}
	if p.Location != nil {
		v := strings.TrimSpace(*p.Location)
		if len(v) > 200 {
			return ErrValidation("location must be <= 200 chars")
		}
		e.Location = v
	}
	if p.ImageIDs != nil {
		if len(*p.ImageIDs) > MaxImages {
			return ErrValidation("too many images")
		}
		e.ImageIDs = *p.ImageIDs
	}
	if p.StartAt != nil {
		e.StartAt = utcOrZero(*p.StartAt)
	}
	if p.EndAt != nil {
		e.EndAt = utcOrZero(*p.EndAt)
	}
	if !e.StartAt.IsZero() && !e.EndAt.IsZero() && e.EndAt.Before(e.StartAt) {
		return ErrValidationMeta("invalid time window", map[string]string{
			"end_at": "must be >= start_at",
		})
	}
	if p.Kind != nil {
		if !p.Kind.Valid() {
			return ErrValidationMeta("invalid kind", map[string]string{
				"kind": "must be one of: private, public",
			})
		}
		e.Kind = *p.Kind
	}
	e.UpdatedAt = now.UTC()
	return nil
}

// Cancel is the one-way exceptional transition. It forces the event private:
// a cancelled event cannot remain publicly visible. Cancelling twice is a no-op.
func (e *Event) Cancel(now time.Time) {
	if e.Phase == PhaseCancelled {
		return
	}
	t := now.UTC()
	e.Phase = PhaseCancelled
	e.Kind = KindPrivate
	e.CancelledAt = &t
	e.UpdatedAt = t
}

// Clone returns a shallow copy with its own image slice, so a reconciled view
// can diverge from the stored record without aliasing.
func (e *Event) Clone() *Event {
	cp := *e
	if e.ImageIDs != nil {
		cp.ImageIDs = append([]string(nil), e.ImageIDs...)
	}
	return &cp
}

func utcOrZero(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return t.UTC()
}
