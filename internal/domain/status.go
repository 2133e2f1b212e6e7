package domain

import "time"

type Phase string

const (
	PhaseScheduled Phase = "scheduled"
	PhaseOngoing   Phase = "ongoing"
	PhaseCompleted Phase = "completed"
	PhaseCancelled Phase = "cancelled"
)

func (p Phase) Valid() bool {
	return p == PhaseScheduled || p == PhaseOngoing || p == PhaseCompleted || p == PhaseCancelled
}

type Kind string

const (
	KindPrivate Kind = "private"
	KindPublic  Kind = "public"
)

func (k Kind) Valid() bool {
	return k == KindPrivate || k == KindPublic
}

// DerivePhase maps an event's time window onto its lifecycle phase.
// Window bounds are inclusive on both ends; a missing bound falls back to
// scheduled. It never returns PhaseCancelled: cancellation is an explicit
// transition, not a derived one.
func DerivePhase(startAt, endAt, now time.Time) Phase {
	if startAt.IsZero() || endAt.IsZero() {
		return PhaseScheduled
	}
	if now.After(endAt) {
		return PhaseCompleted
	}
	if !now.Before(startAt) {
		return PhaseOngoing
	}
	return PhaseScheduled
}
