package event

import (
	"context"
	"time"

	"github.com/gatherly/event-service/internal/domain"
	zlog "github.com/rs/zerolog/log"
)

// PhaseStore is the slice of the repo the reconciler writes through.
type PhaseStore interface {
	UpdatePhaseIfNotCancelled(ctx context.Context, id string, phase domain.Phase, updatedAt time.Time) error
}

type phaseWriteIntent struct {
	eventID string
	phase   domain.Phase
	at      time.Time
}

// Reconciler corrects the lifecycle phase of records on the read path.
// The corrected view is returned synchronously; syncing the store happens on
// a bounded queue drained by a background worker. A failed or dropped sync is
// logged and discarded; the store may lag the computed truth, never the
// other way around.
type Reconciler struct {
	store PhaseStore
	clock Clock
	queue chan phaseWriteIntent

	writeTimeout time.Duration
}

func NewReconciler(store PhaseStore, clock Clock, queueSize int) *Reconciler {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Reconciler{
		store:        store,
		clock:        clock,
		queue:        make(chan phaseWriteIntent, queueSize),
		writeTimeout: 5 * time.Second,
	}
}

// Start drains write intents until ctx is done. Intents left in the queue at
// shutdown are dropped; they are advisory, not authoritative.
func (r *Reconciler) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case intent := <-r.queue:
				r.persist(intent)
			}
		}
	}()
}

func (r *Reconciler) persist(intent phaseWriteIntent) {
	// Detached from the request context: the read that enqueued this intent
	// has already returned.
	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()

	if err := r.store.UpdatePhaseIfNotCancelled(ctx, intent.eventID, intent.phase, intent.at); err != nil {
		zlog.Warn().
			Err(err).
			Str("event_id", intent.eventID).
			Str("phase", string(intent.phase)).
			Msg("phase sync failed; intent dropped")
	}
}

// Reconcile returns a view of e whose phase reflects the current clock.
// Cancelled records pass through untouched: cancellation is authoritative and
// never recomputed. When the derived phase differs from the stored one, a
// write intent is enqueued and the corrected copy is returned immediately.
func (r *Reconciler) Reconcile(e *domain.Event) *domain.Event {
	if e == nil || e.Phase == domain.PhaseCancelled {
		return e
	}
	now := r.clock.Now()
	computed := domain.DerivePhase(e.StartAt, e.EndAt, now)
	if computed == e.Phase {
		return e
	}

	out := e.Clone()
	out.Phase = computed
	out.UpdatedAt = now.UTC()

	select {
	case r.queue <- phaseWriteIntent{eventID: e.ID, phase: computed, at: out.UpdatedAt}:
	default:
		zlog.Warn().Str("event_id", e.ID).Msg("reconcile queue full; intent dropped")
	}
	return out
}

// ReconcileAll corrects a batch independently; phases of distinct events do
// not interact.
func (r *Reconciler) ReconcileAll(events []*domain.Event) []*domain.Event {
	out := make([]*domain.Event, len(events))
	for i, e := range events {
		out[i] = r.Reconcile(e)
	}
	return out
}
