package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gatherly/event-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type phaseStoreStub struct {
	mu     sync.Mutex
	writes []phaseWriteIntent
	fail   error
}

func (s *phaseStoreStub) UpdatePhaseIfNotCancelled(_ context.Context, id string, phase domain.Phase, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.writes = append(s.writes, phaseWriteIntent{eventID: id, phase: phase, at: updatedAt})
	return nil
}

func (s *phaseStoreStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

func storedEvent(t *testing.T, phase domain.Phase, start, end time.Time) *domain.Event {
	t.Helper()
	return &domain.Event{
		ID:      "ev-1",
		Name:    "n",
		StartAt: start,
		EndAt:   end,
		Kind:    domain.KindPrivate,
		Phase:   phase,
	}
}

func TestReconcile(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: now}

	t.Run("matching phase passes through unchanged", func(t *testing.T) {
		store := &phaseStoreStub{}
		r := NewReconciler(store, clock, 4)

		in := storedEvent(t, domain.PhaseScheduled, now.Add(time.Hour), now.Add(2*time.Hour))
		out := r.Reconcile(in)
		assert.Same(t, in, out)
		assert.Empty(t, r.queue)
	})

	t.Run("divergent phase corrected synchronously", func(t *testing.T) {
		store := &phaseStoreStub{}
		r := NewReconciler(store, clock, 4)

		in := storedEvent(t, domain.PhaseScheduled, now.Add(-2*time.Hour), now.Add(-time.Hour))
		out := r.Reconcile(in)
		assert.Equal(t, domain.PhaseCompleted, out.Phase)
		// The input is a view over the stored record; it must stay untouched.
		assert.Equal(t, domain.PhaseScheduled, in.Phase)
		assert.Len(t, r.queue, 1)
	})

	t.Run("cancelled records are never recomputed", func(t *testing.T) {
		store := &phaseStoreStub{}
		r := NewReconciler(store, clock, 4)

		in := storedEvent(t, domain.PhaseCancelled, now.Add(-2*time.Hour), now.Add(-time.Hour))
		out := r.Reconcile(in)
		assert.Same(t, in, out)
		assert.Empty(t, r.queue)
	})

	t.Run("nil passes through", func(t *testing.T) {
		r := NewReconciler(&phaseStoreStub{}, clock, 4)
		assert.Nil(t, r.Reconcile(nil))
	})

	t.Run("worker drains intents", func(t *testing.T) {
		store := &phaseStoreStub{}
		r := NewReconciler(store, clock, 4)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		r.Start(ctx)

		in := storedEvent(t, domain.PhaseScheduled, now.Add(-time.Hour), time.Time{})
		out := r.Reconcile(in)
		assert.Equal(t, domain.PhaseOngoing, out.Phase)

		require.Eventually(t, func() bool { return store.count() == 1 }, time.Second, 5*time.Millisecond)
	})

	t.Run("persist failure never reaches the caller", func(t *testing.T) {
		store := &phaseStoreStub{fail: errors.New("store down")}
		r := NewReconciler(store, clock, 4)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		r.Start(ctx)

		in := storedEvent(t, domain.PhaseScheduled, now.Add(-time.Hour), time.Time{})
		out := r.Reconcile(in)
		assert.Equal(t, domain.PhaseOngoing, out.Phase)

		require.Eventually(t, func() bool { return len(r.queue) == 0 }, time.Second, 5*time.Millisecond)
	})

	t.Run("full queue drops the intent but still corrects the view", func(t *testing.T) {
		store := &phaseStoreStub{}
		r := NewReconciler(store, clock, 1)

		first := storedEvent(t, domain.PhaseScheduled, now.Add(-time.Hour), time.Time{})
		second := storedEvent(t, domain.PhaseScheduled, now.Add(-time.Hour), time.Time{})
		second.ID = "ev-2"

		r.Reconcile(first)
		out := r.Reconcile(second)
		assert.Equal(t, domain.PhaseOngoing, out.Phase)
		assert.Len(t, r.queue, 1)
	})
}

func TestReconcileAll(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: now}
	r := NewReconciler(&phaseStoreStub{}, clock, 8)

	past := storedEvent(t, domain.PhaseScheduled, now.Add(-3*time.Hour), now.Add(-2*time.Hour))
	current := storedEvent(t, domain.PhaseScheduled, now.Add(-time.Hour), now.Add(time.Hour))
	current.ID = "ev-2"
	cancelled := storedEvent(t, domain.PhaseCancelled, now.Add(-time.Hour), now.Add(time.Hour))
	cancelled.ID = "ev-3"

	out := r.ReconcileAll([]*domain.Event{past, current, cancelled})
	require.Len(t, out, 3)
	assert.Equal(t, domain.PhaseCompleted, out[0].Phase)
	assert.Equal(t, domain.PhaseOngoing, out[1].Phase)
	assert.Equal(t, domain.PhaseCancelled, out[2].Phase)
}
