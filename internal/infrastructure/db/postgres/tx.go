package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gatherly/event-service/internal/application/event"
	"github.com/gatherly/event-service/internal/domain"
)

func (r *Repo) WithTx(ctx context.Context, fn func(tr event.TxEventRepo) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
		ReadOnly:  false,
	})
	if err != nil {
		return err
	}

	tr := &txRepo{tx: tx}

	defer func() {
		// Safety: in case fn panics, rollback to avoid leaked tx.
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tr); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type txRepo struct {
	tx *sql.Tx
}

func (r *txRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	ev, err := scanEvent(r.tx.QueryRowContext(ctx, selectEventForUpdateSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("event not found")
	}
	return ev, err
}

func (r *txRepo) Update(ctx context.Context, e *domain.Event) error {
	imageIDsJSON, _ := json.Marshal(e.ImageIDs)
	_, err := r.tx.ExecContext(ctx, updateEventSQL,
		e.ID,
		e.Name, e.Description, e.Location, string(imageIDsJSON),
		nullTime(e.StartAt), nullTime(e.EndAt), string(e.Kind), string(e.Phase),
		nullTimePtr(e.CancelledAt), e.UpdatedAt,
	)
	return err
}

func (r *txRepo) DeleteEvent(ctx context.Context, id string) error {
	_, err := r.tx.ExecContext(ctx, deleteEventSQL, id)
	return err
}

func (r *txRepo) DeleteMemberships(ctx context.Context, eventID string) error {
	_, err := r.tx.ExecContext(ctx, deleteMembershipsSQL, eventID)
	return err
}

func (r *txRepo) InsertOutbox(ctx context.Context, msg event.OutboxMessage) error {
	// Store JSON as text cast to jsonb for lib/pq compatibility.
	// next_retry_at = created_at makes the row immediately eligible for polling.
	_, err := r.tx.ExecContext(ctx, insertOutboxSQL,
		msg.MessageID,
		msg.RoutingKey,
		string(msg.Body),
		msg.CreatedAt.UTC(),
	)
	return err
}
