package postgres

import (
	"context"
	"database/sql"
	"math"
	"math/rand"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/gatherly/event-service/internal/application/event"
)

const insertOutboxSQL = `
INSERT INTO event_outbox (
  message_id, routing_key, body, created_at, status, next_retry_at
) VALUES ($1, $2, $3::jsonb, $4, 'pending', $4)
`

type outboxRow struct {
	ID         int64
	MessageID  string
	RoutingKey string
	Body       []byte
	Attempts   int
}

// Select pending messages that are due for retry.
// SKIP LOCKED lets multiple workers claim disjoint batches.
const selectOutboxClaimsSQL = `
SELECT id, message_id, routing_key, body, attempts
FROM event_outbox
WHERE status = 'pending'
  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
ORDER BY next_retry_at ASC, created_at ASC
LIMIT $1
FOR UPDATE SKIP LOCKED
`

const updateOutboxClaimSQL = `
UPDATE event_outbox
SET next_retry_at = $2,
    status = 'processing'
WHERE id = $1
`

const markOutboxSentSQL = `
UPDATE event_outbox
SET status = 'sent',
    sent_at = $2,
    last_error = NULL
WHERE id = $1
`

const markOutboxFailedSQL = `
UPDATE event_outbox
SET status = 'pending', -- retryable
    attempts = attempts + 1,
    next_retry_at = $2,
    last_error = $3
WHERE id = $1
`

const markOutboxDeadSQL = `
UPDATE event_outbox
SET status = 'dead',
    attempts = attempts + 1,
    last_error = $2
WHERE id = $1
`

const maxAttempts = 10

// StartOutboxWorker starts a polling worker that publishes pending outbox rows
// to RabbitMQ. Claim check pattern:
// 1. Claim rows in a short DB tx
// 2. Publish (network, potentially slow)
// 3. Update status in a short DB tx
func (r *Repo) StartOutboxWorker(ctx context.Context, pub event.EventPublisher) {
	go func() {
		// Jitter the start so multiple instances do not poll in lockstep.
		time.Sleep(time.Duration(rand.Intn(1000)) * time.Millisecond)
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.processOutboxBatch(ctx, pub, 20); err != nil {
					zlog.Warn().Err(err).Msg("outbox batch failed")
				}
			}
		}
	}()
}

func (r *Repo) processOutboxBatch(ctx context.Context, pub event.EventPublisher, limit int) error {
	if limit <= 0 {
		limit = 50
	}

	claimCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(claimCtx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(claimCtx, selectOutboxClaimsSQL, limit)
	if err != nil {
		return err
	}
	defer rows.Close()

	var batch []outboxRow
	for rows.Next() {
		var item outboxRow
		if err := rows.Scan(&item.ID, &item.MessageID, &item.RoutingKey, &item.Body, &item.Attempts); err != nil {
			return err
		}
		batch = append(batch, item)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if len(batch) == 0 {
		return tx.Commit()
	}

	// Mark as 'processing' and push the retry into the future as a reservation,
	// so other workers skip these rows even if this worker crashes mid-publish.
	reservation := time.Now().UTC().Add(30 * time.Second)
	for _, item := range batch {
		if _, err := tx.ExecContext(claimCtx, updateOutboxClaimSQL, item.ID, reservation); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	for _, item := range batch {
		r.processSingleItem(ctx, pub, item)
	}

	return nil
}

func (r *Repo) processSingleItem(ctx context.Context, pub event.EventPublisher, item outboxRow) {
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := pub.PublishEvent(pubCtx, item.RoutingKey, item.MessageID, item.Body)

	resCtx, cancelRes := context.WithTimeout(ctx, 3*time.Second)
	defer cancelRes()

	if err != nil {
		errMsg := err.Error()
		if item.Attempts >= maxAttempts {
			zlog.Error().Str("message_id", item.MessageID).Str("routing_key", item.RoutingKey).
				Err(err).Msg("outbox message dead-lettered")
			_, _ = r.db.ExecContext(resCtx, markOutboxDeadSQL, item.ID, errMsg)
		} else {
			// Exponential backoff with jitter.
			backoff := time.Duration(math.Pow(2, float64(item.Attempts))) * time.Second
			backoff += time.Duration(rand.Intn(1000)) * time.Millisecond
			nextRetry := time.Now().UTC().Add(backoff)
			_, _ = r.db.ExecContext(resCtx, markOutboxFailedSQL, item.ID, nextRetry, errMsg)
		}
		return
	}

	_, _ = r.db.ExecContext(resCtx, markOutboxSentSQL, item.ID, time.Now().UTC())
}
