package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/gatherly/event-service/internal/application/event"
	"github.com/gatherly/event-service/internal/domain"
)

type Repo struct {
	db *sql.DB
}

func New(db *sql.DB) *Repo { return &Repo{db: db} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	var e domain.Event
	var imageIDsJSON string
	var kind, phase string
	var startAt, endAt, cancelledAt sql.NullTime

	err := row.Scan(
		&e.ID, &e.OrganizerID, &e.Name, &e.Description, &e.Location, &imageIDsJSON,
		&e.JoinCode, &startAt, &endAt, &kind, &phase,
		&cancelledAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	_ = json.Unmarshal([]byte(imageIDsJSON), &e.ImageIDs)
	if startAt.Valid {
		e.StartAt = startAt.Time.UTC()
	}
	if endAt.Valid {
		e.EndAt = endAt.Time.UTC()
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time.UTC()
		e.CancelledAt = &t
	}
	e.Kind = domain.Kind(kind)
	e.Phase = domain.Phase(phase)
	if !e.Kind.Valid() {
		return nil, domain.ErrInvalidState("invalid kind in db")
	}
	if !e.Phase.Valid() {
		return nil, domain.ErrInvalidState("invalid phase in db")
	}
	return &e, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

// isJoinCodeViolation reports whether err is the unique constraint on
// events.join_code firing.
func isJoinCodeViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return false
	}
	return pqErr.Constraint == "" || strings.Contains(pqErr.Constraint, "join_code")
}

// Create persists the event and its owner membership in one transaction.
// A join-code collision surfaces as domain.ErrJoinCodeTaken so the caller can
// retry with a fresh code.
func (r *Repo) Create(ctx context.Context, e *domain.Event, owner *domain.Membership) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	imageIDsJSON, _ := json.Marshal(e.ImageIDs)
	_, err = tx.ExecContext(ctx, insertEventSQL,
		e.ID, e.OrganizerID, e.Name, e.Description, e.Location, string(imageIDsJSON),
		e.JoinCode, nullTime(e.StartAt), nullTime(e.EndAt), string(e.Kind), string(e.Phase),
		nullTimePtr(e.CancelledAt), e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		if isJoinCodeViolation(err) {
			return domain.ErrJoinCodeTaken
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, insertMembershipSQL,
		owner.EventID, owner.UserID, string(owner.Role), owner.CreatedAt,
	); err != nil {
		return err
	}

	return tx.Commit()
}

func nullTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func (r *Repo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	ev, err := scanEvent(r.db.QueryRowContext(ctx, getEventSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("event not found")
	}
	return ev, err
}

func (r *Repo) GetByJoinCode(ctx context.Context, code string) (*domain.Event, error) {
	ev, err := scanEvent(r.db.QueryRowContext(ctx, getEventByJoinCodeSQL, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("event not found")
	}
	return ev, err
}

func (r *Repo) JoinCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, joinCodeExistsSQL, code).Scan(&exists)
	return exists, err
}

func (r *Repo) UpdatePhaseIfNotCancelled(ctx context.Context, id string, phase domain.Phase, updatedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, updatePhaseSQL, id, string(phase), updatedAt.UTC())
	return err
}

func (r *Repo) ListPublic(ctx context.Context, f event.ListFilter) ([]*domain.Event, int, error) {
	f.Normalize()

	where := []string{"kind = 'public'"}
	args := []any{}
	argN := 1

	add := func(condFmt string, val any) {
		where = append(where, fmt.Sprintf(condFmt, argN))
		args = append(args, val)
		argN++
	}

	if f.Location != "" {
		add("location = $%d", f.Location)
	}
	if !f.From.IsZero() {
		add("start_at >= $%d", f.From.UTC())
	}
	if !f.To.IsZero() {
		add("start_at <= $%d", f.To.UTC())
	}
	if f.Query != "" {
		add("search_vector @@ plainto_tsquery('simple', $%d)", f.Query)
	}

	whereSQL := "WHERE " + strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events "+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listSQL := "SELECT " + eventColumns + " FROM events " + whereSQL +
		" ORDER BY start_at ASC NULLS LAST, id ASC" +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", argN, argN+1)
	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)

	rows, err := r.db.QueryContext(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*domain.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *Repo) ListByOrganizer(ctx context.Context, organizerID string, page, pageSize int) ([]*domain.Event, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE organizer_id=$1`, organizerID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+eventColumns+` FROM events
WHERE organizer_id=$1
ORDER BY created_at DESC, id ASC
LIMIT $2 OFFSET $3`,
		organizerID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*domain.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
