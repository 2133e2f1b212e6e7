package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gatherly/event-service/internal/domain"
)

// MembershipRepo reads and writes the memberships table. It shares the pool
// with Repo; in-tx membership deletes go through TxEventRepo instead.
type MembershipRepo struct {
	db *sql.DB
}

func NewMembershipRepo(db *sql.DB) *MembershipRepo { return &MembershipRepo{db: db} }

func scanMembership(row rowScanner) (*domain.Membership, error) {
	var m domain.Membership
	var role string
	if err := row.Scan(&m.EventID, &m.UserID, &role, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Role = domain.Role(role)
	return &m, nil
}

// Upsert inserts the membership unless the (event, user) pair already holds
// one; an existing row keeps its role. Returns whether a row was created.
func (r *MembershipRepo) Upsert(ctx context.Context, m *domain.Membership) (bool, error) {
	res, err := r.db.ExecContext(ctx, insertMembershipSQL,
		m.EventID, m.UserID, string(m.Role), m.CreatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// HasRole returns the caller's membership when it matches one of roles.
// With no roles given, any membership matches.
func (r *MembershipRepo) HasRole(ctx context.Context, eventID, userID string, roles ...domain.Role) (*domain.Membership, error) {
	m, err := scanMembership(r.db.QueryRowContext(ctx, getMembershipSQL, eventID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return m, nil
	}
	for _, role := range roles {
		if m.Role == role {
			return m, nil
		}
	}
	return nil, nil
}

func (r *MembershipRepo) ListByEvent(ctx context.Context, eventID string) ([]*domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx, listMembershipsSQL, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
