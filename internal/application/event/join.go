package event

import (
	"context"
	"strings"

	"github.com/gatherly/event-service/internal/domain"
)

type JoinCmd struct {
	ActorID  string
	JoinCode string
}

// Join adds the caller to the event behind the join code as a regular member.
// Joining twice is a no-op: the existing membership and its role are kept.
func (s *Service) Join(ctx context.Context, cmd JoinCmd) (*domain.Event, error) {
	code := strings.ToUpper(strings.TrimSpace(cmd.JoinCode))
	if code == "" {
		return nil, domain.ErrValidation("join_code is required")
	}

	ev, err := s.repo.GetByJoinCode(ctx, code)
	if err != nil {
		return nil, err
	}

	m, err := domain.NewMembership(ev.ID, cmd.ActorID, domain.RoleMember, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if _, err := s.members.Upsert(ctx, m); err != nil {
		return nil, err
	}

	return s.rec.Reconcile(ev), nil
}
