package event

import (
	"context"
	"errors"
	"time"

	"github.com/gatherly/event-service/internal/domain"
)

type CreateCmd struct {
	ActorID string

	Name        string
	Description string
	Location    string
	ImageIDs    []string
	StartAt     time.Time
	EndAt       time.Time
	Kind        domain.Kind
}

// Create validates the window, allocates a collision-free join code, derives
// the initial phase and persists the event together with the creator's owner
// membership. Nothing is persisted when the join-code budget runs out.
func (s *Service) Create(ctx context.Context, cmd CreateCmd) (*domain.Event, error) {
	now := s.clock.Now()

	e, err := domain.NewEvent(cmd.ActorID, cmd.Name, cmd.Description, cmd.Location, cmd.ImageIDs, cmd.StartAt, cmd.EndAt, cmd.Kind, now)
	if err != nil {
		return nil, err
	}
	owner, err := domain.NewMembership(e.ID, cmd.ActorID, domain.RoleOwner, now)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		code, err := s.codes.Issue(ctx)
		if err != nil {
			return nil, err
		}
		e.JoinCode = code

		err = s.repo.Create(ctx, e, owner)
		if err == nil {
			return e, nil
		}
		// The pre-check and the insert are not atomic; the unique constraint
		// is the authority and a violation is one more collision.
		if errors.Is(err, domain.ErrJoinCodeTaken) && attempt < joinCodeAttempts {
			continue
		}
		if errors.Is(err, domain.ErrJoinCodeTaken) {
			return nil, domain.ErrGenerationExhausted(joinCodeAttempts)
		}
		return nil, err
	}
}
