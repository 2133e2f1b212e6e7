package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleLead   Role = "lead"
	RoleMember Role = "member"
)

func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleLead || r == RoleMember
}

// Membership joins a user and an event with a role. At most one membership
// exists per (event, user) pair; the store enforces that with its primary key.
type Membership struct {
	EventID string
	UserID  string
	Role    Role

	CreatedAt time.Time
}

func NewMembership(eventID, userID string, role Role, now time.Time) (*Membership, error) {
	eventID = strings.TrimSpace(eventID)
	userID = strings.TrimSpace(userID)
	if eventID == "" {
		return nil, ErrValidation("event_id is required")
	}
	if userID == "" {
		return nil, ErrValidation("user_id is required")
	}
	if !role.Valid() {
		return nil, ErrValidation("invalid role")
	}
	return &Membership{
		EventID:   eventID,
		UserID:    userID,
		Role:      role,
		CreatedAt: now.UTC(),
	}, nil
}
