package event

import (
	"context"
	"time"

	"github.com/gatherly/event-service/internal/domain"
)

type Service struct {
	repo    EventRepo
	members MembershipRepo
	codes   *JoinCodeIssuer
	rec     *Reconciler
	pub     EventPublisher
	cache   Cache
	clock   Clock

	ttlDetails time.Duration
	ttlList    time.Duration
}

func New(
	repo EventRepo,
	members MembershipRepo,
	clock Clock,
	pub EventPublisher,
	cache Cache,
	ttlDetails, ttlList time.Duration,
	reconcileQueueSize int,
) *Service {
	if ttlDetails == 0 {
		ttlDetails = 5 * time.Minute
	}
	if ttlList == 0 {
		ttlList = 15 * time.Second
	}
	if pub == nil {
		pub = NoopPublisher{}
	}

	return &Service{
		repo:       repo,
		members:    members,
		codes:      NewJoinCodeIssuer(repo),
		rec:        NewReconciler(repo, clock, reconcileQueueSize),
		pub:        pub,
		cache:      cache,
		clock:      clock,
		ttlDetails: ttlDetails,
		ttlList:    ttlList,
	}
}

// StartReconciler launches the background persist loop for lazy phase syncs.
// It stops when ctx is done; intents still queued at shutdown are dropped.
func (s *Service) StartReconciler(ctx context.Context) {
	s.rec.Start(ctx)
}

// HasRole exposes the membership gate for the transport layer. The lifecycle
// operations themselves trust the pre-checked role assertion they receive.
func (s *Service) HasRole(ctx context.Context, eventID, userID string, roles ...domain.Role) (*domain.Membership, error) {
	return s.members.HasRole(ctx, eventID, userID, roles...)
}
