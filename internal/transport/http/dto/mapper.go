package dto

import (
	"time"

	"github.com/gatherly/event-service/internal/domain"
)

func ToEventResp(e *domain.Event, includeJoinCode bool) EventResp {
	resp := EventResp{
		ID:          e.ID,
		OrganizerID: e.OrganizerID,
		Name:        e.Name,
		Description: e.Description,
		Location:    e.Location,
		ImageIDs:    e.ImageIDs,
		StartAt:     timePtr(e.StartAt),
		EndAt:       timePtr(e.EndAt),
		Kind:        string(e.Kind),
		Phase:       string(e.Phase),
		CancelledAt: e.CancelledAt,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if includeJoinCode {
		resp.JoinCode = e.JoinCode
	}
	return resp
}

func ToMemberResp(m *domain.Membership) MemberResp {
	return MemberResp{
		UserID:   m.UserID,
		Role:     string(m.Role),
		JoinedAt: m.CreatedAt,
	}
}

// ToPatch lifts a partial update request into the domain patch. String enums
// are converted as-is; the domain validates them.
func ToPatch(req UpdateEventReq) domain.Patch {
	p := domain.Patch{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		ImageIDs:    req.ImageIDs,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
	}
	if req.Kind != nil {
		k := domain.Kind(*req.Kind)
		p.Kind = &k
	}
	if req.Phase != nil {
		ph := domain.Phase(*req.Phase)
		p.Phase = &ph
	}
	return p
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
