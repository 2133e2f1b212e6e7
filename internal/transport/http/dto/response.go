package dto

import "time"

// EventResp is the stable API response model. join_code is only present on
// responses to the organizer and to members; public reads omit it.
type EventResp struct {
	ID          string `json:"id"`
	OrganizerID string `json:"organizer_id"`

	Name        string   `json:"name"`
	Description string   `json:"description"`
	Location    string   `json:"location,omitempty"`
	ImageIDs    []string `json:"image_ids,omitempty"`

	JoinCode string `json:"join_code,omitempty"`

	StartAt *time.Time `json:"start_at,omitempty"`
	EndAt   *time.Time `json:"end_at,omitempty"`

	Kind  string `json:"kind"`
	Phase string `json:"phase"`

	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MemberResp struct {
	UserID   string    `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

type PageResp[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}
