package dto

import "time"

type CreateEventReq struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	ImageIDs    []string   `json:"image_ids"`
	StartAt     *time.Time `json:"start_at,omitempty"`
	EndAt       *time.Time `json:"end_at,omitempty"`
	Kind        string     `json:"kind"`
}

// UpdateEventReq is a partial update: absent fields stay untouched.
// phase accepts only "cancelled"; kind flips visibility and a cancel request
// in the same body wins over kind.
type UpdateEventReq struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Location    *string    `json:"location,omitempty"`
	ImageIDs    *[]string  `json:"image_ids,omitempty"`
	StartAt     *time.Time `json:"start_at,omitempty"`
	EndAt       *time.Time `json:"end_at,omitempty"`
	Kind        *string    `json:"kind,omitempty"`
	Phase       *string    `json:"phase,omitempty"`
}

type JoinEventReq struct {
	JoinCode string `json:"join_code"`
}
