package leads

import (
	"time"

	"github.com/keystone-crm/keystone-crm/internal/dc"
)

// CreateRequest creates a new lead. The creator is always the actor.
type CreateRequest struct {
	SchoolName    string     `json:"school_name" validate:"required,max=300"`
	ContactName   *string    `json:"contact_name,omitempty" validate:"omitempty,max=200"`
	ContactMobile *string    `json:"contact_mobile,omitempty" validate:"omitempty,max=20"`
	Email         *string    `json:"email,omitempty" validate:"omitempty,email"`
	Zone          *string    `json:"zone,omitempty" validate:"omitempty,max=100"`
	Location      *string    `json:"location,omitempty" validate:"omitempty,max=200"`
	Status        dc.Grade   `json:"status" validate:"omitempty,oneof=Hot Warm Cold"`
	FollowUpDate  *time.Time `json:"follow_up_date,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	AssignedTo    *int64     `json:"assigned_to,omitempty" validate:"omitempty,gt=0"`
}

// UpdateRequest is a field merge. Conversion state is not updatable here.
type UpdateRequest struct {
	SchoolName    *string    `json:"school_name,omitempty" validate:"omitempty,min=1,max=300"`
	ContactName   *string    `json:"contact_name,omitempty" validate:"omitempty,max=200"`
	ContactMobile *string    `json:"contact_mobile,omitempty" validate:"omitempty,max=20"`
	Email         *string    `json:"email,omitempty" validate:"omitempty,email"`
	Zone          *string    `json:"zone,omitempty" validate:"omitempty,max=100"`
	Location      *string    `json:"location,omitempty" validate:"omitempty,max=200"`
	Status        *dc.Grade  `json:"status,omitempty" validate:"omitempty,oneof=Hot Warm Cold"`
	FollowUpDate  *time.Time `json:"follow_up_date,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	AssignedTo    *int64     `json:"assigned_to,omitempty" validate:"omitempty,gt=0"`
}

// ConvertRequest carries optional order fields for the conversion.
type ConvertRequest struct {
	TotalAmount float64            `json:"total_amount" validate:"gte=0"`
	Lines       []dc.CreateLineReq `json:"lines" validate:"dive"`
}

// ListRequest is the typed filter set for listing leads.
type ListRequest struct {
	Status     *dc.Grade
	Zone       *string
	AssignedTo *int64
	Query      *string
	DueBefore  *time.Time
	Limit      int
	Offset     int
}

// ListResponse is the API shape for a lead listing.
type ListResponse struct {
	Leads  []Lead `json:"leads"`
	Total  int    `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}
