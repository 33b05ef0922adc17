package dc

import "time"

// CreateRequest represents a request to create a DC order. The creator is
// never taken from the payload; it is the authenticated actor.
type CreateRequest struct {
	DCCode                *string         `json:"dc_code,omitempty" validate:"omitempty,max=40"`
	SchoolName            string          `json:"school_name" validate:"required,max=300"`
	ContactName           *string         `json:"contact_name,omitempty" validate:"omitempty,max=200"`
	ContactMobile         *string         `json:"contact_mobile,omitempty" validate:"omitempty,max=20"`
	Email                 *string         `json:"email,omitempty" validate:"omitempty,email"`
	Address               *string         `json:"address,omitempty"`
	Zone                  *string         `json:"zone,omitempty" validate:"omitempty,max=100"`
	Location              *string         `json:"location,omitempty" validate:"omitempty,max=200"`
	SchoolType            *string         `json:"school_type,omitempty" validate:"omitempty,max=100"`
	BranchCount           *int            `json:"branch_count,omitempty" validate:"omitempty,gte=0"`
	Priority              Grade           `json:"priority" validate:"omitempty,oneof=Hot Warm Cold"`
	LeadStatus            Grade           `json:"lead_status" validate:"omitempty,oneof=Hot Warm Cold"`
	Status                *Status         `json:"status,omitempty" validate:"omitempty,oneof=saved pending"`
	EstimatedDeliveryDate *time.Time      `json:"estimated_delivery_date,omitempty"`
	FollowUpDate          *time.Time      `json:"follow_up_date,omitempty"`
	Remarks               *string         `json:"remarks,omitempty"`
	TotalAmount           float64         `json:"total_amount" validate:"gte=0"`
	AssignedTo            *int64          `json:"assigned_to,omitempty" validate:"omitempty,gt=0"`
	Lines                 []CreateLineReq `json:"lines" validate:"dive"`
}

// CreateLineReq represents a line item in a create or update request.
type CreateLineReq struct {
	Name       string     `json:"name" validate:"required,max=300"`
	Quantity   float64    `json:"quantity" validate:"gte=0"`
	UnitPrice  float64    `json:"unit_price" validate:"gte=0"`
	UOM        *string    `json:"uom,omitempty" validate:"omitempty,max=30"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
}

// UpdateRequest represents a field merge on a DC order. Lifecycle state,
// creator and dc_code are not updatable here; transitions go through their
// own endpoints.
type UpdateRequest struct {
	SchoolName            *string          `json:"school_name,omitempty" validate:"omitempty,min=1,max=300"`
	ContactName           *string          `json:"contact_name,omitempty" validate:"omitempty,max=200"`
	ContactMobile         *string          `json:"contact_mobile,omitempty" validate:"omitempty,max=20"`
	Email                 *string          `json:"email,omitempty" validate:"omitempty,email"`
	Address               *string          `json:"address,omitempty"`
	Zone                  *string          `json:"zone,omitempty" validate:"omitempty,max=100"`
	Location              *string          `json:"location,omitempty" validate:"omitempty,max=200"`
	SchoolType            *string          `json:"school_type,omitempty" validate:"omitempty,max=100"`
	BranchCount           *int             `json:"branch_count,omitempty" validate:"omitempty,gte=0"`
	Priority              *Grade           `json:"priority,omitempty" validate:"omitempty,oneof=Hot Warm Cold"`
	LeadStatus            *Grade           `json:"lead_status,omitempty" validate:"omitempty,oneof=Hot Warm Cold"`
	EstimatedDeliveryDate *time.Time       `json:"estimated_delivery_date,omitempty"`
	FollowUpDate          *time.Time       `json:"follow_up_date,omitempty"`
	Remarks               *string          `json:"remarks,omitempty"`
	TotalAmount           *float64         `json:"total_amount,omitempty" validate:"omitempty,gte=0"`
	AssignedTo            *int64           `json:"assigned_to,omitempty" validate:"omitempty,gt=0"`
	Lines                 *[]CreateLineReq `json:"lines,omitempty" validate:"omitempty,dive"`
}

// AssignRequest assigns the order to a user.
type AssignRequest struct {
	AssignedTo int64 `json:"assigned_to" validate:"required,gt=0"`
}

// CompleteRequest closes out a delivery with proof.
type CompleteRequest struct {
	PODProofURL        *string    `json:"pod_proof_url,omitempty" validate:"omitempty,url"`
	ActualDeliveryDate *time.Time `json:"actual_delivery_date,omitempty"`
}

// HoldRequest parks an order. The hold notes replace remarks wholesale.
type HoldRequest struct {
	HoldNotes string `json:"hold_notes" validate:"required,max=1000"`
}

// ListRequest is the typed filter set for listing DC orders. Absent fields
// add no constraint.
type ListRequest struct {
	Status     *Status
	Zone       *string
	AssignedTo *int64
	LeadStatus *Grade
	Query      *string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// ListResponse represents the API response for a listing.
type ListResponse struct {
	Orders []WithDetails `json:"orders"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}
