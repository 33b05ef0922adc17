// Package dc provides the delivery challan (DC) order lifecycle.
package dc

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status represents the lifecycle stage of a DC order.
type Status string

const (
	StatusSaved     Status = "saved"      // Drafted, not yet submitted to the pipeline
	StatusPending   Status = "pending"    // Submitted, awaiting warehouse processing
	StatusInTransit Status = "in_transit" // Dispatched, out for delivery
	StatusCompleted Status = "completed"  // Delivered with proof
	StatusHold      Status = "hold"       // Parked by warehouse or management
)

// IsValid checks if the status is a known lifecycle stage.
func (s Status) IsValid() bool {
	switch s {
	case StatusSaved, StatusPending, StatusInTransit, StatusCompleted, StatusHold:
		return true
	default:
		return false
	}
}

// transitions is the closed edge table of the DC lifecycle. Re-submitting a
// pending order is an allowed no-op; completed is terminal.
var transitions = map[Status][]Status{
	StatusSaved:     {StatusPending},
	StatusPending:   {StatusPending, StatusInTransit, StatusHold},
	StatusInTransit: {StatusCompleted, StatusHold},
	StatusHold:      {StatusPending},
	StatusCompleted: {},
}

// Transition checks that moving from current to target follows an edge in
// the lifecycle table.
func Transition(current, target Status) error {
	for _, allowed := range transitions[current] {
		if allowed == target {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current, target)
}

// Grade classifies sales urgency. Priority and lead status share the value
// domain but are kept independent; nothing syncs them.
type Grade string

const (
	GradeHot  Grade = "Hot"
	GradeWarm Grade = "Warm"
	GradeCold Grade = "Cold"
)

// IsValid checks if the grade is a known classification.
func (g Grade) IsValid() bool {
	switch g {
	case GradeHot, GradeWarm, GradeCold:
		return true
	default:
		return false
	}
}

// Order represents a delivery challan tracked through the sales pipeline.
type Order struct {
	ID                    int64      `json:"id" db:"id"`
	DCCode                string     `json:"dc_code" db:"dc_code"`
	SchoolName            string     `json:"school_name" db:"school_name"`
	ContactName           *string    `json:"contact_name,omitempty" db:"contact_name"`
	ContactMobile         *string    `json:"contact_mobile,omitempty" db:"contact_mobile"`
	Email                 *string    `json:"email,omitempty" db:"email"`
	Address               *string    `json:"address,omitempty" db:"address"`
	Zone                  *string    `json:"zone,omitempty" db:"zone"`
	Location              *string    `json:"location,omitempty" db:"location"`
	SchoolType            *string    `json:"school_type,omitempty" db:"school_type"`
	BranchCount           *int       `json:"branch_count,omitempty" db:"branch_count"`
	Priority              Grade      `json:"priority" db:"priority"`
	LeadStatus            Grade      `json:"lead_status" db:"lead_status"`
	Status                Status     `json:"status" db:"status"`
	EstimatedDeliveryDate *time.Time `json:"estimated_delivery_date,omitempty" db:"estimated_delivery_date"`
	ActualDeliveryDate    *time.Time `json:"actual_delivery_date,omitempty" db:"actual_delivery_date"`
	FollowUpDate          *time.Time `json:"follow_up_date,omitempty" db:"follow_up_date"`
	Remarks               *string    `json:"remarks,omitempty" db:"remarks"`
	TotalAmount           float64    `json:"total_amount" db:"total_amount"`
	PODProofURL           *string    `json:"pod_proof_url,omitempty" db:"pod_proof_url"`
	CreatedBy             int64      `json:"created_by" db:"created_by"`
	AssignedTo            *int64     `json:"assigned_to,omitempty" db:"assigned_to"`
	CompletedBy           *int64     `json:"completed_by,omitempty" db:"completed_by"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at" db:"updated_at"`
	Lines                 []Line     `json:"lines,omitempty" db:"-"`
}

// Line represents a product line item on a DC order. Lines have no
// identity beyond position.
type Line struct {
	ID         int64      `json:"id" db:"id"`
	OrderID    int64      `json:"order_id" db:"order_id"`
	Name       string     `json:"name" db:"name"`
	Quantity   float64    `json:"quantity" db:"quantity"`
	UnitPrice  float64    `json:"unit_price" db:"unit_price"`
	UOM        *string    `json:"uom,omitempty" db:"uom"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty" db:"expiry_date"`
	LineOrder  int        `json:"line_order" db:"line_order"`
}

// WithDetails includes resolved identity fields for display.
type WithDetails struct {
	Order
	CreatedByName   string  `json:"created_by_name" db:"created_by_name"`
	AssignedToName  *string `json:"assigned_to_name,omitempty" db:"assigned_to_name"`
	CompletedByName *string `json:"completed_by_name,omitempty" db:"completed_by_name"`
}

// GenerateDCCode derives a short code from the clock. Codes created within
// the same second collide; uniqueness is practical, not guaranteed, and the
// store's unique index is the final arbiter.
func GenerateDCCode(now time.Time) string {
	return "DC-" + strings.ToUpper(strconv.FormatInt(now.Unix(), 36))
}
