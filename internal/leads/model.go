// Package leads manages sales leads: schools under discussion that may
// eventually convert into a delivery challan order.
package leads

import (
	"time"

	"github.com/keystone-crm/keystone-crm/internal/dc"
)

// Lead is a prospective school. Status carries the same Hot/Warm/Cold
// grading the DC order uses for priority.
type Lead struct {
	ID            int64      `json:"id" db:"id"`
	SchoolName    string     `json:"school_name" db:"school_name"`
	ContactName   *string    `json:"contact_name,omitempty" db:"contact_name"`
	ContactMobile *string    `json:"contact_mobile,omitempty" db:"contact_mobile"`
	Email         *string    `json:"email,omitempty" db:"email"`
	Zone          *string    `json:"zone,omitempty" db:"zone"`
	Location      *string    `json:"location,omitempty" db:"location"`
	Status        dc.Grade   `json:"status" db:"status"`
	FollowUpDate  *time.Time `json:"follow_up_date,omitempty" db:"follow_up_date"`
	Notes         *string    `json:"notes,omitempty" db:"notes"`
	OrderID       *int64     `json:"order_id,omitempty" db:"order_id"`
	CreatedBy     int64      `json:"created_by" db:"created_by"`
	AssignedTo    *int64     `json:"assigned_to,omitempty" db:"assigned_to"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// Converted reports whether the lead has already produced an order.
func (l Lead) Converted() bool {
	return l.OrderID != nil
}
