// Package expenses manages field expense claims and their two-step
// approval: a manager reviews first, then finance settles.
package expenses

import (
	"fmt"
	"time"
)

// Stage is where an expense sits in the approval chain.
type Stage string

const (
	StagePending         Stage = "pending"          // Submitted, awaiting manager review
	StageManagerApproved Stage = "manager_approved" // Cleared by a manager, awaiting finance
	StageApproved        Stage = "approved"         // Settled by finance
	StageRejected        Stage = "rejected"         // Declined at either step
)

// IsValid reports whether the stage is known.
func (s Stage) IsValid() bool {
	switch s {
	case StagePending, StageManagerApproved, StageApproved, StageRejected:
		return true
	}
	return false
}

// transitions is the allowed-edges table. Approved and rejected are
// terminal.
var transitions = map[Stage][]Stage{
	StagePending:         {StageManagerApproved, StageRejected},
	StageManagerApproved: {StageApproved, StageRejected},
	StageApproved:        {},
	StageRejected:        {},
}

// Transition reports whether moving from current to target is allowed.
func Transition(current, target Stage) error {
	for _, allowed := range transitions[current] {
		if allowed == target {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current, target)
}

// Expense is one claim.
type Expense struct {
	ID          int64      `json:"id" db:"id"`
	Category    string     `json:"category" db:"category"`
	Description *string    `json:"description,omitempty" db:"description"`
	Amount      float64    `json:"amount" db:"amount"`
	IncurredAt  time.Time  `json:"incurred_at" db:"incurred_at"`
	ReceiptURL  *string    `json:"receipt_url,omitempty" db:"receipt_url"`
	Stage       Stage      `json:"stage" db:"stage"`
	Notes       *string    `json:"notes,omitempty" db:"notes"`
	SubmittedBy int64      `json:"submitted_by" db:"submitted_by"`
	ReviewedBy  *int64     `json:"reviewed_by,omitempty" db:"reviewed_by"`
	SettledBy   *int64     `json:"settled_by,omitempty" db:"settled_by"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	SettledAt   *time.Time `json:"settled_at,omitempty" db:"settled_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}
