// Package training schedules trainer visits to schools and tracks
// whether they happened.
package training

import (
	"fmt"
	"time"
)

// Status is the lifecycle of a scheduled session.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// IsValid reports whether the status is known.
func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// transitions is the allowed-edges table. Completed and cancelled are
// terminal.
var transitions = map[Status][]Status{
	StatusScheduled: {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

// Transition reports whether moving from current to target is allowed.
func Transition(current, target Status) error {
	for _, allowed := range transitions[current] {
		if allowed == target {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current, target)
}

// Session is one scheduled visit.
type Session struct {
	ID          int64     `json:"id" db:"id"`
	SchoolName  string    `json:"school_name" db:"school_name"`
	TrainerID   int64     `json:"trainer_id" db:"trainer_id"`
	Topic       *string   `json:"topic,omitempty" db:"topic"`
	ScheduledAt time.Time `json:"scheduled_at" db:"scheduled_at"`
	Status      Status    `json:"status" db:"status"`
	Notes       *string   `json:"notes,omitempty" db:"notes"`
	OrderID     *int64    `json:"order_id,omitempty" db:"order_id"`
	CreatedBy   int64     `json:"created_by" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
