package dc

import "errors"

// Domain errors for DC orders.
var (
	// ErrNotFound indicates the requested DC order was not found.
	ErrNotFound = errors.New("DC not found")

	// ErrIllegalTransition indicates a lifecycle edge outside the
	// transition table.
	ErrIllegalTransition = errors.New("illegal status transition")

	// Validation errors.
	ErrSchoolNameRequired = errors.New("school_name is required")
	ErrNegativeQuantity   = errors.New("quantity must not be negative")
	ErrNegativePrice      = errors.New("unit price must not be negative")
	ErrInvalidGrade       = errors.New("priority and lead_status must be Hot, Warm or Cold")
	ErrInvalidStatus      = errors.New("unknown status")
	ErrAssigneeRequired   = errors.New("assignee is required")
	ErrDuplicateCode      = errors.New("dc_code already exists")
)
