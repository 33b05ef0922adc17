package expenses

import "errors"

var (
	ErrNotFound          = errors.New("expense not found")
	ErrIllegalTransition = errors.New("illegal expense transition")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrCategoryRequired  = errors.New("category is required")
	ErrInvalidStage      = errors.New("invalid expense stage")
	ErrEmptyBatch        = errors.New("batch contains no expense ids")
)
