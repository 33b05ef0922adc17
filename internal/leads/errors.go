package leads

import "errors"

var (
	ErrNotFound         = errors.New("lead not found")
	ErrSchoolRequired   = errors.New("school name is required")
	ErrInvalidStatus    = errors.New("invalid lead status")
	ErrAlreadyConverted = errors.New("lead already converted")
)
