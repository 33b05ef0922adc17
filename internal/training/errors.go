package training

import "errors"

var (
	ErrNotFound          = errors.New("session not found")
	ErrIllegalTransition = errors.New("illegal session transition")
	ErrSchoolRequired    = errors.New("school name is required")
	ErrTrainerRequired   = errors.New("trainer is required")
	ErrScheduleRequired  = errors.New("scheduled time is required")
)
