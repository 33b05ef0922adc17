package payments

import "errors"

var (
	ErrNotFound      = errors.New("payment not found")
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrInvalidMode   = errors.New("invalid payment mode")
	ErrOrderNotFound = errors.New("DC not found")
)
