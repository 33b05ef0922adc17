package inventory

import "errors"

var (
	ErrItemRequired      = errors.New("item name is required")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStockNotFound     = errors.New("stock not found")
)
