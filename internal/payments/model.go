// Package payments records money received against delivery challan
// orders and computes what remains outstanding.
package payments

import "time"

// Mode is how a payment arrived.
type Mode string

const (
	ModeCash     Mode = "cash"
	ModeCheque   Mode = "cheque"
	ModeTransfer Mode = "transfer"
	ModeUPI      Mode = "upi"
)

// IsValid reports whether the payment mode is known.
func (m Mode) IsValid() bool {
	switch m {
	case ModeCash, ModeCheque, ModeTransfer, ModeUPI:
		return true
	}
	return false
}

// Payment is one recorded receipt against an order.
type Payment struct {
	ID          int64     `json:"id" db:"id"`
	OrderID     int64     `json:"order_id" db:"order_id"`
	Amount      float64   `json:"amount" db:"amount"`
	Mode        Mode      `json:"mode" db:"mode"`
	ReferenceNo *string   `json:"reference_no,omitempty" db:"reference_no"`
	PaidAt      time.Time `json:"paid_at" db:"paid_at"`
	Notes       *string   `json:"notes,omitempty" db:"notes"`
	RecordedBy  int64     `json:"recorded_by" db:"recorded_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// OrderSummary is the ledger view for one order: what it is worth, what
// came in, and what is still owed.
type OrderSummary struct {
	OrderID     int64     `json:"order_id"`
	DCCode      string    `json:"dc_code"`
	TotalAmount float64   `json:"total_amount"`
	Paid        float64   `json:"paid"`
	Outstanding float64   `json:"outstanding"`
	Payments    []Payment `json:"payments"`
}
