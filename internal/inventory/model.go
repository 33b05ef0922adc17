// Package inventory tracks warehouse stock per item and the movements
// that change it. Stock never goes negative.
package inventory

import "time"

// MovementType distinguishes stock coming in from stock going out.
type MovementType string

const (
	MovementReceive MovementType = "receive"
	MovementIssue   MovementType = "issue"
)

// IsValid reports whether the movement type is known.
func (m MovementType) IsValid() bool {
	switch m {
	case MovementReceive, MovementIssue:
		return true
	}
	return false
}

// Stock is the current balance for one item.
type Stock struct {
	ID        int64     `json:"id" db:"id"`
	ItemName  string    `json:"item_name" db:"item_name"`
	Quantity  float64   `json:"quantity" db:"quantity"`
	UOM       *string   `json:"uom,omitempty" db:"uom"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Movement is one posted stock change. Ref ties the movement back to the
// document that caused it, e.g. a delivery challan line.
type Movement struct {
	ID        int64        `json:"id" db:"id"`
	ItemName  string       `json:"item_name" db:"item_name"`
	Type      MovementType `json:"type" db:"type"`
	Quantity  float64      `json:"quantity" db:"quantity"`
	Ref       *string      `json:"ref,omitempty" db:"ref"`
	Note      *string      `json:"note,omitempty" db:"note"`
	ActorID   int64        `json:"actor_id" db:"actor_id"`
	PostedAt  time.Time    `json:"posted_at" db:"posted_at"`
}
