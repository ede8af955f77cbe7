package domain

import "time"

// Sale is a completed purchase as recorded in the sales journal.
type Sale struct {
	ID        string    `json:"id"`
	MachineID string    `json:"machine_id"`
	Product   Product   `json:"product"`
	Price     Cents     `json:"price"`
	Paid      Cents     `json:"paid"`
	Change    []Coin    `json:"change"`
	CreatedAt time.Time `json:"created_at"`
}
