package domain

import "time"

// Snapshot is a point-in-time copy of a machine's stock and session balance.
type Snapshot struct {
	Products    map[Product]int `json:"products"`
	Coins       map[Coin]int    `json:"coins"`
	Inserted    Cents           `json:"inserted"`
	ChangeValue Cents           `json:"change_value"`
	TakenAt     time.Time       `json:"taken_at"`
}
