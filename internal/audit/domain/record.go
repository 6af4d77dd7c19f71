package domain

import "time"

// Record is one immutable audit trail entry: who did what, on which provider,
// when. Actor references the identity by name only, so identity removal (if
// ever supported) cannot erase history.
type Record struct {
	ID        string
	Actor     string
	Action    string
	Provider  string
	CreatedAt time.Time
}
