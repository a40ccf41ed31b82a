package util

import "time"

// Trigger represents one touch sensor event.
type Trigger struct {
	ID        string
	Value     int
	Timestamp time.Time
}

// NewTrigger creates a new Trigger instance.
func NewTrigger(id string, value int, timestamp time.Time) *Trigger {
	return &Trigger{
		ID:        id,
		Value:     value,
		Timestamp: timestamp,
	}
}
