package occupancy

import "time"

// Event types published after a successful commit.
const (
	EventOccupied = "occupied"
	EventReleased = "released"
)

// Event describes one change of occupant.
type Event struct {
	Type     string    `json:"type"`
	SpotID   string    `json:"spotId"`
	UserID   string    `json:"userId"`
	UserName string    `json:"userName,omitempty"`
	At       time.Time `json:"at"`
	Duration int64     `json:"durationSeconds,omitempty"`
}

// Notifier receives events. Implementations must not block.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

// Notify calls f(ev).
func (f NotifierFunc) Notify(ev Event) { f(ev) }
