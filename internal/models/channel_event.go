package models

import "time"

// Event types recorded by the controller.
const (
	EventOn         = "ON"
	EventOff        = "OFF"
	EventModeChange = "MODE_CHANGE"
	EventSchedule   = "SCHEDULE"
)

// ChannelEvent is a single log entry.
type ChannelEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`    // ON | OFF | MODE_CHANGE | SCHEDULE
	Channel     int       `json:"channel"` // -1 when not tied to a channel
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
