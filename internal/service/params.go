package service

import "time"

// LogFilter narrows the event history.
type LogFilter struct {
	From    time.Time // inclusive; zero means no lower bound
	To      time.Time // inclusive; zero means no upper bound
	Type    string    // "", "ON", "OFF", "MODE_CHANGE", "SCHEDULE"
	Channel *int
	Limit   int
}

// ChannelStatus is published whenever a relay changes.
type ChannelStatus struct {
	Channel int       `json:"channel"`
	On      bool      `json:"on"`
	At      time.Time `json:"at"`
}
