package models

import "time"

const (
	Channels = 16
	Days     = 7
)

// Settings is the persisted part of the controller state.
type Settings struct {
	ID          int           `json:"id"`
	Auto        bool          `json:"auto"`
	StartHour   int           `json:"start_hour"`   // 0-23
	StartMinute int           `json:"start_minute"` // 0-59
	Days        [Days]bool    `json:"days"`         // 0 = Monday
	Durations   [Channels]int `json:"durations"`    // minutes per channel
	UpdatedAt   time.Time     `json:"updated_at"`
}
