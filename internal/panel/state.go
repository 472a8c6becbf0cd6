package panel

import (
	"fmt"

	irrigation "irrigation_panel"
)

// Mode is the controller mode as last rendered.
type Mode int

const (
	ModeUnknown Mode = iota
	ModeAuto
	ModeManual
)

// ParseMode maps the controller's mode string. Anything else is ModeUnknown.
func ParseMode(s string) Mode {
	switch s {
	case irrigation.ModeAuto:
		return ModeAuto
	case irrigation.ModeManual:
		return ModeManual
	default:
		return ModeUnknown
	}
}

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return irrigation.ModeAuto
	case ModeManual:
		return irrigation.ModeManual
	default:
		return "unknown"
	}
}

// Toggle returns the mode a click on the mode button asks for.
func (m Mode) Toggle() (Mode, bool) {
	switch m {
	case ModeAuto:
		return ModeManual, true
	case ModeManual:
		return ModeAuto, true
	default:
		return ModeUnknown, false
	}
}

// Switch is the displayed state of a day or channel button.
type Switch int

const (
	SwitchUnknown Switch = iota
	SwitchOff
	SwitchOn
	SwitchWaiting
)

// Button text and CSS classes.
const (
	TextOn      = "ON"
	TextOff     = "OFF"
	TextWaiting = "W"

	ClassEnabled  = "enabled"
	ClassDisabled = "disabled"
	ClassWaiting  = "waiting"
)

// ChannelSwitch maps a channel value from the controller. ok is false for
// values outside {-1, 0, 1}, which leave the button untouched.
func ChannelSwitch(v int) (s Switch, ok bool) {
	switch v {
	case irrigation.ChannelOn:
		return SwitchOn, true
	case irrigation.ChannelOff:
		return SwitchOff, true
	case irrigation.ChannelWaiting:
		return SwitchWaiting, true
	default:
		return SwitchUnknown, false
	}
}

// DaySwitch maps a day flag: zero is OFF, anything else is ON.
func DaySwitch(v int) Switch {
	if v == 0 {
		return SwitchOff
	}
	return SwitchOn
}

// Text is the button label for s.
func (s Switch) Text() string {
	switch s {
	case SwitchOn:
		return TextOn
	case SwitchOff:
		return TextOff
	case SwitchWaiting:
		return TextWaiting
	default:
		return ""
	}
}

// Class is the CSS class for s.
func (s Switch) Class() string {
	switch s {
	case SwitchOn:
		return ClassEnabled
	case SwitchOff:
		return ClassDisabled
	case SwitchWaiting:
		return ClassWaiting
	default:
		return ""
	}
}

// widget tracks the request sequence of one control.
type widget struct {
	name    string
	latest  uint64 // id of the most recent command
	pending bool
}

// supersedes reports whether a poll issued with id must not overwrite w.
func (w *widget) supersedes(pollID uint64) bool {
	return w.pending || w.latest > pollID
}

type channelState struct {
	button   widget
	slider   widget
	state    Switch
	duration int
}

// state is owned by the event loop.
type state struct {
	modeText string
	mode     Mode
	modeW    widget

	hour, minute string
	startW       widget

	days  [irrigation.Days]Switch
	dayW  [irrigation.Days]widget
	chans [irrigation.Channels]channelState
}

func newState() state {
	s := state{
		modeW:  widget{name: "mode"},
		startW: widget{name: "start"},
	}
	for d := range s.dayW {
		s.dayW[d].name = DayID(d)
	}
	for c := range s.chans {
		s.chans[c].button.name = ChannelID(c)
		s.chans[c].slider.name = SliderID(c)
	}
	return s
}

// Element ids bound by the panel.
const (
	ModeID        = "mode"
	StartHourID   = "startHour"
	StartMinuteID = "startMinute"
)

func DayID(d int) string     { return fmt.Sprintf("day-%d", d) }
func ChannelID(c int) string { return fmt.Sprintf("channel-%d", c) }
func SliderID(c int) string  { return fmt.Sprintf("slider-%d", c) }
func LabelID(c int) string   { return fmt.Sprintf("label-%d", c) }

// ElementIDs lists every id the panel reads or writes.
func ElementIDs() []string {
	ids := []string{ModeID, StartHourID, StartMinuteID}
	for d := 0; d < irrigation.Days; d++ {
		ids = append(ids, DayID(d))
	}
	for c := 0; c < irrigation.Channels; c++ {
		ids = append(ids, ChannelID(c), SliderID(c), LabelID(c))
	}
	return ids
}
