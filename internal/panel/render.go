package panel

import (
	"strconv"
	"strings"

	irrigation "irrigation_panel"
	"irrigation_panel/internal/dom"
)

const (
	labelSuffix     = " mins"
	backgroundProp  = "background-color"
	backgroundBusy  = "grey"
	backgroundClear = "transparent"
)

func (p *Panel) element(id string) (dom.Element, bool) {
	el, ok := p.doc.Element(id)
	if !ok {
		p.log.Debugw("element_missing", "id", id, "error", dom.ErrMissingElement)
	}
	return el, ok
}

// render distributes a getAll snapshot, skipping widgets that have a command
// newer than the poll.
func (p *Panel) render(pollID uint64, snap *irrigation.Snapshot) {
	if snap.Mode != "" && !p.st.modeW.supersedes(pollID) {
		p.updateMode(snap.Mode)
	}
	if !p.st.startW.supersedes(pollID) {
		p.updateStart(snap.Start)
	}
	for _, d := range snap.Days.Keys() {
		if d < 0 || d >= irrigation.Days || p.st.dayW[d].supersedes(pollID) {
			continue
		}
		p.updateDay(d, snap.Days[d])
	}
	for _, c := range snap.Channels.Keys() {
		if c < 0 || c >= irrigation.Channels || p.st.chans[c].button.supersedes(pollID) {
			continue
		}
		p.updateChannel(c, snap.Channels[c])
	}
	for _, c := range snap.Durations.Keys() {
		if c < 0 || c >= irrigation.Channels || p.st.chans[c].slider.supersedes(pollID) {
			continue
		}
		p.updateSlider(c, snap.Durations[c])
	}
}

func (p *Panel) updateMode(text string) {
	p.st.modeText = text
	p.st.mode = ParseMode(text)

	el, ok := p.element(ModeID)
	if !ok {
		return
	}
	el.SetText(text)
	if p.st.mode == ModeAuto {
		el.SetClass(ClassEnabled)
	} else {
		el.SetClass(ClassDisabled)
	}
}

func (p *Panel) updateStart(start string) {
	hour, minute, ok := strings.Cut(start, ":")
	if !ok || hour == "" || minute == "" || strings.Contains(minute, ":") {
		if start != "" {
			p.log.Debugw("start_ignored", "start", start)
		}
		return
	}
	p.st.hour, p.st.minute = hour, minute
	if el, ok := p.element(StartHourID); ok {
		el.SetValue(hour)
	}
	if el, ok := p.element(StartMinuteID); ok {
		el.SetValue(minute)
	}
}

func (p *Panel) updateDay(d, v int) {
	s := DaySwitch(v)
	p.st.days[d] = s
	if el, ok := p.element(DayID(d)); ok {
		el.SetText(s.Text())
		el.SetClass(s.Class())
	}
}

func (p *Panel) updateChannel(c, v int) {
	s, ok := ChannelSwitch(v)
	if !ok {
		p.log.Debugw("channel_value_ignored", "channel", c, "value", v)
		return
	}
	p.st.chans[c].state = s
	if el, ok := p.element(ChannelID(c)); ok {
		el.SetText(s.Text())
		el.SetClass(s.Class())
	}
}

func (p *Panel) updateSlider(c, v int) {
	p.st.chans[c].duration = v
	text := strconv.Itoa(v)
	if el, ok := p.element(LabelID(c)); ok {
		el.SetText(text + labelSuffix)
	}
	if el, ok := p.element(SliderID(c)); ok {
		el.SetValue(text)
	}
}

// setLabel writes a duration label and its highlight.
func (p *Panel) setLabel(c int, text string, busy bool) {
	el, ok := p.element(LabelID(c))
	if !ok {
		return
	}
	el.SetText(text + labelSuffix)
	if busy {
		el.SetStyle(backgroundProp, backgroundBusy)
	} else {
		el.SetStyle(backgroundProp, backgroundClear)
	}
}
