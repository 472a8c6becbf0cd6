package panel

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	irrigation "irrigation_panel"
	"irrigation_panel/internal/dom"
)

// Bind registers a handler on every control and fills the start time selects.
// Missing elements are skipped; their ids are returned.
func (p *Panel) Bind() (missing []string) {
	on := func(id, event string, handler func(el dom.Element)) dom.Element {
		el, ok := p.element(id)
		if !ok {
			missing = append(missing, id)
			return nil
		}
		el.On(event, func() { handler(el) })
		return el
	}

	on(ModeID, dom.EventClick, func(dom.Element) { p.post(p.toggleMode) })

	if el := on(StartHourID, dom.EventChange, p.startChanged); el != nil {
		appendNumbers(el, 24)
	}
	if el := on(StartMinuteID, dom.EventChange, p.startChanged); el != nil {
		appendNumbers(el, 60)
	}

	for d := 0; d < irrigation.Days; d++ {
		on(DayID(d), dom.EventClick, func(dom.Element) {
			p.post(func(ctx context.Context) { p.dayClick(ctx, d) })
		})
	}
	for c := 0; c < irrigation.Channels; c++ {
		on(ChannelID(c), dom.EventClick, func(dom.Element) {
			p.post(func(ctx context.Context) { p.channelClick(ctx, c) })
		})
		on(SliderID(c), dom.EventChange, func(el dom.Element) {
			value := strings.TrimSpace(el.Value())
			p.post(func(ctx context.Context) { p.sliderChange(ctx, c, value) })
		})
	}

	if len(missing) > 0 {
		p.log.Infow("bind_incomplete", "missing", missing)
	}
	return missing
}

// startChanged reads both selects in the DOM handler, before a queued poll
// can render the device time over the user's choice.
func (p *Panel) startChanged(dom.Element) {
	hour, minute := p.controlValue(StartHourID), p.controlValue(StartMinuteID)
	p.post(func(ctx context.Context) { p.setStart(ctx, hour, minute) })
}

// controlValue returns the value of id, or "" when the element is missing.
func (p *Panel) controlValue(id string) string {
	el, ok := p.element(id)
	if !ok {
		return ""
	}
	return el.Value()
}

// appendNumbers adds zero padded options 00..n-1.
func appendNumbers(el dom.Element, n int) {
	for i := 0; i < n; i++ {
		el.AppendOption(fmt.Sprintf("%02d", i))
	}
}

func (p *Panel) toggleMode(ctx context.Context) {
	target, ok := p.st.mode.Toggle()
	if !ok {
		p.log.Debugw("mode_click_ignored", "mode", p.st.modeText)
		return
	}
	p.command(ctx, &p.st.modeW, "setMode", []any{target.String()}, p.updateMode, nil)
}

// setStart sends the selected start time. An empty part keeps the last one.
func (p *Panel) setStart(ctx context.Context, hour, minute string) {
	if hour == "" {
		hour = p.st.hour
	}
	if minute == "" {
		minute = p.st.minute
	}
	p.st.hour, p.st.minute = hour, minute
	p.command(ctx, &p.st.startW, "setStart", []any{hour, minute}, nil, nil)
}

func (p *Panel) dayClick(ctx context.Context, d int) {
	value := 1
	if p.st.days[d] == SwitchOn {
		value = 0
	}
	p.command(ctx, &p.st.dayW[d], "setDay", []any{d, value}, func(reply string) {
		v, err := parseInt("setDay", reply)
		if err != nil {
			p.log.Warnw("reply_parse_failed", "widget", DayID(d), "error", err)
			return
		}
		p.updateDay(d, v)
	}, nil)
}

func (p *Panel) channelClick(ctx context.Context, c int) {
	if p.st.mode == ModeAuto {
		return
	}
	value := 0
	if p.st.chans[c].state == SwitchOff {
		value = 1
	}

	name, args := "switchChannel", []any{c, value}
	if c == 0 {
		name, args = "switchMaster", []any{value}
	}
	p.command(ctx, &p.st.chans[c].button, name, args, func(reply string) {
		v, err := parseInt(name, reply)
		if err != nil {
			p.log.Warnw("reply_parse_failed", "widget", ChannelID(c), "error", err)
			return
		}
		p.updateChannel(c, v)
	}, nil)
}

// sliderChange highlights the label with the requested value until the reply
// arrives. A failed call restores the last duration the device reported.
func (p *Panel) sliderChange(ctx context.Context, c int, value string) {
	p.setLabel(c, value, true)
	p.command(ctx, &p.st.chans[c].slider, "setDuration", []any{c, value}, func(reply string) {
		if v, err := strconv.Atoi(reply); err == nil {
			p.st.chans[c].duration = v
		}
		p.setLabel(c, reply, false)
	}, func(error) {
		p.setLabel(c, strconv.Itoa(p.st.chans[c].duration), false)
	})
}

func parseInt(name, reply string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(reply))
	if err != nil {
		return 0, &ParseError{Macro: name, Reply: reply, Err: err}
	}
	return v, nil
}
