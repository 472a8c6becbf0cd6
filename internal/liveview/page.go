package liveview

import (
	_ "embed"
	"fmt"

	"github.com/chasefleming/elem-go"
	"github.com/chasefleming/elem-go/attrs"

	irrigation "irrigation_panel"
	"irrigation_panel/internal/dom"
	"irrigation_panel/internal/panel"
)

//go:embed assets/style.css
var cssContent string

//go:embed assets/panel.js
var jsContent string

const maxDuration = 60

var dayNames = [irrigation.Days]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// renderPage returns the panel markup. Element ids follow the panel's binding
// contract; data-event marks the controls whose events are sent back.
func renderPage(title string) string {
	page := elem.Html(attrs.Props{"lang": "en"},
		elem.Head(attrs.Props{},
			elem.Meta(attrs.Props{attrs.Charset: "utf-8"}),
			elem.Meta(attrs.Props{attrs.Name: "viewport", attrs.Content: "width=device-width, initial-scale=1"}),
			elem.Title(attrs.Props{}, elem.Text(title)),
			elem.Style(attrs.Props{}, elem.Raw(cssContent)),
		),
		elem.Body(attrs.Props{},
			elem.H1(attrs.Props{}, elem.Text(title)),
			elem.Div(attrs.Props{attrs.ID: "connection"}, elem.Text("connecting")),
			renderSchedule(),
			renderChannels(),
			elem.Script(attrs.Props{}, elem.Raw(jsContent)),
		),
	)
	return page.Render()
}

func control(tag func(attrs.Props, ...elem.Node) *elem.Element, id, event string, children ...elem.Node) *elem.Element {
	return tag(attrs.Props{attrs.ID: id, "data-event": event}, children...)
}

func renderSchedule() elem.Node {
	days := make([]elem.Node, 0, len(dayNames))
	for d, name := range dayNames {
		days = append(days, elem.Label(attrs.Props{},
			elem.Text(name+" "),
			control(elem.Button, panel.DayID(d), dom.EventClick),
		))
	}

	return elem.Section(attrs.Props{},
		elem.Div(attrs.Props{},
			elem.Text("Mode "),
			control(elem.Button, panel.ModeID, dom.EventClick),
		),
		elem.Div(attrs.Props{},
			elem.Text("Start "),
			control(elem.Select, panel.StartHourID, dom.EventChange),
			elem.Text(":"),
			control(elem.Select, panel.StartMinuteID, dom.EventChange),
		),
		elem.Div(attrs.Props{attrs.Class: "days"}, days...),
	)
}

func renderChannels() elem.Node {
	rows := []elem.Node{
		elem.Tr(attrs.Props{},
			elem.Th(attrs.Props{}, elem.Text("Channel")),
			elem.Th(attrs.Props{}, elem.Text("State")),
			elem.Th(attrs.Props{}, elem.Text("Duration")),
		),
	}
	for c := 0; c < irrigation.Channels; c++ {
		name := fmt.Sprintf("Channel %d", c)
		if c == 0 {
			name = "Master"
		}
		rows = append(rows, elem.Tr(attrs.Props{},
			elem.Td(attrs.Props{}, elem.Text(name)),
			elem.Td(attrs.Props{}, control(elem.Button, panel.ChannelID(c), dom.EventClick)),
			elem.Td(attrs.Props{},
				elem.Input(attrs.Props{
					attrs.ID:     panel.SliderID(c),
					attrs.Type:   "range",
					"min":        "0",
					"max":        fmt.Sprint(maxDuration),
					attrs.Value:  "0",
					"data-event": dom.EventChange,
				}),
				elem.Span(attrs.Props{attrs.ID: panel.LabelID(c), attrs.Class: "duration"}),
			),
		))
	}
	return elem.Section(attrs.Props{}, elem.Table(attrs.Props{}, rows...))
}
