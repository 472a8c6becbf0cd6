// Package dom abstracts the handful of DOM operations the control panel needs,
// so the same panel code drives a real browser (js/wasm) or an in-memory tree.
package dom

import "errors"

// Event names bound by the panel.
const (
	EventClick  = "click"
	EventChange = "change"
)

// ErrMissingElement is reported when a bound or rendered id is absent from the markup.
var ErrMissingElement = errors.New("element not found")

// Document looks elements up by id.
type Document interface {
	Element(id string) (Element, bool)
}

// Element is a single addressable control.
type Element interface {
	ID() string
	Text() string
	SetText(string)
	Class() string
	SetClass(string)
	Value() string
	SetValue(string)
	SetStyle(property, value string)
	AppendOption(value string)
	// On registers fn for event. Handlers must not block.
	On(event string, fn func())
}
