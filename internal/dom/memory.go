package dom

import (
	"maps"
	"slices"
	"sync"
)

// Patch describes the current rendering of one element after a change.
type Patch struct {
	ID      string            `json:"id"`
	Text    string            `json:"text"`
	Class   string            `json:"class"`
	Value   string            `json:"value"`
	Style   map[string]string `json:"style,omitempty"`
	Options []string          `json:"options,omitempty"`
}

// Memory is a concurrency-safe in-memory Document. It backs the live view
// server and the tests. Every mutation is published to subscribers as a Patch.
type Memory struct {
	mu       sync.RWMutex
	elements map[string]*memElement
	order    []string

	subMu  sync.Mutex
	subs   map[int]chan Patch
	nextID int
}

// NewMemory creates a document containing the given ids.
func NewMemory(ids ...string) *Memory {
	m := &Memory{
		elements: make(map[string]*memElement, len(ids)),
		subs:     make(map[int]chan Patch),
	}
	for _, id := range ids {
		m.Add(id)
	}
	return m
}

// Add creates an element if it does not exist yet.
func (m *Memory) Add(id string) Element {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.elements[id]; ok {
		return el
	}
	el := &memElement{doc: m, id: id, style: map[string]string{}, handlers: map[string][]func(){}}
	m.elements[id] = el
	m.order = append(m.order, id)
	return el
}

// Element implements Document.
func (m *Memory) Element(id string) (Element, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	el, ok := m.elements[id]
	if !ok {
		return nil, false
	}
	return el, true
}

// Fire invokes the handlers registered for event on id, synchronously.
func (m *Memory) Fire(id, event string) error {
	m.mu.RLock()
	el, ok := m.elements[id]
	var hs []func()
	if ok {
		hs = slices.Clone(el.handlers[event])
	}
	m.mu.RUnlock()
	if !ok {
		return ErrMissingElement
	}
	for _, h := range hs {
		h()
	}
	return nil
}

// Get returns the current rendering of one element.
func (m *Memory) Get(id string) (Patch, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	el, ok := m.elements[id]
	if !ok {
		return Patch{}, false
	}
	return el.patchLocked(), true
}

// Snapshot returns the rendering of every element in creation order.
func (m *Memory) Snapshot() []Patch {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Patch, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.elements[id].patchLocked())
	}
	return out
}

// Subscribe returns a channel of patches and a cancel func. Slow subscribers
// drop patches rather than block the writer.
func (m *Memory) Subscribe(buffer int) (<-chan Patch, func()) {
	ch := make(chan Patch, buffer)
	m.subMu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	m.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.subMu.Lock()
			delete(m.subs, id)
			m.subMu.Unlock()
			close(ch)
		})
	}
}

func (m *Memory) publish(p Patch) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- p:
		default:
		}
	}
}

type memElement struct {
	doc      *Memory
	id       string
	text     string
	class    string
	value    string
	style    map[string]string
	options  []string
	handlers map[string][]func()
}

func (e *memElement) ID() string { return e.id }

func (e *memElement) read(f func()) {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	f()
}

// write applies f and publishes the resulting patch under the document lock,
// so subscribers see patches in mutation order. publish never blocks.
func (e *memElement) write(f func()) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	f()
	e.doc.publish(e.patchLocked())
}

func (e *memElement) patchLocked() Patch {
	return Patch{
		ID:      e.id,
		Text:    e.text,
		Class:   e.class,
		Value:   e.value,
		Style:   maps.Clone(e.style),
		Options: slices.Clone(e.options),
	}
}

func (e *memElement) Text() (s string) {
	e.read(func() { s = e.text })
	return
}

func (e *memElement) SetText(s string) { e.write(func() { e.text = s }) }

func (e *memElement) Class() (s string) {
	e.read(func() { s = e.class })
	return
}

func (e *memElement) SetClass(s string) { e.write(func() { e.class = s }) }

func (e *memElement) Value() (s string) {
	e.read(func() { s = e.value })
	return
}

// SetValue on a select only takes effect for a known option, as in a browser.
func (e *memElement) SetValue(s string) {
	e.write(func() {
		if len(e.options) > 0 && !slices.Contains(e.options, s) {
			return
		}
		e.value = s
	})
}

func (e *memElement) SetStyle(property, value string) {
	e.write(func() { e.style[property] = value })
}

// AppendOption adds a select option; the first option becomes the value.
func (e *memElement) AppendOption(value string) {
	e.write(func() {
		e.options = append(e.options, value)
		if len(e.options) == 1 {
			e.value = value
		}
	})
}

func (e *memElement) On(event string, fn func()) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	e.handlers[event] = append(e.handlers[event], fn)
}
