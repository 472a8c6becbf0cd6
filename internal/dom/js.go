//go:build js && wasm

package dom

import "syscall/js"

// Browser is a Document backed by the page's DOM via syscall/js.
type Browser struct {
	document js.Value
	funcs    []js.Func
}

// NewBrowser binds to the global document.
func NewBrowser() *Browser {
	return &Browser{document: js.Global().Get("document")}
}

func (b *Browser) Element(id string) (Element, bool) {
	v := b.document.Call("getElementById", id)
	if v.IsNull() || v.IsUndefined() {
		return nil, false
	}
	return &jsElement{b: b, v: v, id: id}, true
}

// Release frees the JS callbacks registered through On.
func (b *Browser) Release() {
	for _, f := range b.funcs {
		f.Release()
	}
	b.funcs = nil
}

type jsElement struct {
	b  *Browser
	v  js.Value
	id string
}

func (e *jsElement) ID() string { return e.id }

func (e *jsElement) Text() string     { return e.v.Get("textContent").String() }
func (e *jsElement) SetText(s string) { e.v.Set("textContent", s) }

func (e *jsElement) Class() string     { return e.v.Get("className").String() }
func (e *jsElement) SetClass(s string) { e.v.Set("className", s) }

func (e *jsElement) Value() string     { return e.v.Get("value").String() }
func (e *jsElement) SetValue(s string) { e.v.Set("value", s) }

func (e *jsElement) SetStyle(property, value string) {
	e.v.Get("style").Call("setProperty", property, value)
}

func (e *jsElement) AppendOption(value string) {
	opt := e.b.document.Call("createElement", "option")
	opt.Set("value", value)
	opt.Set("textContent", value)
	e.v.Call("appendChild", opt)
}

func (e *jsElement) On(event string, fn func()) {
	f := js.FuncOf(func(this js.Value, args []js.Value) any {
		fn()
		return nil
	})
	e.b.funcs = append(e.b.funcs, f)
	e.v.Call("addEventListener", event, f)
}
