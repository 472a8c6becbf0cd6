//go:build js && wasm

// Command wasm runs the panel inside the browser page that serves it.
// Build with GOOS=js GOARCH=wasm and load next to wasm_exec.js.
package main

import (
	"context"
	"net/url"
	"syscall/js"

	"irrigation_panel/internal/dom"
	"irrigation_panel/internal/logger"
	"irrigation_panel/internal/macro"
	"irrigation_panel/internal/panel"
)

// deviceURL is the page origin unless the page was opened with ?device=<url>.
func deviceURL() string {
	loc := js.Global().Get("location")
	if q, err := url.ParseQuery(trimQuery(loc.Get("search").String())); err == nil {
		if d := q.Get("device"); d != "" {
			return d
		}
	}
	return loc.Get("origin").String()
}

func trimQuery(s string) string {
	if len(s) > 0 && s[0] == '?' {
		return s[1:]
	}
	return s
}

func main() {
	log := logger.Get(logger.InfoLevel)

	client, err := macro.NewClient(macro.Options{BaseURL: deviceURL(), Logger: log})
	if err != nil {
		log.Fatalw("invalid_device_url", "err", err)
	}

	doc := dom.NewBrowser()
	defer doc.Release()

	p := panel.New(doc, client, panel.Options{Logger: log})
	if missing := p.Bind(); len(missing) > 0 {
		log.Warnw("panel_elements_missing", "ids", missing)
	}

	log.Infow("panel_started", "device", deviceURL())
	if err := p.Run(context.Background()); err != nil {
		log.Errorw("panel_stopped", "err", err)
	}
}
