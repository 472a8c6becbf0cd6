// Package panel keeps the irrigation control page in sync with the controller.
//
// A single event loop owns every widget's state and all DOM writes. Macro calls
// run on their own goroutines and hand their replies back to the loop, where a
// reply is applied only if no newer request was issued for the same widget.
package panel

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	irrigation "irrigation_panel"
	"irrigation_panel/internal/dom"
	"irrigation_panel/internal/logger"
	"irrigation_panel/internal/macro"
	"irrigation_panel/internal/metrics"
)

const (
	DefaultPollInterval = time.Second
	eventBuffer         = 256
)

// Options configure a Panel.
type Options struct {
	PollInterval time.Duration
	Logger       *logger.Logger
	Metrics      *metrics.Collector
}

// Panel binds the page controls and mirrors the controller state onto them.
type Panel struct {
	doc      dom.Document
	caller   macro.Caller
	log      *logger.Logger
	metrics  *metrics.Collector
	interval time.Duration

	events chan func(ctx context.Context)

	// loop-owned
	st       state
	nextID   uint64
	lastPoll uint64
}

// New creates a Panel. Call Bind, then Run.
func New(doc dom.Document, caller macro.Caller, opts Options) *Panel {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Panel{
		doc:      doc,
		caller:   caller,
		log:      opts.Logger.Named("panel"),
		metrics:  opts.Metrics,
		interval: interval,
		events:   make(chan func(ctx context.Context), eventBuffer),
		st:       newState(),
	}
}

// Run polls immediately and then every poll interval, and processes control
// events, until ctx is cancelled. Failed cycles never stop the loop.
func (p *Panel) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.log.Infow("panel_started", "poll_interval", p.interval)
	p.startPoll(ctx)
	for {
		select {
		case <-ctx.Done():
			p.log.Infow("panel_stopped")
			return nil
		case <-ticker.C:
			p.startPoll(ctx)
		case fn := <-p.events:
			fn(ctx)
		}
	}
}

// Poll issues one getAll and decodes the reply.
func (p *Panel) Poll(ctx context.Context) (*irrigation.Snapshot, error) {
	return decodeSnapshot(p.caller.Call(ctx, "getAll"))
}

func decodeSnapshot(reply string, err error) (*irrigation.Snapshot, error) {
	if err != nil {
		return nil, errors.Wrap(err, "poll")
	}
	var snap irrigation.Snapshot
	if err := json.Unmarshal([]byte(reply), &snap); err != nil {
		return nil, &ParseError{Macro: "getAll", Reply: reply, Err: err}
	}
	return &snap, nil
}

// post queues fn on the loop without blocking the caller. It is used from DOM
// event handlers, which must return promptly.
func (p *Panel) post(fn func(ctx context.Context)) {
	select {
	case p.events <- fn:
	default:
		p.log.Warnw("event_dropped", "reason", "queue full")
	}
}

// deliver hands a reply back to the loop, giving up when the loop has stopped.
func (p *Panel) deliver(ctx context.Context, fn func(ctx context.Context)) {
	select {
	case p.events <- fn:
	case <-ctx.Done():
	}
}

// await hands the result of an asynchronous call to fn on the loop.
func (p *Panel) await(ctx context.Context, res <-chan macro.Result, fn func(macro.Result)) {
	go func() {
		select {
		case r := <-res:
			p.deliver(ctx, func(context.Context) { fn(r) })
		case <-ctx.Done():
		}
	}()
}

func (p *Panel) startPoll(ctx context.Context) {
	p.nextID++
	id := p.nextID
	p.await(ctx, macro.Go(ctx, p.caller, "getAll"), func(r macro.Result) {
		snap, err := decodeSnapshot(r.Value, r.Err)
		p.applyPoll(id, snap, err)
	})
}

func (p *Panel) applyPoll(id uint64, snap *irrigation.Snapshot, err error) {
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			p.metrics.ObservePoll(metrics.OutcomeParseError)
			p.log.Warnw("poll_parse_failed", "error", err)
		} else {
			p.metrics.ObservePoll(metrics.OutcomeTransportError)
			p.log.Warnw("poll_failed", "error", err)
		}
		return
	}
	if id <= p.lastPoll {
		p.metrics.ObserveStale("poll")
		p.log.Debugw("stale_response", "widget", "poll", "id", id, "latest", p.lastPoll)
		return
	}
	p.lastPoll = id
	p.metrics.ObservePoll(metrics.OutcomeOK)
	p.render(id, snap)
}

// command sends a macro call on behalf of w. onReply runs on the loop for the
// reply of the latest request only; onFailure likewise for its error.
func (p *Panel) command(ctx context.Context, w *widget, name string, args []any, onReply func(string), onFailure func(error)) {
	p.nextID++
	id := p.nextID
	w.latest = id
	w.pending = true

	p.log.Debugw("macro_dispatch", "widget", w.name, "macro", name, "args", macro.JoinArgs(args), "id", id)
	p.await(ctx, macro.Go(ctx, p.caller, name, args...), func(r macro.Result) {
		if id != w.latest {
			p.metrics.ObserveStale(w.name)
			p.log.Debugw("stale_response", "widget", w.name, "id", id, "latest", w.latest)
			return
		}
		w.pending = false
		if r.Err != nil {
			p.log.Warnw("macro_failed", "widget", w.name, "macro", name, "error", r.Err)
			if onFailure != nil {
				onFailure(r.Err)
			}
			return
		}
		if onReply != nil {
			onReply(r.Value)
		}
	})
}
