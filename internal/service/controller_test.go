package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	irrigation "irrigation_panel"
	"irrigation_panel/internal/models"
)

type fakeSettingsRepo struct {
	stored  models.Settings
	loadErr error
	saves   int
}

func (f *fakeSettingsRepo) Save(ctx context.Context, s models.Settings) error {
	f.saves++
	f.stored = s
	return nil
}

func (f *fakeSettingsRepo) Load(ctx context.Context) (models.Settings, error) {
	return f.stored, f.loadErr
}

type fakePublisher struct {
	got []ChannelStatus
}

func (f *fakePublisher) PublishStatus(ctx context.Context, st ChannelStatus) error {
	f.got = append(f.got, st)
	return nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

// monday is 2025-09-15, a Monday.
var monday = time.Date(2025, 9, 15, 6, 30, 0, 0, time.UTC)

type controllerHarness struct {
	svc      *ControllerService
	settings *fakeSettingsRepo
	events   *fakeEventRepo
	pub      *fakePublisher
	relays   *MemoryRelays
	clock    *fakeClock
}

func newHarness(t *testing.T, st models.Settings) *controllerHarness {
	t.Helper()
	h := &controllerHarness{
		settings: &fakeSettingsRepo{stored: st},
		events:   &fakeEventRepo{},
		pub:      &fakePublisher{},
		relays:   NewMemoryRelays(nil, nil),
		clock:    &fakeClock{t: monday},
	}
	h.svc = NewControllerService(h.settings, h.events, ControllerOptions{
		Relays:    h.relays,
		Publisher: h.pub,
		Clock:     h.clock.Now,
	})
	if err := h.svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return h
}

// at moves the clock and ticks.
func (h *controllerHarness) at(d time.Duration) {
	h.clock.t = monday.Add(d)
	h.svc.Tick(context.Background(), h.clock.t)
}

func (h *controllerHarness) channels() []int {
	snap := h.svc.Snapshot()
	out := make([]int, models.Channels)
	for c := range out {
		out[c] = snap.Channels[c]
	}
	return out
}

func expectChannels(t *testing.T, h *controllerHarness, want map[int]int) {
	t.Helper()
	got := h.channels()
	for c, v := range got {
		if v != want[c] {
			t.Fatalf("channels = %v; want %v", got, want)
		}
	}
	for c := range want {
		if want[c] == 1 && !h.relays.Get(c) {
			t.Fatalf("relay %d should be on", c)
		}
	}
}

func TestController_Load(t *testing.T) {
	t.Run("defaults when nothing saved", func(t *testing.T) {
		h := newHarness(t, models.Settings{})
		snap := h.svc.Snapshot()
		if snap.Mode != irrigation.ModeManual || snap.Start != "00:00" {
			t.Fatalf("unexpected snapshot: %+v", snap)
		}
		if len(snap.Days) != models.Days || len(snap.Durations) != models.Channels {
			t.Fatalf("unexpected sizes: days=%d durations=%d", len(snap.Days), len(snap.Durations))
		}
	})

	t.Run("restores saved settings", func(t *testing.T) {
		st := models.Settings{ID: 1, Auto: true, StartHour: 6, StartMinute: 5}
		st.Days[2] = true
		st.Durations[4] = 12
		h := newHarness(t, st)
		snap := h.svc.Snapshot()
		if snap.Mode != irrigation.ModeAuto || snap.Start != "06:05" {
			t.Fatalf("unexpected snapshot: %+v", snap)
		}
		if snap.Days[2] != 1 || snap.Days[1] != 0 || snap.Durations[4] != 12 {
			t.Fatalf("unexpected snapshot: %+v", snap)
		}
	})

	t.Run("repository error", func(t *testing.T) {
		repo := &fakeSettingsRepo{loadErr: errors.New("db locked")}
		svc := NewControllerService(repo, nil, ControllerOptions{})
		if err := svc.Load(context.Background()); !errors.Is(err, repo.loadErr) {
			t.Fatalf("expected load error, got %v", err)
		}
	})
}

func TestController_AutoRun(t *testing.T) {
	st := models.Settings{ID: 1, Auto: true, StartHour: 6, StartMinute: 30}
	st.Days[0] = true
	st.Durations[2] = 10
	st.Durations[5] = 5
	h := newHarness(t, st)

	h.at(-time.Minute)
	expectChannels(t, h, map[int]int{})

	h.at(0)
	expectChannels(t, h, map[int]int{0: 1, 2: 1, 5: -1})

	h.at(30 * time.Second)
	expectChannels(t, h, map[int]int{0: 1, 2: 1, 5: -1})

	h.at(10 * time.Minute)
	expectChannels(t, h, map[int]int{0: 1, 5: 1})

	h.at(15 * time.Minute)
	expectChannels(t, h, map[int]int{})

	want := []string{
		models.EventSchedule,
		models.EventOn, models.EventOn,
		models.EventOff, models.EventOn,
		models.EventOff, models.EventOff,
	}
	if got := h.events.types(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v; want %v", got, want)
	}
	if len(h.pub.got) != 6 {
		t.Fatalf("expected 6 published statuses, got %d", len(h.pub.got))
	}
	if last := h.pub.got[5]; last.Channel != 0 || last.On {
		t.Fatalf("last status = %+v; want master off", last)
	}
}

func TestController_AutoSkipsDisabledDay(t *testing.T) {
	st := models.Settings{ID: 1, Auto: true, StartHour: 6, StartMinute: 30}
	st.Days[1] = true // Tuesday only
	st.Durations[1] = 10
	h := newHarness(t, st)

	h.at(0)
	if h.relays.Get(0) {
		t.Fatal("run started on a disabled day")
	}
	h.at(24 * time.Hour)
	if !h.relays.Get(0) || !h.relays.Get(1) {
		t.Fatal("run did not start on Tuesday")
	}
}

func TestController_ManualQueue(t *testing.T) {
	st := models.Settings{ID: 1}
	st.Durations[1] = 5
	st.Durations[3] = 5
	h := newHarness(t, st)
	ctx := context.Background()

	if v, _ := h.svc.SwitchChannel(ctx, 1, true); v != irrigation.ChannelOn {
		t.Fatalf("switch 1 on = %d", v)
	}
	if v, _ := h.svc.SwitchChannel(ctx, 3, true); v != irrigation.ChannelWaiting {
		t.Fatalf("switch 3 on = %d", v)
	}
	expectChannels(t, h, map[int]int{0: 1, 1: 1, 3: -1})

	if v, _ := h.svc.SwitchChannel(ctx, 1, false); v != irrigation.ChannelOff {
		t.Fatalf("switch 1 off = %d", v)
	}
	expectChannels(t, h, map[int]int{0: 1, 3: 1})

	if v, _ := h.svc.SwitchChannel(ctx, 3, true); v != irrigation.ChannelOn {
		t.Fatalf("switch running 3 on = %d", v)
	}

	h.at(5 * time.Minute)
	expectChannels(t, h, map[int]int{})
}

func TestController_ManualQueueDequeue(t *testing.T) {
	st := models.Settings{ID: 1}
	st.Durations[1] = 5
	st.Durations[2] = 5
	h := newHarness(t, st)
	ctx := context.Background()

	h.svc.SwitchChannel(ctx, 1, true)
	h.svc.SwitchChannel(ctx, 2, true)
	if v, _ := h.svc.SwitchChannel(ctx, 2, false); v != irrigation.ChannelOff {
		t.Fatalf("dequeue 2 = %d", v)
	}
	h.at(5 * time.Minute)
	expectChannels(t, h, map[int]int{})
}

func TestController_SwitchMaster(t *testing.T) {
	ctx := context.Background()

	t.Run("runs every channel with a duration", func(t *testing.T) {
		st := models.Settings{ID: 1}
		st.Durations[2] = 3
		st.Durations[4] = 3
		h := newHarness(t, st)

		if v, err := h.svc.SwitchMaster(ctx, true); err != nil || v != 1 {
			t.Fatalf("SwitchMaster(on) = %d, %v", v, err)
		}
		expectChannels(t, h, map[int]int{0: 1, 2: 1, 4: -1})

		h.at(3 * time.Minute)
		expectChannels(t, h, map[int]int{0: 1, 4: 1})

		h.at(6 * time.Minute)
		expectChannels(t, h, map[int]int{})
	})

	t.Run("off stops the run", func(t *testing.T) {
		st := models.Settings{ID: 1}
		st.Durations[2] = 3
		st.Durations[4] = 3
		h := newHarness(t, st)

		h.svc.SwitchMaster(ctx, true)
		if v, _ := h.svc.SwitchMaster(ctx, false); v != 0 {
			t.Fatalf("SwitchMaster(off) = %d", v)
		}
		expectChannels(t, h, map[int]int{})
	})

	t.Run("nothing to run", func(t *testing.T) {
		h := newHarness(t, models.Settings{ID: 1})
		if v, _ := h.svc.SwitchMaster(ctx, true); v != 0 {
			t.Fatalf("SwitchMaster(on) = %d", v)
		}
		if h.relays.Get(0) {
			t.Fatal("master switched on without channels")
		}
	})

	t.Run("ignored in auto", func(t *testing.T) {
		st := models.Settings{ID: 1, Auto: true}
		st.Durations[1] = 3
		h := newHarness(t, st)
		if v, _ := h.svc.SwitchMaster(ctx, true); v != 0 {
			t.Fatalf("SwitchMaster(on) = %d", v)
		}
		if v, _ := h.svc.SwitchChannel(ctx, 1, true); v != irrigation.ChannelOff {
			t.Fatalf("SwitchChannel in auto = %d", v)
		}
		if h.relays.Get(0) || h.relays.Get(1) {
			t.Fatal("relays switched in auto mode")
		}
	})
}

func TestController_SetModeStopsChannels(t *testing.T) {
	st := models.Settings{ID: 1}
	st.Durations[1] = 5
	h := newHarness(t, st)
	ctx := context.Background()

	h.svc.SwitchChannel(ctx, 1, true)
	if got := h.svc.SetMode(ctx, irrigation.ModeAuto); got != irrigation.ModeAuto {
		t.Fatalf("SetMode = %q", got)
	}
	expectChannels(t, h, map[int]int{})

	types := h.events.types()
	if types[len(types)-1] != models.EventModeChange {
		t.Fatalf("last event = %q", types[len(types)-1])
	}

	if got := h.svc.SetMode(ctx, "holiday"); got != irrigation.ModeAuto {
		t.Fatalf("unknown mode changed the mode to %q", got)
	}
	if got := h.svc.SetMode(ctx, irrigation.ModeManual); got != irrigation.ModeManual {
		t.Fatalf("SetMode = %q", got)
	}
}

func TestController_Setters(t *testing.T) {
	h := newHarness(t, models.Settings{})
	ctx := context.Background()

	if got, err := h.svc.SetStart(ctx, 7, 5); err != nil || got != "07:05" {
		t.Fatalf("SetStart = %q, %v", got, err)
	}
	if got, err := h.svc.SetDay(ctx, 6, true); err != nil || got != 1 {
		t.Fatalf("SetDay = %d, %v", got, err)
	}
	if got, err := h.svc.SetDuration(ctx, 9, 25); err != nil || got != 25 {
		t.Fatalf("SetDuration = %d, %v", got, err)
	}

	snap := h.svc.Snapshot()
	if snap.Start != "07:05" || snap.Days[6] != 1 || snap.Durations[9] != 25 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestController_InvalidArguments(t *testing.T) {
	h := newHarness(t, models.Settings{})
	ctx := context.Background()

	calls := map[string]func() error{
		"hour":             func() error { _, err := h.svc.SetStart(ctx, 24, 0); return err },
		"minute":           func() error { _, err := h.svc.SetStart(ctx, 0, 60); return err },
		"day":              func() error { _, err := h.svc.SetDay(ctx, 7, true); return err },
		"duration channel": func() error { _, err := h.svc.SetDuration(ctx, 16, 1); return err },
		"negative minutes": func() error { _, err := h.svc.SetDuration(ctx, 1, -1); return err },
		"switch channel":   func() error { _, err := h.svc.SwitchChannel(ctx, -1, true); return err },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			if err := call(); !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestController_ThrottledSave(t *testing.T) {
	h := newHarness(t, models.Settings{})
	ctx := context.Background()

	h.at(0)
	if h.settings.saves != 0 {
		t.Fatalf("clean settings saved")
	}

	h.svc.SetDay(ctx, 0, true)
	h.at(time.Second)
	if h.settings.saves != 1 {
		t.Fatalf("saves = %d; want 1", h.settings.saves)
	}

	h.svc.SetDuration(ctx, 3, 10)
	h.at(3 * time.Second)
	if h.settings.saves != 1 {
		t.Fatalf("saved before the delay elapsed")
	}
	h.at(7 * time.Second)
	if h.settings.saves != 2 {
		t.Fatalf("saves = %d; want 2", h.settings.saves)
	}
	if !h.settings.stored.Days[0] || h.settings.stored.Durations[3] != 10 {
		t.Fatalf("unexpected stored settings: %+v", h.settings.stored)
	}

	h.svc.SetStart(ctx, 5, 0)
	h.svc.Shutdown(ctx)
	if h.settings.saves != 3 || h.settings.stored.StartHour != 5 {
		t.Fatalf("shutdown did not save: saves=%d stored=%+v", h.settings.saves, h.settings.stored)
	}
}

func TestController_RunStopsOnCancel(t *testing.T) {
	st := models.Settings{ID: 1}
	st.Durations[1] = 5
	h := newHarness(t, st)

	h.svc.SwitchChannel(context.Background(), 1, true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.svc.Run(ctx, 10*time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if h.relays.Get(0) || h.relays.Get(1) {
		t.Fatal("relays still on after shutdown")
	}
}

func TestMemoryRelays(t *testing.T) {
	r := NewMemoryRelays(nil, nil)
	if err := r.Set(3, true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !r.Get(3) || r.Get(4) {
		t.Fatal("unexpected relay state")
	}
	if err := r.Set(models.Channels, true); err == nil {
		t.Fatal("expected out of range error")
	}
	if r.Get(-1) {
		t.Fatal("out of range relay reported on")
	}
}
