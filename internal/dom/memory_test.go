package dom

import (
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"
)

func TestMemory_ElementLookup(t *testing.T) {
	m := NewMemory("mode", "day-0")

	if _, ok := m.Element("mode"); !ok {
		t.Fatalf("expected mode element")
	}
	if _, ok := m.Element("nope"); ok {
		t.Fatalf("did not expect element")
	}
	if err := m.Fire("nope", EventClick); !errors.Is(err, ErrMissingElement) {
		t.Fatalf("expected ErrMissingElement, got %v", err)
	}
}

func TestMemory_FireInvokesHandlersInOrder(t *testing.T) {
	m := NewMemory("mode")
	el, _ := m.Element("mode")

	var got []int
	el.On(EventClick, func() { got = append(got, 1) })
	el.On(EventClick, func() { got = append(got, 2) })
	el.On(EventChange, func() { got = append(got, 99) })

	if err := m.Fire("mode", EventClick); err != nil {
		t.Fatalf("Fire: %v", err)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("unexpected handler calls: %v", got)
	}
}

func TestMemory_SelectValueRestrictedToOptions(t *testing.T) {
	m := NewMemory("startHour")
	el, _ := m.Element("startHour")

	el.AppendOption("00")
	el.AppendOption("01")
	if el.Value() != "00" {
		t.Fatalf("first option should be selected, got %q", el.Value())
	}

	el.SetValue("01")
	if el.Value() != "01" {
		t.Fatalf("got %q", el.Value())
	}
	el.SetValue("99")
	if el.Value() != "01" {
		t.Fatalf("unknown option must be ignored, got %q", el.Value())
	}

	p, ok := m.Get("startHour")
	if !ok || len(p.Options) != 2 {
		t.Fatalf("unexpected patch: %+v", p)
	}
}

func TestMemory_SubscribeReceivesPatches(t *testing.T) {
	m := NewMemory("label-0")
	ch, cancel := m.Subscribe(8)
	defer cancel()

	el, _ := m.Element("label-0")
	el.SetText("15 mins")
	el.SetStyle("background-color", "grey")

	want := []Patch{
		{ID: "label-0", Text: "15 mins"},
		{ID: "label-0", Text: "15 mins", Style: map[string]string{"background-color": "grey"}},
	}
	for i, w := range want {
		select {
		case p := <-ch:
			if p.ID != w.ID || p.Text != w.Text || p.Style["background-color"] != w.Style["background-color"] {
				t.Fatalf("patch %d: got %+v want %+v", i, p, w)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for patch %d", i)
		}
	}
}

func TestMemory_CancelClosesChannelOnce(t *testing.T) {
	m := NewMemory("x")
	ch, cancel := m.Subscribe(1)
	cancel()
	cancel()
	if _, open := <-ch; open {
		t.Fatalf("expected closed channel")
	}
	// writes after cancel must not panic
	el, _ := m.Element("x")
	el.SetText("after")
}

func TestMemory_SnapshotKeepsCreationOrder(t *testing.T) {
	m := NewMemory("b", "a")
	m.Add("c")
	m.Add("a")

	snap := m.Snapshot()
	if len(snap) != 3 || snap[0].ID != "b" || snap[1].ID != "a" || snap[2].ID != "c" {
		t.Fatalf("unexpected snapshot order: %+v", snap)
	}
}

func TestMemory_ConcurrentWritersPublishInOrder(t *testing.T) {
	const perWriter = 200
	doc := NewMemory("slider-1")
	patches, cancel := doc.Subscribe(4 * perWriter)
	defer cancel()

	el, _ := doc.Element("slider-1")
	var wg sync.WaitGroup
	for w := 0; w < 2; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				el.SetValue(strconv.Itoa(w*perWriter + i))
			}
		}(w)
	}
	wg.Wait()

	var last Patch
	for n := 0; n < 2*perWriter; n++ {
		select {
		case last = <-patches:
		case <-time.After(time.Second):
			t.Fatalf("received %d patches, want %d", n, 2*perWriter)
		}
	}
	final, _ := doc.Get("slider-1")
	if last.Value != final.Value {
		t.Fatalf("last patch value %q, element value %q", last.Value, final.Value)
	}
}
