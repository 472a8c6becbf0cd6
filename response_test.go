package irrigation_panel

import (
	"encoding/json"
	"testing"
)

func TestSnapshot_DecodesObjectForm(t *testing.T) {
	raw := `{"mode":"auto","start":"06:30","days":{"0":1,"1":0},"channels":{"0":1},"durations":{"0":15}}`

	var s Snapshot
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Mode != ModeAuto || s.Start != "06:30" {
		t.Fatalf("unexpected header fields: %+v", s)
	}
	if s.Days[0] != 1 || s.Days[1] != 0 || len(s.Days) != 2 {
		t.Fatalf("days: %v", s.Days)
	}
	if s.Channels[0] != ChannelOn {
		t.Fatalf("channels: %v", s.Channels)
	}
	if s.Durations[0] != 15 {
		t.Fatalf("durations: %v", s.Durations)
	}
}

func TestSnapshot_DecodesArrayFormWithBooleans(t *testing.T) {
	raw := `{"mode":"manual","start":"23:05","days":[true,false,true,false,false,false,true],"channels":[1,-1,0],"durations":[0,10,20]}`

	var s Snapshot
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := map[int]int{0: 1, 1: 0, 2: 1, 3: 0, 4: 0, 5: 0, 6: 1}
	for k, v := range want {
		if s.Days[k] != v {
			t.Fatalf("day %d: got %d want %d", k, s.Days[k], v)
		}
	}
	if s.Channels[1] != ChannelWaiting {
		t.Fatalf("channel 1: got %d", s.Channels[1])
	}
	if s.Durations[2] != 20 {
		t.Fatalf("duration 2: got %d", s.Durations[2])
	}
}

func TestIndexedInts_Errors(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"scalar", `5`},
		{"bad key", `{"x":1}`},
		{"bad value", `{"0":{"a":1}}`},
		{"bad string value", `["on"]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var m IndexedInts
			if err := json.Unmarshal([]byte(tc.in), &m); err == nil {
				t.Fatalf("expected error for %s, got %v", tc.in, m)
			}
		})
	}
}

func TestIndexedInts_NumericStringsAndKeysOrder(t *testing.T) {
	var m IndexedInts
	if err := json.Unmarshal([]byte(`{"10":"5","2":3}`), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	keys := m.Keys()
	if len(keys) != 2 || keys[0] != 2 || keys[1] != 10 {
		t.Fatalf("keys: %v", keys)
	}
	if m[10] != 5 {
		t.Fatalf("m[10]=%d", m[10])
	}

	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"10":5,"2":3}` {
		t.Fatalf("marshal: %s", b)
	}
}
