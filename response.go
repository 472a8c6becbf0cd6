package irrigation_panel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Mode values exchanged with the controller.
const (
	ModeAuto   = "auto"
	ModeManual = "manual"
)

// Channel state values reported by getAll and the switch macros.
const (
	ChannelWaiting = -1
	ChannelOff     = 0
	ChannelOn      = 1
)

const (
	// Channels is the number of relay channels; channel 0 is the master.
	Channels = 16
	// Days is the number of schedulable week days (0 = Monday).
	Days = 7
)

// Snapshot is the full controller state returned by the getAll macro.
type Snapshot struct {
	Mode      string      `json:"mode"`      // auto | manual
	Start     string      `json:"start"`     // "HH:MM", 24h
	Days      IndexedInts `json:"days"`      // day -> 0/1
	Channels  IndexedInts `json:"channels"`  // channel -> -1/0/1
	Durations IndexedInts `json:"durations"` // channel -> minutes
}

// IndexedInts maps a small integer index to an integer value.
//
// It decodes from either an object keyed by decimal index ({"0":1,"3":0}) or an
// array ([1,0,true,false]) where the position is the index. Booleans decode to 0/1.
// It always encodes as an object.
type IndexedInts map[int]int

// Keys returns the indexes in ascending order.
func (m IndexedInts) Keys() []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func (m IndexedInts) MarshalJSON() ([]byte, error) {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[strconv.Itoa(k)] = v
	}
	return json.Marshal(out)
}

func (m *IndexedInts) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = nil
		return nil
	}
	out := IndexedInts{}
	switch {
	case len(b) > 0 && b[0] == '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		for i, r := range raw {
			v, err := decodeFlag(r)
			if err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = v
		}
	case len(b) > 0 && b[0] == '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		for k, r := range raw {
			idx, err := strconv.Atoi(k)
			if err != nil {
				return fmt.Errorf("invalid index %q", k)
			}
			v, err := decodeFlag(r)
			if err != nil {
				return fmt.Errorf("index %d: %w", idx, err)
			}
			out[idx] = v
		}
	default:
		return fmt.Errorf("expected object or array, got %q", string(b))
	}
	*m = out
	return nil
}

// decodeFlag accepts a JSON number, boolean or numeric string.
func decodeFlag(r json.RawMessage) (int, error) {
	var n json.Number
	if err := json.Unmarshal(r, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, err
		}
		return int(f), nil
	}
	var bv bool
	if err := json.Unmarshal(r, &bv); err == nil {
		if bv {
			return 1, nil
		}
		return 0, nil
	}
	var s string
	if err := json.Unmarshal(r, &s); err == nil {
		return strconv.Atoi(s)
	}
	return 0, fmt.Errorf("unsupported value %s", string(r))
}
