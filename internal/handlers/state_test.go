package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	irrigation "irrigation_panel"
	"irrigation_panel/internal/service"
)

func TestGetState(t *testing.T) {
	ctrl := &mockController{snapshot: irrigation.Snapshot{
		Mode:     irrigation.ModeAuto,
		Start:    "05:45",
		Channels: irrigation.IndexedInts{0: 1, 1: 1, 2: -1},
	}}
	r := newTestRouter(&service.Service{Controller: ctrl, Authorization: &mockAuth{parseID: 1}}, Options{Auth: true})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/state", nil)
	req.Header = authHeader("token")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got irrigation.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Start != "05:45" || got.Channels[2] != irrigation.ChannelWaiting {
		t.Fatalf("unexpected state: %+v", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/state", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d; want 401 without token", w.Code)
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&service.Service{}, Options{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || w.Body.String() != `{"status":"ok"}` {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
}
