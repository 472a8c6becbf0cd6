package handlers

import (
	"context"
	"net/http"
	"sync"

	irrigation "irrigation_panel"
	"irrigation_panel/internal/models"
	"irrigation_panel/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error
	authID        int
	authErr       error

	lastSignUpUsername string
	lastGenUsername    string
	lastParseToken     string
	lastAuthUsername   string
	lastAuthPassword   string
}

func (m *mockAuth) SignUp(ctx context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	return m.signUpID, m.signUpErr
}

func (m *mockAuth) GenerateToken(ctx context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	return m.genTokenToken, m.genTokenErr
}

func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

func (m *mockAuth) Authenticate(ctx context.Context, username, password string) (int, error) {
	m.lastAuthUsername = username
	m.lastAuthPassword = password
	return m.authID, m.authErr
}

// mockController records macro calls and returns canned replies.
// record is safe for concurrent use; the canned fields are set before use.
type mockController struct {
	mu       sync.Mutex
	snapshot irrigation.Snapshot
	mode     string
	reply    int
	err      error

	calls []string
	args  []any
}

func (m *mockController) recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockController) record(name string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
	m.args = args
}

func (m *mockController) Snapshot() irrigation.Snapshot {
	m.record("Snapshot")
	return m.snapshot
}

func (m *mockController) SetMode(ctx context.Context, mode string) string {
	m.record("SetMode", mode)
	return m.mode
}

func (m *mockController) SetStart(ctx context.Context, hour, minute int) (string, error) {
	m.record("SetStart", hour, minute)
	if m.err != nil {
		return "", m.err
	}
	return "07:05", nil
}

func (m *mockController) SetDay(ctx context.Context, day int, enabled bool) (int, error) {
	m.record("SetDay", day, enabled)
	return m.reply, m.err
}

func (m *mockController) SetDuration(ctx context.Context, channel, minutes int) (int, error) {
	m.record("SetDuration", channel, minutes)
	return m.reply, m.err
}

func (m *mockController) SwitchMaster(ctx context.Context, on bool) (int, error) {
	m.record("SwitchMaster", on)
	return m.reply, m.err
}

func (m *mockController) SwitchChannel(ctx context.Context, channel int, on bool) (int, error) {
	m.record("SwitchChannel", channel, on)
	return m.reply, m.err
}

type mockEventLog struct {
	resp   []models.ChannelEvent
	err    error
	filter service.LogFilter
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.ChannelEvent, error) {
	m.filter = f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service, opts Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewHandler(s, nil, opts).InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
