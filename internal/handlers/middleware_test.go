package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"irrigation_panel/internal/service"

	"github.com/gin-gonic/gin"
)

// minimal router wiring only the middleware + a protected endpoint
func newMiddlewareOnlyRouter(s *service.Service, auth bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(s, nil, Options{Auth: auth})
	r.GET("/secure", h.authMiddleware, func(c *gin.Context) {
		uid, _ := c.Get(ctxUserID)
		c.JSON(http.StatusOK, gin.H{"ok": true, "userId": uid})
	})
	return r
}

func basic(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}

func TestAuthMiddleware_Errors(t *testing.T) {
	cases := []struct {
		name    string
		header  string
		auth    *mockAuth
		wantMsg string
	}{
		{name: "missing header", header: "", auth: &mockAuth{}, wantMsg: errMissingAuth},
		{name: "invalid scheme", header: "Token abc", auth: &mockAuth{}, wantMsg: errAuthFormat},
		{name: "bearer without token", header: "Bearer", auth: &mockAuth{}, wantMsg: errAuthFormat},
		{
			name:    "expired token",
			header:  "Bearer expired",
			auth:    &mockAuth{parseErr: errors.New("expired")},
			wantMsg: errBadToken,
		},
		{
			name:    "wrong basic credentials",
			header:  "Basic " + basic("gardener", "nope"),
			auth:    &mockAuth{authErr: service.ErrInvalidPassword},
			wantMsg: errBadCreds,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newMiddlewareOnlyRouter(&service.Service{Authorization: tc.auth}, true)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/secure", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status: got %d, want 401 (body=%s)", w.Code, w.Body.String())
			}
			var out struct {
				Error string `json:"error"`
			}
			_ = json.Unmarshal(w.Body.Bytes(), &out)
			if out.Error != tc.wantMsg {
				t.Fatalf("error message: got %q, want %q", out.Error, tc.wantMsg)
			}
		})
	}
}

func TestAuthMiddleware_Success(t *testing.T) {
	cases := []struct {
		name   string
		header string
		auth   *mockAuth
		wantID int
	}{
		{name: "bearer", header: "Bearer good-token", auth: &mockAuth{parseID: 123}, wantID: 123},
		{name: "basic", header: "Basic " + basic("gardener", "s3cr3t"), auth: &mockAuth{authID: 7}, wantID: 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newMiddlewareOnlyRouter(&service.Service{Authorization: tc.auth}, true)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/secure", nil)
			req.Header.Set("Authorization", tc.header)
			r.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("status: got %d; body=%s", w.Code, w.Body.String())
			}
			var resp struct {
				OK     bool `json:"ok"`
				UserID int  `json:"userId"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !resp.OK || resp.UserID != tc.wantID {
				t.Fatalf("unexpected response: %+v", resp)
			}
		})
	}
}

func TestAuthMiddleware_BasicPassesCredentials(t *testing.T) {
	auth := &mockAuth{authID: 1}
	r := newMiddlewareOnlyRouter(&service.Service{Authorization: auth}, true)

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.SetBasicAuth("gardener", "s3cr3t")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if auth.lastAuthUsername != "gardener" || auth.lastAuthPassword != "s3cr3t" {
		t.Fatalf("Authenticate got %q/%q", auth.lastAuthUsername, auth.lastAuthPassword)
	}
}

func TestAuthMiddleware_DisabledLetsEverythingThrough(t *testing.T) {
	r := newMiddlewareOnlyRouter(&service.Service{}, false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/secure", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
}
