package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/atinyakov/minihub/internal/models"
)

// dummyHandler is a placeholder that records if it was called and the context it received.
type dummyHandler struct {
	called bool
	ctx    context.Context
}

func (d *dummyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.called = true
	d.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

type tokenMap map[string]*models.User

func (m tokenMap) Authenticate(_ context.Context, token string) (*models.User, error) {
	if u, ok := m[token]; ok {
		return u, nil
	}
	return nil, errors.New("bad token")
}

var tokens = tokenMap{
	"good":  {ID: "alice", Role: models.RoleUser},
	"admin": {ID: "root", Role: models.RoleAdmin},
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantCalled bool
		wantCode   int
		wantUser   string
	}{
		{name: "missing header", wantCode: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", wantCode: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer nope", wantCode: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer good", wantCalled: true, wantCode: http.StatusOK, wantUser: "alice"},
		{name: "lowercase scheme", header: "bearer good", wantCalled: true, wantCode: http.StatusOK, wantUser: "alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dummy := &dummyHandler{}
			h := RequireAuth(tokens)(dummy)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			h.ServeHTTP(rec, req)

			if dummy.called != tt.wantCalled {
				t.Fatalf("next called = %v; want %v", dummy.called, tt.wantCalled)
			}
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d; want %d", rec.Code, tt.wantCode)
			}
			if tt.wantCalled {
				if got := GetUserIDFromContext(dummy.ctx); got != tt.wantUser {
					t.Errorf("context user = %q; want %q", got, tt.wantUser)
				}
			} else if !strings.Contains(rec.Body.String(), `"error"`) {
				t.Errorf("body = %q; want error envelope", rec.Body.String())
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	for header, want := range map[string]string{"": "", "Bearer nope": "", "Bearer good": "alice"} {
		dummy := &dummyHandler{}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/feedback", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		OptionalAuth(tokens)(dummy).ServeHTTP(rec, req)

		if !dummy.called {
			t.Fatalf("header %q: next not called", header)
		}
		if got := GetUserIDFromContext(dummy.ctx); got != want {
			t.Errorf("header %q: user = %q; want %q", header, got, want)
		}
	}
}

func TestRequireAdmin(t *testing.T) {
	for token, wantCode := range map[string]int{"good": http.StatusForbidden, "admin": http.StatusOK} {
		dummy := &dummyHandler{}
		h := RequireAuth(tokens)(RequireAdmin(dummy))
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		h.ServeHTTP(rec, req)

		if rec.Code != wantCode {
			t.Errorf("token %q: status = %d; want %d", token, rec.Code, wantCode)
		}
	}
}

func TestGetUserIDFromContext_Empty(t *testing.T) {
	if got := GetUserIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty user id, got %q", got)
	}
}

func TestWithRequestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	h := WithRequestLogging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("hello"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/notes", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["method"] != http.MethodPost || fields["path"] != "/api/notes" {
		t.Errorf("unexpected fields: %v", fields)
	}
	if fields["status"] != int64(http.StatusCreated) {
		t.Errorf("status = %v; want %d", fields["status"], http.StatusCreated)
	}
	if fields["size"] != int64(5) {
		t.Errorf("size = %v; want 5", fields["size"])
	}
}
