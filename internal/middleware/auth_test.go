package middleware

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/skillbridge/internal/model"
)

// --- モック ---

type stubAuthenticator struct {
	users map[string]*model.User
	err   error
}

func (s *stubAuthenticator) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[token]
	if !ok {
		return nil, model.NewUnauthenticatedError()
	}
	return u, nil
}

func newStub() *stubAuthenticator {
	return &stubAuthenticator{users: map[string]*model.User{
		"employer-token": {ID: "emp-1", Role: model.RoleEmployer},
	}}
}

func captureIdentity(got **model.Identity, called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		*got = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

// --- テスト ---

func TestAuthMiddleware_ValidToken(t *testing.T) {
	var identity *model.Identity
	var called bool
	handler := NewAuthMiddleware(newStub())(captureIdentity(&identity, &called))

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/employer/my-jobs", nil)
	req.Header.Set("Authorization", "Bearer employer-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if identity == nil || identity.ID != "emp-1" || identity.Role != model.RoleEmployer {
		t.Errorf("identity = %+v, want emp-1/employer", identity)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"wrong scheme", "Basic employer-token"},
		{"empty token", "Bearer "},
		{"unknown token", "Bearer forged"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var identity *model.Identity
			var called bool
			handler := NewAuthMiddleware(newStub())(captureIdentity(&identity, &called))

			req := httptest.NewRequest(http.MethodPost, "/api/jobs", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			if called {
				t.Error("handler should not be called")
			}
			var body ErrorResponseBody
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			if body.Code != model.ErrCodeUnauthenticated {
				t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUnauthenticated)
			}
		})
	}
}

func TestAuthMiddleware_CaseInsensitiveScheme(t *testing.T) {
	var identity *model.Identity
	var called bool
	handler := NewAuthMiddleware(newStub())(captureIdentity(&identity, &called))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer employer-token")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if identity == nil {
		t.Error("expected identity for lowercase scheme")
	}
}

func TestAuthMiddleware_StorageErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unavailable", fmt.Errorf("find user: %w", driver.ErrBadConn), http.StatusServiceUnavailable},
		{"internal", fmt.Errorf("scan failed"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var identity *model.Identity
			var called bool
			handler := NewAuthMiddleware(&stubAuthenticator{err: tt.err})(captureIdentity(&identity, &called))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer anything")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if called {
				t.Error("handler should not be called")
			}
		})
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	t.Run("anonymous passes through", func(t *testing.T) {
		var identity *model.Identity
		var called bool
		handler := NewOptionalAuthMiddleware(newStub())(captureIdentity(&identity, &called))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))

		if !called || identity != nil {
			t.Errorf("called = %v, identity = %+v; want called with nil identity", called, identity)
		}
	})

	t.Run("valid token sets identity", func(t *testing.T) {
		var identity *model.Identity
		var called bool
		handler := NewOptionalAuthMiddleware(newStub())(captureIdentity(&identity, &called))

		req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
		req.Header.Set("Authorization", "Bearer employer-token")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		if identity == nil || identity.ID != "emp-1" {
			t.Errorf("identity = %+v, want emp-1", identity)
		}
	})

	t.Run("invalid token rejected", func(t *testing.T) {
		var identity *model.Identity
		var called bool
		handler := NewOptionalAuthMiddleware(newStub())(captureIdentity(&identity, &called))

		req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
		req.Header.Set("Authorization", "Bearer expired")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized || called {
			t.Errorf("status = %d, called = %v; want 401 without calling handler", w.Code, called)
		}
	})
}

func TestIdentityFromContext_Empty(t *testing.T) {
	if got := IdentityFromContext(context.Background()); got != nil {
		t.Errorf("IdentityFromContext = %+v, want nil", got)
	}
}
