package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codecourse/internal/policy"
	"codecourse/internal/security"
)

func TestRequireAuthRedirectsWithoutCookie(t *testing.T) {
	m := NewMiddleware(nil, policy.NewGate(), nil)

	called := false
	handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	recorder := httptest.NewRecorder()
	handler(recorder, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	if called {
		t.Error("protected handler ran without a session")
	}
	if recorder.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", recorder.Code)
	}
	if loc := recorder.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	limiter := security.NewRateLimiter(2, time.Minute)
	m := NewMiddleware(nil, policy.NewGate(), limiter)

	calls := 0
	handler := m.RateLimit(func(w http.ResponseWriter, r *http.Request) {
		calls++
	})

	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodPost, "/login", nil)
		r.RemoteAddr = "203.0.113.5:12345"
		recorder := httptest.NewRecorder()
		handler(recorder, r)

		if i < 2 && recorder.Code == http.StatusTooManyRequests {
			t.Fatalf("request %d blocked under the limit", i+1)
		}
		if i == 2 && recorder.Code != http.StatusTooManyRequests {
			t.Fatalf("request %d not blocked over the limit, status %d", i+1, recorder.Code)
		}
	}

	if calls != 2 {
		t.Errorf("handler ran %d times, want 2", calls)
	}
}

func TestRateLimitWithoutLimiterPassesThrough(t *testing.T) {
	m := NewMiddleware(nil, policy.NewGate(), nil)

	called := false
	handler := m.RateLimit(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/login", nil))

	if !called {
		t.Error("handler did not run with a nil limiter")
	}
}

func TestGetUserFromContextWithoutUser(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if user := GetUserFromContext(r.Context()); user != nil {
		t.Errorf("GetUserFromContext() = %v, want nil", user)
	}
}
