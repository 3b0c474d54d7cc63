package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"budgetbox/internal/core"
)

type fakeVerifier struct {
	subjects map[string]string
}

func (f fakeVerifier) Verify(ctx context.Context, token string) (string, error) {
	subject, ok := f.subjects[token]
	if !ok {
		return "", fmt.Errorf("%w: unknown token", ErrUnauthorized)
	}
	return subject, nil
}

type fakeUserStore struct {
	users map[string]core.User
}

func (f fakeUserStore) GetOrCreateUserByClerkID(ctx context.Context, clerkUserID string) (core.User, bool, error) {
	if user, ok := f.users[clerkUserID]; ok {
		return user, false, nil
	}
	user := core.User{ID: int64(len(f.users) + 1), ClerkUserID: clerkUserID}
	f.users[clerkUserID] = user
	return user, true, nil
}

func TestRequireUser(t *testing.T) {
	mw := NewMiddleware(
		fakeVerifier{subjects: map[string]string{"good-token": "user_123"}},
		fakeUserStore{users: make(map[string]core.User)},
	)

	var gotUser core.User
	var called bool
	handler := mw.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		gotUser, _ = UserFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing header", func(t *testing.T) {
		called = false
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rr.Code)
		}
		if called {
			t.Error("handler should not run without a token")
		}
	})

	t.Run("non-bearer header", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic abc")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rr.Code)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rr.Code)
		}
		if called {
			t.Error("handler should not run with an invalid token")
		}
	})

	t.Run("valid token resolves user", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}
		if !called {
			t.Fatal("handler did not run")
		}
		if gotUser.ClerkUserID != "user_123" {
			t.Errorf("resolved user subject = %q, want user_123", gotUser.ClerkUserID)
		}
	})
}
