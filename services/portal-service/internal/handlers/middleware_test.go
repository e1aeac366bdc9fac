package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arafat-hossain/doctors-portal/libs/auth"
	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/model"
)

const testSecret = "test-secret"

type stubRoleLookup struct {
	users map[string]model.User
}

func (s *stubRoleLookup) GetByEmail(_ context.Context, email string) (model.User, error) {
	u, ok := s.users[email]
	if !ok {
		return model.User{}, errors.New("no rows")
	}
	return u, nil
}

func okHandler(t *testing.T, wantEmail string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			t.Errorf("expected identity in context")
		}
		if wantEmail != "" && identity.Email != wantEmail {
			t.Errorf("identity email = %q, want %q", identity.Email, wantEmail)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticatedMissingHeader(t *testing.T) {
	h := Authenticated(testSecret, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("handler should not run without a credential")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuthenticatedBadToken(t *testing.T) {
	cases := map[string]string{
		"garbage":      "Bearer not-a-token",
		"empty bearer": "Bearer ",
		"wrong scheme": "Basic YWJjOmRlZg==",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			h := Authenticated(testSecret, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Errorf("handler should not run with a bad credential")
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
			req.Header.Set("Authorization", header)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			want := http.StatusForbidden
			if header == "Basic YWJjOmRlZg==" || header == "Bearer " {
				want = http.StatusUnauthorized
			}
			if rec.Code != want {
				t.Fatalf("status = %d, want %d", rec.Code, want)
			}
		})
	}
}

func TestAuthenticatedExpiredToken(t *testing.T) {
	token, err := auth.Sign("patient@example.com", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	h := Authenticated(testSecret, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("handler should not run with an expired credential")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestAuthenticatedValidToken(t *testing.T) {
	token, err := auth.Sign("patient@example.com", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	h := Authenticated(testSecret, okHandler(t, "patient@example.com"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestAdminOnly(t *testing.T) {
	lookup := &stubRoleLookup{users: map[string]model.User{
		"admin@example.com":   {Email: "admin@example.com", Role: model.RoleAdmin},
		"patient@example.com": {Email: "patient@example.com"},
	}}

	cases := []struct {
		name  string
		email string
		want  int
	}{
		{"admin passes", "admin@example.com", http.StatusOK},
		{"non-admin rejected", "patient@example.com", http.StatusForbidden},
		{"unknown email rejected", "ghost@example.com", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token, err := auth.Sign(tc.email, testSecret, time.Hour)
			if err != nil {
				t.Fatalf("sign: %v", err)
			}

			h := AdminOnly(testSecret, lookup, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestAdminOnlyWithoutToken(t *testing.T) {
	lookup := &stubRoleLookup{users: map[string]model.User{}}
	h := AdminOnly(testSecret, lookup, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("handler should not run without a credential")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireSelf(t *testing.T) {
	identity := Identity{Email: "patient@example.com"}
	if !requireSelf(identity, "patient@example.com") {
		t.Fatalf("expected matching email to pass")
	}
	if requireSelf(identity, "other@example.com") {
		t.Fatalf("expected mismatched email to fail")
	}
	if requireSelf(identity, "Patient@Example.com") {
		t.Fatalf("expected email comparison to be exact")
	}
}
