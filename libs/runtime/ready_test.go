package runtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestReadyzHonorsRegisteredChecks(t *testing.T) {
	pass := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("not configured") }

	readyz := func(mux *http.ServeMux) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		return rec
	}

	// No checks registered: always ready. A deployment that opts out of an
	// optional dependency must not register its check at all.
	if rec := readyz(NewBaseMux()); rec.Code != http.StatusOK {
		t.Fatalf("no checks: status = %d, want %d", rec.Code, http.StatusOK)
	}

	mux := NewBaseMux(ReadyCheck{Name: "db", Check: pass})
	if rec := readyz(mux); rec.Code != http.StatusOK {
		t.Fatalf("passing check: status = %d, want %d", rec.Code, http.StatusOK)
	}

	mux = NewBaseMux(
		ReadyCheck{Name: "db", Check: pass},
		ReadyCheck{Name: "kafka", Check: fail},
	)
	rec := readyz(mux)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("failing check: status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if body := rec.Body.String(); !strings.Contains(body, "kafka") {
		t.Fatalf("failure body %q should name the failing check", body)
	}
}

func TestHealthzAlwaysOK(t *testing.T) {
	mux := NewBaseMux(ReadyCheck{Name: "db", Check: func(context.Context) error { return errors.New("down") }})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
