package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/model"
	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/outbox"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubTx satisfies pgx.Tx for handler flows that never touch the connection.
type stubTx struct{ pgx.Tx }

func (stubTx) Commit(context.Context) error   { return nil }
func (stubTx) Rollback(context.Context) error { return nil }

type stubBookingStore struct {
	duplicate bool
	slotTaken int
	created   []model.Booking
	byID      map[string]model.Booking
}

func (s *stubBookingStore) Begin(context.Context) (pgx.Tx, error) { return stubTx{}, nil }

func (s *stubBookingStore) Create(_ context.Context, _ pgx.Tx, b model.Booking) (string, bool, error) {
	if s.duplicate {
		return "", false, nil
	}
	s.created = append(s.created, b)
	return "bk-1", true, nil
}

func (s *stubBookingStore) ListByEmail(_ context.Context, email string) ([]model.Booking, error) {
	var out []model.Booking
	for _, b := range s.byID {
		if b.Email == email {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *stubBookingStore) GetByID(_ context.Context, id string) (model.Booking, error) {
	b, ok := s.byID[id]
	if !ok {
		return model.Booking{}, pgx.ErrNoRows
	}
	return b, nil
}

func (s *stubBookingStore) CountSlotTaken(context.Context, string, string, string) (int, error) {
	return s.slotTaken, nil
}

type stubTreatmentLookup struct {
	options map[string]model.TreatmentOption
}

func (s *stubTreatmentLookup) GetByName(_ context.Context, name string) (model.TreatmentOption, error) {
	opt, ok := s.options[name]
	if !ok {
		return model.TreatmentOption{}, pgx.ErrNoRows
	}
	return opt, nil
}

type stubEventWriter struct {
	events []outbox.Event
}

func (s *stubEventWriter) Insert(_ context.Context, _ pgx.Tx, evt outbox.Event) error {
	s.events = append(s.events, evt)
	return nil
}

func postBooking(t *testing.T, h *BookingHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	return rec
}

func TestCreateBookingSuccess(t *testing.T) {
	store := &stubBookingStore{}
	events := &stubEventWriter{}
	h := NewBookingHandler(store, nil, events, testLogger(), false)

	rec := postBooking(t, h, `{"email":"alice@x.com","treatment":"Teeth Cleaning","appointment_date":"2024-01-01","slot":"10.00 AM - 10.30 AM"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}

	var resp createBookingResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Acknowledged || resp.ID != "bk-1" {
		t.Fatalf("response = %+v, want acknowledged with id bk-1", resp)
	}
	if len(store.created) != 1 {
		t.Fatalf("expected one booking insert, got %d", len(store.created))
	}
	if len(events.events) != 1 || events.events[0].EventType != outbox.EventBookingCreated {
		t.Fatalf("expected one %s event, got %+v", outbox.EventBookingCreated, events.events)
	}
}

func TestCreateBookingDuplicateNamesDate(t *testing.T) {
	store := &stubBookingStore{duplicate: true}
	events := &stubEventWriter{}
	h := NewBookingHandler(store, nil, events, testLogger(), false)

	rec := postBooking(t, h, `{"email":"alice@x.com","treatment":"Teeth Cleaning","appointment_date":"2024-01-01","slot":"10.00 AM - 10.30 AM"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp createBookingResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Acknowledged {
		t.Fatal("expected acknowledged=false for a duplicate booking")
	}
	if !strings.Contains(resp.Message, "2024-01-01") {
		t.Fatalf("message %q should name the appointment date", resp.Message)
	}
	if len(store.created) != 0 {
		t.Fatalf("duplicate must not insert, got %d inserts", len(store.created))
	}
	if len(events.events) != 0 {
		t.Fatalf("duplicate must not emit events, got %+v", events.events)
	}
}

func TestCreateBookingMissingFields(t *testing.T) {
	h := NewBookingHandler(&stubBookingStore{}, nil, &stubEventWriter{}, testLogger(), false)
	rec := postBooking(t, h, `{"email":"alice@x.com"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreateBookingSlotCapacityGate(t *testing.T) {
	treatments := &stubTreatmentLookup{options: map[string]model.TreatmentOption{
		"Teeth Cleaning": {Name: "Teeth Cleaning", Slots: []string{"9am", "10am", "11am"}},
	}}

	cases := []struct {
		name      string
		body      string
		slotTaken int
		want      int
	}{
		{"open slot booked", `{"email":"a@x.com","treatment":"Teeth Cleaning","appointment_date":"2024-01-01","slot":"10am"}`, 0, http.StatusCreated},
		{"taken slot rejected", `{"email":"a@x.com","treatment":"Teeth Cleaning","appointment_date":"2024-01-01","slot":"10am"}`, 1, http.StatusConflict},
		{"slot outside template rejected", `{"email":"a@x.com","treatment":"Teeth Cleaning","appointment_date":"2024-01-01","slot":"8pm"}`, 0, http.StatusConflict},
		{"unknown treatment rejected", `{"email":"a@x.com","treatment":"Bone Setting","appointment_date":"2024-01-01","slot":"10am"}`, 0, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &stubBookingStore{slotTaken: tc.slotTaken}
			h := NewBookingHandler(store, treatments, &stubEventWriter{}, testLogger(), true)
			rec := postBooking(t, h, tc.body)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestGetBookingOwnerOnly(t *testing.T) {
	store := &stubBookingStore{byID: map[string]model.Booking{
		"bk-1": {ID: "bk-1", Email: "alice@x.com", Treatment: "Teeth Cleaning"},
	}}
	h := NewBookingHandler(store, nil, &stubEventWriter{}, testLogger(), false)

	get := func(id, email string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/"+id, nil)
		req.SetPathValue("id", id)
		if email != "" {
			req = req.WithContext(context.WithValue(req.Context(), identityCtxKey{}, Identity{Email: email}))
		}
		rec := httptest.NewRecorder()
		h.Get(rec, req)
		return rec
	}

	if rec := get("bk-1", "alice@x.com"); rec.Code != http.StatusOK {
		t.Fatalf("owner read: status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec := get("bk-1", "mallory@x.com"); rec.Code != http.StatusForbidden {
		t.Fatalf("non-owner read: status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if rec := get("bk-1", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("identityless read: status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if rec := get("bk-404", "alice@x.com"); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown id: status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
