package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/model"
	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/outbox"
)

type stubPaymentStore struct {
	inserted []model.Payment
}

func (s *stubPaymentStore) Insert(_ context.Context, _ pgx.Tx, p model.Payment) (string, error) {
	s.inserted = append(s.inserted, p)
	return "pay-1", nil
}

func (s *stubPaymentStore) ListByEmail(context.Context, string) ([]model.Payment, error) {
	return s.inserted, nil
}

type stubBookingMarker struct {
	rows   int64
	marked []string
}

func (s *stubBookingMarker) Begin(context.Context) (pgx.Tx, error) { return stubTx{}, nil }

func (s *stubBookingMarker) MarkPaid(_ context.Context, _ pgx.Tx, bookingID, _ string) (int64, error) {
	s.marked = append(s.marked, bookingID)
	return s.rows, nil
}

func postPayment(t *testing.T, h *PaymentHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Record(rec, req)
	return rec
}

func TestRecordPaymentMarksBooking(t *testing.T) {
	ledger := &stubPaymentStore{}
	bookings := &stubBookingMarker{rows: 1}
	events := &stubEventWriter{}
	h := NewPaymentHandler(ledger, bookings, events, testLogger(), "")

	rec := postPayment(t, h, `{"booking_id":"bk-1","email":"alice@x.com","price_cents":5000,"transaction_id":"tx1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if len(bookings.marked) != 1 || bookings.marked[0] != "bk-1" {
		t.Fatalf("expected booking bk-1 marked paid, got %v", bookings.marked)
	}
	if len(events.events) != 1 || events.events[0].EventType != outbox.EventPaymentRecorded {
		t.Fatalf("expected one %s event, got %+v", outbox.EventPaymentRecorded, events.events)
	}
}

func TestRecordPaymentUnknownBookingStillRecorded(t *testing.T) {
	ledger := &stubPaymentStore{}
	bookings := &stubBookingMarker{rows: 0}
	events := &stubEventWriter{}
	h := NewPaymentHandler(ledger, bookings, events, testLogger(), "")

	rec := postPayment(t, h, `{"booking_id":"bk-stale","email":"alice@x.com","price_cents":5000,"transaction_id":"tx2"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}

	var resp recordPaymentResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Acknowledged || resp.ID != "pay-1" {
		t.Fatalf("response = %+v, want acknowledged with id pay-1", resp)
	}
	if len(ledger.inserted) != 1 {
		t.Fatalf("ledger row must survive an unknown booking id, got %d inserts", len(ledger.inserted))
	}
	if len(events.events) != 1 {
		t.Fatalf("expected the payment event despite the unknown booking, got %+v", events.events)
	}
}

func TestRecordPaymentMissingFields(t *testing.T) {
	h := NewPaymentHandler(&stubPaymentStore{}, &stubBookingMarker{}, &stubEventWriter{}, testLogger(), "")
	rec := postPayment(t, h, `{"email":"alice@x.com"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreateIntentUnconfigured(t *testing.T) {
	h := NewPaymentHandler(&stubPaymentStore{}, &stubBookingMarker{}, &stubEventWriter{}, testLogger(), "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment-intent", strings.NewReader(`{"price_cents":5000}`))
	rec := httptest.NewRecorder()
	h.CreateIntent(rec, req)
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotImplemented)
	}
}
