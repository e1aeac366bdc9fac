package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"

	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/model"
	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/outbox"
)

// PaymentStore writes and reads the payment ledger. *storage.PaymentRepository
// satisfies it.
type PaymentStore interface {
	Insert(ctx context.Context, tx pgx.Tx, p model.Payment) (string, error)
	ListByEmail(ctx context.Context, email string) ([]model.Payment, error)
}

// BookingMarker is the slice of the booking store the payment flow touches.
type BookingMarker interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	MarkPaid(ctx context.Context, tx pgx.Tx, bookingID, transactionID string) (int64, error)
}

type PaymentHandler struct {
	payments        PaymentStore
	bookings        BookingMarker
	outboxRepo      EventWriter
	logger          *slog.Logger
	stripeSecretKey string
}

func NewPaymentHandler(payments PaymentStore, bookings BookingMarker, outboxRepo EventWriter, logger *slog.Logger, stripeSecretKey string) *PaymentHandler {
	return &PaymentHandler{
		payments:        payments,
		bookings:        bookings,
		outboxRepo:      outboxRepo,
		logger:          logger,
		stripeSecretKey: stripeSecretKey,
	}
}

type createIntentRequest struct {
	PriceCents int64 `json:"price_cents"`
}

type createIntentResponse struct {
	ClientSecret string `json:"client_secret"`
}

// CreateIntent opens a card PaymentIntent for the amount on the booking.
// Amounts are already stored in cents, so no unit conversion happens here.
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	if strings.TrimSpace(h.stripeSecretKey) == "" {
		http.Error(w, "payments are not configured", http.StatusNotImplemented)
		return
	}

	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.PriceCents <= 0 {
		http.Error(w, "price_cents must be positive", http.StatusBadRequest)
		return
	}

	// Stripe uses a global API key. Keep usage limited to this handler call.
	stripe.Key = h.stripeSecretKey

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.PriceCents),
		Currency:           stripe.String(string(stripe.CurrencyUSD)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	if idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key")); idemKey != "" {
		params.IdempotencyKey = stripe.String(idemKey)
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		h.logger.Error("stripe payment intent create failed", "err", err)
		http.Error(w, "failed to create payment intent", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, createIntentResponse{ClientSecret: intent.ClientSecret})
}

type recordPaymentRequest struct {
	BookingID     string `json:"booking_id"`
	Email         string `json:"email"`
	PriceCents    int64  `json:"price_cents"`
	TransactionID string `json:"transaction_id"`
}

type recordPaymentResponse struct {
	Acknowledged bool   `json:"acknowledged"`
	ID           string `json:"id"`
}

// Record stores a confirmed payment and flips the booking to paid in the same
// transaction. A payment against an unknown booking is still recorded; the
// mismatch is logged rather than rejected so the money trail is never dropped.
func (h *PaymentHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req recordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	req.BookingID = strings.TrimSpace(req.BookingID)
	req.Email = strings.TrimSpace(req.Email)
	req.TransactionID = strings.TrimSpace(req.TransactionID)
	if req.BookingID == "" || req.Email == "" || req.TransactionID == "" {
		http.Error(w, "booking_id, email and transaction_id are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.bookings.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	paymentID, err := h.payments.Insert(ctx, tx, model.Payment{
		BookingID:     req.BookingID,
		Email:         req.Email,
		PriceCents:    req.PriceCents,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		http.Error(w, "failed to record payment", http.StatusInternalServerError)
		return
	}

	updated, err := h.bookings.MarkPaid(ctx, tx, req.BookingID, req.TransactionID)
	if err != nil {
		http.Error(w, "failed to update booking", http.StatusInternalServerError)
		return
	}
	if updated == 0 {
		h.logger.Warn("payment recorded for unknown booking",
			"booking_id", req.BookingID, "transaction_id", req.TransactionID)
	}

	payload, err := json.Marshal(map[string]any{
		"payment_id":     paymentID,
		"booking_id":     req.BookingID,
		"email":          req.Email,
		"price_cents":    req.PriceCents,
		"transaction_id": req.TransactionID,
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "payment",
		AggregateID:   paymentID,
		EventType:     outbox.EventPaymentRecorded,
		Payload:       payload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, recordPaymentResponse{Acknowledged: true, ID: paymentID})
}

// ListMine returns the caller's payment history, newest first.
func (h *PaymentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "forbidden access", http.StatusForbidden)
		return
	}

	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		email = identity.Email
	}
	if !requireSelf(identity, email) {
		http.Error(w, "forbidden access", http.StatusForbidden)
		return
	}

	payments, err := h.payments.ListByEmail(r.Context(), email)
	if err != nil {
		http.Error(w, "failed to list payments", http.StatusInternalServerError)
		return
	}
	if payments == nil {
		payments = []model.Payment{}
	}
	writeJSON(w, http.StatusOK, payments)
}
