package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/model"
	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/outbox"
	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/storage"
)

// BookingStore is the persistence surface the booking handler runs on.
// *storage.BookingRepository satisfies it.
type BookingStore interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Create(ctx context.Context, tx pgx.Tx, b model.Booking) (string, bool, error)
	ListByEmail(ctx context.Context, email string) ([]model.Booking, error)
	GetByID(ctx context.Context, id string) (model.Booking, error)
	CountSlotTaken(ctx context.Context, treatment, date, slot string) (int, error)
}

// TreatmentLookup resolves a treatment name to its catalog entry.
type TreatmentLookup interface {
	GetByName(ctx context.Context, name string) (model.TreatmentOption, error)
}

// EventWriter appends a domain event inside the caller's transaction.
type EventWriter interface {
	Insert(ctx context.Context, tx pgx.Tx, evt outbox.Event) error
}

type BookingHandler struct {
	repo       BookingStore
	treatments TreatmentLookup
	outboxRepo EventWriter
	logger     *slog.Logger

	// enforceSlotCapacity additionally rejects a booking whose slot is already
	// held by anyone for that (treatment, date), or is not in the treatment's
	// template. Off by default: the upstream portal allowed two patients to
	// book the same slot, and some deployments depend on that.
	enforceSlotCapacity bool
}

func NewBookingHandler(repo BookingStore, treatments TreatmentLookup, outboxRepo EventWriter, logger *slog.Logger, enforceSlotCapacity bool) *BookingHandler {
	return &BookingHandler{
		repo:                repo,
		treatments:          treatments,
		outboxRepo:          outboxRepo,
		logger:              logger,
		enforceSlotCapacity: enforceSlotCapacity,
	}
}

type createBookingRequest struct {
	Email           string `json:"email"`
	Treatment       string `json:"treatment"`
	AppointmentDate string `json:"appointment_date"`
	Slot            string `json:"slot"`
	PatientName     string `json:"patient_name"`
	Phone           string `json:"phone"`
	PriceCents      int64  `json:"price_cents"`
}

type createBookingResponse struct {
	Acknowledged bool   `json:"acknowledged"`
	ID           string `json:"id,omitempty"`
	Message      string `json:"message,omitempty"`
}

// Create books a slot. One booking per (email, treatment, date): a duplicate
// is not an error but an acknowledged=false response naming the date, which
// the frontend shows to the patient as-is.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Treatment = strings.TrimSpace(req.Treatment)
	req.AppointmentDate = strings.TrimSpace(req.AppointmentDate)
	req.Slot = strings.TrimSpace(req.Slot)
	if req.Email == "" || req.Treatment == "" || req.AppointmentDate == "" || req.Slot == "" {
		http.Error(w, "email, treatment, appointment_date and slot are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if h.enforceSlotCapacity {
		if ok := h.checkSlotOpen(w, r, req); !ok {
			return
		}
	}

	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id, created, err := h.repo.Create(ctx, tx, model.Booking{
		Email:           req.Email,
		Treatment:       req.Treatment,
		AppointmentDate: req.AppointmentDate,
		Slot:            req.Slot,
		PatientName:     strings.TrimSpace(req.PatientName),
		Phone:           strings.TrimSpace(req.Phone),
		PriceCents:      req.PriceCents,
	})
	if err != nil {
		http.Error(w, "failed to create booking", http.StatusInternalServerError)
		return
	}
	if !created {
		writeJSON(w, http.StatusOK, createBookingResponse{
			Acknowledged: false,
			Message:      fmt.Sprintf("you already have a booking on %s", req.AppointmentDate),
		})
		return
	}

	payload, err := json.Marshal(map[string]any{
		"booking_id":       id,
		"email":            req.Email,
		"treatment":        req.Treatment,
		"appointment_date": req.AppointmentDate,
		"slot":             req.Slot,
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "booking",
		AggregateID:   id,
		EventType:     outbox.EventBookingCreated,
		Payload:       payload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, createBookingResponse{Acknowledged: true, ID: id})
}

func (h *BookingHandler) checkSlotOpen(w http.ResponseWriter, r *http.Request, req createBookingRequest) bool {
	opt, err := h.treatments.GetByName(r.Context(), req.Treatment)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "unknown treatment", http.StatusNotFound)
			return false
		}
		http.Error(w, "failed to load treatment", http.StatusInternalServerError)
		return false
	}

	inTemplate := false
	for _, s := range opt.Slots {
		if s == req.Slot {
			inTemplate = true
			break
		}
	}
	if !inTemplate {
		http.Error(w, "slot is not offered for this treatment", http.StatusConflict)
		return false
	}

	taken, err := h.repo.CountSlotTaken(r.Context(), req.Treatment, req.AppointmentDate, req.Slot)
	if err != nil {
		http.Error(w, "failed to check slot", http.StatusInternalServerError)
		return false
	}
	if taken > 0 {
		http.Error(w, "slot already booked", http.StatusConflict)
		return false
	}
	return true
}

// ListMine returns the caller's own bookings. The query email must match the
// verified identity exactly; reading another user's bookings is 403.
func (h *BookingHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "forbidden access", http.StatusForbidden)
		return
	}

	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		http.Error(w, "email is required", http.StatusBadRequest)
		return
	}
	if !requireSelf(identity, email) {
		http.Error(w, "forbidden access", http.StatusForbidden)
		return
	}

	bookings, err := h.repo.ListByEmail(r.Context(), email)
	if err != nil {
		http.Error(w, "failed to list bookings", http.StatusInternalServerError)
		return
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

// Get serves the payment page's read-back of a single booking by id. Only
// the booking's owner may read it; a booking record carries the patient's
// contact details.
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "forbidden access", http.StatusForbidden)
		return
	}

	id := r.PathValue("id")
	booking, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "booking not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load booking", http.StatusInternalServerError)
		return
	}
	if !requireSelf(identity, booking.Email) {
		http.Error(w, "forbidden access", http.StatusForbidden)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}
