package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/availability"
	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/model"
	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/storage"
)

type AvailabilityHandler struct {
	treatments *storage.TreatmentRepository
	bookings   *storage.BookingRepository
	logger     *slog.Logger
}

func NewAvailabilityHandler(treatments *storage.TreatmentRepository, bookings *storage.BookingRepository, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{treatments: treatments, bookings: bookings, logger: logger}
}

// Options returns the full catalog for a date with each option's slot list
// reduced to what is still open. Read-only; safe to call repeatedly.
func (h *AvailabilityHandler) Options(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		http.Error(w, "date is required", http.StatusBadRequest)
		return
	}

	options, err := h.treatments.List(r.Context())
	if err != nil {
		http.Error(w, "failed to load treatment options", http.StatusInternalServerError)
		return
	}

	booked, err := h.bookings.ListByDate(r.Context(), date)
	if err != nil {
		http.Error(w, "failed to load bookings", http.StatusInternalServerError)
		return
	}

	open := availability.FilterCatalog(options, booked)
	if open == nil {
		open = []model.TreatmentOption{}
	}
	writeJSON(w, http.StatusOK, open)
}

type specialtyItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *AvailabilityHandler) Specialties(w http.ResponseWriter, r *http.Request) {
	options, err := h.treatments.ListNames(r.Context())
	if err != nil {
		http.Error(w, "failed to load specialties", http.StatusInternalServerError)
		return
	}

	items := make([]specialtyItem, 0, len(options))
	for _, opt := range options {
		items = append(items, specialtyItem{ID: opt.ID, Name: opt.Name})
	}
	writeJSON(w, http.StatusOK, items)
}
