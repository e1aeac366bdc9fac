package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/model"
	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/storage"
)

type DoctorHandler struct {
	doctors *storage.DoctorRepository
	logger  *slog.Logger
}

func NewDoctorHandler(doctors *storage.DoctorRepository, logger *slog.Logger) *DoctorHandler {
	return &DoctorHandler{doctors: doctors, logger: logger}
}

type createDoctorRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Specialty string `json:"specialty"`
	ImageURL  string `json:"image_url"`
}

type createDoctorResponse struct {
	Acknowledged bool   `json:"acknowledged"`
	ID           string `json:"id"`
}

func (h *DoctorHandler) List(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.doctors.List(r.Context())
	if err != nil {
		http.Error(w, "failed to list doctors", http.StatusInternalServerError)
		return
	}
	if doctors == nil {
		doctors = []model.Doctor{}
	}
	writeJSON(w, http.StatusOK, doctors)
}

func (h *DoctorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Specialty = strings.TrimSpace(req.Specialty)
	if req.Name == "" || req.Email == "" || req.Specialty == "" {
		http.Error(w, "name, email and specialty are required", http.StatusBadRequest)
		return
	}

	id, err := h.doctors.Create(r.Context(), model.Doctor{
		Name:      req.Name,
		Email:     req.Email,
		Specialty: req.Specialty,
		ImageURL:  strings.TrimSpace(req.ImageURL),
	})
	if err != nil {
		if storage.IsDuplicate(err) {
			http.Error(w, "a doctor with this email already exists", http.StatusConflict)
			return
		}
		http.Error(w, "failed to create doctor", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, createDoctorResponse{Acknowledged: true, ID: id})
}

func (h *DoctorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		http.Error(w, "doctor id is required", http.StatusBadRequest)
		return
	}

	deleted, err := h.doctors.Delete(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to delete doctor", http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, "doctor not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"acknowledged": true})
}
