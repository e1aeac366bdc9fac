package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/model"
	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/outbox"
	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/storage"
)

type UserHandler struct {
	users      *storage.UserRepository
	outboxRepo *outbox.Repository
	logger     *slog.Logger
}

func NewUserHandler(users *storage.UserRepository, outboxRepo *outbox.Repository, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, outboxRepo: outboxRepo, logger: logger}
}

type registerUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type registerUserResponse struct {
	Acknowledged bool   `json:"acknowledged"`
	ID           string `json:"id"`
}

// Register records a user after the frontend's sign-up/sign-in flow. Repeat
// registrations for the same email are upserts, never errors: social logins
// call this on every sign-in.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		http.Error(w, "email is required", http.StatusBadRequest)
		return
	}

	id, err := h.users.Upsert(r.Context(), model.User{
		Email: req.Email,
		Name:  strings.TrimSpace(req.Name),
	})
	if err != nil {
		http.Error(w, "failed to save user", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, registerUserResponse{Acknowledged: true, ID: id})
}

// List returns every registered user. Admin only.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		http.Error(w, "failed to list users", http.StatusInternalServerError)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

type isAdminResponse struct {
	IsAdmin bool `json:"isAdmin"`
}

// IsAdmin is the frontend's role probe for showing the dashboard menu. It is
// deliberately public and answers false for unknown emails instead of 404,
// so it leaks nothing about which emails are registered.
func (h *UserHandler) IsAdmin(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PathValue("email"))
	if email == "" {
		http.Error(w, "email is required", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		if storage.IsNotFound(err) {
			writeJSON(w, http.StatusOK, isAdminResponse{IsAdmin: false})
			return
		}
		http.Error(w, "failed to load user", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, isAdminResponse{IsAdmin: user.IsAdmin()})
}

type promoteResponse struct {
	Acknowledged bool `json:"acknowledged"`
}

// Promote grants the admin role to an existing user. Admin only, idempotent:
// promoting an admin again acknowledges without touching the row.
func (h *UserHandler) Promote(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		http.Error(w, "user id is required", http.StatusBadRequest)
		return
	}

	found, err := h.users.PromoteAdmin(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to promote user", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	identity, _ := IdentityFromContext(r.Context())
	payload, err := json.Marshal(map[string]any{
		"user_id":     id,
		"promoted_by": identity.Email,
	})
	if err == nil {
		if recErr := h.outboxRepo.Save(r.Context(), outbox.Event{
			AggregateType: "user",
			AggregateID:   id,
			EventType:     outbox.EventUserPromoted,
			Payload:       payload,
		}); recErr != nil {
			h.logger.Warn("failed to record promotion event", "user_id", id, "err", recErr)
		}
	}

	writeJSON(w, http.StatusOK, promoteResponse{Acknowledged: true})
}
