package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/arafat-hossain/doctors-portal/libs/auth"
	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/storage"
)

type TokenHandler struct {
	users  *storage.UserRepository
	logger *slog.Logger
	secret string
	ttl    time.Duration
}

func NewTokenHandler(users *storage.UserRepository, logger *slog.Logger, secret string, ttl time.Duration) *TokenHandler {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenHandler{users: users, logger: logger, secret: secret, ttl: ttl}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Issue hands out an access token for a registered email. Login must follow
// registration: an unknown email is a hard 404, never a silently issued token.
func (h *TokenHandler) Issue(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		http.Error(w, "email is required", http.StatusBadRequest)
		return
	}

	if _, err := h.users.GetByEmail(r.Context(), email); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to lookup user", http.StatusInternalServerError)
		return
	}

	token, err := auth.Sign(email, h.secret, h.ttl)
	if err != nil {
		h.logger.Error("token signing failed", "err", err)
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token})
}
