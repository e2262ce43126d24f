package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmceachern/rebook/internal/store"
)

// sessionTTL is how long a login token stays valid.
const sessionTTL = 30 * 24 * time.Hour

type AuthHandler struct {
	admins   *store.AdminStore
	sessions *store.SessionStore
	logger   *slog.Logger
}

func NewAuthHandler(as *store.AdminStore, ss *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{admins: as, sessions: ss, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	admin, err := h.admins.GetByUsername(strings.TrimSpace(req.Username))
	if err != nil {
		h.logger.Error("lookup admin", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if admin == nil || bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token := uuid.NewString()
	sess, err := h.sessions.Create(token, admin.ID, time.Now().Add(sessionTTL))
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.logger.Info("admin logged in", "admin_id", admin.ID)
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: sess.ExpiresAt})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token != "" {
		if err := h.sessions.DeleteByToken(token); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
