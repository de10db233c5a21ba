package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"inkwise/internal/middleware"
	"inkwise/internal/models"
	"inkwise/internal/services"
)

type AuthHandler struct {
	authService *services.AuthService
	secure      bool
}

// NewAuthHandler builds the auth endpoints. secure marks the session
// cookie Secure, for deployments behind TLS.
func NewAuthHandler(authService *services.AuthService, secure bool) *AuthHandler {
	return &AuthHandler{authService: authService, secure: secure}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	_, token, err := h.authService.Signup(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.setSessionCookie(w, token, time.Now().Add(24*time.Hour))
	writeJSON(w, http.StatusCreated, models.AuthResponse{
		Message:  "Account created!",
		Redirect: "/chatbot",
		Token:    token,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	_, token, err := h.authService.Login(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.setSessionCookie(w, token, time.Now().Add(24*time.Hour))
	writeJSON(w, http.StatusOK, models.AuthResponse{
		Message:  "Welcome back!",
		Redirect: "/chatbot",
		Token:    token,
	})
}

// Logout revokes the current token, clears the cookie and returns to the
// landing page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), middleware.TokenFromRequest(r)); err != nil {
		logError(r, "logout", err)
	}
	h.setSessionCookie(w, "", time.Unix(0, 0))
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.CurrentUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": user.Name, "email": user.Email})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
