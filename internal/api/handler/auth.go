package handler

import (
	"net/http"

	"github.com/counterpos/pos-service/internal/api"
	"github.com/counterpos/pos-service/internal/models"
	"github.com/counterpos/pos-service/internal/service"
)

// AuthHandler handles login and logout
type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a signed token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, err)
		return
	}

	token, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.Success(w, "Login successful", tokenResponse{Token: token})
}

// Logout revokes the caller's outstanding tokens
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		api.Error(w, err)
		return
	}

	if err := h.authService.Logout(r.Context(), user); err != nil {
		api.Error(w, err)
		return
	}

	api.Success(w, "Logout successful", nil)
}
