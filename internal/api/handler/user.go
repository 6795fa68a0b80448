package handler

import (
	"net/http"

	"github.com/counterpos/pos-service/internal/api"
	"github.com/counterpos/pos-service/internal/models"
	"github.com/counterpos/pos-service/internal/service"
)

// UserHandler handles staff account requests
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Register creates a staff account
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.UserRequest
	if err := api.DecodeAndValidate(r, &req); err != nil {
		api.Error(w, err)
		return
	}

	user, err := h.userService.Register(r.Context(), req)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.Created(w, "User registered successfully", user)
}

// ListUsers lists staff accounts; ?sort=alpha-desc orders by name descending
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context(), r.URL.Query().Get("sort") == service.SortAlphaDesc)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.Success(w, "Users fetched successfully", users)
}

// UpdateUser applies a partial update
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "user")
	if err != nil {
		api.Error(w, err)
		return
	}

	var req models.UserUpdateRequest
	if err := api.DecodeAndValidate(r, &req); err != nil {
		api.Error(w, err)
		return
	}

	user, err := h.userService.Update(r.Context(), id, req)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.Success(w, "User updated successfully", user)
}

// DeleteUser deletes a staff account other than the caller's
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, err := currentUser(r)
	if err != nil {
		api.Error(w, err)
		return
	}

	id, err := pathID(r, "id", "user")
	if err != nil {
		api.Error(w, err)
		return
	}

	if err := h.userService.Delete(r.Context(), actor, id); err != nil {
		api.Error(w, err)
		return
	}

	api.Success(w, "User deleted successfully", idResponse{ID: id.String()})
}
