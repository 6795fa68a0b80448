package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/counterpos/pos-service/internal/apperr"
	"github.com/counterpos/pos-service/internal/middleware"
	"github.com/counterpos/pos-service/internal/models"
)

// pathID parses the {name} path segment as a uuid
func pathID(r *http.Request, name, label string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, apperr.Validation("Invalid "+label+" ID format",
			apperr.FieldError{Field: name, Message: "must be a valid id"})
	}
	return id, nil
}

// currentUser returns the user the auth middleware attached
func currentUser(r *http.Request) (*models.User, error) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		return nil, apperr.Unauthorized("Authentication required")
	}
	return user, nil
}

type idResponse struct {
	ID string `json:"id"`
}
