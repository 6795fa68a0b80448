package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("bad input"), http.StatusBadRequest},
		{"business rule", BusinessRule("Insufficient payment: total %s, paid %s", "150", "100"), http.StatusBadRequest},
		{"conflict", Conflict("Category already exists"), http.StatusBadRequest},
		{"not found", NotFound("Order not found"), http.StatusNotFound},
		{"unauthorized", Unauthorized("Token expired"), http.StatusUnauthorized},
		{"forbidden", Forbidden("Account inactive"), http.StatusForbidden},
		{"throttled", TooManyRequests("slow down"), http.StatusTooManyRequests},
		{"internal", Internal("boom", errors.New("db down")), http.StatusInternalServerError},
		{"plain error", errors.New("unclassified"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("handler: %w", NotFound("x")), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("failed to load order", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to load order: connection reset", err.Error())
	assert.True(t, Is(err, KindInternal))
	assert.False(t, Is(nil, KindInternal))
}
