package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/counterpos/pos-service/internal/apperr"
)

// Response is the envelope every JSON endpoint returns
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   any    `json:"error,omitempty"`
}

func JSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func Success(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusOK, Response{Success: true, Message: message, Data: data})
}

func Created(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusCreated, Response{Success: true, Message: message, Data: data})
}

// Error writes err with the status of its kind. Errors that did not come
// from the service layer are logged and reported as a generic 500.
func Error(w http.ResponseWriter, err error) {
	status := apperr.StatusOf(err)

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		zap.L().Error("unhandled error", zap.Error(err))
		JSON(w, http.StatusInternalServerError, Response{Message: "Internal server error"})
		return
	}

	if appErr.Kind == apperr.KindInternal {
		zap.L().Error(appErr.Message, zap.Error(appErr.Err))
	}

	if appErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(appErr.RetryAfter.Seconds()))))
	}

	resp := Response{Message: appErr.Message}
	if len(appErr.Fields) > 0 {
		resp.Error = appErr.Fields
	}
	JSON(w, status, resp)
}

func BadRequest(w http.ResponseWriter, message string) {
	JSON(w, http.StatusBadRequest, Response{Message: message})
}

func NotFound(w http.ResponseWriter) {
	JSON(w, http.StatusNotFound, Response{Message: "Route not found"})
}
