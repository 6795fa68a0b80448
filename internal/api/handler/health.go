package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/counterpos/pos-service/internal/api"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.HealthCheck(ctx); err != nil {
		zap.L().Warn("health check failed", zap.Error(err))
		api.JSON(w, http.StatusServiceUnavailable, api.Response{Message: "Database unavailable"})
		return
	}

	api.Success(w, "OK", nil)
}
