package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/counterpos/pos-service/internal/api"
	"github.com/counterpos/pos-service/internal/apperr"
	"github.com/counterpos/pos-service/internal/service"
	"github.com/counterpos/pos-service/internal/websockets"
)

type WebSocketHandler struct {
	hub         *websockets.Hub
	upgrader    *websocket.Upgrader
	authService *service.AuthService
}

func NewWebSocketHandler(hub *websockets.Hub, upgrader *websocket.Upgrader, authService *service.AuthService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		upgrader:    upgrader,
		authService: authService,
	}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		api.Error(w, err)
		return
	}

	// Upgrade the HTTP connection to a WebSocket connection
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// If upgrading fails, the upgrader has already written the error to the response
		return
	}

	websockets.ServeWs(h.hub, conn, user.Username, func(ctx context.Context) error {
		err := h.authService.VerifySession(ctx, user)
		if err != nil && apperr.Is(err, apperr.KindInternal) {
			// keep the client on a failed lookup; the next ping retries
			zap.L().Warn("websocket session check failed", zap.String("user", user.Username), zap.Error(err))
			return nil
		}
		return err
	})
}
