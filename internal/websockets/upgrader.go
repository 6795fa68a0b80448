package websockets

import (
	"net/http"

	"github.com/gorilla/websocket"
)

// NewUpgrader returns an upgrader that accepts connections from origins
// allowed by allowOrigin. Requests without an Origin header (non-browser
// clients) are accepted.
func NewUpgrader(allowOrigin func(origin string) bool) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowOrigin(origin)
		},
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			http.Error(w, reason.Error(), status)
		},
	}
}
