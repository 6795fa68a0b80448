package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/counterpos/pos-service/internal/api"
)

// Recover turns a panic in a handler into a 500 envelope
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				zap.L().Error("panic serving request",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Stack("stack"))
				api.JSON(w, http.StatusInternalServerError, api.Response{Message: "Internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
