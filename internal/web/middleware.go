package web

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/erazemk/logistika/internal/logging"
)

// RecoverMiddleware turns dashboard panics into a plain 500 page.
func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				logging.FromContext(r.Context()).Error("panic serving page",
					zap.Any("panic", v),
					zap.Stack("stack"),
				)
				http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
