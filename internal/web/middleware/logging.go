package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/charsheets/internal/middleware"
)

// Logging tags each web request with a request ID and logs it
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	logRequests := middleware.Logging(logger)
	return func(next http.Handler) http.Handler {
		return middleware.RequestID(logRequests(next))
	}
}
