package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/charsheets/internal/api/apierr"
	"github.com/mcoot/charsheets/internal/middleware"
)

// Recovery creates panic recovery middleware for the API.
// The JSON error carries the request id in its message.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, apiPanicHandler)
}

func apiPanicHandler(w http.ResponseWriter, _ *http.Request, requestID string) {
	if requestID == "" {
		apierr.WriteError(w, apierr.NewInternalError())
		return
	}
	apierr.WriteError(w, apierr.NewInternalErrorWithReference(requestID))
}
