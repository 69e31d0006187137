package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// PanicHandler writes the response for a request whose handler panicked.
// requestID is empty when the request passed no RequestID middleware.
type PanicHandler func(w http.ResponseWriter, r *http.Request, requestID string)

// Recovery creates panic recovery middleware with a custom panic handler.
// http.ErrAbortHandler is re-raised so net/http can abort the connection quietly.
func Recovery(logger *slog.Logger, handler PanicHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				requestID := RequestIDFromContext(r.Context())
				logger.Error("panic recovered",
					slog.Any("error", rec),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("request_id", requestID),
				)

				handler(w, r, requestID)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// DefaultPanicHandler returns a plain 500 carrying the request id
func DefaultPanicHandler(w http.ResponseWriter, _ *http.Request, requestID string) {
	msg := "Internal Server Error"
	if requestID != "" {
		msg += " (request " + requestID + ")"
	}
	http.Error(w, msg, http.StatusInternalServerError)
}
