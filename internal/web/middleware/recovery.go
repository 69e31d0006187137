package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/charsheets/internal/middleware"
	"github.com/mcoot/charsheets/internal/web/templates/layout"
	"github.com/mcoot/charsheets/internal/web/templates/pages"
)

// Recovery creates panic recovery middleware for the web interface.
// The error page quotes the request id so a player can report it.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, webPanicHandler)
}

func webPanicHandler(w http.ResponseWriter, r *http.Request, requestID string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	page := pages.ServerError(layout.PageData{Title: "Error"}, requestID)
	_ = page.Render(r.Context(), w)
}
