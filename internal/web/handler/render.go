package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
)

// render writes a page component as HTML with the given status. The header is
// already sent when rendering fails, so the failure is only logged.
func render(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, page templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := page.Render(r.Context(), w); err != nil {
		logger.Error("render page",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
}

// safeNext returns next if it is a local path, otherwise fallback
func safeNext(next, fallback string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.HasPrefix(next, "/\\") {
		return next
	}
	return fallback
}
