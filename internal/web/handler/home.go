package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/charsheets/internal/services/auth"
	"github.com/mcoot/charsheets/internal/web/middleware"
	"github.com/mcoot/charsheets/internal/web/templates/layout"
	"github.com/mcoot/charsheets/internal/web/templates/pages"
)

// HomeHandler handles the identity selection page
type HomeHandler struct {
	authService *auth.Service
	logger      *slog.Logger
}

// NewHomeHandler creates a new HomeHandler
func NewHomeHandler(authService *auth.Service, logger *slog.Logger) *HomeHandler {
	return &HomeHandler{
		authService: authService,
		logger:      logger,
	}
}

// Home lists every identity for login
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	identities, err := h.authService.ListIdentities(r.Context())
	if err != nil {
		h.logger.Error("list identities", slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := pages.HomeData{
		PageData: layout.PageData{
			Title:    "Choose your identity",
			Identity: middleware.GetIdentity(r.Context()),
			Flash:    middleware.GetFlash(r.Context()),
		},
		Identities: identities,
		Next:       r.URL.Query().Get("next"),
	}

	render(w, r, h.logger, http.StatusOK, pages.Home(data))
}

// NotFound renders the 404 page
func (h *HomeHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	render(w, r, h.logger, http.StatusNotFound, pages.NotFound(layout.PageData{
		Title:    "Not found",
		Identity: middleware.GetIdentity(r.Context()),
	}))
}
