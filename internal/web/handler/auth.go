package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/charsheets/internal/model"
	"github.com/mcoot/charsheets/internal/services/auth"
	"github.com/mcoot/charsheets/internal/web/middleware"
	"github.com/mcoot/charsheets/internal/web/templates/layout"
	"github.com/mcoot/charsheets/internal/web/templates/pages"
)

// AuthHandler handles identity selection, master login and logout
type AuthHandler struct {
	authService *auth.Service
	logger      *slog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *auth.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// SelectIdentity logs in as a player chosen from the list
func (h *AuthHandler) SelectIdentity(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		middleware.SetFlash(w, middleware.FlashError, "Unknown identity")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	session, err := h.authService.SelectIdentity(r.Context(), model.IdentityID(id))
	switch {
	case errors.Is(err, auth.ErrMasterLoginRequired):
		target := "/login-mestre"
		if next != "" {
			target += "?" + url.Values{"next": {next}}.Encode()
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	case errors.Is(err, model.ErrIdentityNotFound):
		middleware.SetFlash(w, middleware.FlashError, "Unknown identity")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	case err != nil:
		h.logger.Error("select identity", slog.Any("error", err))
		middleware.SetFlash(w, middleware.FlashError, "Could not log in, please try again")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.setSessionCookie(w, session.Token)
	middleware.SetFlash(w, middleware.FlashSuccess, "Welcome, "+session.Identity.Username+"!")
	http.Redirect(w, r, safeNext(next, "/dashboard"), http.StatusSeeOther)
}

// MasterLoginPage renders the master password form
func (h *AuthHandler) MasterLoginPage(w http.ResponseWriter, r *http.Request) {
	data := pages.MasterLoginData{
		PageData: layout.PageData{
			Title:    "Game master login",
			Identity: middleware.GetIdentity(r.Context()),
			Flash:    middleware.GetFlash(r.Context()),
		},
		Next: r.URL.Query().Get("next"),
	}

	render(w, r, h.logger, http.StatusOK, pages.MasterLogin(data))
}

// MasterLogin checks the master password
func (h *AuthHandler) MasterLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.SetFlash(w, middleware.FlashError, "Invalid form data")
		http.Redirect(w, r, "/login-mestre", http.StatusSeeOther)
		return
	}

	next := r.PostFormValue("next")
	session, err := h.authService.MasterLogin(r.Context(), r.PostFormValue("password"))
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		middleware.SetFlash(w, middleware.FlashWarning, "Wrong master password")
		http.Redirect(w, r, "/login-mestre", http.StatusSeeOther)
		return
	case errors.Is(err, model.ErrMasterNotConfigured), errors.Is(err, model.ErrMultipleMasters):
		h.logger.Error("master login misconfigured", slog.Any("error", err))
		middleware.SetFlash(w, middleware.FlashError, "Master login is not available")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	case err != nil:
		h.logger.Error("master login", slog.Any("error", err))
		middleware.SetFlash(w, middleware.FlashError, "Could not log in, please try again")
		http.Redirect(w, r, "/login-mestre", http.StatusSeeOther)
		return
	}

	h.setSessionCookie(w, session.Token)
	middleware.SetFlash(w, middleware.FlashSuccess, "Welcome, "+session.Identity.Username+"!")
	http.Redirect(w, r, safeNext(next, "/dashboard"), http.StatusSeeOther)
}

// Logout revokes the session and clears the cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		h.authService.InvalidateSession(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	middleware.SetFlash(w, middleware.FlashInfo, "You have been logged out")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.authService.SessionDuration().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
