package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/charsheets/internal/api/apierr"
	"github.com/mcoot/charsheets/internal/api/middleware"
	"github.com/mcoot/charsheets/internal/api/request"
	"github.com/mcoot/charsheets/internal/api/response"
	"github.com/mcoot/charsheets/internal/model"
	"github.com/mcoot/charsheets/internal/services/auth"
)

// SessionHandler handles login and identity endpoints
type SessionHandler struct {
	authService *auth.Service
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(authService *auth.Service) *SessionHandler {
	return &SessionHandler{
		authService: authService,
	}
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	if req.IdentityID <= 0 {
		apierr.WriteError(w, apierr.NewInvalidRequestError("identity_id is required"))
		return
	}

	session, err := h.authService.SelectIdentity(r.Context(), model.IdentityID(req.IdentityID))
	if errors.Is(err, auth.ErrMasterLoginRequired) && req.Password != "" {
		session, err = h.authService.MasterLogin(r.Context(), req.Password)
	}
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.SessionResponseFromSession(session))
}

// Delete handles DELETE /api/v1/sessions/current
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if session := middleware.GetSession(r.Context()); session != nil {
		h.authService.InvalidateSession(session.Token)
	}
	response.NoContent(w)
}

// Me handles GET /api/v1/me
func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	response.JSON(w, http.StatusOK, response.IdentityFromModel(identity))
}
