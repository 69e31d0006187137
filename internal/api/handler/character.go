package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/charsheets/internal/api/apierr"
	"github.com/mcoot/charsheets/internal/api/middleware"
	"github.com/mcoot/charsheets/internal/api/response"
	"github.com/mcoot/charsheets/internal/model"
	"github.com/mcoot/charsheets/internal/services/sheet"
)

// CharacterHandler handles character sheet endpoints
type CharacterHandler struct {
	sheetService *sheet.Service
}

// NewCharacterHandler creates a new character handler
func NewCharacterHandler(sheetService *sheet.Service) *CharacterHandler {
	return &CharacterHandler{
		sheetService: sheetService,
	}
}

// List handles GET /api/v1/characters
func (h *CharacterHandler) List(w http.ResponseWriter, r *http.Request) {
	characters, err := h.sheetService.Dashboard(r.Context(), middleware.GetIdentity(r.Context()))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	resp := response.CharacterList{Characters: make([]response.Character, 0, len(characters))}
	for _, c := range characters {
		resp.Characters = append(resp.Characters, response.CharacterFromModel(c, h.sheetService.PortraitURL))
	}
	response.JSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/characters/{id}
func (h *CharacterHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := characterID(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	character, err := h.sheetService.View(r.Context(), middleware.GetIdentity(r.Context()), id)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.CharacterFromModel(character, h.sheetService.PortraitURL))
}

// Delete handles DELETE /api/v1/characters/{id}
func (h *CharacterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := characterID(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	removed, err := h.sheetService.Delete(r.Context(), middleware.GetIdentity(r.Context()), id)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	if !removed {
		apierr.WriteError(w, model.ErrCharacterNotFound)
		return
	}

	response.NoContent(w)
}

func characterID(r *http.Request) (model.CharacterID, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, apierr.NewInvalidRequestError("character id must be a positive integer")
	}
	return model.CharacterID(id), nil
}
