package handler

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/charsheets/internal/model"
	"github.com/mcoot/charsheets/internal/services/sheet"
	"github.com/mcoot/charsheets/internal/web/middleware"
	"github.com/mcoot/charsheets/internal/web/templates/layout"
	"github.com/mcoot/charsheets/internal/web/templates/pages"
)

// MaxUploadSize bounds a creation form including its portrait
const MaxUploadSize = 10 << 20

// SheetHandler handles the dashboard and character sheet pages
type SheetHandler struct {
	sheetService *sheet.Service
	logger       *slog.Logger
}

// NewSheetHandler creates a new SheetHandler
func NewSheetHandler(sheetService *sheet.Service, logger *slog.Logger) *SheetHandler {
	return &SheetHandler{
		sheetService: sheetService,
		logger:       logger,
	}
}

// Dashboard lists the sheets visible to the caller
func (h *SheetHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	characters, err := h.sheetService.Dashboard(r.Context(), identity)
	if err != nil {
		h.logger.Error("load dashboard", slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	summaries := make([]pages.SheetSummary, 0, len(characters))
	for _, c := range characters {
		summaries = append(summaries, pages.SheetSummary{
			ID:          c.ID,
			Name:        c.Name,
			Archetype:   c.Sheet.Archetype,
			PortraitURL: h.sheetService.PortraitURL(c.Portrait),
		})
	}

	data := pages.DashboardData{
		PageData: layout.PageData{
			Title:    "Dashboard",
			Identity: identity,
			Flash:    middleware.GetFlash(r.Context()),
		},
		Sheets: summaries,
	}

	render(w, r, h.logger, http.StatusOK, pages.Dashboard(data))
}

// CreatePage renders the creation form
func (h *SheetHandler) CreatePage(w http.ResponseWriter, r *http.Request) {
	data := pages.CreateData{
		PageData: layout.PageData{
			Title:    "New character",
			Identity: middleware.GetIdentity(r.Context()),
			Flash:    middleware.GetFlash(r.Context()),
		},
	}

	render(w, r, h.logger, http.StatusOK, pages.Create(data))
}

// Create handles the creation form, with or without a portrait
func (h *SheetHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var err error
	if mediaType == "multipart/form-data" {
		err = r.ParseMultipartForm(MaxUploadSize)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		middleware.SetFlash(w, middleware.FlashError, "Invalid form data")
		http.Redirect(w, r, "/criar", http.StatusSeeOther)
		return
	}

	input := sheet.CreateInput{Fields: r.PostForm}

	if r.MultipartForm != nil {
		file, header, err := r.FormFile(sheet.FieldPortrait)
		switch {
		case err == nil:
			defer file.Close()
			input.Portrait = &sheet.Upload{Filename: header.Filename, Body: file}
		case !errors.Is(err, http.ErrMissingFile):
			middleware.SetFlash(w, middleware.FlashError, "Could not read the portrait")
			http.Redirect(w, r, "/criar", http.StatusSeeOther)
			return
		}
	}

	character, err := h.sheetService.Create(r.Context(), identity, input)
	if err != nil {
		h.logger.Error("create character", slog.Any("error", err))
		message := "Could not create the character"
		if errors.Is(err, sheet.ErrPortraitUpload) {
			message = "Could not store the portrait, the character was not created"
		}
		middleware.SetFlash(w, middleware.FlashError, message)
		http.Redirect(w, r, "/criar", http.StatusSeeOther)
		return
	}

	h.logger.Info("character created",
		slog.Int64("character_id", int64(character.ID)),
		slog.Int64("owner_id", int64(character.OwnerID)),
	)
	middleware.SetFlash(w, middleware.FlashSuccess, createdMessage(character.Name))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// View renders one sheet. Sheets the caller may not see redirect to the dashboard.
func (h *SheetHandler) View(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	id, ok := characterID(r)
	if !ok {
		h.notFound(w, r)
		return
	}

	character, err := h.sheetService.View(r.Context(), identity, id)
	switch {
	case errors.Is(err, model.ErrCharacterNotFound):
		h.notFound(w, r)
		return
	case errors.Is(err, model.ErrForbidden):
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	case err != nil:
		h.logger.Error("view character", slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := pages.ViewData{
		PageData: layout.PageData{
			Title:    character.Name,
			Identity: identity,
			Flash:    middleware.GetFlash(r.Context()),
		},
		Character:   character,
		PortraitURL: h.sheetService.PortraitURL(character.Portrait),
	}

	render(w, r, h.logger, http.StatusOK, pages.View(data))
}

// Delete removes a sheet if allowed. Denied and missing sheets redirect silently.
func (h *SheetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	id, ok := characterID(r)
	if !ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	removed, err := h.sheetService.Delete(r.Context(), identity, id)
	switch {
	case errors.Is(err, model.ErrForbidden):
		// denied: back to the dashboard without a message
	case err != nil:
		h.logger.Error("delete character", slog.Any("error", err))
		middleware.SetFlash(w, middleware.FlashError, "Could not delete the character")
	case removed:
		middleware.SetFlash(w, middleware.FlashSuccess, "Character deleted")
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *SheetHandler) notFound(w http.ResponseWriter, r *http.Request) {
	render(w, r, h.logger, http.StatusNotFound, pages.NotFound(layout.PageData{
		Title:    "Not found",
		Identity: middleware.GetIdentity(r.Context()),
	}))
}

func characterID(r *http.Request) (model.CharacterID, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, false
	}
	return model.CharacterID(id), true
}

func createdMessage(name string) string {
	if name == "" {
		return "Character created"
	}
	return name + " was created"
}
