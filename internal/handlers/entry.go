package handlers

import (
	"io"
	"net/http"
	"time"

	"daylog-backend/internal/middleware"
	"daylog-backend/internal/services"

	"github.com/rs/zerolog/log"
)

const maxUploadBytes = 32 << 20 // 32 MB

// EntryHandler handles journal entry HTTP requests
type EntryHandler struct {
	entryService *services.EntryService
	gate         *services.DailyPostGate
	defaultLoc   *time.Location
}

// NewEntryHandler creates a new entry handler
func NewEntryHandler(entryService *services.EntryService, gate *services.DailyPostGate, defaultLoc *time.Location) *EntryHandler {
	return &EntryHandler{
		entryService: entryService,
		gate:         gate,
		defaultLoc:   defaultLoc,
	}
}

// GetTimeline handles GET /api/v1/entries
func (h *EntryHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	entries, err := h.entryService.Timeline(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch timeline")
		respondError(w, err.Error(), statusForError(err))
		return
	}

	respondJSON(w, map[string]interface{}{
		"entries": entries,
		"total":   len(entries),
	}, http.StatusOK)
}

// CheckEligibility handles GET /api/v1/entries/eligibility
func (h *EntryHandler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	loc := resolveLocation(r.URL.Query().Get("tz"), h.defaultLoc)

	eligible, err := h.gate.CheckEligibility(ctx, userID, loc)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to check eligibility")
		respondError(w, err.Error(), statusForError(err))
		return
	}

	respondJSON(w, map[string]bool{"eligible": eligible}, http.StatusOK)
}

// CreateEntry handles POST /api/v1/entries
func (h *EntryHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, "Invalid multipart request", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		respondError(w, "photo is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	imageBytes, err := io.ReadAll(file)
	if err != nil {
		respondError(w, "Failed to read photo", http.StatusBadRequest)
		return
	}

	caption := r.FormValue("caption")
	loc := resolveLocation(r.FormValue("tz"), h.defaultLoc)

	entry, err := h.entryService.Submit(ctx, userID, imageBytes, caption, loc)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to submit entry")
		respondError(w, err.Error(), statusForError(err))
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("entry_id", entry.ID).
		Msg("Entry published")

	respondJSON(w, entry, http.StatusCreated)
}
