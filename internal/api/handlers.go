package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/lehmann314159/dictlookup/internal/models"
	"github.com/lehmann314159/dictlookup/internal/services"
	"github.com/lehmann314159/dictlookup/pkg/validator"
)

const (
	defaultPollWait = 25 * time.Second
	maxPollWait     = 55 * time.Second
)

// Handler contains all HTTP handlers
type Handler struct {
	session *services.Session
	events  *EventSink
	log     zerolog.Logger
}

// NewHandler creates a new handler and attaches its event sink to session
func NewHandler(session *services.Session, log zerolog.Logger) *Handler {
	events := NewEventSink()
	session.Attach(events)
	return &Handler{
		session: session,
		events:  events,
		log:     log.With().Str("component", "api").Logger(),
	}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// decode reads and validates a JSON request body
func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid request body")
	}
	return validator.ValidateStruct(v)
}

// Submit handles POST /api/v1/lookup
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.LookupRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// taken before the lookup starts so the client's own event is always after it
	seq := h.events.Seq()
	if !h.session.Submit(req.Text) {
		writeError(w, http.StatusUnprocessableEntity, "nothing to look up")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"state": h.session.State().String(),
		"seq":   seq,
	})
}

// LookupTranslation handles POST /api/v1/lookup/translation/{index}
func (h *Handler) LookupTranslation(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid translation index")
		return
	}

	seq := h.events.Seq()
	err = h.session.LookupTranslation(index)
	switch {
	case errors.Is(err, services.ErrNoResult):
		writeError(w, http.StatusNotFound, "no result yet")
		return
	case errors.Is(err, services.ErrSessionClosed):
		writeError(w, http.StatusServiceUnavailable, "session closed")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"state": h.session.State().String(),
		"seq":   seq,
	})
}

// State handles GET /api/v1/lookup/state
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state": h.session.State().String(),
		"seq":   h.events.Seq(),
	})
}

// Events handles GET /api/v1/lookup/events?after=N&wait=D
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	var after uint64
	if s := r.URL.Query().Get("after"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid after")
			return
		}
		after = n
	}

	wait := defaultPollWait
	if s := r.URL.Query().Get("wait"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d < 0 {
			writeError(w, http.StatusBadRequest, "invalid wait")
			return
		}
		wait = min(d, maxPollWait)
	}

	ctx, cancel := context.WithTimeout(r.Context(), wait)
	defer cancel()

	event, ok := h.events.Wait(ctx, after)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// GetResult handles GET /api/v1/result
func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	result := h.session.LastResult()
	if result == nil {
		writeError(w, http.StatusNotFound, "no result yet")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Share handles GET /api/v1/share
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	share, ok := h.session.Share()
	if !ok {
		writeError(w, http.StatusNotFound, "no result yet")
		return
	}

	writeJSON(w, http.StatusOK, share)
}

// ListHistory handles GET /api/v1/history
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	entries := h.session.History()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"total":   len(entries),
	})
}

// ClearHistory handles DELETE /api/v1/history
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	h.session.ClearHistory()
	w.WriteHeader(http.StatusNoContent)
}

// ImportHistory handles POST /api/v1/history/import
func (h *Handler) ImportHistory(w http.ResponseWriter, r *http.Request) {
	err := r.ParseMultipartForm(10 << 20) // 10 MB max
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	result, err := h.session.ImportHistory(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ExportHistory handles GET /api/v1/history/export
func (h *Handler) ExportHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=history.csv")

	if err := h.session.ExportHistory(w); err != nil {
		h.log.Error().Err(err).Msg("failed to export history")
		// Reset headers since we already set them
		w.Header().Set("Content-Type", "application/json")
		writeError(w, http.StatusInternalServerError, "failed to export history")
		return
	}
}

// ListLanguages handles GET /api/v1/languages
func (h *Handler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Languages())
}

// ReloadLanguages handles POST /api/v1/languages/reload
func (h *Handler) ReloadLanguages(w http.ResponseWriter, r *http.Request) {
	seq := h.events.Seq()
	h.session.ReloadLanguages()
	writeJSON(w, http.StatusAccepted, map[string]uint64{"seq": seq})
}

// selectionResponse is the directory after a selection change.
// Changed tells the client whether the current query should be looked up again.
type selectionResponse struct {
	services.LanguagesSnapshot
	Changed bool `json:"changed"`
}

// SetSource handles PUT /api/v1/languages/source
func (h *Handler) SetSource(w http.ResponseWriter, r *http.Request) {
	h.selectLanguage(w, r, h.session.SetSource)
}

// SetDest handles PUT /api/v1/languages/dest
func (h *Handler) SetDest(w http.ResponseWriter, r *http.Request) {
	h.selectLanguage(w, r, h.session.SetDest)
}

func (h *Handler) selectLanguage(w http.ResponseWriter, r *http.Request, set func(context.Context, int) (bool, error)) {
	var req models.SelectLanguageRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	changed, err := set(r.Context(), *req.Index)
	if err != nil {
		h.writeLanguageError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, selectionResponse{LanguagesSnapshot: h.session.Languages(), Changed: changed})
}

// Swap handles POST /api/v1/languages/swap
func (h *Handler) Swap(w http.ResponseWriter, r *http.Request) {
	changed, err := h.session.Swap(r.Context())
	if err != nil {
		h.writeLanguageError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, selectionResponse{LanguagesSnapshot: h.session.Languages(), Changed: changed})
}

// ToggleFavorite handles POST /api/v1/languages/{index}/favorite
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid language index")
		return
	}

	lang, err := h.session.ToggleFavorite(r.Context(), index)
	if err != nil {
		h.writeLanguageError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, lang)
}

func (h *Handler) writeLanguageError(w http.ResponseWriter, err error) {
	if errors.Is(err, services.ErrIndexOutOfRange) {
		writeError(w, http.StatusBadRequest, "language index out of range")
		return
	}
	h.log.Error().Err(err).Msg("failed to update languages")
	writeError(w, http.StatusInternalServerError, "failed to update languages")
}

// GetSettings handles GET /api/v1/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Settings())
}

// UpdateSettings handles PUT /api/v1/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings models.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !settings.Flags.Valid() {
		writeError(w, http.StatusBadRequest, "invalid search flags")
		return
	}

	if err := h.session.UpdateSettings(r.Context(), settings); err != nil {
		h.log.Error().Err(err).Msg("failed to save settings")
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}

	writeJSON(w, http.StatusOK, h.session.Settings())
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"languages_ready": h.session.Ready(),
	})
}
