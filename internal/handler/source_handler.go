package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"newsfeed/internal/domain"
	"newsfeed/internal/logger"
	"newsfeed/internal/service"
)

const maxImportSize = 1 << 20

type sourcesPage struct {
	UserID  int
	Sources []domain.Source
}

type addSourcePage struct {
	Name  string
	URL   string
	Error string
}

type sourceList struct {
	Sources []service.SourceExport `json:"sources"`
}

type SourceHandler struct {
	newsfeedService *service.NewsfeedService
	renderer        *Renderer
}

func NewSourceHandler(newsfeedService *service.NewsfeedService, renderer *Renderer) *SourceHandler {
	return &SourceHandler{
		newsfeedService: newsfeedService,
		renderer:        renderer,
	}
}

func (h *SourceHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := userID(r)

	sources, err := h.newsfeedService.ListSources(r.Context())
	if err != nil {
		logger.Errorf("Error getting sources: %v", err)
		http.Error(w, "Error getting sources", http.StatusInternalServerError)
		return
	}

	h.renderer.Render(w, r, http.StatusOK, "sources", sourcesPage{UserID: uid, Sources: sources})
}

func (h *SourceHandler) Add(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.renderer.Render(w, r, http.StatusOK, "add_source", addSourcePage{})
		return
	}

	uid, _ := userID(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	page := addSourcePage{
		Name: r.FormValue("source_name"),
		URL:  r.FormValue("source_url"),
	}

	if _, err := h.newsfeedService.AddSource(r.Context(), uid, page.Name, page.URL); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			logger.Errorf("Error creating source: %v", err)
		}
		page.Error = userMessage(err)
		h.renderer.Render(w, r, status, "add_source", page)
		return
	}

	http.Redirect(w, r, "/newsfeed/sources/", http.StatusFound)
}

func (h *SourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := userID(r)
	sourceID, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid source ID", http.StatusBadRequest)
		return
	}

	if err := h.newsfeedService.DeleteSource(r.Context(), sourceID, uid); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			logger.Errorf("Error deleting source %d: %v", sourceID, err)
		}
		http.Error(w, "Error deleting source", status)
		return
	}

	http.Redirect(w, r, "/newsfeed/sources/", http.StatusFound)
}

func (h *SourceHandler) Export(w http.ResponseWriter, r *http.Request) {
	uid, _ := userID(r)

	sources, err := h.newsfeedService.ExportSources(r.Context(), uid)
	if err != nil {
		logger.Errorf("Error exporting sources: %v", err)
		http.Error(w, "Error exporting sources", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=newsfeed-sources.json")
	if err := json.NewEncoder(w).Encode(sourceList{Sources: sources}); err != nil {
		logger.Errorf("Error encoding sources: %v", err)
	}
}

func (h *SourceHandler) Import(w http.ResponseWriter, r *http.Request) {
	uid, _ := userID(r)

	var payload sourceList
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportSize)).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "Invalid JSON format",
		})
		return
	}

	added, problems := h.newsfeedService.ImportSources(r.Context(), uid, payload.Sources)

	response := map[string]interface{}{
		"success":      added > 0,
		"imported":     added,
		"errors":       len(problems),
		"errorDetails": problems,
	}
	switch {
	case added > 0 && len(problems) > 0:
		response["message"] = fmt.Sprintf("Imported %d sources with %d errors", added, len(problems))
	case added > 0:
		response["message"] = fmt.Sprintf("Successfully imported %d sources", added)
	default:
		response["error"] = "No sources were imported"
	}

	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("Error encoding response: %v", err)
	}
}
