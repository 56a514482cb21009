package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"nzbscout/config"
)

type SettingsHandler struct {
	Manager *config.Manager
}

func NewSettingsHandler(m *config.Manager) *SettingsHandler {
	return &SettingsHandler{Manager: m}
}

// GetSettings returns the stored configuration, creating the default file
// on first read.
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.Manager.LoadOrInit()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read configuration", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// PutSettings validates and persists a full settings document.
func (h *SettingsHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var s config.Settings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid config structure", err.Error())
		return
	}

	if err := h.Manager.Save(s); err != nil {
		if errors.Is(err, config.ErrInvalidSettings) {
			writeError(w, http.StatusBadRequest, "Invalid configuration", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update configuration", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Configuration updated successfully",
	})
}
