package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"nzbscout/config"
	"nzbscout/services/files"
)

// FilesHandler serves the completed-downloads browser. The service is built
// per request so a changed downloads directory takes effect without a
// restart.
type FilesHandler struct {
	Manager *config.Manager
	FS      afero.Fs
}

func NewFilesHandler(m *config.Manager, fs afero.Fs) *FilesHandler {
	return &FilesHandler{Manager: m, FS: fs}
}

func (h *FilesHandler) service() (*files.Service, error) {
	s, err := h.Manager.Load()
	if err != nil {
		if errors.Is(err, config.ErrNoConfig) {
			return nil, files.ErrNoDownloadDir
		}
		return nil, err
	}
	return files.NewService(h.FS, s.Downloads.CompletedDir)
}

func (h *FilesHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, files.ErrNoDownloadDir):
		writeError(w, http.StatusBadRequest, "Downloads directory not configured", err.Error())
	case errors.Is(err, files.ErrInvalidPath):
		writeError(w, http.StatusBadRequest, "Invalid path", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "File browser error", err.Error())
	}
}

// List handles GET /api/downloads/list?path=
func (h *FilesHandler) List(w http.ResponseWriter, r *http.Request) {
	svc, err := h.service()
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	entries, err := svc.List(r.URL.Query().Get("path"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": entries})
}

// File handles GET /api/downloads/file?path= and streams the file with its
// detected content type. Range requests work via http.ServeContent.
func (h *FilesHandler) File(w http.ResponseWriter, r *http.Request) {
	rel := r.URL.Query().Get("path")
	if rel == "" {
		writeError(w, http.StatusBadRequest, "Missing path", "")
		return
	}

	svc, err := h.service()
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	f, info, ctype, err := svc.Open(rel)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", ctype)
	http.ServeContent(w, r, filepath.Base(rel), info.ModTime(), f)
}

// DiskSpace handles GET /api/system/disk-space.
func (h *FilesHandler) DiskSpace(w http.ResponseWriter, r *http.Request) {
	svc, err := h.service()
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	space, err := svc.DiskSpace()
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"data":      space,
		"checkedAt": time.Now().Unix(),
	})
}
