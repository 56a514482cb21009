package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"nzbscout/config"
	"nzbscout/models"
	"nzbscout/services/sabnzbd"
	"nzbscout/utils"
)

// sabClient is the slice of the SABnzbd client the handler uses.
type sabClient interface {
	AddURL(ctx context.Context, nzbURL string, opts sabnzbd.AddOptions) (string, error)
	Queue(ctx context.Context) (models.QueueStatus, error)
	History(ctx context.Context, limit int) ([]models.HistoryItem, error)
	GetFiles(ctx context.Context, nzoID string) (models.JobStatus, error)
	PauseQueue(ctx context.Context) error
	ResumeQueue(ctx context.Context) error
	DeleteQueueItem(ctx context.Context, nzoID string) error
}

// DownloadsHandler proxies queue operations to SABnzbd. The client is built
// per request from the current settings so configuration changes take effect
// immediately.
type DownloadsHandler struct {
	Manager *config.Manager

	// newClient is swappable in tests.
	newClient func(baseURL, apiKey string) sabClient
}

func NewDownloadsHandler(m *config.Manager) *DownloadsHandler {
	return &DownloadsHandler{
		Manager: m,
		newClient: func(baseURL, apiKey string) sabClient {
			return sabnzbd.NewClient(baseURL, apiKey)
		},
	}
}

func (h *DownloadsHandler) client() (sabClient, error) {
	s, err := h.Manager.Load()
	if err != nil {
		if errors.Is(err, config.ErrNoConfig) {
			return nil, sabnzbd.ErrNotConfigured
		}
		return nil, err
	}
	if strings.TrimSpace(s.Sabnzbd.URL) == "" || strings.TrimSpace(s.Sabnzbd.APIKey) == "" {
		return nil, sabnzbd.ErrNotConfigured
	}
	return h.newClient(s.Sabnzbd.URL, s.Sabnzbd.APIKey), nil
}

func (h *DownloadsHandler) writeClientError(w http.ResponseWriter, err error) {
	if errors.Is(err, sabnzbd.ErrNotConfigured) {
		writeError(w, http.StatusBadRequest, "SABnzbd is not configured", err.Error())
		return
	}
	writeError(w, http.StatusBadGateway, "Download manager unavailable", err.Error())
}

type addDownloadRequest struct {
	NzbURL   string `json:"nzbUrl"`
	NzbID    string `json:"nzbId"` // legacy field, treated as a URL
	Title    string `json:"title"`
	Category string `json:"category"`
	Priority *int   `json:"priority"`
}

// Add queues an NZB in SABnzbd by its signed URL.
func (h *DownloadsHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addDownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	signedURL := strings.TrimSpace(req.NzbURL)
	if signedURL == "" {
		signedURL = strings.TrimSpace(req.NzbID)
	}
	if signedURL == "" {
		writeError(w, http.StatusBadRequest, "Missing nzbUrl or nzbId", "")
		return
	}
	// Feed links arrive HTML-escaped and occasionally with raw spaces.
	signedURL = decodeEntityURL(signedURL)
	if encoded, err := utils.EncodeURLWithSpaces(signedURL); err == nil {
		signedURL = encoded
	}

	c, err := h.client()
	if err != nil {
		h.writeClientError(w, err)
		return
	}

	jobID, err := c.AddURL(r.Context(), signedURL, sabnzbd.AddOptions{
		Category: req.Category,
		Priority: req.Priority,
		Name:     req.Title,
	})
	if err != nil {
		h.writeClientError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"mode":    "addurl",
		"jobId":   jobID,
		"message": "Queued by URL in SABnzbd",
	})
}

// Queue returns the active download queue.
func (h *DownloadsHandler) Queue(w http.ResponseWriter, r *http.Request) {
	c, err := h.client()
	if err != nil {
		h.writeClientError(w, err)
		return
	}

	status, err := c.Queue(r.Context())
	if err != nil {
		h.writeClientError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": status})
}

// History returns completed and failed downloads.
func (h *DownloadsHandler) History(w http.ResponseWriter, r *http.Request) {
	c, err := h.client()
	if err != nil {
		h.writeClientError(w, err)
		return
	}

	items, err := c.History(r.Context(), 50)
	if err != nil {
		h.writeClientError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": items})
}

// Status returns the per-file breakdown for one job.
func (h *DownloadsHandler) Status(w http.ResponseWriter, r *http.Request) {
	nzoID := strings.TrimSpace(r.URL.Query().Get("nzo_id"))
	if nzoID == "" {
		writeError(w, http.StatusBadRequest, "nzo_id parameter is required", "")
		return
	}

	c, err := h.client()
	if err != nil {
		h.writeClientError(w, err)
		return
	}

	status, err := c.GetFiles(r.Context(), nzoID)
	if err != nil {
		if errors.Is(err, sabnzbd.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "Download not found", err.Error())
			return
		}
		h.writeClientError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": status})
}

// PauseQueue pauses all downloading.
func (h *DownloadsHandler) PauseQueue(w http.ResponseWriter, r *http.Request) {
	h.queueToggle(w, r, true)
}

// ResumeQueue resumes all downloading.
func (h *DownloadsHandler) ResumeQueue(w http.ResponseWriter, r *http.Request) {
	h.queueToggle(w, r, false)
}

func (h *DownloadsHandler) queueToggle(w http.ResponseWriter, r *http.Request, pause bool) {
	c, err := h.client()
	if err != nil {
		h.writeClientError(w, err)
		return
	}

	if pause {
		err = c.PauseQueue(r.Context())
	} else {
		err = c.ResumeQueue(r.Context())
	}
	if err != nil {
		h.writeClientError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Delete removes one job from the queue.
func (h *DownloadsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	nzoID := mux.Vars(r)["nzoID"]
	if strings.TrimSpace(nzoID) == "" {
		writeError(w, http.StatusBadRequest, "Missing job id", "")
		return
	}

	c, err := h.client()
	if err != nil {
		h.writeClientError(w, err)
		return
	}

	if err := c.DeleteQueueItem(r.Context(), nzoID); err != nil {
		h.writeClientError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

var urlEntityDecoder = strings.NewReplacer(
	"&amp;", "&",
	"&quot;", `"`,
	"&lt;", "<",
	"&gt;", ">",
)

func decodeEntityURL(u string) string {
	return urlEntityDecoder.Replace(u)
}
