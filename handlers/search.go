package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nzbscout/models"
	"nzbscout/services/indexer"
)

type searchService interface {
	Search(context.Context, indexer.SearchOptions) (models.SearchResponse, error)
	EnabledIndexerNames() []string
}

var _ searchService = (*indexer.Service)(nil)

type SearchHandler struct {
	Service searchService
}

func NewSearchHandler(s searchService) *SearchHandler {
	return &SearchHandler{Service: s}
}

type searchMeta struct {
	Query        string   `json:"query"`
	Category     string   `json:"category,omitempty"`
	TotalResults int      `json:"totalResults"`
	SearchTime   float64  `json:"searchTime"`
	Indexers     []string `json:"indexers"`
}

type searchReply struct {
	Success bool                  `json:"success"`
	Data    []models.SearchResult `json:"data"`
	Total   int                   `json:"total"`
	Meta    searchMeta            `json:"meta"`
}

// Search handles GET /api/search?q=...&cat=...&limit=...&offset=...
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "Search query is required", "")
		return
	}

	opts := indexer.SearchOptions{
		Query:    query,
		Category: strings.TrimSpace(r.URL.Query().Get("cat")),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			opts.Limit = parsed
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			opts.Offset = parsed
		}
	}

	start := time.Now()
	resp, err := h.Service.Search(r.Context(), opts)
	if err != nil {
		var cfgErr *indexer.ConfigError
		switch {
		case errors.As(err, &cfgErr):
			writeJSON(w, http.StatusBadRequest, errorReply{
				Success:    false,
				Error:      "Configuration Error",
				Message:    cfgErr.Message,
				Code:       cfgErr.Code,
				RedirectTo: cfgErr.RedirectTo,
			})
		case errors.Is(err, indexer.ErrEmptyQuery):
			writeError(w, http.StatusBadRequest, "Search query is required", "")
		default:
			writeError(w, http.StatusInternalServerError, "Search failed", err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, searchReply{
		Success: true,
		Data:    resp.Results,
		Total:   resp.Total,
		Meta: searchMeta{
			Query:        query,
			Category:     opts.Category,
			TotalResults: len(resp.Results),
			SearchTime:   time.Since(start).Seconds(),
			Indexers:     h.Service.EnabledIndexerNames(),
		},
	})
}
