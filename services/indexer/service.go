package indexer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"nzbscout/config"
	"nzbscout/models"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// ConfigStore supplies the indexer configuration at call time. Passing it in
// keeps the service free of process-wide state and lets tests swap
// configurations per request.
type ConfigStore interface {
	Load() (config.Settings, error)
}

// SearchOptions is the caller's search input.
type SearchOptions struct {
	Query    string
	Category string
	Limit    int // 1-100, defaults to 50
	Offset   int // >= 0
}

// Service aggregates search results across the configured Newznab indexers.
type Service struct {
	store ConfigStore
	httpc *http.Client
}

// NewService creates an aggregation service reading indexer profiles from
// the given store. Per-indexer timeouts are enforced per request, so the
// shared client carries none.
func NewService(store ConfigStore) *Service {
	return &Service{
		store: store,
		httpc: &http.Client{},
	}
}

// indexerOutcome is one profile's contribution to the merge.
type indexerOutcome struct {
	results []models.SearchResult
	total   int
}

// Search fans out to every enabled indexer concurrently, merges the parsed
// feeds, deduplicates, sorts newest-first, and returns the requested page.
//
// A failing indexer contributes zero results and never aborts the request;
// only configuration problems (and a blank query) surface as errors.
func (s *Service) Search(ctx context.Context, opts SearchOptions) (models.SearchResponse, error) {
	if strings.TrimSpace(opts.Query) == "" {
		return models.SearchResponse{}, ErrEmptyQuery
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	profiles, err := s.gate()
	if err != nil {
		return models.SearchResponse{}, err
	}

	enabled := profiles[:0:0]
	for _, idx := range profiles {
		if idx.Enabled {
			enabled = append(enabled, idx)
		}
	}
	if len(enabled) == 0 {
		// Disabled indexers are a normal state, not a failure.
		return models.SearchResponse{Results: []models.SearchResult{}, Total: 0}, nil
	}

	rid := uuid.NewString()[:8]
	log.Printf("[indexer] %s: searching %d indexer(s) for %q", rid, len(enabled), opts.Query)

	// With a single indexer the upstream window is the response window, so
	// limit and offset are forwarded as-is. With several, each indexer is
	// asked for the merged window's worth of results from the top and the
	// page is sliced after the merge.
	fetchLimit, fetchOffset := limit, offset
	if len(enabled) > 1 {
		fetchLimit, fetchOffset = limit+offset, 0
	}

	outcomes := make([]indexerOutcome, len(enabled))
	p := pool.New()
	for i, idx := range enabled {
		i, idx := i, idx
		p.Go(func() {
			results, total, err := s.searchNewznab(ctx, idx, opts, fetchLimit, fetchOffset)
			if err != nil {
				log.Printf("[indexer] %s: %s failed: %v", rid, idx.Name, err)
				return
			}
			log.Printf("[indexer] %s: %s returned %d result(s)", rid, idx.Name, len(results))
			outcomes[i] = indexerOutcome{results: results, total: total}
		})
	}
	p.Wait()

	var merged []models.SearchResult
	total := 0
	for _, out := range outcomes {
		merged = append(merged, out.results...)
		total += out.total
	}

	for i := range merged {
		normalizeResult(&merged[i])
	}
	merged = dedupeResults(merged)
	sortResults(merged)

	if len(enabled) > 1 {
		merged = paginate(merged, offset, limit)
	}
	if merged == nil {
		merged = []models.SearchResult{}
	}

	log.Printf("[indexer] %s: %d result(s) after merge, upstream total %d", rid, len(merged), total)
	return models.SearchResponse{Results: merged, Total: total}, nil
}

// gate validates the loaded configuration before any network call. A missing
// configuration and a structurally incomplete one are distinct, actionable
// failures; both point the caller at the configuration page.
func (s *Service) gate() ([]config.IndexerConfig, error) {
	settings, err := s.store.Load()
	if err != nil {
		if errors.Is(err, config.ErrNoConfig) {
			return nil, errConfigMissing()
		}
		return nil, fmt.Errorf("load indexer config: %w", err)
	}

	if len(settings.Indexers) == 0 {
		return nil, errConfigIncomplete()
	}
	for _, idx := range settings.Indexers {
		if !idx.Complete() {
			return nil, errConfigIncomplete()
		}
	}
	return settings.Indexers, nil
}

// EnabledIndexerNames lists the display names of the enabled profiles, for
// the search response metadata. Configuration problems yield an empty list.
func (s *Service) EnabledIndexerNames() []string {
	settings, err := s.store.Load()
	if err != nil {
		return nil
	}
	var names []string
	for _, idx := range settings.Indexers {
		if idx.Enabled && idx.Name != "" {
			names = append(names, idx.Name)
		}
	}
	return names
}
