package models

import "time"

// IndexerProtocol identifies the query dialect an indexer speaks.
type IndexerProtocol string

const (
	ProtocolNewznab IndexerProtocol = "newznab"
	ProtocolHTML    IndexerProtocol = "html"
	ProtocolJSON    IndexerProtocol = "json"
)

// SearchResult represents a normalized hit from a Newznab indexer.
type SearchResult struct {
	// ID is the feed-supplied GUID, falling back to the item link when the
	// feed omits a GUID.
	ID        string `json:"id"`
	Title     string `json:"title"`
	SizeBytes int64  `json:"sizeBytes"`
	Category  string `json:"category"`
	Group     string `json:"group,omitempty"`
	// PostedAt is parsed from the feed's pubDate. When the date is absent or
	// unparseable it is synthesized as the time the item was parsed; there is
	// no flag distinguishing synthesized values from upstream ones.
	PostedAt time.Time `json:"posted"`
	// NZBID is the per-indexer job reference handed back when requesting a
	// download of this result.
	NZBID   string `json:"nzbId"`
	Indexer string `json:"indexer"`
}

// SearchResponse is the aggregated, deduplicated, recency-ordered result
// window for one search request.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	// Total is the sum of the upstream-reported totals from each queried
	// indexer. It is counted before deduplication and pagination, so it is an
	// upper bound and is not reconciled with len(Results).
	Total int `json:"total"`
}
