package indexer

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"nzbscout/config"
	"nzbscout/models"
)

const (
	defaultIndexerTimeout = 30 * time.Second
	searchUserAgent       = "nzbscout/1.0"
)

// pubDate layouts seen in the wild. RSS mandates RFC822-style dates but
// indexers are loose about it.
var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
}

// newznabFeed mirrors the RSS envelope of a Newznab API response. The schema
// is not validated upstream, so every field is optional.
type newznabFeed struct {
	XMLName xml.Name       `xml:"rss"`
	Channel newznabChannel `xml:"channel"`
}

type newznabChannel struct {
	Items []newznabItem `xml:"item"`
	// Response carries the newznab:response extension attributes with the
	// upstream-reported match count.
	Response newznabResponse `xml:"response"`
}

type newznabResponse struct {
	Offset string `xml:"offset,attr"`
	Total  string `xml:"total,attr"`
}

type newznabItem struct {
	// Title and Category may be CDATA-wrapped or plain text; the decoder
	// yields the character data either way.
	Title     string           `xml:"title"`
	Link      string           `xml:"link"`
	GUID      string           `xml:"guid"`
	PubDate   string           `xml:"pubDate"`
	Category  string           `xml:"category"`
	Enclosure newznabEnclosure `xml:"enclosure"`
}

type newznabEnclosure struct {
	URL    string `xml:"url,attr"`
	Length string `xml:"length,attr"`
}

// searchNewznab issues one query against one indexer and parses the feed.
// The profile's timeout is enforced on top of the caller's context; any
// transport or HTTP failure is returned as an error for the caller to treat
// as "zero results from this indexer".
func (s *Service) searchNewznab(ctx context.Context, idx config.IndexerConfig, opts SearchOptions, limit, offset int) ([]models.SearchResult, int, error) {
	params := url.Values{}
	params.Set("apikey", idx.APIKey)
	params.Set("t", "search")
	params.Set("q", opts.Query)
	params.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
	if cat := searchCategories(idx, opts); cat != "" {
		params.Set("cat", cat)
	}

	apiURL := strings.TrimRight(idx.URL, "/") + "/api?" + params.Encode()

	timeout := defaultIndexerTimeout
	if idx.Timeout > 0 {
		timeout = time.Duration(idx.Timeout) * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/rss+xml, application/xml, text/xml")
	req.Header.Set("User-Agent", searchUserAgent)

	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s request failed: %w", idx.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, 0, fmt.Errorf("%s returned status %d: %s", idx.Name, resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}

	results, total := parseNewznabResponse(body, idx.Name)
	return results, total, nil
}

// searchCategories picks the category filter: the profile's configured
// categories win; otherwise the caller's requested category is forwarded.
func searchCategories(idx config.IndexerConfig, opts SearchOptions) string {
	var cats []string
	for _, c := range idx.Categories {
		if c = strings.TrimSpace(c); c != "" {
			cats = append(cats, c)
		}
	}
	if len(cats) > 0 {
		return strings.Join(cats, ",")
	}
	return strings.TrimSpace(opts.Category)
}

// parseNewznabResponse extracts results from a feed payload. It never fails:
// a payload that does not parse yields no results and a zero total, and
// malformed items degrade individually rather than aborting the feed.
func parseNewznabResponse(body []byte, indexerName string) ([]models.SearchResult, int) {
	var feed newznabFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		log.Printf("[indexer] %s: unparseable feed, dropping response: %v", indexerName, err)
		return nil, 0
	}

	results := make([]models.SearchResult, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)

		// An item with neither a title nor a link cannot be displayed or
		// actioned.
		if title == "" && link == "" {
			continue
		}

		guid := strings.TrimSpace(item.GUID)
		if guid == "" {
			guid = link
		}

		results = append(results, models.SearchResult{
			ID:        guid,
			Title:     title,
			SizeBytes: parseSize(item.Enclosure.Length),
			Category:  parseCategory(item.Category),
			PostedAt:  parsePubDate(item.PubDate),
			NZBID:     guid,
			Indexer:   indexerName,
		})
	}

	return results, parseTotal(feed.Channel.Response.Total)
}

func parseSize(raw string) int64 {
	size, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || size < 0 {
		return 0
	}
	return size
}

func parseCategory(raw string) string {
	if c := strings.TrimSpace(raw); c != "" {
		return c
	}
	return "Unknown"
}

// parsePubDate falls back to the current time when the feed's date is absent
// or unparseable. Synthesized values are indistinguishable from upstream
// ones.
func parsePubDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		for _, layout := range pubDateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t
			}
		}
	}
	return time.Now()
}

func parseTotal(raw string) int {
	total, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || total < 0 {
		return 0
	}
	return total
}
