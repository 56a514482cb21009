package indexer

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"nzbscout/models"
)

// entityReplacer decodes the standard character references indexers leave in
// feed text. Anything outside this set passes through unchanged. Single-pass,
// so "&amp;lt;" decodes to "&lt;" and stops there.
var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&apos;", "'",
	"&nbsp;", " ",
)

func decodeEntities(s string) string {
	return entityReplacer.Replace(s)
}

// normalizeResult decodes entity artifacts in the free-text fields and trims
// the title. Sizes arrive already in bytes; unit conversion belongs to
// whichever collaborator reports in other units.
func normalizeResult(r *models.SearchResult) {
	r.Title = strings.TrimSpace(decodeEntities(r.Title))
	r.Category = decodeEntities(r.Category)
}

// dedupeKey collapses cosmetic title differences: lowercase, keep only
// letters, digits and whitespace, then pair with the exact byte size. Two
// releases matching on both are treated as the same posting.
func dedupeKey(r models.SearchResult) string {
	title := strings.Map(func(c rune) rune {
		if unicode.IsLetter(c) || unicode.IsDigit(c) || unicode.IsSpace(c) {
			return c
		}
		return -1
	}, strings.ToLower(r.Title))

	return strings.TrimSpace(title) + "-" + strconv.FormatInt(r.SizeBytes, 10)
}

// dedupeResults removes near-duplicates, keeping the first occurrence so the
// incoming order is preserved.
func dedupeResults(results []models.SearchResult) []models.SearchResult {
	seen := make(map[string]struct{}, len(results))
	deduped := results[:0:0]

	for _, r := range results {
		key := dedupeKey(r)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, r)
	}
	return deduped
}

// sortResults orders newest-first. Equal timestamps fall back to indexer
// name, then ID, so the merged order does not depend on which fan-out
// goroutine finished first.
func sortResults(results []models.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if !a.PostedAt.Equal(b.PostedAt) {
			return a.PostedAt.After(b.PostedAt)
		}
		if a.Indexer != b.Indexer {
			return a.Indexer < b.Indexer
		}
		return a.ID < b.ID
	})
}

// paginate slices the [offset, offset+limit) window out of results.
func paginate(results []models.SearchResult, offset, limit int) []models.SearchResult {
	if offset >= len(results) {
		return []models.SearchResult{}
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	return results[offset:end]
}
