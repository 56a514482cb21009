package indexer

import (
	"fmt"
	"testing"
	"time"

	"nzbscout/models"
)

func TestDecodeEntities(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"ampersand", "Show.Name.S01E01.&amp;.More", "Show.Name.S01E01.&.More"},
		{"angle brackets", "&lt;tag&gt;", "<tag>"},
		{"quotes", "&quot;quoted&quot;", `"quoted"`},
		{"numeric apostrophe", "it&#39;s", "it's"},
		{"named apostrophe", "it&apos;s", "it's"},
		{"non-breaking space", "a&nbsp;b", "a b"},
		{"unknown entity passes through", "x&hellip;y", "x&hellip;y"},
		{"no double decode", "&amp;lt;", "&lt;"},
		{"plain text untouched", "Ubuntu.22.04.ISO", "Ubuntu.22.04.ISO"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := decodeEntities(tc.input); got != tc.expected {
				t.Errorf("decodeEntities(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestNormalizeResultTrimsTitle(t *testing.T) {
	r := models.SearchResult{Title: "  Some.Release &amp; Extras  ", Category: "TV &gt; HD"}
	normalizeResult(&r)

	if r.Title != "Some.Release & Extras" {
		t.Errorf("unexpected title %q", r.Title)
	}
	if r.Category != "TV > HD" {
		t.Errorf("unexpected category %q", r.Category)
	}
}

func TestDedupeKey(t *testing.T) {
	tests := []struct {
		name string
		a, b models.SearchResult
		same bool
	}{
		{
			"cosmetic punctuation differences collapse",
			models.SearchResult{Title: "Ubuntu.22.04-[ISO]", SizeBytes: 1000},
			models.SearchResult{Title: "ubuntu 22 04 iso", SizeBytes: 1000},
			false, // punctuation strip does not insert spaces
		},
		{
			"bracket tags collapse",
			models.SearchResult{Title: "Some Release [REPACK]", SizeBytes: 1000},
			models.SearchResult{Title: "Some Release REPACK", SizeBytes: 1000},
			true,
		},
		{
			"case insensitive",
			models.SearchResult{Title: "SOME RELEASE", SizeBytes: 42},
			models.SearchResult{Title: "some release", SizeBytes: 42},
			true,
		},
		{
			"different size does not collapse",
			models.SearchResult{Title: "Some Release", SizeBytes: 1000},
			models.SearchResult{Title: "Some Release", SizeBytes: 1001},
			false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := dedupeKey(tc.a) == dedupeKey(tc.b); got != tc.same {
				t.Errorf("keys %q / %q: same = %v, want %v", dedupeKey(tc.a), dedupeKey(tc.b), got, tc.same)
			}
		})
	}
}

func TestDedupeResultsFirstWins(t *testing.T) {
	in := []models.SearchResult{
		{ID: "1", Title: "Release.One", SizeBytes: 100, Indexer: "A"},
		{ID: "2", Title: "Release One!", SizeBytes: 100, Indexer: "B"},
		{ID: "3", Title: "Release.One", SizeBytes: 200, Indexer: "A"},
	}

	out := dedupeResults(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out))
	}
	if out[0].ID != "1" || out[1].ID != "3" {
		t.Errorf("unexpected order after dedupe: %v, %v", out[0].ID, out[1].ID)
	}
	if out[0].Indexer != "A" {
		t.Errorf("first occurrence should win, got indexer %q", out[0].Indexer)
	}
}

func TestDedupeResultsIdempotent(t *testing.T) {
	in := []models.SearchResult{
		{ID: "1", Title: "Release.One", SizeBytes: 100},
		{ID: "2", Title: "Release One", SizeBytes: 100},
	}
	once := dedupeResults(in)
	twice := dedupeResults(once)
	if len(once) != len(twice) {
		t.Errorf("dedupe not idempotent: %d vs %d", len(once), len(twice))
	}
}

func TestSortResultsNewestFirst(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	in := []models.SearchResult{
		{ID: "old", PostedAt: base.Add(-time.Hour)},
		{ID: "new", PostedAt: base.Add(time.Hour)},
		{ID: "mid", PostedAt: base},
	}

	sortResults(in)
	want := []string{"new", "mid", "old"}
	for i, id := range want {
		if in[i].ID != id {
			t.Errorf("position %d: got %q, want %q", i, in[i].ID, id)
		}
	}
}

func TestSortResultsTieBreak(t *testing.T) {
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	in := []models.SearchResult{
		{ID: "2", Indexer: "Bravo", PostedAt: ts},
		{ID: "1", Indexer: "Bravo", PostedAt: ts},
		{ID: "9", Indexer: "Alpha", PostedAt: ts},
	}

	sortResults(in)
	if in[0].Indexer != "Alpha" {
		t.Errorf("expected indexer name tie-break, got %q first", in[0].Indexer)
	}
	if in[1].ID != "1" || in[2].ID != "2" {
		t.Errorf("expected ID tie-break within indexer, got %q then %q", in[1].ID, in[2].ID)
	}
}

func TestPaginateWindow(t *testing.T) {
	in := make([]models.SearchResult, 120)
	for i := range in {
		in[i] = models.SearchResult{ID: fmt.Sprintf("r%03d", i)}
	}

	page := paginate(in, 50, 50)
	if len(page) != 50 {
		t.Fatalf("expected 50 items, got %d", len(page))
	}
	if page[0].ID != "r050" || page[49].ID != "r099" {
		t.Errorf("wrong window: first %q, last %q", page[0].ID, page[49].ID)
	}
}

func TestPaginateEdges(t *testing.T) {
	in := make([]models.SearchResult, 10)

	tests := []struct {
		name          string
		offset, limit int
		wantLen       int
	}{
		{"offset past end", 20, 10, 0},
		{"offset at end", 10, 10, 0},
		{"partial last page", 8, 10, 2},
		{"full window", 0, 10, 10},
		{"zero offset small limit", 0, 3, 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := len(paginate(in, tc.offset, tc.limit)); got != tc.wantLen {
				t.Errorf("paginate(len=10, %d, %d) returned %d items, want %d", tc.offset, tc.limit, got, tc.wantLen)
			}
		})
	}
}
