package sabnzbd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"entities decoded", "Show &amp; Tell", "Show & Tell"},
		{"illegal chars replaced", `a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{"whitespace collapsed", "too   many\t spaces", "too many spaces"},
		{"trimmed", "  padded  ", "padded"},
		{"unicode folded", "Amélie", "Amelie"},
		{"empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SanitizeFilename(tc.input))
		})
	}
}

func TestSanitizeFilenameCapsLength(t *testing.T) {
	long := ""
	for i := 0; i < 50; i++ {
		long += "abcdefghij"
	}
	assert.Len(t, SanitizeFilename(long), 200)
}

func TestAddURL(t *testing.T) {
	var received url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.URL.Query()
		w.Write([]byte(`{"status": true, "nzo_ids": ["SABnzbd_nzo_123"]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sabkey")
	prio := 1
	jobID, err := c.AddURL(context.Background(), "https://idx.example/getnzb/abc", AddOptions{
		Category: "tv",
		Priority: &prio,
		Name:     "Some &amp; Release",
	})
	require.NoError(t, err)
	assert.Equal(t, "SABnzbd_nzo_123", jobID)

	assert.Equal(t, "addurl", received.Get("mode"))
	assert.Equal(t, "sabkey", received.Get("apikey"))
	assert.Equal(t, "json", received.Get("output"))
	assert.Equal(t, "https://idx.example/getnzb/abc", received.Get("name"))
	assert.Equal(t, "tv", received.Get("cat"))
	assert.Equal(t, "1", received.Get("priority"))
	assert.Equal(t, "Some & Release", received.Get("nzbname"))
}

func TestAddURLRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": false, "error": "API Key Incorrect"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "wrong")
	_, err := c.AddURL(context.Background(), "https://idx.example/getnzb/abc", AddOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API Key Incorrect")
}

func TestAddURLNotConfigured(t *testing.T) {
	c := NewClient("", "")
	_, err := c.AddURL(context.Background(), "https://idx.example/getnzb/abc", AddOptions{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestQueueMapsSlots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "queue", r.URL.Query().Get("mode"))
		w.Write([]byte(`{"queue": {
			"slots": [{
				"nzo_id": "SABnzbd_nzo_1",
				"filename": "Some.Release",
				"status": "Downloading",
				"mb": "1024.00",
				"mbleft": "512.00",
				"percentage": "50",
				"timeleft": "0:05:00",
				"eta": "13:45 Mon 02 Dec",
				"priority": "Normal",
				"cat": "tv",
				"avg_age": "12d"
			}],
			"paused": false,
			"speed": "3.4 M",
			"speedlimit": "100",
			"diskspace1": "512.00",
			"version": "4.3.2"
		}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sabkey")
	status, err := c.Queue(context.Background())
	require.NoError(t, err)

	require.Len(t, status.Items, 1)
	item := status.Items[0]
	assert.Equal(t, "SABnzbd_nzo_1", item.NzoID)
	assert.Equal(t, int64(1024*1024*1024), item.SizeBytes)
	assert.Equal(t, int64(512*1024*1024), item.LeftBytes)
	assert.Equal(t, "Downloading", item.Status)
	assert.Equal(t, "tv", item.Category)
	assert.False(t, status.Paused)
	assert.Equal(t, "4.3.2", status.Version)
}

func TestQueueRetriesTransientFailure(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"queue": {"slots": [], "paused": true}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sabkey")
	status, err := c.Queue(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Paused)
	assert.Equal(t, 3, attempts)
}

func TestHistoryMapsSlots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "history", r.URL.Query().Get("mode"))
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"history": {"slots": [{
			"nzo_id": "SABnzbd_nzo_9",
			"name": "Done.Release",
			"status": "Completed",
			"bytes": 3650722201,
			"category": "iso",
			"storage": "/downloads/complete/Done.Release",
			"completed": 1733059200,
			"download_time": 420
		}]}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sabkey")
	items, err := c.History(context.Background(), 25)
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, int64(3650722201), items[0].SizeBytes)
	assert.Equal(t, "Completed", items[0].Status)
	assert.Equal(t, "/downloads/complete/Done.Release", items[0].Storage)
}

func TestDeleteQueueItem(t *testing.T) {
	var received url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.URL.Query()
		w.Write([]byte(`{"status": true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sabkey")
	require.NoError(t, c.DeleteQueueItem(context.Background(), "SABnzbd_nzo_1"))

	assert.Equal(t, "queue", received.Get("mode"))
	assert.Equal(t, "delete", received.Get("name"))
	assert.Equal(t, "SABnzbd_nzo_1", received.Get("value"))
}

func TestGetFilesMapsFiles(t *testing.T) {
	var received url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.URL.Query()
		w.Write([]byte(`{"files": [
			{"filename": "part01.rar", "bytes": 52428800, "status": "finished", "nzf_id": "SABnzbd_nzf_1", "completed": true, "percentage": "100"},
			{"filename": "part02.rar", "bytes": 52428800, "status": "active", "nzf_id": "SABnzbd_nzf_2", "completed": false, "percentage": "40"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sabkey")
	status, err := c.GetFiles(context.Background(), "SABnzbd_nzo_1")
	require.NoError(t, err)

	assert.Equal(t, "get_files", received.Get("mode"))
	assert.Equal(t, "SABnzbd_nzo_1", received.Get("value"))

	assert.Equal(t, "SABnzbd_nzo_1", status.NzoID)
	require.Len(t, status.Files, 2)
	assert.Equal(t, "part01.rar", status.Files[0].Filename)
	assert.Equal(t, int64(52428800), status.Files[0].SizeBytes)
	assert.Equal(t, "SABnzbd_nzf_1", status.Files[0].NzfID)
	assert.True(t, status.Files[0].Completed)
	assert.Equal(t, 2, status.TotalFiles)
	assert.Equal(t, 1, status.CompletedFiles)
}

func TestGetFilesUnknownJob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "unknown nzo_id"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sabkey")
	_, err := c.GetFiles(context.Background(), "SABnzbd_nzo_404")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestPauseResume(t *testing.T) {
	var modes []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		modes = append(modes, r.URL.Query().Get("mode"))
		w.Write([]byte(`{"status": true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sabkey")
	require.NoError(t, c.PauseQueue(context.Background()))
	require.NoError(t, c.ResumeQueue(context.Background()))
	assert.Equal(t, []string{"pause", "resume"}, modes)
}
