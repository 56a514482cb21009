package sabnzbd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/mozillazg/go-unidecode"

	"nzbscout/models"
)

const clientTimeout = 30 * time.Second

var (
	// ErrNotConfigured means the SABnzbd URL or API key is missing from the
	// settings.
	ErrNotConfigured = errors.New("sabnzbd is not configured")

	// ErrJobNotFound means SABnzbd has no job for the requested nzo id.
	ErrJobNotFound = errors.New("download job not found")

	illegalFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	collapseWhitespace   = regexp.MustCompile(`\s+`)
)

// Client talks to a SABnzbd instance over its JSON API. Every method is a
// thin proxy; SABnzbd owns all queue state.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// NewClient creates a SABnzbd API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		httpc:   &http.Client{Timeout: clientTimeout},
	}
}

// AddOptions tune how a job is queued.
type AddOptions struct {
	Category string
	Priority *int
	Name     string // display name; sanitized before sending
}

// sabStatusResponse is SABnzbd's generic mutation reply.
type sabStatusResponse struct {
	Status bool     `json:"status"`
	NzoIDs []string `json:"nzo_ids"`
	Error  string   `json:"error"`
}

// sabQueueResponse mirrors mode=queue. SABnzbd reports sizes as MB strings.
type sabQueueResponse struct {
	Queue struct {
		Slots []struct {
			NzoID      string `json:"nzo_id"`
			Filename   string `json:"filename"`
			Status     string `json:"status"`
			MB         string `json:"mb"`
			MBLeft     string `json:"mbleft"`
			Percentage string `json:"percentage"`
			TimeLeft   string `json:"timeleft"`
			ETA        string `json:"eta"`
			Priority   string `json:"priority"`
			Cat        string `json:"cat"`
			AvgAge     string `json:"avg_age"`
		} `json:"slots"`
		Paused     bool   `json:"paused"`
		Speed      string `json:"speed"`
		SpeedLimit string `json:"speedlimit"`
		DiskSpace1 string `json:"diskspace1"`
		Version    string `json:"version"`
	} `json:"queue"`
}

// sabHistoryResponse mirrors mode=history.
type sabHistoryResponse struct {
	History struct {
		Slots []struct {
			NzoID        string `json:"nzo_id"`
			Name         string `json:"name"`
			Status       string `json:"status"`
			Bytes        int64  `json:"bytes"`
			Category     string `json:"category"`
			Storage      string `json:"storage"`
			FailMessage  string `json:"fail_message"`
			Completed    int64  `json:"completed"`
			DownloadTime int64  `json:"download_time"`
		} `json:"slots"`
	} `json:"history"`
}

func (c *Client) configured() error {
	if c.baseURL == "" || c.apiKey == "" {
		return ErrNotConfigured
	}
	return nil
}

// apiURL builds a SABnzbd API call URL for the given mode.
func (c *Client) apiURL(mode string, extra url.Values) string {
	params := url.Values{}
	params.Set("mode", mode)
	params.Set("apikey", c.apiKey)
	params.Set("output", "json")
	for k, vs := range extra {
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	return c.baseURL + "/api?" + params.Encode()
}

func (c *Client) do(ctx context.Context, method, callURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, callURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("sabnzbd request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sabnzbd returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode sabnzbd response: %w", err)
	}
	return nil
}

// doWithRetry wraps do for idempotent reads, retrying transient failures.
// Mutations never retry: re-sending addurl could queue a job twice.
func (c *Client) doWithRetry(ctx context.Context, callURL string, out any) error {
	return retry.Do(
		func() error { return c.do(ctx, http.MethodGet, callURL, out) },
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
}

// AddURL hands SABnzbd a signed NZB URL to fetch and queue. Returns the new
// job's nzo id when SABnzbd reports one.
func (c *Client) AddURL(ctx context.Context, nzbURL string, opts AddOptions) (string, error) {
	if err := c.configured(); err != nil {
		return "", err
	}
	nzbURL = strings.TrimSpace(nzbURL)
	if nzbURL == "" {
		return "", errors.New("nzb url is required")
	}

	extra := url.Values{}
	extra.Set("name", nzbURL)
	if opts.Category != "" {
		extra.Set("cat", opts.Category)
	}
	if opts.Priority != nil {
		extra.Set("priority", strconv.Itoa(*opts.Priority))
	}
	if opts.Name != "" {
		extra.Set("nzbname", SanitizeFilename(opts.Name))
	}

	var out sabStatusResponse
	if err := c.do(ctx, http.MethodPost, c.apiURL("addurl", extra), &out); err != nil {
		return "", err
	}
	if !out.Status {
		if out.Error != "" {
			return "", fmt.Errorf("sabnzbd rejected the job: %s", out.Error)
		}
		return "", errors.New("sabnzbd rejected the job")
	}
	if len(out.NzoIDs) > 0 {
		return out.NzoIDs[0], nil
	}
	return "", nil
}

// Queue returns the current download queue with sizes converted to bytes.
func (c *Client) Queue(ctx context.Context) (models.QueueStatus, error) {
	if err := c.configured(); err != nil {
		return models.QueueStatus{}, err
	}

	var out sabQueueResponse
	if err := c.doWithRetry(ctx, c.apiURL("queue", nil), &out); err != nil {
		return models.QueueStatus{}, err
	}

	status := models.QueueStatus{
		Items:      make([]models.QueueItem, 0, len(out.Queue.Slots)),
		Paused:     out.Queue.Paused,
		Speed:      out.Queue.Speed,
		SpeedLimit: out.Queue.SpeedLimit,
		DiskSpace:  out.Queue.DiskSpace1,
		Version:    out.Queue.Version,
	}
	for _, slot := range out.Queue.Slots {
		mb := parseMB(slot.MB)
		mbLeft := parseMB(slot.MBLeft)
		status.Items = append(status.Items, models.QueueItem{
			NzoID:      slot.NzoID,
			Filename:   slot.Filename,
			Status:     slot.Status,
			SizeBytes:  megabytesToBytes(mb),
			LeftBytes:  megabytesToBytes(mbLeft),
			Percentage: slot.Percentage,
			TimeLeft:   slot.TimeLeft,
			ETA:        slot.ETA,
			Priority:   slot.Priority,
			Category:   slot.Cat,
			AvgAge:     slot.AvgAge,
			MB:         mb,
			MBLeft:     mbLeft,
		})
	}
	return status, nil
}

// History returns completed and failed jobs, newest first as SABnzbd reports
// them.
func (c *Client) History(ctx context.Context, limit int) ([]models.HistoryItem, error) {
	if err := c.configured(); err != nil {
		return nil, err
	}

	extra := url.Values{}
	if limit > 0 {
		extra.Set("limit", strconv.Itoa(limit))
	}

	var out sabHistoryResponse
	if err := c.doWithRetry(ctx, c.apiURL("history", extra), &out); err != nil {
		return nil, err
	}

	items := make([]models.HistoryItem, 0, len(out.History.Slots))
	for _, slot := range out.History.Slots {
		items = append(items, models.HistoryItem{
			NzoID:        slot.NzoID,
			Name:         slot.Name,
			Status:       slot.Status,
			SizeBytes:    slot.Bytes,
			Category:     slot.Category,
			Storage:      slot.Storage,
			FailMessage:  slot.FailMessage,
			Completed:    slot.Completed,
			DownloadTime: slot.DownloadTime,
		})
	}
	return items, nil
}

// sabFilesResponse mirrors mode=get_files. A missing files key means the job
// is unknown.
type sabFilesResponse struct {
	Files []struct {
		Filename   string `json:"filename"`
		Bytes      int64  `json:"bytes"`
		Status     string `json:"status"`
		NzfID      string `json:"nzf_id"`
		Completed  bool   `json:"completed"`
		Percentage string `json:"percentage"`
	} `json:"files"`
}

// GetFiles returns the per-file breakdown of one job, with total and
// completed counts. ErrJobNotFound when SABnzbd does not know the nzo id.
func (c *Client) GetFiles(ctx context.Context, nzoID string) (models.JobStatus, error) {
	if err := c.configured(); err != nil {
		return models.JobStatus{}, err
	}
	nzoID = strings.TrimSpace(nzoID)
	if nzoID == "" {
		return models.JobStatus{}, errors.New("nzo id is required")
	}

	extra := url.Values{}
	extra.Set("value", nzoID)

	var out sabFilesResponse
	if err := c.doWithRetry(ctx, c.apiURL("get_files", extra), &out); err != nil {
		return models.JobStatus{}, err
	}
	if out.Files == nil {
		return models.JobStatus{}, fmt.Errorf("%w: %s", ErrJobNotFound, nzoID)
	}

	status := models.JobStatus{
		NzoID: nzoID,
		Files: make([]models.JobFile, 0, len(out.Files)),
	}
	for _, f := range out.Files {
		status.Files = append(status.Files, models.JobFile{
			Filename:   f.Filename,
			SizeBytes:  f.Bytes,
			Status:     f.Status,
			NzfID:      f.NzfID,
			Completed:  f.Completed,
			Percentage: f.Percentage,
		})
		if f.Completed {
			status.CompletedFiles++
		}
	}
	status.TotalFiles = len(status.Files)
	return status, nil
}

// PauseQueue pauses the whole download queue.
func (c *Client) PauseQueue(ctx context.Context) error {
	if err := c.configured(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, c.apiURL("pause", nil), nil)
}

// ResumeQueue resumes the whole download queue.
func (c *Client) ResumeQueue(ctx context.Context) error {
	if err := c.configured(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, c.apiURL("resume", nil), nil)
}

// DeleteQueueItem removes one job from the queue.
func (c *Client) DeleteQueueItem(ctx context.Context, nzoID string) error {
	if err := c.configured(); err != nil {
		return err
	}
	nzoID = strings.TrimSpace(nzoID)
	if nzoID == "" {
		return errors.New("nzo id is required")
	}

	extra := url.Values{}
	extra.Set("name", "delete")
	extra.Set("value", nzoID)

	var out sabStatusResponse
	if err := c.do(ctx, http.MethodPost, c.apiURL("queue", extra), &out); err != nil {
		return err
	}
	if !out.Status {
		return fmt.Errorf("sabnzbd could not delete job %s", nzoID)
	}
	return nil
}

// parseMB reads SABnzbd's MB figures, which arrive as strings like "1277.76".
func parseMB(raw string) float64 {
	mb, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || mb < 0 {
		return 0
	}
	return mb
}

func megabytesToBytes(mb float64) int64 {
	return int64(mb * 1024 * 1024)
}

// entityDecoder undoes the HTML escaping indexers apply to titles before
// they are used as filenames.
var entityDecoder = strings.NewReplacer(
	"&amp;", "&",
	"&quot;", `"`,
	"&lt;", "<",
	"&gt;", ">",
)

// SanitizeFilename turns a release title into a name SABnzbd and the
// filesystem both accept: entities decoded, non-ASCII folded, illegal
// characters replaced, whitespace collapsed, capped at 200 characters.
func SanitizeFilename(name string) string {
	name = entityDecoder.Replace(name)
	name = unidecode.Unidecode(name)
	name = illegalFilenameChars.ReplaceAllString(name, "_")
	name = collapseWhitespace.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)
	if len(name) > 200 {
		name = name[:200]
	}
	return name
}
