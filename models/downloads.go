package models

// QueueItem is one active download slot reported by SABnzbd, with sizes
// converted from SABnzbd's MB floats to bytes.
type QueueItem struct {
	NzoID      string  `json:"nzo_id"`
	Filename   string  `json:"filename"`
	Status     string  `json:"status"`
	SizeBytes  int64   `json:"size"`
	LeftBytes  int64   `json:"sizeleft"`
	Percentage string  `json:"percentage"`
	TimeLeft   string  `json:"timeleft"`
	ETA        string  `json:"eta"`
	Priority   string  `json:"priority"`
	Category   string  `json:"category"`
	AvgAge     string  `json:"avg_age"`
	MB         float64 `json:"mb"`
	MBLeft     float64 `json:"mbleft"`
}

// QueueStatus is the overall download-queue state.
type QueueStatus struct {
	Items      []QueueItem `json:"queue"`
	Paused     bool        `json:"paused"`
	Speed      string      `json:"speed"`
	SpeedLimit string      `json:"speedlimit"`
	DiskSpace  string      `json:"diskspace1"`
	Version    string      `json:"version"`
}

// HistoryItem is one completed (or failed) download from SABnzbd history.
type HistoryItem struct {
	NzoID        string `json:"nzo_id"`
	Name         string `json:"name"`
	Status       string `json:"status"`
	SizeBytes    int64  `json:"bytes"`
	Category     string `json:"category"`
	Storage      string `json:"storage"`
	FailMessage  string `json:"fail_message,omitempty"`
	Completed    int64  `json:"completed"`
	DownloadTime int64  `json:"download_time"`
}

// JobFile is one file inside a queued job, as reported by mode=get_files.
type JobFile struct {
	Filename   string `json:"filename"`
	SizeBytes  int64  `json:"size"`
	Status     string `json:"status"`
	NzfID      string `json:"nzf_id"`
	Completed  bool   `json:"completed"`
	Percentage string `json:"percentage"`
}

// JobStatus is the per-job file breakdown behind the status endpoint.
type JobStatus struct {
	NzoID          string    `json:"nzo_id"`
	Files          []JobFile `json:"files"`
	TotalFiles     int       `json:"total_files"`
	CompletedFiles int       `json:"completed_files"`
}

// FileEntry is one entry in the completed-downloads browser.
type FileEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	IsDir       bool   `json:"isDir"`
	SizeBytes   int64  `json:"sizeBytes"`
	ModTime     int64  `json:"modTime"`
	ContentType string `json:"contentType,omitempty"`
}

// DiskSpace reports capacity for the downloads volume.
type DiskSpace struct {
	Path       string `json:"path"`
	TotalBytes uint64 `json:"totalBytes"`
	FreeBytes  uint64 `json:"freeBytes"`
}
