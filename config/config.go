package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

var (
	// ErrNoConfig is returned by Load when no settings file exists yet.
	ErrNoConfig = errors.New("configuration file not found")

	ErrInvalidSettings = errors.New("invalid settings")
)

// IndexerConfig describes one upstream Newznab indexer.
type IndexerConfig struct {
	Name       string   `json:"name"`
	URL        string   `json:"url"`
	APIKey     string   `json:"apiKey"`
	Enabled    bool     `json:"enabled"`
	Timeout    int      `json:"timeout"` // seconds
	Type       string   `json:"type"`    // newznab | html | json
	Categories []string `json:"categories"`
}

// Complete reports whether the profile carries everything needed to query it.
func (ic IndexerConfig) Complete() bool {
	return strings.TrimSpace(ic.Name) != "" &&
		strings.TrimSpace(ic.URL) != "" &&
		strings.TrimSpace(ic.APIKey) != ""
}

// SabnzbdConfig points at the SABnzbd instance downloads are proxied to.
type SabnzbdConfig struct {
	URL    string `json:"url"`
	APIKey string `json:"apiKey"`
}

// DownloadsConfig locates completed downloads on disk.
type DownloadsConfig struct {
	CompletedDir string `json:"completedDir"`
}

// Settings is the full persisted configuration.
type Settings struct {
	Indexers  []IndexerConfig `json:"indexers"`
	Sabnzbd   SabnzbdConfig   `json:"sabnzbd"`
	Downloads DownloadsConfig `json:"downloads"`
}

// Validate checks the structural requirements enforced when saving settings:
// every indexer profile must carry name/url/apiKey, and a SABnzbd URL is
// required once an API key is set.
func (s Settings) Validate() error {
	for i, idx := range s.Indexers {
		if !idx.Complete() {
			return fmt.Errorf("%w: indexer %d is missing required fields", ErrInvalidSettings, i)
		}
		if idx.Timeout < 0 {
			return fmt.Errorf("%w: indexer %q has a negative timeout", ErrInvalidSettings, idx.Name)
		}
	}
	if s.Sabnzbd.APIKey != "" && strings.TrimSpace(s.Sabnzbd.URL) == "" {
		return fmt.Errorf("%w: sabnzbd url is required", ErrInvalidSettings)
	}
	return nil
}

// DefaultSettings returns the skeleton written on first read, matching the
// shape the configuration UI expects to fill in.
func DefaultSettings() Settings {
	return Settings{
		Indexers: []IndexerConfig{
			{
				Name:       "",
				URL:        "",
				APIKey:     "",
				Enabled:    true,
				Timeout:    30,
				Type:       "newznab",
				Categories: []string{},
			},
		},
	}
}

// Manager reads and writes the settings file. All access goes through the
// manager; nothing else touches the file.
type Manager struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
}

// NewManager creates a settings manager for the given file path.
func NewManager(fs afero.Fs, path string) *Manager {
	return &Manager{fs: fs, path: path}
}

// Load reads the settings file. It returns ErrNoConfig when the file does
// not exist; it never creates one.
func (m *Manager) Load() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load()
}

// LoadOrInit reads the settings file, creating it with defaults first if it
// does not exist yet.
func (m *Manager) LoadOrInit() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.load()
	if errors.Is(err, ErrNoConfig) {
		s = DefaultSettings()
		if werr := m.write(s); werr != nil {
			return Settings{}, werr
		}
		return s, nil
	}
	return s, err
}

// Save validates and persists the settings.
func (m *Manager) Save(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.write(s)
}

func (m *Manager) load() (Settings, error) {
	data, err := afero.ReadFile(m.fs, m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, ErrNoConfig
		}
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	return s, nil
}

func (m *Manager) write(s Settings) error {
	if dir := filepath.Dir(m.path); dir != "." {
		if err := m.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := afero.WriteFile(m.fs, m.path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
