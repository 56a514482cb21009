package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"nzbscout/models"
)

var (
	// ErrNoDownloadDir means no completed-downloads directory is configured.
	ErrNoDownloadDir = errors.New("completed downloads directory not configured")

	// ErrInvalidPath rejects paths that would escape the downloads root.
	ErrInvalidPath = errors.New("invalid path")
)

// Service browses the completed-downloads directory. All paths it accepts
// are relative to the configured root and are confined to it.
type Service struct {
	fs   afero.Fs
	root string
}

// NewService creates a browser rooted at dir.
func NewService(fs afero.Fs, dir string) (*Service, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, ErrNoDownloadDir
	}
	return &Service{fs: fs, root: filepath.Clean(dir)}, nil
}

// Root returns the configured downloads directory.
func (s *Service) Root() string { return s.root }

// resolve maps a client-supplied relative path onto the root, refusing
// anything that would climb out of it.
func (s *Service) resolve(rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	if strings.HasPrefix(rel, "/") || strings.HasPrefix(rel, "\\") {
		return "", ErrInvalidPath
	}

	full := filepath.Clean(filepath.Join(s.root, rel))
	if full != s.root && !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return full, nil
}

// List returns the entries of one directory, directories first, each file
// annotated with its detected content type.
func (s *Service) List(rel string) ([]models.FileEntry, error) {
	dir, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}

	infos, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPath, rel)
		}
		return nil, fmt.Errorf("read dir: %w", err)
	}

	entries := make([]models.FileEntry, 0, len(infos))
	for _, info := range infos {
		entry := models.FileEntry{
			Name:      info.Name(),
			Path:      filepath.ToSlash(filepath.Join(rel, info.Name())),
			IsDir:     info.IsDir(),
			SizeBytes: info.Size(),
			ModTime:   info.ModTime().Unix(),
		}
		if !info.IsDir() {
			entry.ContentType = s.detectContentType(filepath.Join(dir, info.Name()))
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// Open returns a reader for one file plus its detected content type, for
// streaming to a client.
func (s *Service) Open(rel string) (afero.File, os.FileInfo, string, error) {
	full, err := s.resolve(rel)
	if err != nil {
		return nil, nil, "", err
	}

	info, err := s.fs.Stat(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, "", fmt.Errorf("%w: %s", ErrInvalidPath, rel)
		}
		return nil, nil, "", fmt.Errorf("stat: %w", err)
	}
	if info.IsDir() {
		return nil, nil, "", fmt.Errorf("%w: %s is a directory", ErrInvalidPath, rel)
	}

	f, err := s.fs.Open(full)
	if err != nil {
		return nil, nil, "", fmt.Errorf("open: %w", err)
	}

	return f, info, s.detectContentType(full), nil
}

// detectContentType sniffs the file header. Unreadable or unknown files get
// the generic octet-stream type.
func (s *Service) detectContentType(full string) string {
	f, err := s.fs.Open(full)
	if err != nil {
		return "application/octet-stream"
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return "application/octet-stream"
	}
	return mtype.String()
}

// DiskSpace reports capacity for the downloads volume.
func (s *Service) DiskSpace() (models.DiskSpace, error) {
	total, free, err := statDisk(s.root)
	if err != nil {
		return models.DiskSpace{}, fmt.Errorf("stat volume: %w", err)
	}
	return models.DiskSpace{Path: s.root, TotalBytes: total, FreeBytes: free}, nil
}
