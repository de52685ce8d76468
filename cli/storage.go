package cli

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

// Storage reads and writes documents by URL. Plain paths are local files;
// anything with a scheme goes to the matching afs backend.
type Storage struct {
	fs afs.Service
}

// NewStorage returns a Storage backed by the default afs service.
func NewStorage() *Storage {
	return &Storage{fs: afs.New()}
}

// normalize turns a local path into a file URL.
func normalize(location string) (string, error) {
	if strings.Contains(location, "://") {
		return location, nil
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// Read downloads the object at location.
func (s *Storage) Read(ctx context.Context, location string) ([]byte, error) {
	URL, err := normalize(location)
	if err != nil {
		return nil, err
	}
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", location, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: not found", location)
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", location, err)
	}
	return data, nil
}

// Write uploads data to location, replacing any existing object.
func (s *Storage) Write(ctx context.Context, location string, data []byte) error {
	URL, err := normalize(location)
	if err != nil {
		return err
	}
	if err := s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", location, err)
	}
	return nil
}
