// Package tmpfile mirrors the current kanata layer into a plain text file
// for status bars and scripts to pick up.
package tmpfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const FileName = "kanata_layer"

func DefaultPath() string {
	return filepath.Join(os.TempDir(), FileName)
}

type LayerStore struct {
	path string
	lock sync.Mutex
}

func NewLayerStore(filename string) *LayerStore {
	return &LayerStore{path: filename}
}

// RecordLayer replaces the file contents with layer. The file is written by
// path every time, so it comes back if something removed it in between.
func (s *LayerStore) RecordLayer(_ context.Context, layer string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := os.WriteFile(s.path, []byte(layer), 0644); err != nil {
		return fmt.Errorf("write layer: %w", err)
	}

	return nil
}

// CurrentLayer returns the last recorded layer, or an empty string if
// nothing was recorded yet.
func (s *LayerStore) CurrentLayer() (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("read file: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}
