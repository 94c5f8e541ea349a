package file

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/ports"
)

const (
	ext     = ".json"
	tempExt = ".tmp"
)

// Store implements ports.PreferencesStore on the local filesystem.
// Each preference set is one JSON file named after its escaped key.
type Store struct {
	BasePath string
}

// New creates a Store rooted at basePath, ".portlet/preferences" when empty.
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".portlet", "preferences")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(key string) string {
	return filepath.Join(s.BasePath, url.PathEscape(key)+ext)
}

// Save writes the set atomically: temp file, fsync, rename.
func (s *Store) Save(ctx context.Context, key string, values map[string][]string) error {
	if key == "" {
		return domain.NewInvalidArgument("preferences key cannot be empty")
	}
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure preferences directory: %w", err)
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.BasePath, "save-*"+tempExt)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	dest := s.path(key)
	// Windows refuses to rename over an existing file.
	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("failed to replace preferences file: %w", err)
		}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Load reads the set stored under key.
func (s *Store) Load(ctx context.Context, key string) (map[string][]string, error) {
	if key == "" {
		return nil, domain.NewInvalidArgument("preferences key cannot be empty")
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrPreferencesNotFound
		}
		return nil, fmt.Errorf("failed to read preferences file: %w", err)
	}

	var values map[string][]string
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
	}
	if values == nil {
		values = map[string][]string{}
	}
	return values, nil
}

// Delete removes the file for key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return domain.NewInvalidArgument("preferences key cannot be empty")
	}
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete preferences file: %w", err)
	}
	return nil
}

// List returns the stored keys, sorted. In-flight temp files never carry the
// set extension.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, ext))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys, nil
}

var _ ports.PreferencesStore = (*Store)(nil)
