package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/eugenenazirov/bin-packer/internal/packing"
)

const configExt = ".json"

// FileStorage persists each configuration as a JSON file in a directory.
type FileStorage struct {
	base

	dir string
	mu  sync.RWMutex
}

// NewFileStorage creates the directory if needed and returns a store rooted there.
func NewFileStorage(dir string, opts ...Option) (*FileStorage, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("configs directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create configs directory: %w", err)
	}
	return &FileStorage{base: newBase(opts), dir: dir}, nil
}

// SaveConfig writes the configuration atomically via a temporary file.
func (s *FileStorage) SaveConfig(name string, req packing.RawRequest) (SavedConfig, error) {
	cfg, err := s.build(name, req)
	if err != nil {
		return SavedConfig{}, err
	}
	if !validFileID(cfg.ID) {
		return SavedConfig{}, fmt.Errorf("%w: id %q is not usable as a file name", ErrInvalidConfig, cfg.ID)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return SavedConfig{}, fmt.Errorf("encode configuration: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return SavedConfig{}, fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return SavedConfig{}, fmt.Errorf("write configuration: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return SavedConfig{}, fmt.Errorf("close configuration: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(cfg.ID)); err != nil {
		_ = os.Remove(tmp.Name())
		return SavedConfig{}, fmt.Errorf("store configuration: %w", err)
	}

	return cfg, nil
}

// ListConfigs reads every configuration file, oldest first. Files that cannot
// be parsed are skipped.
func (s *FileStorage) ListConfigs() ([]SavedConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read configs directory: %w", err)
	}

	configs := make([]SavedConfig, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != configExt {
			continue
		}
		cfg, err := readConfig(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		configs = append(configs, cfg)
	}

	slices.SortStableFunc(configs, func(a, b SavedConfig) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return configs, nil
}

// GetConfig loads one configuration by ID.
func (s *FileStorage) GetConfig(id string) (SavedConfig, error) {
	// Only IDs shaped like generated ones are joined into a path.
	if !validFileID(id) {
		return SavedConfig{}, fmt.Errorf("%w: %s", ErrConfigNotFound, id)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, err := readConfig(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return SavedConfig{}, fmt.Errorf("%w: %s", ErrConfigNotFound, id)
	}
	if err != nil {
		return SavedConfig{}, err
	}
	return cfg, nil
}

func (s *FileStorage) path(id string) string {
	return filepath.Join(s.dir, id+configExt)
}

func readConfig(path string) (SavedConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SavedConfig{}, err
	}
	var cfg SavedConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return SavedConfig{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

func validFileID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
