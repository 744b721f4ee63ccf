package storage

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/eugenenazirov/bin-packer/internal/packing"
)

var (
	// ErrConfigNotFound is returned when no saved configuration has the requested ID.
	ErrConfigNotFound = errors.New("configuration not found")
	// ErrInvalidConfig indicates the configuration violates validation rules.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// SavedConfig is a packing request stored for later reuse.
type SavedConfig struct {
	ID        string             `json:"id"`
	Name      string             `json:"name" validate:"required,max=128"`
	Request   packing.RawRequest `json:"request"`
	CreatedAt time.Time          `json:"created_at"`
}

// Storage keeps saved packing configurations. The solver never touches it.
type Storage interface {
	SaveConfig(name string, req packing.RawRequest) (SavedConfig, error)
	ListConfigs() ([]SavedConfig, error)
	GetConfig(id string) (SavedConfig, error)
}

// Option configures storage implementations.
type Option func(*base)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(b *base) {
		b.clock = clock
	}
}

// WithIDGenerator overrides how configuration IDs are generated.
func WithIDGenerator(gen func() string) Option {
	return func(b *base) {
		b.newID = gen
	}
}

// base holds what both backends share: ID and timestamp generation and validation.
type base struct {
	clock    func() time.Time
	newID    func() string
	validate *validator.Validate
}

func newBase(opts []Option) base {
	b := base{
		clock: func() time.Time {
			return time.Now().UTC()
		},
		newID: func() string {
			return uuid.New().String()
		},
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b base) build(name string, req packing.RawRequest) (SavedConfig, error) {
	if len(req.Weights) == 0 {
		return SavedConfig{}, fmt.Errorf("%w: weights must not be empty", ErrInvalidConfig)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName(req)
	}

	cfg := SavedConfig{
		ID:        b.newID(),
		Name:      name,
		Request:   cloneRequest(req),
		CreatedAt: b.clock(),
	}
	if err := b.validate.Struct(cfg); err != nil {
		return SavedConfig{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// DefaultName derives a name from the capacity and item count.
func DefaultName(req packing.RawRequest) string {
	capacity := strings.TrimSpace(req.BinCapacity.String())
	if capacity == "" {
		capacity = "0"
	}
	return fmt.Sprintf("config_%s_%d", capacity, len(req.Weights))
}

// MemoryStorage keeps configurations in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	base

	mu      sync.RWMutex
	configs map[string]SavedConfig
	order   []string
}

// NewMemoryStorage initialises an empty in-memory store.
func NewMemoryStorage(opts ...Option) *MemoryStorage {
	return &MemoryStorage{
		base:    newBase(opts),
		configs: make(map[string]SavedConfig),
	}
}

// SaveConfig validates and stores a copy of the request.
func (s *MemoryStorage) SaveConfig(name string, req packing.RawRequest) (SavedConfig, error) {
	cfg, err := s.build(name, req)
	if err != nil {
		return SavedConfig{}, err
	}

	s.mu.Lock()
	s.configs[cfg.ID] = cfg
	s.order = append(s.order, cfg.ID)
	s.mu.Unlock()

	return cloneConfig(cfg), nil
}

// ListConfigs returns copies of all saved configurations, oldest first.
func (s *MemoryStorage) ListConfigs() ([]SavedConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SavedConfig, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, cloneConfig(s.configs[id]))
	}
	return out, nil
}

// GetConfig returns a copy of one configuration.
func (s *MemoryStorage) GetConfig(id string) (SavedConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[id]
	if !ok {
		return SavedConfig{}, fmt.Errorf("%w: %s", ErrConfigNotFound, id)
	}
	return cloneConfig(cfg), nil
}

func cloneConfig(cfg SavedConfig) SavedConfig {
	cfg.Request = cloneRequest(cfg.Request)
	return cfg
}

func cloneRequest(req packing.RawRequest) packing.RawRequest {
	req.Weights = slices.Clone(req.Weights)
	req.ItemLabels = slices.Clone(req.ItemLabels)
	return req
}
