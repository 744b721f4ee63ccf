package packing

import (
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Solver is the entry point used by calling layers.
type Solver interface {
	Solve(raw RawRequest) (*Result, error)
	Compare(raw RawRequest) (*Comparison, error)
}

// Option configures the solver returned by New.
type Option func(*greedySolver)

// WithLogger sets the logger used for per-solve debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(s *greedySolver) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSeed makes random ordering reproducible for requests that carry no seed
// of their own. Every call starts from the same seed.
func WithSeed(seed uint64) Option {
	return func(s *greedySolver) {
		s.newSource = func() *rand.Rand {
			return NewSeededSource(seed)
		}
	}
}

// WithStrategy replaces the strategy registered for its objective.
func WithStrategy(strategy Strategy) Option {
	return func(s *greedySolver) {
		s.strategies[strategy.Objective()] = strategy
	}
}

// WithParallelCompare controls whether Compare runs objectives concurrently.
func WithParallelCompare(enabled bool) Option {
	return func(s *greedySolver) {
		s.parallel = enabled
	}
}

type greedySolver struct {
	strategies map[Objective]Strategy
	parallel   bool
	logger     *zap.Logger
	newSource  func() *rand.Rand
}

// New creates a Solver backed by the greedy strategies.
func New(opts ...Option) Solver {
	s := &greedySolver{
		strategies: DefaultStrategies(),
		parallel:   true,
		logger:     zap.NewNop(),
		newSource:  newEntropySource,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *greedySolver) Solve(raw RawRequest) (*Result, error) {
	req, err := Validate(raw)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	strategy, ok := s.strategies[req.Objective]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownStrategy, req.Objective)
	}

	ordered := Order(req.Items, req.SortMethod, s.sourceFor(req))
	packing, err := strategy.Pack(ordered, req.BinCapacity, constraintsFor(req, req.Objective))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.Objective, err)
	}

	res := Assemble(req, req.Objective, packing)
	s.logger.Debug("solve finished",
		zap.String("objective", string(req.Objective)),
		zap.String("sort_method", string(req.SortMethod)),
		zap.Int("items", len(req.Items)),
		zap.Int("bins", res.BinCount),
		zap.Int("skipped", len(res.SkippedItems)),
		zap.Duration("duration", time.Since(start)),
	)
	return res, nil
}

func (s *greedySolver) Compare(raw RawRequest) (*Comparison, error) {
	req, err := ValidateForComparison(raw)
	if err != nil {
		return nil, err
	}

	ordered := Order(req.Items, req.SortMethod, s.sourceFor(req))
	comparator := NewComparator(s.strategies, s.parallel, s.logger)
	return comparator.Compare(req, ordered), nil
}

func (s *greedySolver) sourceFor(req Request) *rand.Rand {
	if req.SortMethod != SortRandom {
		return nil
	}
	if req.Seed != nil {
		return NewSeededSource(*req.Seed)
	}
	return s.newSource()
}
