package packing

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Comparator runs every objective against the same ordered items.
type Comparator struct {
	strategies map[Objective]Strategy
	parallel   bool
	logger     *zap.Logger
}

// NewComparator builds a Comparator over the given strategies. Objectives
// without a strategy are reported as failed entries.
func NewComparator(strategies map[Objective]Strategy, parallel bool, logger *zap.Logger) *Comparator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Comparator{
		strategies: strategies,
		parallel:   parallel,
		logger:     logger,
	}
}

// Compare packs ordered with each objective. It never fails as a whole: every
// objective gets an entry, carrying either a result or its own error.
func (c *Comparator) Compare(req Request, ordered []Item) *Comparison {
	objectives := Objectives()
	outcomes := make([]Outcome, len(objectives))

	if c.parallel {
		var g errgroup.Group
		for i, objective := range objectives {
			g.Go(func() error {
				outcomes[i] = c.run(req, objective, ordered)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, objective := range objectives {
			outcomes[i] = c.run(req, objective, ordered)
		}
	}

	comparison := &Comparison{
		SortMethod: req.SortMethod,
		Results:    make(map[Objective]Outcome, len(objectives)),
	}
	for i, objective := range objectives {
		comparison.Results[objective] = outcomes[i]
	}
	return comparison
}

func (c *Comparator) run(req Request, objective Objective, ordered []Item) (out Outcome) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			c.logger.Error("strategy panic recovered",
				zap.String("objective", string(objective)),
				zap.Any("panic", rec),
			)
			out = Outcome{Err: fmt.Errorf("%w: %s: %v", ErrStrategyPanic, objective, rec)}
		}
	}()

	strategy, ok := c.strategies[objective]
	if !ok {
		return Outcome{Err: fmt.Errorf("%w %q", ErrUnknownStrategy, objective)}
	}

	packing, err := strategy.Pack(ordered, req.BinCapacity, constraintsFor(req, objective))
	if err != nil {
		c.logger.Debug("strategy failed",
			zap.String("objective", string(objective)),
			zap.Error(err),
		)
		return Outcome{Err: err}
	}

	res := Assemble(req, objective, packing)
	c.logger.Debug("strategy finished",
		zap.String("objective", string(objective)),
		zap.Int("bins", res.BinCount),
		zap.Int("skipped", len(res.SkippedItems)),
		zap.Duration("duration", time.Since(start)),
	)
	return Outcome{Result: res}
}

func constraintsFor(req Request, objective Objective) Constraints {
	c := Constraints{MinItemsPerBin: req.MinItemsPerBin, MaxBins: req.MaxBins}
	if req.minItemsDefaulted {
		c.MinItemsPerBin = defaultMinItems(objective)
	}
	if objective == ObjectiveBalanceBins {
		c.BinCount = req.BinCount
	}
	return c
}
