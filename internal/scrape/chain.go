// Package scrape provides ordered fallback cascades for browser extraction.
package scrape

import (
	"context"

	"go.uber.org/zap"
)

// Strategy is one way of obtaining a fact. Attempt reports false when it
// found nothing; failures are treated the same as misses.
type Strategy[In, Out any] interface {
	Name() string
	Attempt(ctx context.Context, in In) (Out, bool)
}

// StrategyFunc adapts a function into a Strategy.
type StrategyFunc[In, Out any] struct {
	Label string
	Fn    func(ctx context.Context, in In) (Out, bool)
}

func (s StrategyFunc[In, Out]) Name() string { return s.Label }

func (s StrategyFunc[In, Out]) Attempt(ctx context.Context, in In) (Out, bool) {
	return s.Fn(ctx, in)
}

// Chain tries strategies in priority order, returning the first success.
type Chain[In, Out any] struct {
	name       string
	strategies []Strategy[In, Out]
	logMisses  bool
}

// NewChain creates a Chain. Strategies are tried in the order given.
func NewChain[In, Out any](name string, strategies ...Strategy[In, Out]) *Chain[In, Out] {
	return &Chain[In, Out]{name: name, strategies: strategies}
}

// WithMissLogging logs each strategy miss at debug level.
func (c *Chain[In, Out]) WithMissLogging() *Chain[In, Out] {
	c.logMisses = true
	return c
}

// Run returns the first successful result and the name of the strategy that
// produced it. It stops early once ctx is done.
func (c *Chain[In, Out]) Run(ctx context.Context, in In) (Out, string, bool) {
	var zero Out
	for _, s := range c.strategies {
		if ctx.Err() != nil {
			return zero, "", false
		}
		out, ok := s.Attempt(ctx, in)
		if ok {
			return out, s.Name(), true
		}
		if c.logMisses {
			zap.L().Debug("scrape: strategy found nothing, trying next",
				zap.String("chain", c.name),
				zap.String("strategy", s.Name()),
			)
		}
	}
	return zero, "", false
}

// First is Run without the strategy name.
func (c *Chain[In, Out]) First(ctx context.Context, in In) (Out, bool) {
	out, _, ok := c.Run(ctx, in)
	return out, ok
}
