package matching

import (
	"context"

	"github.com/smartinvoice/backend/internal/domain/shared/strategy"
)

// ChainStrategy tries its steps in order and returns the first hit
type ChainStrategy struct {
	strategy.Named
	steps []strategy.MatchStrategy
}

// NewChainStrategy creates a named chain of strategies
func NewChainStrategy(name, description string, steps ...strategy.MatchStrategy) *ChainStrategy {
	return &ChainStrategy{
		Named: strategy.NewNamed(name, description),
		steps: steps,
	}
}

// NewStandardStrategy chains exact name, alias and fuzzy matching
func NewStandardStrategy(fuzzyThreshold float64) *ChainStrategy {
	return NewChainStrategy(
		"standard",
		"Exact name, then alias, then fuzzy similarity",
		NewExactNameStrategy(),
		NewAliasStrategy(),
		NewFuzzyStrategy(fuzzyThreshold),
	)
}

// NewStrictStrategy chains exact name and alias matching only
func NewStrictStrategy() *ChainStrategy {
	return NewChainStrategy(
		"strict",
		"Exact name, then alias; no fuzzy matching",
		NewExactNameStrategy(),
		NewAliasStrategy(),
	)
}

// Steps returns the names of the chained strategies
func (s *ChainStrategy) Steps() []string {
	names := make([]string, len(s.steps))
	for i, step := range s.steps {
		names[i] = step.Name()
	}
	return names
}

// Match returns the first step's result that matches
func (s *ChainStrategy) Match(ctx context.Context, ref string, candidates []strategy.MatchCandidate) (strategy.MatchResult, bool) {
	for _, step := range s.steps {
		if res, ok := step.Match(ctx, ref, candidates); ok {
			return res, true
		}
	}
	return strategy.MatchResult{}, false
}
