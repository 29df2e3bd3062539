package strategy

import (
	"github.com/smartinvoice/backend/internal/domain/shared/strategy"
	"github.com/smartinvoice/backend/internal/infrastructure/strategy/matching"
)

// NewRegistryWithDefaults creates a registry holding the built-in match strategies.
// "standard" (exact, alias, fuzzy) is the default; fuzzyThreshold tunes its last step.
func NewRegistryWithDefaults(fuzzyThreshold float64) (*StrategyRegistry, error) {
	r := NewStrategyRegistry()

	standard := matching.NewStandardStrategy(fuzzyThreshold)
	builtins := []strategy.MatchStrategy{
		standard,
		matching.NewStrictStrategy(),
		matching.NewExactNameStrategy(),
		matching.NewAliasStrategy(),
		matching.NewFuzzyStrategy(fuzzyThreshold),
	}
	for _, s := range builtins {
		if err := r.RegisterMatchingStrategy(s); err != nil {
			return nil, err
		}
	}

	if err := r.SetDefault(standard.Name()); err != nil {
		return nil, err
	}

	return r, nil
}
