// Package strategy holds the registry of match strategies selectable by name.
package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/smartinvoice/backend/internal/domain/shared"
	"github.com/smartinvoice/backend/internal/domain/shared/strategy"
)

// StrategyRegistry maps names to match strategies. Safe for concurrent use.
type StrategyRegistry struct {
	mu          sync.RWMutex
	strategies  map[string]strategy.MatchStrategy
	defaultName string
}

func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{strategies: make(map[string]strategy.MatchStrategy)}
}

// RegisterMatchingStrategy adds s under s.Name(); names are unique
func (r *StrategyRegistry) RegisterMatchingStrategy(s strategy.MatchStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, exists := r.strategies[name]; exists {
		return fmt.Errorf("%w: match strategy %q already registered", shared.ErrAlreadyExists, name)
	}
	r.strategies[name] = s
	return nil
}

// GetMatchingStrategy looks up a strategy by name. An empty name selects the default.
func (r *StrategyRegistry) GetMatchingStrategy(name string) (strategy.MatchStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		if r.defaultName == "" {
			return nil, fmt.Errorf("%w: no default match strategy", shared.ErrNotFound)
		}
		name = r.defaultName
	}
	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: match strategy %q", shared.ErrNotFound, name)
	}
	return s, nil
}

// ListMatchingStrategies returns the registered names in sorted order
func (r *StrategyRegistry) ListMatchingStrategies() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnregisterMatchingStrategy removes a strategy. Removing the default leaves
// the registry without one.
func (r *StrategyRegistry) UnregisterMatchingStrategy(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.strategies[name]; !ok {
		return fmt.Errorf("%w: match strategy %q", shared.ErrNotFound, name)
	}
	delete(r.strategies, name)
	if r.defaultName == name {
		r.defaultName = ""
	}
	return nil
}

// SetDefault selects the strategy used when callers pass no name
func (r *StrategyRegistry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.strategies[name]; !ok {
		return fmt.Errorf("%w: match strategy %q", shared.ErrNotFound, name)
	}
	r.defaultName = name
	return nil
}

// Default returns the default strategy name, empty when none is set
func (r *StrategyRegistry) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultName
}
