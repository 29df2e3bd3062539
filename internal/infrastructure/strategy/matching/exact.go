package matching

import (
	"context"

	"github.com/smartinvoice/backend/internal/domain/shared/strategy"
)

// ExactNameStrategy matches the normalized reference against canonical names
type ExactNameStrategy struct {
	strategy.Named
}

// NewExactNameStrategy creates a new exact name strategy
func NewExactNameStrategy() *ExactNameStrategy {
	return &ExactNameStrategy{
		Named: strategy.NewNamed(
			"exact_name",
			"Case-insensitive, whitespace-normalized match on the canonical name",
		),
	}
}

// Match returns the earliest candidate whose name equals the reference
func (s *ExactNameStrategy) Match(_ context.Context, ref string, candidates []strategy.MatchCandidate) (strategy.MatchResult, bool) {
	key := Normalize(ref)
	if key == "" {
		return strategy.MatchResult{}, false
	}
	var best *strategy.MatchCandidate
	for i := range candidates {
		c := &candidates[i]
		if Normalize(c.Name) != key {
			continue
		}
		if best == nil || c.Order < best.Order {
			best = c
		}
	}
	if best == nil {
		return strategy.MatchResult{}, false
	}
	return strategy.MatchResult{CandidateID: best.ID, Method: strategy.MatchMethodExact, Score: 1}, true
}

// AliasStrategy matches the normalized reference against aliases
type AliasStrategy struct {
	strategy.Named
}

// NewAliasStrategy creates a new alias strategy
func NewAliasStrategy() *AliasStrategy {
	return &AliasStrategy{
		Named: strategy.NewNamed(
			"alias",
			"Case-insensitive, whitespace-normalized match on any alias",
		),
	}
}

// Match returns the earliest candidate with an alias equal to the reference
func (s *AliasStrategy) Match(_ context.Context, ref string, candidates []strategy.MatchCandidate) (strategy.MatchResult, bool) {
	key := Normalize(ref)
	if key == "" {
		return strategy.MatchResult{}, false
	}
	var best *strategy.MatchCandidate
	for i := range candidates {
		c := &candidates[i]
		if best != nil && c.Order >= best.Order {
			continue
		}
		for _, alias := range c.Aliases {
			if Normalize(alias) == key {
				best = c
				break
			}
		}
	}
	if best == nil {
		return strategy.MatchResult{}, false
	}
	return strategy.MatchResult{CandidateID: best.ID, Method: strategy.MatchMethodAlias, Score: 1}, true
}
