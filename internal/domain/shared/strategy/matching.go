// Package strategy defines the pluggable rules that resolve extracted item
// references against a rate card.
package strategy

import (
	"context"

	"github.com/google/uuid"
)

// MatchMethod records which rule resolved a reference
type MatchMethod string

const (
	MatchMethodExact MatchMethod = "exact"
	MatchMethodAlias MatchMethod = "alias"
	MatchMethodFuzzy MatchMethod = "fuzzy"
)

// MatchCandidate is one rate item as seen by a match strategy.
// Order is the position in the snapshot; lower values were created earlier.
type MatchCandidate struct {
	ID      uuid.UUID
	Name    string
	Aliases []string
	Order   int
}

// MatchResult identifies the winning candidate
type MatchResult struct {
	CandidateID uuid.UUID
	Method      MatchMethod
	// Score is 1 for exact and alias matches, in [threshold, 1) for fuzzy ones
	Score float64
}

// MatchStrategy resolves a free-text item reference against rate card candidates.
// Implementations must be deterministic: the same reference and candidates always
// produce the same result.
type MatchStrategy interface {
	// Name is the registry key, e.g. "standard"
	Name() string
	Description() string
	// Match returns the best candidate and true, or false when nothing qualifies
	Match(ctx context.Context, ref string, candidates []MatchCandidate) (MatchResult, bool)
}

// Named carries the name and description of a strategy; embed it to satisfy
// the metadata half of MatchStrategy.
type Named struct {
	name        string
	description string
}

// NewNamed creates strategy metadata
func NewNamed(name, description string) Named {
	return Named{name: name, description: description}
}

// Name returns the strategy name
func (n Named) Name() string { return n.name }

// Description returns what the strategy matches on
func (n Named) Description() string { return n.description }
