package matching

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/agext/levenshtein"
	"github.com/smartinvoice/backend/internal/domain/shared/strategy"
)

// DefaultFuzzyThreshold is the minimum similarity accepted as a fuzzy match
const DefaultFuzzyThreshold = 0.6

// minContainedRunes keeps one or two letter references from being "contained"
// in every name
const minContainedRunes = 3

// FuzzyStrategy scores the reference against every name and alias and picks the
// most similar candidate above a threshold. Equal scores go to the candidate
// with the lowest Order.
//
// Scoring, per term:
//   - containment (either string inside the other): 0.5 + 0.5 * shorter/longer
//   - otherwise the larger of Levenshtein similarity and token Jaccard overlap
type FuzzyStrategy struct {
	strategy.Named
	threshold float64
	params    *levenshtein.Params
}

// NewFuzzyStrategy creates a fuzzy strategy. Thresholds outside (0, 1] fall back
// to DefaultFuzzyThreshold.
func NewFuzzyStrategy(threshold float64) *FuzzyStrategy {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultFuzzyThreshold
	}
	return &FuzzyStrategy{
		Named: strategy.NewNamed(
			"fuzzy",
			"Containment and edit-distance similarity against names and aliases",
		),
		threshold: threshold,
		params:    levenshtein.NewParams(),
	}
}

// Threshold returns the minimum accepted score
func (s *FuzzyStrategy) Threshold() float64 {
	return s.threshold
}

// Match returns the best scoring candidate at or above the threshold
func (s *FuzzyStrategy) Match(_ context.Context, ref string, candidates []strategy.MatchCandidate) (strategy.MatchResult, bool) {
	key := Normalize(ref)
	if key == "" {
		return strategy.MatchResult{}, false
	}

	var (
		best      *strategy.MatchCandidate
		bestScore float64
	)
	for i := range candidates {
		c := &candidates[i]
		score := s.Score(key, Normalize(c.Name))
		for _, alias := range c.Aliases {
			if sc := s.Score(key, Normalize(alias)); sc > score {
				score = sc
			}
		}
		if score < s.threshold {
			continue
		}
		if best == nil || score > bestScore || (score == bestScore && c.Order < best.Order) {
			best = c
			bestScore = score
		}
	}
	if best == nil {
		return strategy.MatchResult{}, false
	}
	return strategy.MatchResult{CandidateID: best.ID, Method: strategy.MatchMethodFuzzy, Score: bestScore}, true
}

// Score compares two normalized strings and returns a similarity in [0, 1]
func (s *FuzzyStrategy) Score(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	shorter, longer := la, lb
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	if shorter >= minContainedRunes && (strings.Contains(a, b) || strings.Contains(b, a)) {
		return 0.5 + 0.5*float64(shorter)/float64(longer)
	}

	sim := levenshtein.Similarity(a, b, s.params)
	if j := jaccard(Tokens(a), Tokens(b)); j > sim {
		sim = j
	}
	return sim
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	union := len(set)
	inter := 0
	seen := make(map[string]struct{}, len(b))
	for _, t := range b {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := set[t]; ok {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}
