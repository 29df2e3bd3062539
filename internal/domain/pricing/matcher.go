package pricing

import (
	"context"
	"strings"

	"github.com/smartinvoice/backend/internal/domain/ratecard"
	"github.com/smartinvoice/backend/internal/domain/shared/strategy"
)

// MatchOutcome is the matcher's answer for one reference
type MatchOutcome struct {
	Matched bool
	Item    ratecard.SnapshotItem
	Method  strategy.MatchMethod
	Score   float64
}

// ItemMatcher resolves free-text references against a snapshot through a
// pluggable strategy
type ItemMatcher struct {
	strategy strategy.MatchStrategy
}

// NewItemMatcher creates a matcher backed by the given strategy
func NewItemMatcher(s strategy.MatchStrategy) *ItemMatcher {
	return &ItemMatcher{strategy: s}
}

// StrategyName returns the name of the active strategy
func (m *ItemMatcher) StrategyName() string {
	return m.strategy.Name()
}

// Match resolves ref against the snapshot. It never fails: anything that cannot
// be resolved is reported as unmatched.
func (m *ItemMatcher) Match(ctx context.Context, ref string, snap *ratecard.Snapshot) MatchOutcome {
	return m.match(ctx, ref, snap, Candidates(snap))
}

func (m *ItemMatcher) match(ctx context.Context, ref string, snap *ratecard.Snapshot, candidates []strategy.MatchCandidate) MatchOutcome {
	if strings.TrimSpace(ref) == "" || len(candidates) == 0 {
		return MatchOutcome{}
	}
	res, ok := m.strategy.Match(ctx, ref, candidates)
	if !ok {
		return MatchOutcome{}
	}
	item, found := snap.Find(res.CandidateID)
	if !found {
		return MatchOutcome{}
	}
	return MatchOutcome{
		Matched: true,
		Item:    item,
		Method:  res.Method,
		Score:   res.Score,
	}
}

// Candidates converts snapshot items into strategy candidates in snapshot order
func Candidates(snap *ratecard.Snapshot) []strategy.MatchCandidate {
	if snap.IsEmpty() {
		return nil
	}
	out := make([]strategy.MatchCandidate, len(snap.Items))
	for i, it := range snap.Items {
		out[i] = strategy.MatchCandidate{
			ID:      it.ID,
			Name:    it.Name,
			Aliases: it.Aliases,
			Order:   i,
		}
	}
	return out
}
