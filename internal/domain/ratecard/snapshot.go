package ratecard

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SnapshotItem is the frozen view of a rate item inside a Snapshot
type SnapshotItem struct {
	ID          uuid.UUID       `json:"id"`
	LineageID   uuid.UUID       `json:"lineage_id"`
	Revision    int             `json:"revision"`
	Category    Category        `json:"category"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Unit        Unit            `json:"unit"`
	Aliases     []string        `json:"aliases,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Snapshot is a consistent, read-only copy of the active rate items of one owner.
// Items are ordered by creation time, then ID, which is the order matchers use
// to break ties.
type Snapshot struct {
	ID      uuid.UUID      `json:"id"`
	OwnerID uuid.UUID      `json:"owner_id"`
	TakenAt time.Time      `json:"taken_at"`
	Items   []SnapshotItem `json:"items"`
}

// NewSnapshot copies the active items into a Snapshot.
// The snapshot ID is derived from the item IDs, so two snapshots of an unchanged
// rate card share an ID.
func NewSnapshot(ownerID uuid.UUID, items []RateItem, takenAt time.Time) *Snapshot {
	out := make([]SnapshotItem, 0, len(items))
	for i := range items {
		it := &items[i]
		if !it.Active {
			continue
		}
		aliases := make([]string, len(it.Aliases))
		copy(aliases, it.Aliases)
		out = append(out, SnapshotItem{
			ID:          it.ID,
			LineageID:   it.LineageID,
			Revision:    it.Revision,
			Category:    it.Category,
			Name:        it.Name,
			Description: it.Description,
			UnitPrice:   it.UnitPrice,
			Unit:        it.Unit,
			Aliases:     aliases,
			CreatedAt:   it.CreatedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})

	return &Snapshot{
		ID:      snapshotID(ownerID, out),
		OwnerID: ownerID,
		TakenAt: takenAt,
		Items:   out,
	}
}

func snapshotID(ownerID uuid.UUID, items []SnapshotItem) uuid.UUID {
	data := make([]byte, 0, 16*(len(items)+1))
	data = append(data, ownerID[:]...)
	for _, it := range items {
		data = append(data, it.ID[:]...)
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, data)
}

// IsEmpty reports whether the snapshot has no active items
func (s *Snapshot) IsEmpty() bool {
	return s == nil || len(s.Items) == 0
}

// Len returns the number of items
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Items)
}

// Find returns the item with the given ID
func (s *Snapshot) Find(id uuid.UUID) (SnapshotItem, bool) {
	if s == nil {
		return SnapshotItem{}, false
	}
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return SnapshotItem{}, false
}

// Names returns the canonical names in snapshot order
func (s *Snapshot) Names() []string {
	names := make([]string, 0, s.Len())
	if s == nil {
		return names
	}
	for _, it := range s.Items {
		names = append(names, it.Name)
	}
	return names
}
