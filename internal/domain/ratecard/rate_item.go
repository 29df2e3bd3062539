package ratecard

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smartinvoice/backend/internal/domain/shared"
)

// Category groups rate items on the invoice
type Category string

const (
	CategoryLabor     Category = "labor"
	CategoryMaterials Category = "materials"
	CategoryOther     Category = "other"
)

// IsValid returns true if the category is known
func (c Category) IsValid() bool {
	switch c {
	case CategoryLabor, CategoryMaterials, CategoryOther:
		return true
	default:
		return false
	}
}

// Unit is the billing unit a rate item's price is expressed in
type Unit string

const (
	UnitHour     Unit = "hour"
	UnitEach     Unit = "each"
	UnitSqft     Unit = "sqft"
	UnitLinearFt Unit = "linear_ft"
	UnitDay      Unit = "day"
	UnitJob      Unit = "job"
)

// IsValid returns true if the unit is known
func (u Unit) IsValid() bool {
	switch u {
	case UnitHour, UnitEach, UnitSqft, UnitLinearFt, UnitDay, UnitJob:
		return true
	default:
		return false
	}
}

// unitSynonyms maps spellings seen in work descriptions to canonical units
var unitSynonyms = map[string]Unit{
	"hour": UnitHour, "hours": UnitHour, "hr": UnitHour, "hrs": UnitHour, "h": UnitHour,
	"each": UnitEach, "ea": UnitEach, "unit": UnitEach, "units": UnitEach, "pc": UnitEach, "pcs": UnitEach,
	"sqft": UnitSqft, "sq ft": UnitSqft, "sq_ft": UnitSqft, "square feet": UnitSqft, "ft2": UnitSqft,
	"linear_ft": UnitLinearFt, "linear-ft": UnitLinearFt, "linear ft": UnitLinearFt, "lf": UnitLinearFt, "linear feet": UnitLinearFt,
	"day": UnitDay, "days": UnitDay,
	"job": UnitJob, "jobs": UnitJob, "flat": UnitJob,
}

// ParseUnit resolves a unit spelling to a canonical Unit
func ParseUnit(s string) (Unit, bool) {
	u, ok := unitSynonyms[strings.ToLower(strings.TrimSpace(s))]
	return u, ok
}

const (
	maxNameLength  = 200
	maxAliasLength = 200
	maxAliases     = 20
	pricePlaces    = 2
)

// RateItem is one priced entry of an owner's rate card.
// Rows are never edited in place once created: Revise retires the current row
// and produces its successor, so invoices keep pointing at the prices they used.
type RateItem struct {
	shared.OwnedAggregateRoot
	LineageID    uuid.UUID
	Revision     int
	Category     Category
	Name         string
	Description  string
	UnitPrice    decimal.Decimal
	Unit         Unit
	Aliases      []string
	Active       bool
	SupersededBy *uuid.UUID
}

// RateItemInput carries the editable attributes of a rate item
type RateItemInput struct {
	Category    Category
	Name        string
	Description string
	UnitPrice   decimal.Decimal
	Unit        Unit
	Aliases     []string
}

// NewRateItem creates a new active rate item at revision 1
func NewRateItem(ownerID uuid.UUID, in RateItemInput) (*RateItem, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner ID cannot be empty")
	}
	normalized, err := in.validate()
	if err != nil {
		return nil, err
	}

	item := &RateItem{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID),
		Revision:           1,
		Active:             true,
	}
	item.LineageID = item.ID
	item.apply(normalized)

	item.AddDomainEvent(NewRateItemCreatedEvent(item))
	return item, nil
}

// Revise retires this row and returns the next revision carrying the new attributes
func (r *RateItem) Revise(in RateItemInput) (*RateItem, error) {
	if !r.Active {
		return nil, shared.NewDomainError("RATE_ITEM_INACTIVE", "Cannot revise an inactive rate item")
	}
	normalized, err := in.validate()
	if err != nil {
		return nil, err
	}

	next := &RateItem{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(r.OwnerID),
		LineageID:          r.LineageID,
		Revision:           r.Revision + 1,
		Active:             true,
	}
	next.apply(normalized)

	r.Active = false
	r.SupersededBy = &next.ID
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	next.AddDomainEvent(NewRateItemRevisedEvent(r, next))
	return next, nil
}

// Deactivate removes the item from future snapshots without deleting history
func (r *RateItem) Deactivate() error {
	if !r.Active {
		return shared.NewDomainError("RATE_ITEM_INACTIVE", "Rate item is already inactive")
	}
	r.Active = false
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	r.AddDomainEvent(NewRateItemDeactivatedEvent(r))
	return nil
}

func (r *RateItem) apply(in RateItemInput) {
	r.Category = in.Category
	r.Name = in.Name
	r.Description = in.Description
	r.UnitPrice = in.UnitPrice
	r.Unit = in.Unit
	r.Aliases = in.Aliases
}

func (in RateItemInput) validate() (RateItemInput, error) {
	out := in
	out.Name = strings.TrimSpace(in.Name)
	out.Description = strings.TrimSpace(in.Description)

	if out.Name == "" {
		return out, shared.NewDomainError("INVALID_NAME", "Rate item name cannot be empty")
	}
	if len(out.Name) > maxNameLength {
		return out, shared.NewDomainError("INVALID_NAME", "Rate item name cannot exceed 200 characters")
	}
	if out.Category == "" {
		out.Category = CategoryLabor
	}
	if !out.Category.IsValid() {
		return out, shared.NewDomainError("INVALID_CATEGORY", "Category must be one of labor, materials, other")
	}
	if strings.TrimSpace(string(out.Unit)) == "" {
		out.Unit = UnitHour
	}
	unit, ok := ParseUnit(string(out.Unit))
	if !ok {
		return out, shared.NewDomainError("INVALID_UNIT", "Unit must be one of hour, each, sqft, linear_ft, day, job")
	}
	out.Unit = unit
	if out.UnitPrice.IsNegative() {
		return out, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if !out.UnitPrice.Equal(out.UnitPrice.Round(pricePlaces)) {
		return out, shared.NewDomainError("INVALID_PRICE", "Unit price cannot have more than 2 decimal places")
	}

	aliases, err := normalizeAliases(out.Name, in.Aliases)
	if err != nil {
		return out, err
	}
	out.Aliases = aliases
	return out, nil
}

// normalizeAliases trims, drops blanks and duplicates (case-insensitive) and
// drops aliases equal to the canonical name.
func normalizeAliases(name string, aliases []string) ([]string, error) {
	seen := map[string]struct{}{strings.ToLower(name): {}}
	out := make([]string, 0, len(aliases))
	for _, a := range aliases {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if len(a) > maxAliasLength {
			return nil, shared.NewDomainError("INVALID_ALIAS", "Alias cannot exceed 200 characters")
		}
		key := strings.ToLower(a)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	if len(out) > maxAliases {
		return nil, shared.NewDomainError("INVALID_ALIAS", "A rate item cannot have more than 20 aliases")
	}
	return out, nil
}
