package mealdraft

import (
	"math"
	"strings"

	"github.com/macrolens/mealdraft/internal/domain"
)

// ResolveGramsPerUnit returns the weight of one unit in grams.
// A nil unit means the value is already in grams. A unit without a usable weight
// is treated as grams as well, so callers never divide by zero.
func ResolveGramsPerUnit(unit *domain.UnitInfo) float64 {
	if unit == nil || !isUsable(unit.Grams) || unit.Grams <= 0 {
		return 1
	}
	return unit.Grams
}

// RebaseQuantity converts a displayed quantity from one unit to another while keeping the
// implied gram total. The result is rounded to 2 decimal places.
// Zero, negative or non-numeric values are returned unchanged.
func RebaseQuantity(value float64, from, to *domain.UnitInfo) float64 {
	if !isUsable(value) || value <= 0 {
		return value
	}
	totalGrams := value * ResolveGramsPerUnit(from)
	return roundTo(totalGrams/ResolveGramsPerUnit(to), 2)
}

// FindUnit looks up a unit by label (case-insensitive). It returns nil for the grams label
// and for labels the item does not offer.
func FindUnit(units []domain.UnitInfo, label string) *domain.UnitInfo {
	label = strings.TrimSpace(label)
	if label == "" || IsGramsLabel(label) {
		return nil
	}
	for _, u := range units {
		if strings.EqualFold(u.Label, label) {
			found := u
			return &found
		}
	}
	return nil
}

// ItemUnit returns the unit currently active on an item, or nil for grams.
// When the matched label is not in the item's unit list the weight is derived from
// the item's own quantities.
func ItemUnit(item domain.MealDraftItem) *domain.UnitInfo {
	if IsGramsLabel(item.UnitMatched) {
		return nil
	}
	if u := FindUnit(item.Units, item.UnitMatched); u != nil {
		return u
	}
	if item.QuantityUnitValue > 0 && item.QuantityGrams > 0 {
		return &domain.UnitInfo{
			Label: item.UnitMatched,
			Grams: item.QuantityGrams / item.QuantityUnitValue,
		}
	}
	return nil
}

func unitLabel(unit *domain.UnitInfo) string {
	if unit == nil {
		return domain.GramsUnit
	}
	return unit.Label
}

// IsGramsLabel reports whether label names plain grams (an empty label counts as grams).
func IsGramsLabel(label string) bool {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "g", "gram", "grams", "gr":
		return true
	}
	return false
}

func isUsable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
