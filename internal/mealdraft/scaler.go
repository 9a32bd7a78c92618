package mealdraft

import (
	"math"

	"github.com/macrolens/mealdraft/internal/domain"
)

// ReferenceGrams is the amount reference nutrition values are expressed for
const ReferenceGrams = 100.0

// ScaleMacros scales reference macros, given for originalGrams, to newQuantity units of
// gramsPerUnit grams each. originalGrams of zero means the reference is per 100g.
// Negative or non-numeric quantities yield all zeros. No rounding is applied.
func ScaleMacros(reference domain.Macros, originalGrams, newQuantity, gramsPerUnit float64) domain.Macros {
	if !isUsable(newQuantity) || newQuantity < 0 || !isUsable(gramsPerUnit) {
		return domain.Macros{}
	}
	if originalGrams == 0 || !isUsable(originalGrams) {
		originalGrams = ReferenceGrams
	}

	factor := (newQuantity * gramsPerUnit) / originalGrams
	return domain.Macros{
		Kcal:    reference.Kcal * factor,
		Protein: reference.Protein * factor,
		Fat:     reference.Fat * factor,
		Carbs:   reference.Carbs * factor,
	}
}

// RoundKcal rounds energy for display
func RoundKcal(v float64) int {
	return int(math.Round(v))
}

// RoundMacro rounds a macronutrient amount to one decimal place for display
func RoundMacro(v float64) float64 {
	return roundTo(v, 1)
}

// applyReference recomputes the absolute macros of an item from its reference values
// and current gram quantity.
func applyReference(item *domain.MealDraftItem) {
	m := ScaleMacros(item.Reference.Macros(), ReferenceGrams, item.QuantityGrams, 1)
	item.Kcal = math.Round(m.Kcal)
	item.Protein = m.Protein
	item.Fat = m.Fat
	item.Carbs = m.Carbs
}
