package mealdraft

import "strings"

// Canonical meal type tokens
const (
	MealBreakfast       = "breakfast"
	MealSecondBreakfast = "second_breakfast"
	MealLunch           = "lunch"
	MealDinner          = "dinner"
	MealSnack           = "snack"
)

// MealTypeOrder is the cycling order used for quick meal type correction
var MealTypeOrder = []string{
	MealBreakfast,
	MealSecondBreakfast,
	MealLunch,
	MealDinner,
	MealSnack,
}

// mealTypeAliases maps raw tokens (English and Polish, with and without diacritics)
// onto canonical meal types.
var mealTypeAliases = map[string]string{
	"breakfast":        MealBreakfast,
	"second_breakfast": MealSecondBreakfast,
	"brunch":           MealSecondBreakfast,
	"lunch":            MealLunch,
	"dinner":           MealDinner,
	"supper":           MealDinner,
	"snack":            MealSnack,

	"śniadanie":        MealBreakfast,
	"sniadanie":        MealBreakfast,
	"drugie_śniadanie": MealSecondBreakfast,
	"drugie_sniadanie": MealSecondBreakfast,
	"obiad":            MealLunch,
	"kolacja":          MealDinner,
	"przekąska":        MealSnack,
	"przekaska":        MealSnack,
	"podwieczorek":     MealSnack,
}

var mealTypeLabels = map[string]map[string]string{
	"en": {
		MealBreakfast:       "Breakfast",
		MealSecondBreakfast: "Second breakfast",
		MealLunch:           "Lunch",
		MealDinner:          "Dinner",
		MealSnack:           "Snack",
	},
	"pl": {
		MealBreakfast:       "Śniadanie",
		MealSecondBreakfast: "Drugie śniadanie",
		MealLunch:           "Obiad",
		MealDinner:          "Kolacja",
		MealSnack:           "Przekąska",
	},
}

// DefaultLocale is used for labels when no locale is given
const DefaultLocale = "en"

// NormalizeMealType maps a raw meal type token to its canonical form.
// Unknown tokens are returned unchanged.
func NormalizeMealType(token string) string {
	key := strings.ToLower(strings.TrimSpace(token))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if canonical, ok := mealTypeAliases[key]; ok {
		return canonical
	}
	return token
}

// MealTypeForHour picks a meal type from the local hour of day:
// before 10 breakfast, 10-13 lunch, 14-17 dinner, otherwise snack.
func MealTypeForHour(hour int) string {
	switch {
	case hour < 10:
		return MealBreakfast
	case hour < 14:
		return MealLunch
	case hour < 18:
		return MealDinner
	default:
		return MealSnack
	}
}

// NextMealType returns the meal type after current in MealTypeOrder, wrapping around.
// An unknown current value jumps to the first entry.
func NextMealType(current string) string {
	canonical := NormalizeMealType(current)
	for i, t := range MealTypeOrder {
		if t == canonical {
			return MealTypeOrder[(i+1)%len(MealTypeOrder)]
		}
	}
	return MealTypeOrder[0]
}

// MealTypeLabel returns the display label for an English or Polish meal type token.
// Unknown tokens pass through unchanged.
func MealTypeLabel(token string) string {
	return LocalizedMealTypeLabel(token, DefaultLocale)
}

// LocalizedMealTypeLabel is MealTypeLabel for a given locale, falling back to English.
func LocalizedMealTypeLabel(token, locale string) string {
	labels, ok := mealTypeLabels[strings.ToLower(locale)]
	if !ok {
		labels = mealTypeLabels[DefaultLocale]
	}
	if label, ok := labels[NormalizeMealType(token)]; ok {
		return label
	}
	return token
}
