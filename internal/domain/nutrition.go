package domain

// GramsUnit is the unit label used when a quantity is expressed directly in grams.
const GramsUnit = "g"

// NutritionRate holds per-100g reference values for a food.
// It is the basis for every recomputation and is never changed after an item is created.
type NutritionRate struct {
	KcalPer100g    float64 `json:"kcalPer100g"`
	ProteinPer100g float64 `json:"proteinPer100g"`
	FatPer100g     float64 `json:"fatPer100g"`
	CarbsPer100g   float64 `json:"carbsPer100g"`
}

// Macros returns the reference values as a Macros value for 100g.
func (r NutritionRate) Macros() Macros {
	return Macros{
		Kcal:    r.KcalPer100g,
		Protein: r.ProteinPer100g,
		Fat:     r.FatPer100g,
		Carbs:   r.CarbsPer100g,
	}
}

// Macros contains absolute energy and macronutrient amounts
type Macros struct {
	Kcal    float64 `json:"kcal"`
	Protein float64 `json:"protein"` // grams
	Fat     float64 `json:"fat"`     // grams
	Carbs   float64 `json:"carbs"`   // grams
}

// Add returns the element-wise sum of two Macros values.
func (m Macros) Add(other Macros) Macros {
	return Macros{
		Kcal:    m.Kcal + other.Kcal,
		Protein: m.Protein + other.Protein,
		Fat:     m.Fat + other.Fat,
		Carbs:   m.Carbs + other.Carbs,
	}
}

// UnitInfo describes one discrete unit a food can be measured in, e.g. "slice" = 30g
type UnitInfo struct {
	Label string  `json:"label"`
	Grams float64 `json:"grams"`
}

// GlycemicLevel is the canonical glycemic load classification.
// Localized labels are produced only at the display boundary.
type GlycemicLevel string

const (
	GlycemicLow    GlycemicLevel = "low"
	GlycemicMedium GlycemicLevel = "medium"
	GlycemicHigh   GlycemicLevel = "high"
)
