package domain

// ProductNutrition is the per-100g nutrition block of a catalogue product
type ProductNutrition struct {
	CaloriesPer100g float64 `json:"calories_per_100g"`
	ProteinPer100g  float64 `json:"protein_per_100g"`
	FatPer100g      float64 `json:"fat_per_100g"`
	CarbsPer100g    float64 `json:"carbs_per_100g"`
}

// Rate converts the wire nutrition block into reference values.
func (n ProductNutrition) Rate() NutritionRate {
	return NutritionRate{
		KcalPer100g:    n.CaloriesPer100g,
		ProteinPer100g: n.ProteinPer100g,
		FatPer100g:     n.FatPer100g,
		CarbsPer100g:   n.CarbsPer100g,
	}
}

// NutritionFromRate converts reference values back into the wire nutrition block.
func NutritionFromRate(r NutritionRate) ProductNutrition {
	return ProductNutrition{
		CaloriesPer100g: r.KcalPer100g,
		ProteinPer100g:  r.ProteinPer100g,
		FatPer100g:      r.FatPer100g,
		CarbsPer100g:    r.CarbsPer100g,
	}
}

// CatalogueProduct is a product returned by catalogue search or barcode lookup.
// ID is nil for products that exist only as a search suggestion.
type CatalogueProduct struct {
	ID        *string          `json:"id"`
	Name      string           `json:"name"`
	Brand     string           `json:"brand,omitempty"`
	Barcode   string           `json:"barcode,omitempty"`
	Nutrition ProductNutrition `json:"nutrition"`
	Units     []UnitInfo       `json:"units,omitempty"`
}

// EnsureProductRequest asks the catalogue to create a product for an unresolved draft item,
// or return the existing one with the same name and brand.
type EnsureProductRequest struct {
	Name      string           `json:"name"`
	Brand     string           `json:"brand,omitempty"`
	Nutrition ProductNutrition `json:"nutrition"`
	Units     []UnitInfo       `json:"units,omitempty"`
}
