package catalogue

import (
	"encoding/json"
	"strings"

	"github.com/macrolens/mealdraft/internal/domain"
)

// productPayload is the catalogue wire format. IDs may arrive as strings or numbers and
// nutrition values may be missing.
type productPayload struct {
	ID        json.RawMessage   `json:"id"`
	Name      string            `json:"name"`
	Brand     *string           `json:"brand"`
	Barcode   string            `json:"barcode"`
	Nutrition *nutritionPayload `json:"nutrition"`
	Units     []unitPayload     `json:"units"`
}

type nutritionPayload struct {
	CaloriesPer100g *float64 `json:"calories_per_100g"`
	ProteinPer100g  *float64 `json:"protein_per_100g"`
	FatPer100g      *float64 `json:"fat_per_100g"`
	CarbsPer100g    *float64 `json:"carbs_per_100g"`
}

type unitPayload struct {
	Label string  `json:"label"`
	Grams float64 `json:"grams"`
}

type searchResponse struct {
	Products []productPayload `json:"products"`
	Total    int              `json:"total"`
}

type ensureResponse struct {
	ID      string `json:"id"`
	Created bool   `json:"created"`
}

// mapProduct converts a catalogue payload into a domain product
func mapProduct(p productPayload) domain.CatalogueProduct {
	product := domain.CatalogueProduct{
		ID:      parseID(p.ID),
		Name:    strings.TrimSpace(p.Name),
		Barcode: strings.TrimSpace(p.Barcode),
	}
	if p.Brand != nil {
		product.Brand = strings.TrimSpace(*p.Brand)
	}
	if p.Nutrition != nil {
		product.Nutrition = domain.ProductNutrition{
			CaloriesPer100g: valueOrZero(p.Nutrition.CaloriesPer100g),
			ProteinPer100g:  valueOrZero(p.Nutrition.ProteinPer100g),
			FatPer100g:      valueOrZero(p.Nutrition.FatPer100g),
			CarbsPer100g:    valueOrZero(p.Nutrition.CarbsPer100g),
		}
	}
	for _, u := range p.Units {
		label := strings.TrimSpace(u.Label)
		if label == "" || u.Grams <= 0 {
			continue
		}
		product.Units = append(product.Units, domain.UnitInfo{Label: label, Grams: u.Grams})
	}
	return product
}

// mapProducts converts a list of payloads, dropping entries without a name
func mapProducts(payloads []productPayload) []domain.CatalogueProduct {
	products := make([]domain.CatalogueProduct, 0, len(payloads))
	for _, p := range payloads {
		product := mapProduct(p)
		if product.Name == "" {
			continue
		}
		products = append(products, product)
	}
	return products
}

func parseID(raw json.RawMessage) *string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return nil
		}
		return &s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		id := n.String()
		return &id
	}
	return nil
}

func valueOrZero(v *float64) float64 {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}
