package domain

import "io"

// CaptureResult is the structured meal proposal produced by the transcription service
// from a voice recording or a photo.
type CaptureResult struct {
	MealType         string        `json:"meal_type"`
	Items            []CaptureItem `json:"items"`
	RawTranscription string        `json:"raw_transcription"`
	ProcessingTimeMs int64         `json:"processing_time_ms"`
}

// CaptureItem carries absolute macros already computed for QuantityGrams
type CaptureItem struct {
	ProductID         *string    `json:"product_id"`
	Name              string     `json:"name"`
	Brand             string     `json:"brand,omitempty"`
	QuantityGrams     float64    `json:"quantity_grams"`
	Kcal              float64    `json:"kcal"`
	Protein           float64    `json:"protein"`
	Fat               float64    `json:"fat"`
	Carbs             float64    `json:"carbs"`
	Confidence        float64    `json:"confidence"`
	UnitMatched       string     `json:"unit_matched"`
	QuantityUnitValue float64    `json:"quantity_unit_value"`
	Status            ItemStatus `json:"status"`
	Units             []UnitInfo `json:"units,omitempty"`
	GlycemicLoad      string     `json:"glycemic_load,omitempty"` // low/medium/high or niski/średni/wysoki
}

// CaptureRequest is an upload to the transcription service
type CaptureRequest struct {
	Content     io.Reader
	Filename    string
	ContentType string
	Locale      string // e.g. "pl" or "en"
	Date        string // YYYY-MM-DD, optional
}
