package domain

import "time"

// ProductSnapshot is the product data embedded in a persisted diary entry
type ProductSnapshot struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Brand     string           `json:"brand,omitempty"`
	Nutrition ProductNutrition `json:"nutrition"`
	Units     []UnitInfo       `json:"units,omitempty"`
}

// LogEntry is a persisted diary entry
type LogEntry struct {
	ID           string          `json:"id"`
	Date         string          `json:"date"` // YYYY-MM-DD
	MealType     string          `json:"meal_type"`
	ProductID    string          `json:"product_id"`
	AmountGrams  float64         `json:"amount_grams"`
	UnitLabel    *string         `json:"unit_label,omitempty"`
	UnitGrams    *float64        `json:"unit_grams,omitempty"`
	UnitQuantity *float64        `json:"unit_quantity,omitempty"`
	Product      ProductSnapshot `json:"product"`
	CreatedAt    time.Time       `json:"created_at,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at,omitempty"`
}

// CommitRequest creates (or, with an entry ID in the path, updates) a single diary entry
type CommitRequest struct {
	Date         string   `json:"date"`
	MealType     string   `json:"meal_type"`
	ProductID    string   `json:"product_id"`
	AmountGrams  float64  `json:"amount_grams"`
	UnitLabel    *string  `json:"unit_label,omitempty"`
	UnitGrams    *float64 `json:"unit_grams,omitempty"`
	UnitQuantity *float64 `json:"unit_quantity,omitempty"`
}

// CommitItem is one item of a bulk commit
type CommitItem struct {
	ProductID    string   `json:"product_id"`
	AmountGrams  float64  `json:"amount_grams"`
	UnitLabel    *string  `json:"unit_label,omitempty"`
	UnitGrams    *float64 `json:"unit_grams,omitempty"`
	UnitQuantity *float64 `json:"unit_quantity,omitempty"`
}

// BulkCommitRequest creates several diary entries for the same meal at once
type BulkCommitRequest struct {
	Date     string       `json:"date"`
	MealType string       `json:"meal_type"`
	Items    []CommitItem `json:"items"`
}

// EntryUpdate rewrites one persisted entry
type EntryUpdate struct {
	EntryID string
	Item    CommitItem
}

// MealCommit is every diary write of one confirmed meal
type MealCommit struct {
	Date     string
	MealType string
	Products []ProductSnapshot
	Updates  []EntryUpdate
	Deletes  []string
	Creates  []CommitItem
}

// MealCommitResult lists what a MealCommit wrote. Created follows the order of Creates.
type MealCommitResult struct {
	Created []LogEntry
	Updated []LogEntry
	Deleted []string
}

// Single converts a bulk item into a single-entry request.
func (c CommitItem) Single(date, mealType string) *CommitRequest {
	return &CommitRequest{
		Date:         date,
		MealType:     mealType,
		ProductID:    c.ProductID,
		AmountGrams:  c.AmountGrams,
		UnitLabel:    c.UnitLabel,
		UnitGrams:    c.UnitGrams,
		UnitQuantity: c.UnitQuantity,
	}
}
