package http

import (
	"fmt"
	"time"

	"github.com/macrolens/mealdraft/internal/domain"
	"github.com/macrolens/mealdraft/internal/mealdraft"
	"github.com/macrolens/mealdraft/internal/usecase"
)

// Request bodies

type manualDraftRequest struct {
	MealType      string  `json:"mealType"`
	Date          string  `json:"date"`
	ProductID     string  `json:"productId"`
	QuantityGrams float64 `json:"quantityGrams"`
}

type editDraftRequest struct {
	Date     string `json:"date" binding:"required"`
	MealType string `json:"mealType" binding:"required"`
}

type addItemRequest struct {
	ProductID     string  `json:"productId" binding:"required"`
	QuantityGrams float64 `json:"quantityGrams"`
}

// updateItemRequest carries a quantity in the item's current unit. Unit, when set,
// switches the item to that unit ("g" for grams).
type updateItemRequest struct {
	Value *float64 `json:"value" binding:"required"`
	Unit  *string  `json:"unit"`
}

// validate rejects quantities the draft would silently ignore
func (r updateItemRequest) validate() error {
	if *r.Value < 0 {
		return fmt.Errorf("%w: value must not be negative", domain.ErrInvalidRequest)
	}
	return nil
}

func (r updateItemRequest) toUpdate() usecase.ItemUpdate {
	return usecase.ItemUpdate{Value: *r.Value, UnitLabel: r.Unit}
}

type mealTypeRequest struct {
	MealType string `json:"mealType" binding:"required"`
}

// Responses. Kcal is shown as an integer and macros with one decimal.

type macrosResponse struct {
	Kcal    int     `json:"kcal"`
	Protein float64 `json:"protein"`
	Fat     float64 `json:"fat"`
	Carbs   float64 `json:"carbs"`
}

type itemResponse struct {
	Index             int               `json:"index"`
	ProductID         *string           `json:"productId"`
	EntryID           *string           `json:"entryId,omitempty"`
	Name              string            `json:"name"`
	Brand             string            `json:"brand,omitempty"`
	QuantityGrams     float64           `json:"quantityGrams"`
	QuantityUnitValue float64           `json:"quantityUnitValue"`
	Unit              string            `json:"unit"`
	Units             []domain.UnitInfo `json:"units,omitempty"`
	macrosResponse
	Confidence    float64 `json:"confidence"`
	Status        string  `json:"status"`
	Source        string  `json:"source"`
	GlycemicLevel string  `json:"glycemicLevel,omitempty"`
	GlycemicLabel string  `json:"glycemicLabel,omitempty"`
}

type draftResponse struct {
	ID               string         `json:"id"`
	State            string         `json:"state"`
	MealType         string         `json:"mealType"`
	MealTypeLabel    string         `json:"mealTypeLabel"`
	Date             string         `json:"date"`
	Source           string         `json:"source"`
	RawTranscription string         `json:"rawTranscription,omitempty"`
	Items            []itemResponse `json:"items"`
	Totals           macrosResponse `json:"totals"`
	EditingIndex     *int           `json:"editingIndex,omitempty"`
	ExpiresAt        time.Time      `json:"expiresAt"`
}

func toMacrosResponse(m domain.Macros) macrosResponse {
	return macrosResponse{
		Kcal:    mealdraft.RoundKcal(m.Kcal),
		Protein: mealdraft.RoundMacro(m.Protein),
		Fat:     mealdraft.RoundMacro(m.Fat),
		Carbs:   mealdraft.RoundMacro(m.Carbs),
	}
}

func toDraftResponse(view *usecase.SessionView, locale string) draftResponse {
	draft := view.Draft
	items := make([]itemResponse, len(draft.Items))
	for i, item := range draft.Items {
		items[i] = itemResponse{
			Index:             i,
			ProductID:         item.ProductID,
			EntryID:           item.EntryID,
			Name:              item.Name,
			Brand:             item.Brand,
			QuantityGrams:     mealdraft.RoundMacro(item.QuantityGrams),
			QuantityUnitValue: item.QuantityUnitValue,
			Unit:              item.UnitMatched,
			Units:             item.Units,
			macrosResponse:    toMacrosResponse(item.Macros()),
			Confidence:        item.Confidence,
			Status:            string(item.Status),
			Source:            string(item.Source),
			GlycemicLevel:     string(item.GlycemicLevel),
			GlycemicLabel:     mealdraft.GlycemicLabel(item.GlycemicLevel, locale),
		}
	}

	return draftResponse{
		ID:               view.ID,
		State:            string(view.State),
		MealType:         draft.MealType,
		MealTypeLabel:    mealdraft.LocalizedMealTypeLabel(draft.MealType, locale),
		Date:             draft.Date,
		Source:           string(draft.Source),
		RawTranscription: draft.RawTranscription,
		Items:            items,
		Totals:           toMacrosResponse(view.Totals),
		EditingIndex:     view.EditingIndex,
		ExpiresAt:        view.ExpiresAt,
	}
}
