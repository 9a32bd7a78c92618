package domain

// ItemStatus is the matching outcome of a draft item
type ItemStatus string

const (
	StatusMatched           ItemStatus = "matched"
	StatusNotFound          ItemStatus = "not_found"
	StatusNeedsConfirmation ItemStatus = "needs_confirmation"
)

// ItemSource tells where a draft item came from
type ItemSource string

const (
	ItemSourceVoice    ItemSource = "voice"
	ItemSourceSearch   ItemSource = "search"
	ItemSourceExisting ItemSource = "existing"
)

// DraftSource tells how a draft was started
type DraftSource string

const (
	DraftSourceVoice  DraftSource = "voice"
	DraftSourceManual DraftSource = "manual"
	DraftSourceEdit   DraftSource = "edit"
)

// MealDraftItem is one line of a meal draft.
//
// QuantityGrams is canonical. QuantityUnitValue is what the user sees in UnitMatched units.
// Kcal, Protein, Fat and Carbs are absolute values for QuantityGrams and are always derived
// from Reference: Kcal is rounded to an integer, the rest are unrounded.
type MealDraftItem struct {
	ProductID *string `json:"productId"`
	Name      string  `json:"name"`
	Brand     string  `json:"brand,omitempty"`

	QuantityGrams     float64 `json:"quantityGrams"`
	QuantityUnitValue float64 `json:"quantityUnitValue"`
	UnitMatched       string  `json:"unitMatched"`

	Kcal    float64 `json:"kcal"`
	Protein float64 `json:"protein"`
	Fat     float64 `json:"fat"`
	Carbs   float64 `json:"carbs"`

	Reference NutritionRate `json:"reference"`

	Confidence    float64       `json:"confidence"`
	Status        ItemStatus    `json:"status"`
	Units         []UnitInfo    `json:"units,omitempty"`
	Source        ItemSource    `json:"source"`
	EntryID       *string       `json:"entryId,omitempty"`
	GlycemicLevel GlycemicLevel `json:"glycemicLevel,omitempty"`
}

// Macros returns the absolute macros of the item.
func (i MealDraftItem) Macros() Macros {
	return Macros{Kcal: i.Kcal, Protein: i.Protein, Fat: i.Fat, Carbs: i.Carbs}
}

// Clone returns a deep copy of the item.
func (i MealDraftItem) Clone() MealDraftItem {
	out := i
	out.ProductID = cloneString(i.ProductID)
	out.EntryID = cloneString(i.EntryID)
	if i.Units != nil {
		out.Units = append([]UnitInfo(nil), i.Units...)
	}
	return out
}

// MealDraft is an in-memory meal being assembled. It is either committed whole or discarded.
type MealDraft struct {
	MealType         string          `json:"mealType"`
	Items            []MealDraftItem `json:"items"`
	Date             string          `json:"date"` // YYYY-MM-DD
	RawTranscription string          `json:"rawTranscription,omitempty"`
	Source           DraftSource     `json:"source"`
}

// Clone returns a deep copy of the draft.
func (d *MealDraft) Clone() *MealDraft {
	if d == nil {
		return nil
	}
	out := *d
	out.Items = make([]MealDraftItem, len(d.Items))
	for i, item := range d.Items {
		out.Items[i] = item.Clone()
	}
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
