package mealdraft

import (
	"math"
	"strings"
	"time"

	"github.com/macrolens/mealdraft/internal/domain"
)

// DefaultQuantityGrams is the quantity used when a product is added without one
const DefaultQuantityGrams = 100.0

// DateLayout is the diary date format
const DateLayout = "2006-01-02"

// DraftInput is the raw input a confirmation session is started from.
// It is implemented by CaptureInput and ExistingDraftInput only.
type DraftInput interface {
	draftInput()
}

// CaptureInput wraps a capture result from the voice or photo adapter
type CaptureInput struct {
	Result *domain.CaptureResult
}

// ExistingDraftInput wraps a draft built outside this package, e.g. handed back by a client.
// It is normalized like any other input: macros are recomputed from the reference values.
type ExistingDraftInput struct {
	Draft *domain.MealDraft
}

func (CaptureInput) draftInput()       {}
func (ExistingDraftInput) draftInput() {}

// FromInput builds a draft from either input variant. now is used for date and meal type
// defaults of capture results.
func FromInput(in DraftInput, now time.Time) *domain.MealDraft {
	switch v := in.(type) {
	case CaptureInput:
		return FromCaptureResult(v.Result, now)
	case ExistingDraftInput:
		return fromExistingDraft(v.Draft, now)
	default:
		return Empty("", now)
	}
}

// NewItemFromProduct builds a matched draft item for a catalogue product.
// Non-positive or non-numeric quantities fall back to DefaultQuantityGrams.
func NewItemFromProduct(product domain.CatalogueProduct, quantityGrams float64) domain.MealDraftItem {
	if !isUsable(quantityGrams) || quantityGrams <= 0 {
		quantityGrams = DefaultQuantityGrams
	}
	ratio := quantityGrams / ReferenceGrams
	ref := product.Nutrition.Rate()

	item := domain.MealDraftItem{
		Name:              product.Name,
		Brand:             product.Brand,
		QuantityGrams:     quantityGrams,
		QuantityUnitValue: quantityGrams,
		UnitMatched:       domain.GramsUnit,
		Kcal:              math.Round(ref.KcalPer100g * ratio),
		Protein:           ref.ProteinPer100g * ratio,
		Fat:               ref.FatPer100g * ratio,
		Carbs:             ref.CarbsPer100g * ratio,
		Reference:         ref,
		Confidence:        1.0,
		Status:            domain.StatusMatched,
		Source:            domain.ItemSourceSearch,
	}
	if product.ID != nil {
		id := *product.ID
		item.ProductID = &id
	}
	if len(product.Units) > 0 {
		item.Units = append([]domain.UnitInfo(nil), product.Units...)
	}
	return item
}

// FromCatalogueProduct builds a manual draft holding a single catalogue product.
func FromCatalogueProduct(product domain.CatalogueProduct, quantityGrams float64, now time.Time) *domain.MealDraft {
	draft := Empty("", now)
	draft.Items = append(draft.Items, NewItemFromProduct(product, quantityGrams))
	return draft
}

// FromCaptureResult normalizes a capture result into a voice draft.
// Capture items carry absolute macros; per-100g reference values are derived from them,
// with the quantity floored at 1g, so later quantity edits rescale consistently.
func FromCaptureResult(raw *domain.CaptureResult, now time.Time) *domain.MealDraft {
	if raw == nil {
		draft := Empty("", now)
		draft.Source = domain.DraftSourceVoice
		return draft
	}

	mealType := NormalizeMealType(raw.MealType)
	if strings.TrimSpace(mealType) == "" {
		mealType = MealTypeForHour(now.Hour())
	}

	draft := &domain.MealDraft{
		MealType:         mealType,
		Items:            make([]domain.MealDraftItem, 0, len(raw.Items)),
		Date:             now.Format(DateLayout),
		RawTranscription: raw.RawTranscription,
		Source:           domain.DraftSourceVoice,
	}
	for _, ci := range raw.Items {
		draft.Items = append(draft.Items, itemFromCapture(ci))
	}
	return draft
}

func itemFromCapture(ci domain.CaptureItem) domain.MealDraftItem {
	grams := ci.QuantityGrams
	if !isUsable(grams) || grams < 0 {
		grams = 0
	}
	base := math.Max(grams, 1)

	unit, value := unitQuantity(ci.UnitMatched, ci.QuantityUnitValue, grams, ci.Units)

	status := ci.Status
	if status == "" {
		status = domain.StatusMatched
	}

	item := domain.MealDraftItem{
		Name:              ci.Name,
		Brand:             ci.Brand,
		QuantityGrams:     grams,
		QuantityUnitValue: value,
		UnitMatched:       unit,
		Kcal:              math.Round(ci.Kcal),
		Protein:           ci.Protein,
		Fat:               ci.Fat,
		Carbs:             ci.Carbs,
		Reference: domain.NutritionRate{
			KcalPer100g:    ci.Kcal / base * ReferenceGrams,
			ProteinPer100g: ci.Protein / base * ReferenceGrams,
			FatPer100g:     ci.Fat / base * ReferenceGrams,
			CarbsPer100g:   ci.Carbs / base * ReferenceGrams,
		},
		Confidence: ci.Confidence,
		Status:     status,
		Source:     domain.ItemSourceVoice,
	}
	if ci.ProductID != nil && *ci.ProductID != "" {
		id := *ci.ProductID
		item.ProductID = &id
	}
	if len(ci.Units) > 0 {
		item.Units = append([]domain.UnitInfo(nil), ci.Units...)
	}
	if level, ok := ParseGlycemicLevel(ci.GlycemicLoad); ok {
		item.GlycemicLevel = level
	}
	return item
}

// unitQuantity settles the displayed unit and value of an item weighing grams. A missing
// value is derived from the unit's weight, and a unit the item does not offer falls back
// to grams.
func unitQuantity(label string, value, grams float64, units []domain.UnitInfo) (string, float64) {
	if !isUsable(value) || value < 0 {
		value = 0
	}
	if IsGramsLabel(label) {
		if value <= 0 {
			value = grams
		}
		return domain.GramsUnit, value
	}
	if value > 0 || grams <= 0 {
		return label, value
	}
	if u := FindUnit(units, label); u != nil && isUsable(u.Grams) && u.Grams > 0 {
		return label, roundTo(grams/u.Grams, 2)
	}
	return domain.GramsUnit, grams
}

// fromExistingDraft copies an outside draft and restores what the engine relies on:
// canonical meal type and source, non-negative quantities and macros that follow the
// reference values.
func fromExistingDraft(in *domain.MealDraft, now time.Time) *domain.MealDraft {
	draft := in.Clone()
	if draft == nil {
		return Empty("", now)
	}

	draft.MealType = NormalizeMealType(draft.MealType)
	if strings.TrimSpace(draft.MealType) == "" {
		draft.MealType = MealTypeForHour(now.Hour())
	}
	if draft.Date == "" {
		draft.Date = now.Format(DateLayout)
	}
	switch draft.Source {
	case domain.DraftSourceVoice, domain.DraftSourceManual, domain.DraftSourceEdit:
	default:
		draft.Source = domain.DraftSourceManual
	}

	items := make([]domain.MealDraftItem, 0, len(draft.Items))
	for _, item := range draft.Items {
		if !isUsable(item.QuantityGrams) || item.QuantityGrams < 0 {
			item.QuantityGrams = 0
		}
		item.UnitMatched, item.QuantityUnitValue = unitQuantity(item.UnitMatched, item.QuantityUnitValue, item.QuantityGrams, item.Units)
		if item.Status == "" {
			item.Status = domain.StatusMatched
		}
		if item.Source == "" {
			item.Source = domain.ItemSourceSearch
			if item.EntryID != nil {
				item.Source = domain.ItemSourceExisting
			}
		}
		applyReference(&item)
		items = append(items, item)
	}
	draft.Items = items
	return draft
}

// FromPersistedEntries builds an edit draft from diary entries of one meal.
// Every item keeps its entry ID so the commit updates instead of creating.
func FromPersistedEntries(entries []domain.LogEntry, mealType, date string) *domain.MealDraft {
	draft := &domain.MealDraft{
		MealType: NormalizeMealType(mealType),
		Items:    make([]domain.MealDraftItem, 0, len(entries)),
		Date:     date,
		Source:   domain.DraftSourceEdit,
	}
	for _, entry := range entries {
		draft.Items = append(draft.Items, itemFromEntry(entry))
	}
	return draft
}

func itemFromEntry(entry domain.LogEntry) domain.MealDraftItem {
	entryID := entry.ID
	grams := entry.AmountGrams
	if !isUsable(grams) || grams < 0 {
		grams = 0
	}

	item := domain.MealDraftItem{
		Name:              entry.Product.Name,
		Brand:             entry.Product.Brand,
		QuantityGrams:     grams,
		QuantityUnitValue: grams,
		UnitMatched:       domain.GramsUnit,
		Reference:         entry.Product.Nutrition.Rate(),
		Confidence:        1.0,
		Status:            domain.StatusMatched,
		Source:            domain.ItemSourceExisting,
		EntryID:           &entryID,
	}
	if entry.ProductID != "" {
		id := entry.ProductID
		item.ProductID = &id
	}
	if len(entry.Product.Units) > 0 {
		item.Units = append([]domain.UnitInfo(nil), entry.Product.Units...)
	}

	if entry.UnitLabel != nil && entry.UnitGrams != nil && *entry.UnitGrams > 0 && !IsGramsLabel(*entry.UnitLabel) {
		unit := domain.UnitInfo{Label: *entry.UnitLabel, Grams: *entry.UnitGrams}
		item.UnitMatched = unit.Label
		if entry.UnitQuantity != nil && *entry.UnitQuantity > 0 {
			item.QuantityUnitValue = *entry.UnitQuantity
		} else {
			item.QuantityUnitValue = roundTo(grams/unit.Grams, 2)
		}
		if FindUnit(item.Units, unit.Label) == nil {
			item.Units = append(item.Units, unit)
		}
	}

	applyReference(&item)
	return item
}

// Empty returns a draft with no items. Without an explicit meal type one is chosen from
// the local hour of now.
func Empty(mealType string, now time.Time) *domain.MealDraft {
	if strings.TrimSpace(mealType) == "" {
		mealType = MealTypeForHour(now.Hour())
	}
	return &domain.MealDraft{
		MealType: NormalizeMealType(mealType),
		Items:    []domain.MealDraftItem{},
		Date:     now.Format(DateLayout),
		Source:   domain.DraftSourceManual,
	}
}
