package mealdraft

import (
	"github.com/macrolens/mealdraft/internal/domain"
)

// Engine owns a single active meal draft. All mutation goes through its methods, which keep
// every item's macros consistent with its reference values and gram quantity.
//
// Operations never fail: invalid input is ignored. An Engine is not safe for concurrent use.
type Engine struct {
	draft *domain.MealDraft
}

// NewEngine creates an engine owning a copy of draft. A nil draft yields an inactive engine.
func NewEngine(draft *domain.MealDraft) *Engine {
	return &Engine{draft: draft.Clone()}
}

// Active reports whether the engine holds a draft.
func (e *Engine) Active() bool {
	return e.draft != nil
}

// Draft returns a deep copy of the active draft, or nil.
func (e *Engine) Draft() *domain.MealDraft {
	return e.draft.Clone()
}

// Discard drops the active draft.
func (e *Engine) Discard() {
	e.draft = nil
}

// Item returns a copy of the item at index.
func (e *Engine) Item(index int) (domain.MealDraftItem, bool) {
	if !e.validIndex(index) {
		return domain.MealDraftItem{}, false
	}
	return e.draft.Items[index].Clone(), true
}

// AddItem appends a catalogue product with the given gram quantity.
func (e *Engine) AddItem(product domain.CatalogueProduct, quantityGrams float64) {
	if e.draft == nil {
		return
	}
	e.draft.Items = append(e.draft.Items, NewItemFromProduct(product, quantityGrams))
}

// RemoveItem removes the item at index. Out-of-range indexes are ignored.
func (e *Engine) RemoveItem(index int) {
	if !e.validIndex(index) {
		return
	}
	items := make([]domain.MealDraftItem, 0, len(e.draft.Items)-1)
	items = append(items, e.draft.Items[:index]...)
	e.draft.Items = append(items, e.draft.Items[index+1:]...)
}

// UpdateItemQuantity sets the displayed quantity of an item in its current unit.
func (e *Engine) UpdateItemQuantity(index int, value float64) {
	if !e.validIndex(index) || !validQuantity(value) {
		return
	}
	item := &e.draft.Items[index]
	item.QuantityUnitValue = value
	item.QuantityGrams = value * ResolveGramsPerUnit(ItemUnit(*item))
	applyReference(item)
}

// UpdateItemQuantityWithUnit switches an item to unit (nil means grams). value is given in
// the item's current unit and is rebased so the gram total is kept.
func (e *Engine) UpdateItemQuantityWithUnit(index int, value float64, unit *domain.UnitInfo) {
	if !e.validIndex(index) || !validQuantity(value) || !validUnit(unit) {
		return
	}
	item := &e.draft.Items[index]
	current := ItemUnit(*item)

	totalGrams := value * ResolveGramsPerUnit(current)
	rebased := RebaseQuantity(value, current, unit)

	item.UnitMatched = unitLabel(unit)
	item.QuantityUnitValue = rebased
	item.QuantityGrams = totalGrams
	applyReference(item)
}

// ChangeItemUnit switches an item to unit (nil means grams) keeping its stored gram quantity.
func (e *Engine) ChangeItemUnit(index int, unit *domain.UnitInfo) {
	if !e.validIndex(index) || !validUnit(unit) {
		return
	}
	item := &e.draft.Items[index]
	if item.QuantityGrams <= 0 || item.QuantityUnitValue <= 0 {
		item.UnitMatched = unitLabel(unit)
		item.QuantityGrams = item.QuantityUnitValue * ResolveGramsPerUnit(unit)
		applyReference(item)
		return
	}

	item.UnitMatched = unitLabel(unit)
	item.QuantityUnitValue = roundTo(item.QuantityGrams/ResolveGramsPerUnit(unit), 2)
	applyReference(item)
}

// CycleMealType advances the meal type to the next entry of MealTypeOrder.
func (e *Engine) CycleMealType() {
	if e.draft == nil {
		return
	}
	e.draft.MealType = NextMealType(e.draft.MealType)
}

// SetMealType sets the meal type, normalizing English and Polish tokens.
func (e *Engine) SetMealType(mealType string) {
	if e.draft == nil || mealType == "" {
		return
	}
	e.draft.MealType = NormalizeMealType(mealType)
}

// MealType returns the current meal type.
func (e *Engine) MealType() string {
	if e.draft == nil {
		return ""
	}
	return e.draft.MealType
}

// Totals sums the macros of all items.
func (e *Engine) Totals() domain.Macros {
	if e.draft == nil {
		return domain.Macros{}
	}
	return Totals(e.draft.Items)
}

// IsEmpty reports whether the draft has no items.
func (e *Engine) IsEmpty() bool {
	return e.ItemCount() == 0
}

// ItemCount returns the number of items.
func (e *Engine) ItemCount() int {
	if e.draft == nil {
		return 0
	}
	return len(e.draft.Items)
}

// link records the persisted identity of the item at index. Empty IDs are left unset.
func (e *Engine) link(index int, productID, entryID string) {
	if !e.validIndex(index) {
		return
	}
	item := &e.draft.Items[index]
	if productID != "" {
		item.ProductID = &productID
	}
	if entryID != "" {
		item.EntryID = &entryID
	}
}

func (e *Engine) validIndex(index int) bool {
	return e.draft != nil && index >= 0 && index < len(e.draft.Items)
}

// Totals sums the macros of items.
func Totals(items []domain.MealDraftItem) domain.Macros {
	var total domain.Macros
	for _, item := range items {
		total = total.Add(item.Macros())
	}
	return total
}

func validQuantity(v float64) bool {
	return isUsable(v) && v >= 0
}

func validUnit(unit *domain.UnitInfo) bool {
	return unit == nil || (isUsable(unit.Grams) && unit.Grams > 0)
}
