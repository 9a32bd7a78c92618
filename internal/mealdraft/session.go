package mealdraft

import (
	"fmt"

	"github.com/macrolens/mealdraft/internal/domain"
)

// SessionState is a state of the meal confirmation flow
type SessionState string

const (
	StateReviewing   SessionState = "reviewing"
	StateSearching   SessionState = "searching"
	StateEditingItem SessionState = "editing_item"
	StateConfirmed   SessionState = "confirmed"
	StateCancelled   SessionState = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s SessionState) Terminal() bool {
	return s == StateConfirmed || s == StateCancelled
}

// UnitChange describes what happens to an item's unit when its quantity is saved.
// The zero value keeps the current unit.
type UnitChange struct {
	set  bool
	unit *domain.UnitInfo
}

// KeepUnit keeps the item's current unit.
func KeepUnit() UnitChange { return UnitChange{} }

// SwitchToGrams switches the item to plain grams.
func SwitchToGrams() UnitChange { return UnitChange{set: true} }

// SwitchToUnit switches the item to unit.
func SwitchToUnit(unit domain.UnitInfo) UnitChange {
	return UnitChange{set: true, unit: &unit}
}

// Confirmation is what a confirmed session hands to the diary commit step
type Confirmation struct {
	Draft           *domain.MealDraft
	RemovedEntryIDs []string
}

// CommitProgress is what a commit attempt already persisted, keyed by item index in the
// confirmed draft.
type CommitProgress struct {
	ProductIDs map[int]string
	EntryIDs   map[int]string
	Deleted    []string
}

// Empty reports whether nothing was persisted.
func (p CommitProgress) Empty() bool {
	return len(p.ProductIDs) == 0 && len(p.EntryIDs) == 0 && len(p.Deleted) == 0
}

// Session drives the review/search/edit flow around one Engine.
type Session struct {
	engine     *Engine
	state      SessionState
	editIndex  int
	initialIDs []string
}

// NewSession starts a session in the reviewing state owning a copy of draft.
func NewSession(draft *domain.MealDraft) *Session {
	s := &Session{
		engine:    NewEngine(draft),
		state:     StateReviewing,
		editIndex: -1,
	}
	if draft != nil {
		for _, item := range draft.Items {
			if item.EntryID != nil {
				s.initialIDs = append(s.initialIDs, *item.EntryID)
			}
		}
	}
	return s
}

// State returns the current state.
func (s *Session) State() SessionState {
	return s.state
}

// Engine exposes the engine for read access (totals, counts, items).
func (s *Session) Engine() *Engine {
	return s.engine
}

// EditingIndex returns the index of the item being edited.
func (s *Session) EditingIndex() (int, bool) {
	if s.state != StateEditingItem {
		return 0, false
	}
	return s.editIndex, true
}

// AddItem adds a product directly from the review screen.
func (s *Session) AddItem(product domain.CatalogueProduct, quantityGrams float64) error {
	if err := s.expect(StateReviewing); err != nil {
		return err
	}
	s.engine.AddItem(product, quantityGrams)
	return nil
}

// RemoveItem removes an item from the review screen.
func (s *Session) RemoveItem(index int) error {
	if err := s.expect(StateReviewing); err != nil {
		return err
	}
	s.engine.RemoveItem(index)
	return nil
}

// CycleMealType advances the meal type from the review screen.
func (s *Session) CycleMealType() error {
	if err := s.expect(StateReviewing); err != nil {
		return err
	}
	s.engine.CycleMealType()
	return nil
}

// SetMealType sets the meal type from the review screen.
func (s *Session) SetMealType(mealType string) error {
	if err := s.expect(StateReviewing); err != nil {
		return err
	}
	s.engine.SetMealType(mealType)
	return nil
}

// BeginSearch opens the product search overlay.
func (s *Session) BeginSearch() error {
	if err := s.expect(StateReviewing); err != nil {
		return err
	}
	s.state = StateSearching
	return nil
}

// CancelSearch closes the search overlay without adding anything.
func (s *Session) CancelSearch() error {
	if err := s.expect(StateSearching); err != nil {
		return err
	}
	s.state = StateReviewing
	return nil
}

// SelectProduct adds the selected product and returns to review.
func (s *Session) SelectProduct(product domain.CatalogueProduct, quantityGrams float64) error {
	if err := s.expect(StateSearching); err != nil {
		return err
	}
	s.engine.AddItem(product, quantityGrams)
	s.state = StateReviewing
	return nil
}

// BeginEdit opens the quantity editor for the item at index.
func (s *Session) BeginEdit(index int) error {
	if err := s.expect(StateReviewing); err != nil {
		return err
	}
	if _, ok := s.engine.Item(index); !ok {
		return fmt.Errorf("%w: index %d", domain.ErrItemNotFound, index)
	}
	s.editIndex = index
	s.state = StateEditingItem
	return nil
}

// SaveEdit applies the edited quantity and unit and returns to review.
func (s *Session) SaveEdit(value float64, change UnitChange) error {
	if err := s.expect(StateEditingItem); err != nil {
		return err
	}
	if change.set {
		s.engine.UpdateItemQuantityWithUnit(s.editIndex, value, change.unit)
	} else {
		s.engine.UpdateItemQuantity(s.editIndex, value)
	}
	s.editIndex = -1
	s.state = StateReviewing
	return nil
}

// CancelEdit discards the edit and returns to review.
func (s *Session) CancelEdit() error {
	if err := s.expect(StateEditingItem); err != nil {
		return err
	}
	s.editIndex = -1
	s.state = StateReviewing
	return nil
}

// Confirmation snapshots the draft for the commit step. The session stays in review until
// MarkConfirmed, so a failed commit leaves the draft intact.
func (s *Session) Confirmation() (*Confirmation, error) {
	if err := s.expect(StateReviewing); err != nil {
		return nil, err
	}
	draft := s.engine.Draft()
	removed := s.removedEntryIDs(draft)
	if len(draft.Items) == 0 && len(removed) == 0 {
		return nil, domain.ErrEmptyDraft
	}
	return &Confirmation{Draft: draft, RemovedEntryIDs: removed}, nil
}

// MarkConfirmed ends the session after a successful commit and drops the draft.
func (s *Session) MarkConfirmed() error {
	if err := s.expect(StateReviewing); err != nil {
		return err
	}
	s.engine.Discard()
	s.state = StateConfirmed
	return nil
}

// RecordProgress folds a partly failed commit back into the draft. Created items become
// persisted entries and deleted entries are no longer pending removal, so a retry updates
// instead of creating twice.
func (s *Session) RecordProgress(p CommitProgress) error {
	if err := s.expect(StateReviewing); err != nil {
		return err
	}
	for i, id := range p.ProductIDs {
		s.engine.link(i, id, "")
	}
	for i, id := range p.EntryIDs {
		s.engine.link(i, "", id)
		s.initialIDs = append(s.initialIDs, id)
	}
	if len(p.Deleted) > 0 {
		gone := make(map[string]bool, len(p.Deleted))
		for _, id := range p.Deleted {
			gone[id] = true
		}
		kept := s.initialIDs[:0]
		for _, id := range s.initialIDs {
			if !gone[id] {
				kept = append(kept, id)
			}
		}
		s.initialIDs = kept
	}
	return nil
}

// Cancel discards the draft from any non-terminal state.
func (s *Session) Cancel() error {
	if s.state.Terminal() {
		return fmt.Errorf("%w: session already %s", domain.ErrInvalidTransition, s.state)
	}
	s.engine.Discard()
	s.editIndex = -1
	s.state = StateCancelled
	return nil
}

func (s *Session) removedEntryIDs(draft *domain.MealDraft) []string {
	if len(s.initialIDs) == 0 {
		return nil
	}
	kept := make(map[string]bool, len(draft.Items))
	for _, item := range draft.Items {
		if item.EntryID != nil {
			kept[*item.EntryID] = true
		}
	}
	var removed []string
	for _, id := range s.initialIDs {
		if !kept[id] {
			removed = append(removed, id)
		}
	}
	return removed
}

func (s *Session) expect(state SessionState) error {
	if s.state != state {
		return fmt.Errorf("%w: %s, want %s", domain.ErrInvalidTransition, s.state, state)
	}
	return nil
}
