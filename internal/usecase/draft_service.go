package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/macrolens/mealdraft/internal/domain"
	"github.com/macrolens/mealdraft/internal/mealdraft"
)

const defaultSessionTTL = 30 * time.Minute

// ProductLookup resolves catalogue products for items added to a draft
type ProductLookup interface {
	GetProduct(ctx context.Context, id string) (*domain.CatalogueProduct, error)
}

// Committer persists confirmed drafts
type Committer interface {
	Commit(ctx context.Context, conf *mealdraft.Confirmation) (*CommitResult, error)
}

// DraftServiceConfig holds configuration for the draft service
type DraftServiceConfig struct {
	SessionTTL time.Duration
	Now        func() time.Time
}

// ManualStart describes a draft started from the search screen. ProductID is optional;
// without it the draft starts empty.
type ManualStart struct {
	MealType      string
	Date          string
	ProductID     string
	QuantityGrams float64
}

// ItemUpdate is a quantity edit. UnitLabel nil keeps the item's unit; "g" switches to grams.
type ItemUpdate struct {
	Value     float64
	UnitLabel *string
}

// SessionView is a snapshot of one draft session
type SessionView struct {
	ID           string                 `json:"id"`
	State        mealdraft.SessionState `json:"state"`
	Draft        *domain.MealDraft      `json:"draft"`
	Totals       domain.Macros          `json:"totals"`
	EditingIndex *int                   `json:"editingIndex,omitempty"`
	ExpiresAt    time.Time              `json:"expiresAt"`
}

type draftSession struct {
	mu       sync.Mutex
	id       uuid.UUID
	session  *mealdraft.Session
	lastSeen time.Time
}

// DraftService keeps the open draft sessions and routes user actions to them.
// Sessions are independent; actions on one session are serialized.
type DraftService struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*draftSession

	products      ProductLookup
	transcription domain.TranscriptionClient
	diary         domain.DiaryRepository
	committer     Committer

	ttl time.Duration
	now func() time.Time
}

// NewDraftService creates a new draft service
func NewDraftService(
	products ProductLookup,
	transcription domain.TranscriptionClient,
	diary domain.DiaryRepository,
	committer Committer,
	config DraftServiceConfig,
) *DraftService {
	ttl := config.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &DraftService{
		sessions:      make(map[uuid.UUID]*draftSession),
		products:      products,
		transcription: transcription,
		diary:         diary,
		committer:     committer,
		ttl:           ttl,
		now:           now,
	}
}

// StartVoice transcribes a recording and opens a draft with the proposed items
func (s *DraftService) StartVoice(ctx context.Context, req *domain.CaptureRequest) (*SessionView, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: capture is required", domain.ErrInvalidRequest)
	}
	if err := validateDate(req.Date); err != nil {
		return nil, err
	}
	result, err := s.transcription.TranscribeVoice(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.startCapture(result, req.Date)
}

// StartPhoto analyzes a meal photo and opens a draft with the proposed items
func (s *DraftService) StartPhoto(ctx context.Context, req *domain.CaptureRequest) (*SessionView, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: capture is required", domain.ErrInvalidRequest)
	}
	if err := validateDate(req.Date); err != nil {
		return nil, err
	}
	result, err := s.transcription.AnalyzePhoto(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.startCapture(result, req.Date)
}

func (s *DraftService) startCapture(result *domain.CaptureResult, date string) (*SessionView, error) {
	draft := mealdraft.FromInput(mealdraft.CaptureInput{Result: result}, s.now())
	if date != "" {
		draft.Date = date
	}
	return s.open(draft), nil
}

// StartManual opens a draft from the search screen, optionally with a first product
func (s *DraftService) StartManual(ctx context.Context, req ManualStart) (*SessionView, error) {
	if err := validateDate(req.Date); err != nil {
		return nil, err
	}

	var draft *domain.MealDraft
	if req.ProductID != "" {
		product, err := s.products.GetProduct(ctx, req.ProductID)
		if err != nil {
			return nil, err
		}
		draft = mealdraft.FromCatalogueProduct(*product, req.QuantityGrams, s.now())
	} else {
		draft = mealdraft.Empty("", s.now())
	}

	if req.MealType != "" {
		draft.MealType = mealdraft.NormalizeMealType(req.MealType)
	}
	if req.Date != "" {
		draft.Date = req.Date
	}
	return s.open(draft), nil
}

// StartEdit loads the persisted entries of one meal into a draft for bulk editing
func (s *DraftService) StartEdit(ctx context.Context, date, mealType string) (*SessionView, error) {
	if date == "" || mealType == "" {
		return nil, fmt.Errorf("%w: date and meal type are required", domain.ErrInvalidRequest)
	}
	if err := validateDate(date); err != nil {
		return nil, err
	}
	mealType = mealdraft.NormalizeMealType(mealType)

	entries, err := s.diary.ListEntries(ctx, date, mealType)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, domain.ErrNoEntries
	}
	return s.open(mealdraft.FromPersistedEntries(entries, mealType, date)), nil
}

// StartFromDraft opens a session over a draft built elsewhere
func (s *DraftService) StartFromDraft(draft *domain.MealDraft) (*SessionView, error) {
	if draft == nil {
		return nil, fmt.Errorf("%w: draft is required", domain.ErrInvalidRequest)
	}
	if err := validateDate(draft.Date); err != nil {
		return nil, err
	}
	return s.open(mealdraft.FromInput(mealdraft.ExistingDraftInput{Draft: draft}, s.now())), nil
}

// Get returns the current view of a session
func (s *DraftService) Get(id string) (*SessionView, error) {
	return s.do(id, func(*mealdraft.Session) error { return nil })
}

// AddProduct adds a catalogue product from the review screen
func (s *DraftService) AddProduct(ctx context.Context, id, productID string, quantityGrams float64) (*SessionView, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.do(id, func(sess *mealdraft.Session) error {
		return sess.AddItem(*product, quantityGrams)
	})
}

// RemoveItem removes the item at index
func (s *DraftService) RemoveItem(id string, index int) (*SessionView, error) {
	return s.do(id, func(sess *mealdraft.Session) error {
		if _, ok := sess.Engine().Item(index); !ok {
			return fmt.Errorf("%w: index %d", domain.ErrItemNotFound, index)
		}
		return sess.RemoveItem(index)
	})
}

// UpdateItem edits an item's quantity, and optionally its unit, in one step
func (s *DraftService) UpdateItem(id string, index int, update ItemUpdate) (*SessionView, error) {
	return s.do(id, func(sess *mealdraft.Session) error {
		item, ok := sess.Engine().Item(index)
		if !ok {
			return fmt.Errorf("%w: index %d", domain.ErrItemNotFound, index)
		}
		change, err := resolveUnitChange(item, update.UnitLabel)
		if err != nil {
			return err
		}
		if err := sess.BeginEdit(index); err != nil {
			return err
		}
		return sess.SaveEdit(update.Value, change)
	})
}

// CycleMealType advances the draft's meal type
func (s *DraftService) CycleMealType(id string) (*SessionView, error) {
	return s.do(id, func(sess *mealdraft.Session) error {
		return sess.CycleMealType()
	})
}

// SetMealType sets the draft's meal type
func (s *DraftService) SetMealType(id, mealType string) (*SessionView, error) {
	if mealType == "" {
		return nil, fmt.Errorf("%w: meal type is required", domain.ErrInvalidRequest)
	}
	return s.do(id, func(sess *mealdraft.Session) error {
		return sess.SetMealType(mealType)
	})
}

// BeginSearch opens the search overlay
func (s *DraftService) BeginSearch(id string) (*SessionView, error) {
	return s.do(id, func(sess *mealdraft.Session) error {
		return sess.BeginSearch()
	})
}

// CancelSearch closes the search overlay
func (s *DraftService) CancelSearch(id string) (*SessionView, error) {
	return s.do(id, func(sess *mealdraft.Session) error {
		return sess.CancelSearch()
	})
}

// SelectProduct adds the product picked in the search overlay
func (s *DraftService) SelectProduct(ctx context.Context, id, productID string, quantityGrams float64) (*SessionView, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.do(id, func(sess *mealdraft.Session) error {
		return sess.SelectProduct(*product, quantityGrams)
	})
}

// BeginEdit opens the quantity editor for an item
func (s *DraftService) BeginEdit(id string, index int) (*SessionView, error) {
	return s.do(id, func(sess *mealdraft.Session) error {
		return sess.BeginEdit(index)
	})
}

// SaveEdit applies the quantity editor
func (s *DraftService) SaveEdit(id string, update ItemUpdate) (*SessionView, error) {
	return s.do(id, func(sess *mealdraft.Session) error {
		index, ok := sess.EditingIndex()
		if !ok {
			return fmt.Errorf("%w: no item is being edited", domain.ErrInvalidTransition)
		}
		item, _ := sess.Engine().Item(index)
		change, err := resolveUnitChange(item, update.UnitLabel)
		if err != nil {
			return err
		}
		return sess.SaveEdit(update.Value, change)
	})
}

// CancelEdit closes the quantity editor without changes
func (s *DraftService) CancelEdit(id string) (*SessionView, error) {
	return s.do(id, func(sess *mealdraft.Session) error {
		return sess.CancelEdit()
	})
}

// Confirm commits the draft to the diary and closes the session. When the commit fails
// the session stays open in review with its draft intact.
func (s *DraftService) Confirm(ctx context.Context, id string) (*CommitResult, error) {
	ds, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.lastSeen = s.now()

	conf, err := ds.session.Confirmation()
	if err != nil {
		return nil, err
	}

	result, err := s.committer.Commit(ctx, conf)
	if err != nil {
		log.Printf("[Draft] Commit of session %s failed: %v", ds.id, err)
		if result != nil && !result.Progress.Empty() {
			if perr := ds.session.RecordProgress(result.Progress); perr != nil {
				log.Printf("[Draft] Could not record commit progress of session %s: %v", ds.id, perr)
			}
		}
		return nil, err
	}

	if err := ds.session.MarkConfirmed(); err != nil {
		return result, err
	}
	s.remove(ds.id)
	log.Printf("[Draft] Session %s confirmed", ds.id)
	return result, nil
}

// Cancel discards the draft and closes the session
func (s *DraftService) Cancel(id string) error {
	ds, err := s.lookup(id)
	if err != nil {
		return err
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	if err := ds.session.Cancel(); err != nil {
		return err
	}
	s.remove(ds.id)
	log.Printf("[Draft] Session %s cancelled", ds.id)
	return nil
}

// ActiveSessions returns the number of open sessions
func (s *DraftService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// StartJanitor evicts idle sessions every interval until ctx is done
func (s *DraftService) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.EvictExpired(); n > 0 {
					log.Printf("[Draft] Evicted %d idle sessions", n)
				}
			}
		}
	}()
}

// EvictExpired drops sessions idle for longer than the session TTL
func (s *DraftService) EvictExpired() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, ds := range s.sessions {
		if ds.mu.TryLock() {
			expired := s.expired(ds, now)
			ds.mu.Unlock()
			if expired {
				delete(s.sessions, id)
				evicted++
			}
		}
	}
	return evicted
}

func (s *DraftService) open(draft *domain.MealDraft) *SessionView {
	ds := &draftSession{
		id:       uuid.New(),
		session:  mealdraft.NewSession(draft),
		lastSeen: s.now(),
	}

	s.mu.Lock()
	s.sessions[ds.id] = ds
	s.mu.Unlock()

	log.Printf("[Draft] Session %s opened (%s, %d items)", ds.id, draft.Source, len(draft.Items))
	return s.view(ds)
}

// do runs fn on the session under its lock and returns the resulting view
func (s *DraftService) do(id string, fn func(*mealdraft.Session) error) (*SessionView, error) {
	ds, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.session.State().Terminal() {
		return nil, domain.ErrSessionNotFound
	}
	ds.lastSeen = s.now()
	if err := fn(ds.session); err != nil {
		return nil, err
	}
	return s.view(ds), nil
}

func (s *DraftService) lookup(id string) (*draftSession, error) {
	key, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrSessionNotFound
	}

	s.mu.Lock()
	ds, ok := s.sessions[key]
	s.mu.Unlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	ds.mu.Lock()
	expired := s.expired(ds, s.now())
	ds.mu.Unlock()
	if expired {
		s.remove(key)
		return nil, domain.ErrSessionNotFound
	}
	return ds, nil
}

func (s *DraftService) remove(id uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *DraftService) expired(ds *draftSession, now time.Time) bool {
	return now.Sub(ds.lastSeen) > s.ttl
}

// view must be called with ds.mu held
func (s *DraftService) view(ds *draftSession) *SessionView {
	v := &SessionView{
		ID:        ds.id.String(),
		State:     ds.session.State(),
		Draft:     ds.session.Engine().Draft(),
		Totals:    ds.session.Engine().Totals(),
		ExpiresAt: ds.lastSeen.Add(s.ttl),
	}
	if index, ok := ds.session.EditingIndex(); ok {
		v.EditingIndex = &index
	}
	return v
}

// resolveUnitChange maps a requested unit label onto the item's known units
func resolveUnitChange(item domain.MealDraftItem, label *string) (mealdraft.UnitChange, error) {
	if label == nil {
		return mealdraft.KeepUnit(), nil
	}
	if mealdraft.IsGramsLabel(*label) {
		return mealdraft.SwitchToGrams(), nil
	}
	unit := mealdraft.FindUnit(item.Units, *label)
	if unit == nil && strings.EqualFold(strings.TrimSpace(*label), item.UnitMatched) {
		return mealdraft.KeepUnit(), nil
	}
	if unit == nil {
		return mealdraft.UnitChange{}, fmt.Errorf("%w: %q", domain.ErrUnknownUnit, *label)
	}
	return mealdraft.SwitchToUnit(*unit), nil
}

func validateDate(date string) error {
	if date == "" {
		return nil
	}
	if _, err := time.Parse(mealdraft.DateLayout, date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrInvalidRequest)
	}
	return nil
}
