package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/macrolens/mealdraft/internal/domain"
	"github.com/macrolens/mealdraft/internal/mealdraft"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data      map[string][]byte
	getError  error
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = payload
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// MockCatalogueClient is a mock implementation of domain.CatalogueClient
type MockCatalogueClient struct {
	mu            sync.Mutex
	searchResult  []domain.CatalogueProduct
	searchError   error
	searchCalls   int
	lastQuery     string
	products      map[string]domain.CatalogueProduct
	productCalls  int
	ensureError   error
	ensureCalls   []domain.EnsureProductRequest
	barcodeResult *domain.CatalogueProduct
}

func NewMockCatalogueClient() *MockCatalogueClient {
	return &MockCatalogueClient{products: make(map[string]domain.CatalogueProduct)}
}

func (m *MockCatalogueClient) SearchProducts(ctx context.Context, query string) ([]domain.CatalogueProduct, error) {
	m.searchCalls++
	m.lastQuery = query
	if m.searchError != nil {
		return nil, m.searchError
	}
	return m.searchResult, nil
}

func (m *MockCatalogueClient) GetProduct(ctx context.Context, id string) (*domain.CatalogueProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.productCalls++
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (m *MockCatalogueClient) GetProductByBarcode(ctx context.Context, barcode string) (*domain.CatalogueProduct, error) {
	if m.barcodeResult == nil {
		return nil, domain.ErrProductNotFound
	}
	p := *m.barcodeResult
	return &p, nil
}

func (m *MockCatalogueClient) EnsureProduct(ctx context.Context, req *domain.EnsureProductRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureCalls = append(m.ensureCalls, *req)
	if m.ensureError != nil {
		return "", m.ensureError
	}
	return "ensured-" + req.Name, nil
}

// MockTranscriptionClient is a mock implementation of domain.TranscriptionClient
type MockTranscriptionClient struct {
	result     *domain.CaptureResult
	err        error
	voiceCalls int
	photoCalls int
}

func (m *MockTranscriptionClient) TranscribeVoice(ctx context.Context, req *domain.CaptureRequest) (*domain.CaptureResult, error) {
	m.voiceCalls++
	return m.result, m.err
}

func (m *MockTranscriptionClient) AnalyzePhoto(ctx context.Context, req *domain.CaptureRequest) (*domain.CaptureResult, error) {
	m.photoCalls++
	return m.result, m.err
}

// MockDiary is a mock implementation of domain.DiaryRepository
type MockDiary struct {
	entries      []domain.LogEntry
	listError    error
	created      []domain.CommitRequest
	bulk         []domain.BulkCommitRequest
	updated      map[string]domain.CommitRequest
	deleted      []string
	createError  error
	createdCount int
	createCalls  int
	failCreateAt int // the CreateEntry call, counting from 1, that fails
}

func NewMockDiary() *MockDiary {
	return &MockDiary{updated: make(map[string]domain.CommitRequest)}
}

func (m *MockDiary) CreateEntry(ctx context.Context, req *domain.CommitRequest) (*domain.LogEntry, error) {
	m.createCalls++
	if m.createError != nil {
		return nil, m.createError
	}
	if m.createCalls == m.failCreateAt {
		return nil, fmt.Errorf("%w: network down", domain.ErrDiaryCommitFailure)
	}
	m.created = append(m.created, *req)
	return m.entry(req.ProductID, req.AmountGrams), nil
}

func (m *MockDiary) CreateEntries(ctx context.Context, req *domain.BulkCommitRequest) ([]domain.LogEntry, error) {
	if m.createError != nil {
		return nil, m.createError
	}
	m.bulk = append(m.bulk, *req)
	out := make([]domain.LogEntry, 0, len(req.Items))
	for _, item := range req.Items {
		out = append(out, *m.entry(item.ProductID, item.AmountGrams))
	}
	return out, nil
}

func (m *MockDiary) UpdateEntry(ctx context.Context, entryID string, req *domain.CommitRequest) (*domain.LogEntry, error) {
	m.updated[entryID] = *req
	return &domain.LogEntry{ID: entryID, ProductID: req.ProductID, AmountGrams: req.AmountGrams}, nil
}

func (m *MockDiary) DeleteEntry(ctx context.Context, entryID string) error {
	m.deleted = append(m.deleted, entryID)
	return nil
}

func (m *MockDiary) ListEntries(ctx context.Context, date, mealType string) ([]domain.LogEntry, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	var out []domain.LogEntry
	for _, e := range m.entries {
		if e.Date == date && e.MealType == mealType {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockDiary) entry(productID string, grams float64) *domain.LogEntry {
	m.createdCount++
	return &domain.LogEntry{ID: fmt.Sprintf("new-%s-%d", productID, m.createdCount), ProductID: productID, AmountGrams: grams}
}

// MockRecordingDiary also keeps product snapshots, like the SQLite diary
type MockRecordingDiary struct {
	*MockDiary
	recorded []domain.ProductSnapshot
}

func (m *MockRecordingDiary) RecordProduct(ctx context.Context, product domain.ProductSnapshot) error {
	m.recorded = append(m.recorded, product)
	return nil
}

// MockMealDiary also commits whole meals, like the SQLite diary
type MockMealDiary struct {
	*MockDiary
	meals     []domain.MealCommit
	mealError error
}

func (m *MockMealDiary) CommitMeal(ctx context.Context, req *domain.MealCommit) (*domain.MealCommitResult, error) {
	m.meals = append(m.meals, *req)
	if m.mealError != nil {
		return nil, m.mealError
	}
	result := &domain.MealCommitResult{Deleted: req.Deletes}
	for _, item := range req.Creates {
		result.Created = append(result.Created, *m.entry(item.ProductID, item.AmountGrams))
	}
	for _, u := range req.Updates {
		result.Updated = append(result.Updated, domain.LogEntry{ID: u.EntryID, ProductID: u.Item.ProductID, AmountGrams: u.Item.AmountGrams})
	}
	return result, nil
}

// MockCommitter is a mock implementation of Committer
type MockCommitter struct {
	err   error
	calls []*mealdraft.Confirmation
}

func (m *MockCommitter) Commit(ctx context.Context, conf *mealdraft.Confirmation) (*CommitResult, error) {
	m.calls = append(m.calls, conf)
	if m.err != nil {
		return nil, m.err
	}
	return &CommitResult{}, nil
}

func strPtr(s string) *string { return &s }

func oatsProduct() domain.CatalogueProduct {
	return domain.CatalogueProduct{
		ID:        strPtr("oats"),
		Name:      "Płatki owsiane",
		Nutrition: domain.ProductNutrition{CaloriesPer100g: 380, ProteinPer100g: 13, FatPer100g: 7, CarbsPer100g: 60},
		Units:     []domain.UnitInfo{{Label: "łyżka", Grams: 10}},
	}
}
