package http

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/macrolens/mealdraft/internal/domain"
)

type mockCatalogueClient struct {
	mu        sync.Mutex
	products  map[string]domain.CatalogueProduct
	searchErr error
}

func newMockCatalogueClient() *mockCatalogueClient {
	return &mockCatalogueClient{products: make(map[string]domain.CatalogueProduct)}
}

func (m *mockCatalogueClient) SearchProducts(ctx context.Context, query string) ([]domain.CatalogueProduct, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CatalogueProduct
	for _, p := range m.products {
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, domain.ErrProductNotFound
	}
	return out, nil
}

func (m *mockCatalogueClient) GetProduct(ctx context.Context, id string) (*domain.CatalogueProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (m *mockCatalogueClient) GetProductByBarcode(ctx context.Context, barcode string) (*domain.CatalogueProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.Barcode == barcode {
			return &p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (m *mockCatalogueClient) EnsureProduct(ctx context.Context, req *domain.EnsureProductRequest) (string, error) {
	return "ensured-" + req.Name, nil
}

type mockTranscriptionClient struct {
	result   *domain.CaptureResult
	err      error
	field    string
	filename string
	locale   string
	content  string
}

func (m *mockTranscriptionClient) TranscribeVoice(ctx context.Context, req *domain.CaptureRequest) (*domain.CaptureResult, error) {
	return m.capture("audio", req)
}

func (m *mockTranscriptionClient) AnalyzePhoto(ctx context.Context, req *domain.CaptureRequest) (*domain.CaptureResult, error) {
	return m.capture("image", req)
}

func (m *mockTranscriptionClient) capture(field string, req *domain.CaptureRequest) (*domain.CaptureResult, error) {
	body, err := io.ReadAll(req.Content)
	if err != nil {
		return nil, err
	}
	m.field = field
	m.filename = req.Filename
	m.locale = req.Locale
	m.content = string(body)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type mockDiary struct {
	mu      sync.Mutex
	entries []domain.LogEntry
	created []*domain.CommitRequest
	bulk    []*domain.BulkCommitRequest
	updated map[string]*domain.CommitRequest
	deleted []string
	err     error
	calls   int
	failAt  int // the CreateEntry call, counting from 1, that fails
}

func newMockDiary() *mockDiary {
	return &mockDiary{updated: make(map[string]*domain.CommitRequest)}
}

func (m *mockDiary) CreateEntry(ctx context.Context, req *domain.CommitRequest) (*domain.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.calls++
	if m.calls == m.failAt {
		return nil, fmt.Errorf("%w: connection reset", domain.ErrDiaryCommitFailure)
	}
	m.created = append(m.created, req)
	return &domain.LogEntry{
		ID:          fmt.Sprintf("entry-%d", len(m.created)),
		Date:        req.Date,
		MealType:    req.MealType,
		ProductID:   req.ProductID,
		AmountGrams: req.AmountGrams,
	}, nil
}

func (m *mockDiary) CreateEntries(ctx context.Context, req *domain.BulkCommitRequest) ([]domain.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.bulk = append(m.bulk, req)
	out := make([]domain.LogEntry, len(req.Items))
	for i, item := range req.Items {
		out[i] = domain.LogEntry{ID: fmt.Sprintf("bulk-%d", i), ProductID: item.ProductID, AmountGrams: item.AmountGrams}
	}
	return out, nil
}

func (m *mockDiary) UpdateEntry(ctx context.Context, entryID string, req *domain.CommitRequest) (*domain.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.updated[entryID] = req
	return &domain.LogEntry{ID: entryID, ProductID: req.ProductID, AmountGrams: req.AmountGrams}, nil
}

func (m *mockDiary) DeleteEntry(ctx context.Context, entryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, entryID)
	return nil
}

func (m *mockDiary) ListEntries(ctx context.Context, date, mealType string) ([]domain.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.LogEntry
	for _, e := range m.entries {
		if e.Date == date && e.MealType == mealType {
			out = append(out, e)
		}
	}
	return out, nil
}

func strPtr(s string) *string { return &s }

func oatsProduct() domain.CatalogueProduct {
	return domain.CatalogueProduct{
		ID:      strPtr("oats"),
		Name:    "Oat flakes",
		Brand:   "Melvit",
		Barcode: "5906827001234",
		Nutrition: domain.ProductNutrition{
			CaloriesPer100g: 380,
			ProteinPer100g:  13,
			FatPer100g:      7,
			CarbsPer100g:    60,
		},
		Units: []domain.UnitInfo{{Label: "łyżka", Grams: 10}},
	}
}
