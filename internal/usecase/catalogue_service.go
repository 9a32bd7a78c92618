package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/macrolens/mealdraft/internal/domain"
)

const (
	defaultCatalogueCacheTTL = 24 * time.Hour
	defaultMinQueryLength    = 2
)

// barcodePattern accepts EAN-8, UPC-A, EAN-13 and GTIN-14
var barcodePattern = regexp.MustCompile(`^\d{8,14}$`)

// CatalogueServiceConfig holds configuration for the catalogue service
type CatalogueServiceConfig struct {
	CacheTTL            time.Duration
	MinQueryLength      int
	EnableFuzzyMatching bool
	EnableDebugLogging  bool
}

// CatalogueService handles product lookup with caching
type CatalogueService struct {
	cache           domain.CacheRepository
	client          domain.CatalogueClient
	preprocessor    *QueryPreprocessor
	matchingService *MatchingService
	cacheTTL        time.Duration
	minQueryLength  int
}

// NewCatalogueService creates a new catalogue service with dependencies
func NewCatalogueService(
	cache domain.CacheRepository,
	client domain.CatalogueClient,
	config CatalogueServiceConfig,
) *CatalogueService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = defaultCatalogueCacheTTL
	}
	minLen := config.MinQueryLength
	if minLen <= 0 {
		minLen = defaultMinQueryLength
	}

	return &CatalogueService{
		cache:        cache,
		client:       client,
		preprocessor: NewQueryPreprocessor(config.EnableDebugLogging),
		matchingService: NewMatchingService(MatchConfig{
			EnableFuzzyMatching: config.EnableFuzzyMatching,
			EnableDebugLogging:  config.EnableDebugLogging,
		}),
		cacheTTL:       cacheTTL,
		minQueryLength: minLen,
	}
}

// Search runs a catalogue search for query and returns products ranked by match.
// Flow: clean query -> check cache -> search catalogue -> rank -> cache -> return
func (s *CatalogueService) Search(ctx context.Context, query string) ([]domain.CatalogueProduct, error) {
	cleaned := s.preprocessor.PreprocessQuery(query)
	if utf8.RuneCountInString(cleaned) < s.minQueryLength {
		return nil, fmt.Errorf("%w: query must have at least %d characters", domain.ErrInvalidRequest, s.minQueryLength)
	}

	cacheKey := "catalogue:search:" + normalizeForCacheKey(cleaned)

	var cached []domain.CatalogueProduct
	if s.getFromCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	products, err := s.client.SearchProducts(ctx, cleaned)
	if errors.Is(err, domain.ErrProductNotFound) {
		return []domain.CatalogueProduct{}, nil
	}
	if err != nil {
		return nil, err
	}

	products = s.matchingService.Rank(cleaned, products)

	// Empty results are not cached so new catalogue products show up immediately
	if len(products) > 0 {
		s.setInCache(ctx, cacheKey, products)
	}
	return products, nil
}

// GetProduct fetches a product by catalogue ID
func (s *CatalogueService) GetProduct(ctx context.Context, id string) (*domain.CatalogueProduct, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: product id is required", domain.ErrInvalidRequest)
	}

	cacheKey := "catalogue:product:" + id
	var cached domain.CatalogueProduct
	if s.getFromCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	product, err := s.client.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	s.setInCache(ctx, cacheKey, product)
	return product, nil
}

// GetByBarcode fetches a product by EAN/UPC barcode
func (s *CatalogueService) GetByBarcode(ctx context.Context, barcode string) (*domain.CatalogueProduct, error) {
	if !barcodePattern.MatchString(barcode) {
		return nil, fmt.Errorf("%w: invalid barcode %q", domain.ErrInvalidRequest, barcode)
	}

	cacheKey := "catalogue:barcode:" + barcode
	var cached domain.CatalogueProduct
	if s.getFromCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	product, err := s.client.GetProductByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	s.setInCache(ctx, cacheKey, product)
	if product.ID != nil {
		s.setInCache(ctx, "catalogue:product:"+*product.ID, product)
	}
	return product, nil
}

// getFromCache decodes the cached value under key into out and reports a hit
func (s *CatalogueService) getFromCache(ctx context.Context, key string, out interface{}) bool {
	payload, err := s.cache.Get(ctx, key)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(payload, out); err != nil {
		log.Printf("[Catalogue] Dropping undecodable cache entry %s: %v", key, err)
		s.cache.Delete(ctx, key)
		return false
	}
	return true
}

// setInCache stores value; a failing cache never fails the lookup
func (s *CatalogueService) setInCache(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		log.Printf("[Catalogue] Failed to cache %s: %v", key, err)
	}
}
