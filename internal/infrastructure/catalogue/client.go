package catalogue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/macrolens/mealdraft/internal/domain"
	"github.com/macrolens/mealdraft/internal/infrastructure/apiclient"
)

const searchPageSize = 20

// Client handles communication with the remote food catalogue
type Client struct {
	api *apiclient.Client
}

// NewClient creates a catalogue client. ratePerSecond of zero disables client-side limiting.
func NewClient(apiKey, baseURL string, ratePerSecond float64) *Client {
	return &Client{
		api: apiclient.New(apiclient.Config{
			Name:          "Catalogue",
			BaseURL:       baseURL,
			APIKey:        apiKey,
			RatePerSecond: ratePerSecond,
			Burst:         10,
		}),
	}
}

// SetDebug enables verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.api.SetDebug(debug)
}

// SearchProducts runs a full-text catalogue search
func (c *Client) SearchProducts(ctx context.Context, query string) ([]domain.CatalogueProduct, error) {
	log.Printf("[Catalogue] SearchProducts called with query: %q", query)

	params := url.Values{}
	params.Add("q", query)
	params.Add("limit", strconv.Itoa(searchPageSize))

	resp, err := c.api.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/v1/products/search",
		Query:  params,
		Retry:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogueAPIFailure, err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var payload searchResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	products := mapProducts(payload.Products)
	log.Printf("[Catalogue] Found %d products for query: %q", len(products), query)
	return products, nil
}

// GetProduct fetches a product by catalogue ID
func (c *Client) GetProduct(ctx context.Context, id string) (*domain.CatalogueProduct, error) {
	return c.getOne(ctx, "/v1/products/"+url.PathEscape(id))
}

// GetProductByBarcode fetches a product by EAN/UPC barcode
func (c *Client) GetProductByBarcode(ctx context.Context, barcode string) (*domain.CatalogueProduct, error) {
	return c.getOne(ctx, "/v1/products/barcode/"+url.PathEscape(barcode))
}

// EnsureProduct creates a product for an unresolved item, or returns the ID of the existing
// product with the same name and brand.
func (c *Client) EnsureProduct(ctx context.Context, req *domain.EnsureProductRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.api.Do(ctx, apiclient.Request{
		Method:      http.MethodPost,
		Path:        "/v1/products/ensure",
		Body:        body,
		ContentType: "application/json",
		Retry:       true,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCatalogueAPIFailure, err)
	}
	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var payload ensureResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if payload.ID == "" {
		return "", fmt.Errorf("%w: empty product id", domain.ErrCatalogueAPIFailure)
	}
	return payload.ID, nil
}

func (c *Client) getOne(ctx context.Context, path string) (*domain.CatalogueProduct, error) {
	resp, err := c.api.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   path,
		Retry:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogueAPIFailure, err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var payload productPayload
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	product := mapProduct(payload)
	return &product, nil
}

func checkStatus(resp *apiclient.Response) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrProductNotFound
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", domain.ErrInvalidRequest, apiclient.ErrorBody(resp))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: status %d, body: %s", domain.ErrCatalogueAPIFailure, resp.StatusCode, apiclient.ErrorBody(resp))
	}
	return nil
}
