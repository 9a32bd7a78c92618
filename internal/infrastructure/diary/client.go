package diary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/macrolens/mealdraft/internal/domain"
	"github.com/macrolens/mealdraft/internal/infrastructure/apiclient"
)

const entriesPath = "/v1/diary/entries"

// Client persists diary entries through the remote diary API.
// Only reads are retried; writes are not idempotent.
type Client struct {
	api *apiclient.Client
}

type listResponse struct {
	Entries []domain.LogEntry `json:"entries"`
}

type bulkResponse struct {
	Entries []domain.LogEntry `json:"entries"`
}

// NewClient creates a diary API client
func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		api: apiclient.New(apiclient.Config{
			Name:    "Diary",
			BaseURL: baseURL,
			APIKey:  apiKey,
		}),
	}
}

// SetDebug enables verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.api.SetDebug(debug)
}

// CreateEntry writes one diary entry
func (c *Client) CreateEntry(ctx context.Context, req *domain.CommitRequest) (*domain.LogEntry, error) {
	var entry domain.LogEntry
	if err := c.call(ctx, http.MethodPost, entriesPath, nil, req, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// CreateEntries writes all items of one meal in a single request
func (c *Client) CreateEntries(ctx context.Context, req *domain.BulkCommitRequest) ([]domain.LogEntry, error) {
	var resp bulkResponse
	if err := c.call(ctx, http.MethodPost, entriesPath+"/bulk", nil, req, &resp); err != nil {
		return nil, err
	}
	log.Printf("[Diary] Created %d entries for %s %s", len(resp.Entries), req.Date, req.MealType)
	return resp.Entries, nil
}

// UpdateEntry replaces the quantity, unit and meal of an existing entry
func (c *Client) UpdateEntry(ctx context.Context, entryID string, req *domain.CommitRequest) (*domain.LogEntry, error) {
	var entry domain.LogEntry
	err := c.call(ctx, http.MethodPatch, entriesPath+"/"+url.PathEscape(entryID), nil, req, &entry)
	if errors.Is(err, domain.ErrNoEntries) {
		return nil, fmt.Errorf("%w: entry %s not found", domain.ErrDiaryCommitFailure, entryID)
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteEntry removes an entry. Deleting a missing entry is not an error.
func (c *Client) DeleteEntry(ctx context.Context, entryID string) error {
	err := c.call(ctx, http.MethodDelete, entriesPath+"/"+url.PathEscape(entryID), nil, nil, nil)
	if errors.Is(err, domain.ErrNoEntries) {
		return nil
	}
	return err
}

// ListEntries returns the entries of one meal on one date
func (c *Client) ListEntries(ctx context.Context, date, mealType string) ([]domain.LogEntry, error) {
	params := url.Values{}
	params.Add("date", date)
	params.Add("meal_type", mealType)

	var resp listResponse
	err := c.call(ctx, http.MethodGet, entriesPath, params, nil, &resp)
	if errors.Is(err, domain.ErrNoEntries) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	req := apiclient.Request{
		Method: method,
		Path:   path,
		Query:  query,
		Retry:  method == http.MethodGet,
	}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		req.Body = body
		req.ContentType = "application/json"
	}

	resp, err := c.api.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDiaryCommitFailure, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNoEntries
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", domain.ErrInvalidRequest, apiclient.ErrorBody(resp))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: status %d, body: %s", domain.ErrDiaryCommitFailure, resp.StatusCode, apiclient.ErrorBody(resp))
	}

	if out == nil || len(resp.Body) == 0 || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", domain.ErrDiaryCommitFailure, err)
	}
	return nil
}
