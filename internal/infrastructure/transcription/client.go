package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/macrolens/mealdraft/internal/domain"
	"github.com/macrolens/mealdraft/internal/infrastructure/apiclient"
)

const (
	voicePath  = "/v1/meals/voice"
	photoPath  = "/v1/meals/photo"
	audioField = "audio"
	imageField = "image"

	// Transcription plus matching routinely takes tens of seconds.
	requestTimeout = 120 * time.Second
)

// Client uploads voice recordings and meal photos to the transcription service.
// Uploads are not retried: the service is not idempotent and bodies can be large.
type Client struct {
	api *apiclient.Client
}

// NewClient creates a transcription client
func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		api: apiclient.New(apiclient.Config{
			Name:        "Transcription",
			BaseURL:     baseURL,
			APIKey:      apiKey,
			Timeout:     requestTimeout,
			MaxAttempts: 1,
		}),
	}
}

// SetDebug enables verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.api.SetDebug(debug)
}

// TranscribeVoice sends a recording and returns the proposed meal
func (c *Client) TranscribeVoice(ctx context.Context, req *domain.CaptureRequest) (*domain.CaptureResult, error) {
	return c.upload(ctx, voicePath, audioField, req)
}

// AnalyzePhoto sends a meal photo and returns the proposed meal
func (c *Client) AnalyzePhoto(ctx context.Context, req *domain.CaptureRequest) (*domain.CaptureResult, error) {
	return c.upload(ctx, photoPath, imageField, req)
}

func (c *Client) upload(ctx context.Context, path, field string, req *domain.CaptureRequest) (*domain.CaptureResult, error) {
	if req == nil || req.Content == nil {
		return nil, fmt.Errorf("%w: missing upload content", domain.ErrInvalidRequest)
	}

	body, contentType, err := encodeMultipart(field, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTranscriptionFailure, err)
	}
	log.Printf("[Transcription] Uploading %s (%d bytes) to %s", req.Filename, len(body), path)

	start := time.Now()
	resp, err := c.api.Do(ctx, apiclient.Request{
		Method:      http.MethodPost,
		Path:        path,
		Body:        body,
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTranscriptionFailure, err)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidRequest, apiclient.ErrorBody(resp))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: status %d, body: %s", domain.ErrTranscriptionFailure, resp.StatusCode, apiclient.ErrorBody(resp))
	}

	var result domain.CaptureResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrTranscriptionFailure, err)
	}
	if result.ProcessingTimeMs == 0 {
		result.ProcessingTimeMs = time.Since(start).Milliseconds()
	}

	log.Printf("[Transcription] %s returned %d items in %dms", path, len(result.Items), result.ProcessingTimeMs)
	return &result, nil
}

func encodeMultipart(field string, req *domain.CaptureRequest) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	filename := req.Filename
	if filename == "" {
		filename = field
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, req.Content); err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}

	if req.Locale != "" {
		if err := w.WriteField("locale", req.Locale); err != nil {
			return nil, "", err
		}
	}
	if req.Date != "" {
		if err := w.WriteField("date", req.Date); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
