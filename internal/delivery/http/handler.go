package http

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/macrolens/mealdraft/internal/domain"
	"github.com/macrolens/mealdraft/internal/mealdraft"
	"github.com/macrolens/mealdraft/internal/usecase"
)

const serviceVersion = "1.0.0"

// Handler holds dependencies for HTTP handlers
type Handler struct {
	catalogue *usecase.CatalogueService
	drafts    *usecase.DraftService
}

// NewHandler creates a new HTTP handler
func NewHandler(catalogue *usecase.CatalogueService, drafts *usecase.DraftService) *Handler {
	return &Handler{
		catalogue: catalogue,
		drafts:    drafts,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"service":        "mealdraft",
		"version":        serviceVersion,
		"activeSessions": h.drafts.ActiveSessions(),
	})
}

// SearchProducts handles GET /api/v1/products/search?q=
func (h *Handler) SearchProducts(c *gin.Context) {
	query := c.Query("q")
	if strings.TrimSpace(query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}

	products, err := h.catalogue.Search(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":    query,
		"count":    len(products),
		"products": products,
	})
}

// GetProductByBarcode handles GET /api/v1/products/barcode/:code
func (h *Handler) GetProductByBarcode(c *gin.Context) {
	product, err := h.catalogue.GetByBarcode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrNoEntries):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrUnknownUnit):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEmptyDraft),
		errors.Is(err, domain.ErrUnresolvedProduct):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrCatalogueAPIFailure),
		errors.Is(err, domain.ErrTranscriptionFailure),
		errors.Is(err, domain.ErrDiaryCommitFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as a JSON error body. Upstream and internal failures are
// logged and reported without their details.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()

	switch status {
	case http.StatusBadGateway:
		log.Printf("[HTTP] %s %s: upstream failure: %v", c.Request.Method, c.FullPath(), err)
		message = "upstream service unavailable, please retry"
	case http.StatusInternalServerError:
		log.Printf("[HTTP] %s %s: %v", c.Request.Method, c.FullPath(), err)
		message = "internal server error"
	}

	c.JSON(status, gin.H{"error": message})
}

// requestLocale picks the display locale from ?locale= or Accept-Language
func requestLocale(c *gin.Context) string {
	if locale := c.Query("locale"); locale != "" {
		return strings.ToLower(locale)
	}
	if accept := c.GetHeader("Accept-Language"); len(accept) >= 2 {
		return strings.ToLower(accept[:2])
	}
	return mealdraft.DefaultLocale
}
