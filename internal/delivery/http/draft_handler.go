package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/macrolens/mealdraft/internal/domain"
	"github.com/macrolens/mealdraft/internal/usecase"
)

// maxUploadBytes caps voice recordings and photos
const maxUploadBytes = 25 << 20

// CreateDraft handles POST /api/v1/drafts, a draft started from manual search
func (h *Handler) CreateDraft(c *gin.Context) {
	var req manualDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	view, err := h.drafts.StartManual(c.Request.Context(), usecase.ManualStart{
		MealType:      req.MealType,
		Date:          req.Date,
		ProductID:     req.ProductID,
		QuantityGrams: req.QuantityGrams,
	})
	h.respondView(c, http.StatusCreated, view, err)
}

// CreateVoiceDraft handles POST /api/v1/drafts/voice (multipart field "audio")
func (h *Handler) CreateVoiceDraft(c *gin.Context) {
	req, cleanup, err := captureFromForm(c, "audio")
	if err != nil {
		respondError(c, err)
		return
	}
	defer cleanup()

	view, err := h.drafts.StartVoice(c.Request.Context(), req)
	h.respondView(c, http.StatusCreated, view, err)
}

// CreatePhotoDraft handles POST /api/v1/drafts/photo (multipart field "image")
func (h *Handler) CreatePhotoDraft(c *gin.Context) {
	req, cleanup, err := captureFromForm(c, "image")
	if err != nil {
		respondError(c, err)
		return
	}
	defer cleanup()

	view, err := h.drafts.StartPhoto(c.Request.Context(), req)
	h.respondView(c, http.StatusCreated, view, err)
}

// CreateEditDraft handles POST /api/v1/drafts/edit, loading one logged meal for editing
func (h *Handler) CreateEditDraft(c *gin.Context) {
	var req editDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	view, err := h.drafts.StartEdit(c.Request.Context(), req.Date, req.MealType)
	h.respondView(c, http.StatusCreated, view, err)
}

// ImportDraft handles POST /api/v1/drafts/import, reopening a draft the client kept,
// e.g. one assembled offline. Macros are recomputed from the items' reference values.
func (h *Handler) ImportDraft(c *gin.Context) {
	var draft domain.MealDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	view, err := h.drafts.StartFromDraft(&draft)
	h.respondView(c, http.StatusCreated, view, err)
}

// GetDraft handles GET /api/v1/drafts/:id
func (h *Handler) GetDraft(c *gin.Context) {
	view, err := h.drafts.Get(c.Param("id"))
	h.respondView(c, http.StatusOK, view, err)
}

// CancelDraft handles DELETE /api/v1/drafts/:id
func (h *Handler) CancelDraft(c *gin.Context) {
	if err := h.drafts.Cancel(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddItem handles POST /api/v1/drafts/:id/items
func (h *Handler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	view, err := h.drafts.AddProduct(c.Request.Context(), c.Param("id"), req.ProductID, req.QuantityGrams)
	h.respondView(c, http.StatusOK, view, err)
}

// RemoveItem handles DELETE /api/v1/drafts/:id/items/:index
func (h *Handler) RemoveItem(c *gin.Context) {
	index, err := indexParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := h.drafts.RemoveItem(c.Param("id"), index)
	h.respondView(c, http.StatusOK, view, err)
}

// UpdateItem handles PATCH /api/v1/drafts/:id/items/:index
func (h *Handler) UpdateItem(c *gin.Context) {
	index, err := indexParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		respondError(c, err)
		return
	}

	view, err := h.drafts.UpdateItem(c.Param("id"), index, req.toUpdate())
	h.respondView(c, http.StatusOK, view, err)
}

// CycleMealType handles POST /api/v1/drafts/:id/meal-type/cycle
func (h *Handler) CycleMealType(c *gin.Context) {
	view, err := h.drafts.CycleMealType(c.Param("id"))
	h.respondView(c, http.StatusOK, view, err)
}

// SetMealType handles PUT /api/v1/drafts/:id/meal-type
func (h *Handler) SetMealType(c *gin.Context) {
	var req mealTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	view, err := h.drafts.SetMealType(c.Param("id"), req.MealType)
	h.respondView(c, http.StatusOK, view, err)
}

// BeginSearch handles POST /api/v1/drafts/:id/search
func (h *Handler) BeginSearch(c *gin.Context) {
	view, err := h.drafts.BeginSearch(c.Param("id"))
	h.respondView(c, http.StatusOK, view, err)
}

// CancelSearch handles DELETE /api/v1/drafts/:id/search
func (h *Handler) CancelSearch(c *gin.Context) {
	view, err := h.drafts.CancelSearch(c.Param("id"))
	h.respondView(c, http.StatusOK, view, err)
}

// SelectProduct handles POST /api/v1/drafts/:id/search/select
func (h *Handler) SelectProduct(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	view, err := h.drafts.SelectProduct(c.Request.Context(), c.Param("id"), req.ProductID, req.QuantityGrams)
	h.respondView(c, http.StatusOK, view, err)
}

// BeginEdit handles POST /api/v1/drafts/:id/items/:index/edit
func (h *Handler) BeginEdit(c *gin.Context) {
	index, err := indexParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := h.drafts.BeginEdit(c.Param("id"), index)
	h.respondView(c, http.StatusOK, view, err)
}

// SaveEdit handles PUT /api/v1/drafts/:id/items/:index/edit. The index must be the
// item currently being edited.
func (h *Handler) SaveEdit(c *gin.Context) {
	index, err := indexParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		respondError(c, err)
		return
	}

	current, err := h.drafts.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if current.EditingIndex == nil || *current.EditingIndex != index {
		respondError(c, fmt.Errorf("%w: item %d is not being edited", domain.ErrInvalidTransition, index))
		return
	}

	view, err := h.drafts.SaveEdit(c.Param("id"), req.toUpdate())
	h.respondView(c, http.StatusOK, view, err)
}

// CancelEdit handles DELETE /api/v1/drafts/:id/items/:index/edit
func (h *Handler) CancelEdit(c *gin.Context) {
	view, err := h.drafts.CancelEdit(c.Param("id"))
	h.respondView(c, http.StatusOK, view, err)
}

// ConfirmDraft handles POST /api/v1/drafts/:id/confirm. On failure the draft stays
// open so the client can retry.
func (h *Handler) ConfirmDraft(c *gin.Context) {
	result, err := h.drafts.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) respondView(c *gin.Context, status int, view *usecase.SessionView, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, toDraftResponse(view, requestLocale(c)))
}

func indexParam(c *gin.Context) (int, error) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return 0, fmt.Errorf("%w: item index must be an integer", domain.ErrInvalidRequest)
	}
	return index, nil
}

// captureFromForm reads an uploaded recording or photo. The returned cleanup closes it.
func captureFromForm(c *gin.Context, field string) (*domain.CaptureRequest, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: multipart field %q is required", domain.ErrInvalidRequest, field)
	}
	if header.Size > maxUploadBytes {
		return nil, nil, fmt.Errorf("%w: upload exceeds %d MB", domain.ErrInvalidRequest, maxUploadBytes>>20)
	}

	file, err := header.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: cannot read upload: %v", domain.ErrInvalidRequest, err)
	}

	return &domain.CaptureRequest{
		Content:     file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Locale:      c.PostForm("locale"),
		Date:        c.PostForm("date"),
	}, func() { file.Close() }, nil
}
