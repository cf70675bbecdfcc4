package handler

import (
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	quoteapp "github.com/quoteflow/backend/internal/application/quote"
	"github.com/quoteflow/backend/internal/interfaces/http/dto"
	"github.com/quoteflow/backend/internal/interfaces/http/middleware"
)

// QuoteHandler handles quote-related API endpoints
type QuoteHandler struct {
	BaseHandler
	service *quoteapp.QuoteService
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler(service *quoteapp.QuoteService) *QuoteHandler {
	return &QuoteHandler{service: service}
}

// RegisterRoutes registers the quote routes on the given group
func (h *QuoteHandler) RegisterRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	{
		quotes.GET("", h.List)
		quotes.POST("", h.Create)
		quotes.GET("/:id", h.GetByID)
		quotes.PATCH("/:id", h.Update)
		quotes.PUT("/:id/draft", h.SaveDraft)
	}
}

// List returns quotes matching an optional start/end date range in the
// reduced list projection
func (h *QuoteHandler) List(c *gin.Context) {
	var req dto.DateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	query, err := quoteapp.ParseListQuery(req.StartDate, req.EndDate)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	quotes, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, quotes)
}

// GetByID returns the full quote tree
func (h *QuoteHandler) GetByID(c *gin.Context) {
	id, ok := h.bindQuoteID(c)
	if !ok {
		return
	}

	quote, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, quote)
}

// Create creates a quote with its full section/basis tree
func (h *QuoteHandler) Create(c *gin.Context) {
	var req quoteapp.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	quote, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, quote)
}

// Update applies a partial update, reconciling the section tree when the
// payload carries one
func (h *QuoteHandler) Update(c *gin.Context) {
	id, ok := h.bindQuoteID(c)
	if !ok {
		return
	}

	var req quoteapp.UpdateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	quote, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, quote)
}

// SaveDraft stores the request body verbatim as the quote's draft.
// The body is validated structurally but persisted untouched so the
// stored document round-trips byte for byte.
func (h *QuoteHandler) SaveDraft(c *gin.Context) {
	id, ok := h.bindQuoteID(c)
	if !ok {
		return
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "Unable to read request body")
		return
	}

	var req quoteapp.DraftQuoteRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodeInvalidJSON), dto.ErrCodeInvalidJSON, "Request body is not valid JSON")
		return
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	draft, err := h.service.SaveDraft(c.Request.Context(), id, raw)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, draft)
}

// bindQuoteID validates the :id path parameter
func (h *QuoteHandler) bindQuoteID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid quote ID format")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid quote ID format")
		return uuid.Nil, false
	}
	return id, true
}

// handleBindError distinguishes field-level validation failures from
// malformed JSON
func (h *QuoteHandler) handleBindError(c *gin.Context, err error) {
	if _, ok := err.(validator.ValidationErrors); ok {
		middleware.HandleValidationError(c, err)
		return
	}
	h.Error(c, dto.GetHTTPStatus(dto.ErrCodeInvalidJSON), dto.ErrCodeInvalidJSON, err.Error())
}
