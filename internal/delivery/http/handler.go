package http

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prodfilter/backend/internal/domain"
	"github.com/prodfilter/backend/internal/usecase"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Handler holds dependencies for HTTP handlers
type Handler struct {
	filterService *usecase.FilterService
}

// NewHandler creates a new HTTP handler
func NewHandler(filterService *usecase.FilterService) *Handler {
	return &Handler{
		filterService: filterService,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "prodfilter-backend",
		"version": Version,
	})
}

// GetProducts returns the source product table
func (h *Handler) GetProducts(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	table, err := h.filterService.GetProducts(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, table)
}

// FilterProducts filters the product table and writes the matches to a result table
func (h *Handler) FilterProducts(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	raw, ok := bindCriteria(c)
	if !ok {
		return
	}

	outcome, err := h.filterService.FilterProducts(c.Request.Context(), raw)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// PreviewProducts filters the product table without writing a result table
func (h *Handler) PreviewProducts(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	raw, ok := bindCriteria(c)
	if !ok {
		return
	}

	outcome, err := h.filterService.Preview(c.Request.Context(), raw)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

func (h *Handler) configured(c *gin.Context) bool {
	if h.filterService == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": "Product filtering not configured",
		})
		return false
	}
	return true
}

// bindCriteria decodes the request body; an empty body means no criteria
func bindCriteria(c *gin.Context) (*domain.RawCriteria, bool) {
	var raw domain.RawCriteria
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return &raw, true
	}
	if err := c.ShouldBindJSON(&raw); err != nil && !errors.Is(err, io.EOF) {
		log.Printf("[HTTP] Invalid filter request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": domain.ErrInvalidRequest.Error(),
		})
		return nil, false
	}
	return &raw, true
}

// respondError maps domain errors to HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	var columnErr *domain.UnresolvableColumnError

	switch {
	case errors.Is(err, domain.ErrMissingTable):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Base sheet does not exist.",
		})
	case errors.As(err, &columnErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   columnErr.Error(),
			"missing": columnErr.Missing,
		})
	case errors.Is(err, domain.ErrSinkFailure):
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Could not write the result sheet",
		})
	case errors.Is(err, domain.ErrSourceFailure):
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Product sheet temporarily unavailable",
		})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": domain.ErrInvalidRequest.Error(),
		})
	default:
		log.Printf("[HTTP] Unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
