package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/repository"
	"github.com/mamadbah2/stockroom/internal/service/inventory"
)

// Summarizer produces per-category totals for a principal.
type Summarizer interface {
	Summarize(ctx context.Context, principal *models.Principal) (*models.InventorySummary, error)
}

// InventoryHandler exposes the mutation engine over HTTP.
type InventoryHandler struct {
	engine   inventory.Engine
	reporter Summarizer
	logger   *zap.Logger
}

// NewInventoryHandler constructs the HTTP handler adapter.
func NewInventoryHandler(engine inventory.Engine, reporter Summarizer, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{engine: engine, reporter: reporter, logger: logger}
}

// List returns the caller's items filtered by the name and category query parameters.
func (h *InventoryHandler) List(c *gin.Context) {
	category, err := models.ParseCategory(c.Query("category"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	filter := models.Filter{Name: c.Query("name"), Category: category}
	items, err := h.engine.ListInventory(c.Request.Context(), principalFrom(c), filter)
	if err != nil {
		h.logger.Error("list inventory failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "unable to load inventory"})
		return
	}

	c.JSON(http.StatusOK, items)
}

// Add increments or creates the item named by the request identifier.
func (h *InventoryHandler) Add(c *gin.Context) {
	var req models.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid add payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "identifier is required"})
		return
	}

	category, err := models.ParseCategory(string(req.Category))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	req.Category = category

	item, err := h.engine.AddItem(c.Request.Context(), principalFrom(c), req)
	if err != nil {
		if errors.Is(err, inventory.ErrIdentifierRequired) || errors.Is(err, inventory.ErrInvalidCategory) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
			return
		}
		h.logger.Error("add item failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "unable to add item"})
		return
	}

	c.JSON(http.StatusOK, item)
}

// Get returns the item named by the identifier query parameter.
func (h *InventoryHandler) Get(c *gin.Context) {
	item, err := h.engine.GetItem(c.Request.Context(), principalFrom(c), c.Query("identifier"))
	if err != nil {
		switch {
		case errors.Is(err, inventory.ErrIdentifierRequired):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "item not found"})
		default:
			h.logger.Error("get item failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "unable to load item"})
		}
		return
	}

	c.JSON(http.StatusOK, item)
}

// Remove takes one unit of the item named in the JSON body away.
func (h *InventoryHandler) Remove(c *gin.Context) {
	var req models.ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid remove payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "identifier is required"})
		return
	}
	h.remove(c, req.Identifier)
}

// RemoveByID takes one unit of the item addressed by the path segment away.
func (h *InventoryHandler) RemoveByID(c *gin.Context) {
	h.remove(c, c.Param("id"))
}

// remove treats unknown items as already removed.
func (h *InventoryHandler) remove(c *gin.Context, identifier string) {
	if err := h.engine.RemoveItem(c.Request.Context(), principalFrom(c), identifier); err != nil {
		if errors.Is(err, inventory.ErrIdentifierRequired) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
			return
		}
		h.logger.Error("remove item failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "unable to remove item"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Summary returns per-category totals for the caller.
func (h *InventoryHandler) Summary(c *gin.Context) {
	summary, err := h.reporter.Summarize(c.Request.Context(), principalFrom(c))
	if err != nil {
		h.logger.Error("summarize inventory failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "unable to summarize inventory"})
		return
	}

	c.JSON(http.StatusOK, summary)
}
