package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estimato/internal/estimate"
	"estimato/internal/models"
	"estimato/internal/service"
)

type ItemHandler struct {
	itemService service.ItemService
	userService service.UserService
}

func (h *ItemHandler) Create(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	var req models.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Quantity == 0 {
		req.Quantity = 1
	}

	result, err := h.itemService.Create(c.Request.Context(), actor, c.Param("id"), req.Title, req.Value, req.Quantity)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.ItemWriteResponse{
		Item:    toItemResponse(result.Item),
		Summary: result.Summary,
		Band:    estimate.HealthBand(result.Summary.BufferHealth),
	})
}

func (h *ItemHandler) Update(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	var req models.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.itemService.Update(c.Request.Context(), actor, c.Param("id"), c.Param("itemId"), service.ItemUpdate{
		Title:       req.Title,
		Value:       req.Value,
		Quantity:    req.Quantity,
		Actual:      req.Actual,
		ClearActual: req.ClearActual,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ItemWriteResponse{
		Item:    toItemResponse(result.Item),
		Summary: result.Summary,
		Band:    estimate.HealthBand(result.Summary.BufferHealth),
	})
}

func (h *ItemHandler) Reorder(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	var req models.ReorderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.itemService.Reorder(c.Request.Context(), actor, c.Param("id"), c.Param("itemId"), req.PrevID, req.NextID, req.OrderKey)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toItemResponse(item))
}

func (h *ItemHandler) Delete(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	summary, err := h.itemService.Delete(c.Request.Context(), actor, c.Param("id"), c.Param("itemId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SummaryResponse{
		Summary: summary,
		Band:    estimate.HealthBand(summary.BufferHealth),
	})
}
