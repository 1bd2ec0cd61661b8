package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estimato/internal/estimate"
	"estimato/internal/models"
	"estimato/internal/service"
)

type EstimationHandler struct {
	estimationService service.EstimationService
	userService       service.UserService
}

func (h *EstimationHandler) Create(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	var req models.CreateEstimationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	est, err := h.estimationService.Create(c.Request.Context(), actor.ID, req.Title, req.Tracking)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toEstimationResponse(est))
}

// List returns owned and shared estimations in separate collections.
func (h *EstimationHandler) List(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	owned, err := h.estimationService.ListOwned(c.Request.Context(), actor.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	shared, err := h.estimationService.ListShared(c.Request.Context(), actor.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.EstimationListResponse{
		Owned:  toEstimationResponseList(owned),
		Shared: toEstimationResponseList(shared),
	})
}

func (h *EstimationHandler) Get(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	detail, err := h.estimationService.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toDetailResponse(detail))
}

// GetPublic serves the read-only view behind a share link. No auth.
func (h *EstimationHandler) GetPublic(c *gin.Context) {
	detail, err := h.estimationService.GetPublic(c.Request.Context(), c.Param("token"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	resp := toDetailResponse(detail)
	// The public view never exposes the token that unlocked it.
	resp.PublicToken = nil
	c.JSON(http.StatusOK, resp)
}

func (h *EstimationHandler) Update(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	var req models.UpdateEstimationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	est, err := h.estimationService.Update(c.Request.Context(), actor, c.Param("id"), req.Title, req.Tracking)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toEstimationResponse(est))
}

func (h *EstimationHandler) Delete(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	if err := h.estimationService.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Estimation deleted"})
}

func (h *EstimationHandler) Summary(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	summary, err := h.estimationService.Summary(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SummaryResponse{
		Summary: summary,
		Band:    estimate.HealthBand(summary.BufferHealth),
	})
}

func (h *EstimationHandler) EnablePublicToken(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	token, err := h.estimationService.EnablePublicToken(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.PublicTokenResponse{PublicToken: token})
}

func (h *EstimationHandler) DisablePublicToken(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	if err := h.estimationService.DisablePublicToken(c.Request.Context(), actor, c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Public access disabled"})
}
