package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estimato/internal/models"
	"estimato/internal/repository"
	"estimato/internal/service"
)

type ShareHandler struct {
	shareService service.ShareService
	userService  service.UserService
}

func (h *ShareHandler) Create(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	var req models.CreateShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	share, err := h.shareService.Create(c.Request.Context(), actor, c.Param("id"), req.Email, repository.ShareRole(req.Role))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toShareResponse(share))
}

func (h *ShareHandler) List(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	shares, err := h.shareService.List(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toShareResponseList(shares))
}

func (h *ShareHandler) UpdateRole(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	var req models.UpdateShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	share, err := h.shareService.UpdateRole(c.Request.Context(), actor, c.Param("id"), c.Param("shareId"), repository.ShareRole(req.Role))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toShareResponse(share))
}

func (h *ShareHandler) Revoke(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	if err := h.shareService.Revoke(c.Request.Context(), actor, c.Param("id"), c.Param("shareId")); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Share revoked"})
}

// Transfer hands the estimation to the grantee of an active share.
func (h *ShareHandler) Transfer(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	if err := h.shareService.Transfer(c.Request.Context(), actor, c.Param("id"), c.Param("shareId")); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Ownership transferred"})
}
