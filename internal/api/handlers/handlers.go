package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"estimato/internal/estimate"
	"estimato/internal/models"
	"estimato/internal/repository"
	"estimato/internal/service"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	Auth       *AuthHandler
	User       *UserHandler
	Estimation *EstimationHandler
	Item       *ItemHandler
	Share      *ShareHandler
}

// NewHandlers creates all handlers
func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Auth:       &AuthHandler{authService: services.Auth, userService: services.User},
		User:       &UserHandler{userService: services.User},
		Estimation: &EstimationHandler{estimationService: services.Estimation, userService: services.User},
		Item:       &ItemHandler{itemService: services.Item, userService: services.User},
		Share:      &ShareHandler{shareService: services.Share, userService: services.User},
	}
}

func logAPIError(c *gin.Context, action string, err error) {
	log.Printf(
		"[API_ERROR] action=%s method=%s path=%s userID=%v err=%v",
		action,
		c.Request.Method,
		c.FullPath(),
		c.GetString("userID"),
		err,
	)
}

// handleServiceError maps the service error taxonomy onto HTTP statuses. A
// denied right is 403, never 404; only a truly missing row is 404.
func handleServiceError(c *gin.Context, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrBanned),
		errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	case errors.Is(err, service.ErrUserExists),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrSharePending):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
	default:
		logAPIError(c, "internal", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// ============================================
// Response Mappers
// ============================================

func toUserResponse(u *repository.User, isAdmin bool) models.UserResponse {
	return models.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Status:    u.Status,
		IsAdmin:   isAdmin,
		CreatedAt: u.CreatedAt,
	}
}

func toEstimationResponse(e *repository.Estimation) models.EstimationResponse {
	return models.EstimationResponse{
		ID:          e.ID,
		Title:       e.Title,
		OwnerID:     e.OwnerID,
		Tracking:    e.Tracking,
		PublicToken: e.PublicToken,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func toEstimationResponseList(ests []*repository.Estimation) []models.EstimationResponse {
	response := make([]models.EstimationResponse, len(ests))
	for i, e := range ests {
		response[i] = toEstimationResponse(e)
	}
	return response
}

func toItemResponse(it *repository.EstimationItem) models.ItemResponse {
	return models.ItemResponse{
		ID:           it.ID,
		EstimationID: it.EstimationID,
		Title:        it.Title,
		Value:        it.Value,
		Quantity:     it.Quantity,
		Actual:       it.Actual,
		Total:        estimate.ItemTotal(it.Value, it.Quantity),
		OrderKey:     it.OrderKey,
		CreatedAt:    it.CreatedAt,
		UpdatedAt:    it.UpdatedAt,
	}
}

func toItemResponseList(items []*repository.EstimationItem) []models.ItemResponse {
	response := make([]models.ItemResponse, len(items))
	for i, it := range items {
		response[i] = toItemResponse(it)
	}
	return response
}

func toDetailResponse(d *service.EstimationDetail) models.EstimationDetailResponse {
	return models.EstimationDetailResponse{
		EstimationResponse: toEstimationResponse(d.Estimation),
		Role:               d.Role,
		Items:              toItemResponseList(d.Items),
		Summary:            d.Summary,
		Band:               estimate.HealthBand(d.Summary.BufferHealth),
	}
}

func toShareResponse(s *repository.Share) models.ShareResponse {
	return models.ShareResponse{
		ID:             s.ID,
		EstimationID:   s.EstimationID,
		UserID:         s.UserID,
		Email:          s.Email,
		Status:         string(s.Status),
		Role:           string(s.Role),
		LastAccessedAt: s.LastAccessedAt,
		CreatedAt:      s.CreatedAt,
	}
}

func toShareResponseList(shares []*repository.Share) []models.ShareResponse {
	response := make([]models.ShareResponse, len(shares))
	for i, s := range shares {
		response[i] = toShareResponse(s)
	}
	return response
}

// currentUser loads the authenticated actor for service calls that need the
// full row (policy checks match on email as well as id).
func currentUser(c *gin.Context, users service.UserService) (*repository.User, bool) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return nil, false
	}
	user, err := users.GetByID(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return nil, false
	}
	return user, true
}
