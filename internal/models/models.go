package models

import (
	"time"

	"estimato/internal/estimate"
)

// ============================================
// Auth DTOs
// ============================================

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// ============================================
// User DTOs
// ============================================

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}

type UpdateUserRequest struct {
	Name string `json:"name" binding:"required,min=2"`
}

// ============================================
// Estimation DTOs
// ============================================

type CreateEstimationRequest struct {
	Title    string `json:"title" binding:"required"`
	Tracking bool   `json:"tracking"`
}

type UpdateEstimationRequest struct {
	Title    *string `json:"title,omitempty"`
	Tracking *bool   `json:"tracking,omitempty"`
}

type EstimationResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	OwnerID     string    `json:"ownerId"`
	Tracking    bool      `json:"tracking"`
	PublicToken *string   `json:"publicToken,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type EstimationDetailResponse struct {
	EstimationResponse
	Role    string           `json:"role"`
	Items   []ItemResponse   `json:"items"`
	Summary estimate.Summary `json:"summary"`
	Band    string           `json:"band"`
}

type EstimationListResponse struct {
	Owned  []EstimationResponse `json:"owned"`
	Shared []EstimationResponse `json:"shared"`
}

// ============================================
// Item DTOs
// ============================================

type CreateItemRequest struct {
	Title    string `json:"title" binding:"required"`
	Value    int    `json:"value" binding:"min=0"`
	Quantity int    `json:"quantity" binding:"omitempty,min=1"` // defaults to 1
}

type UpdateItemRequest struct {
	Title       *string `json:"title,omitempty"`
	Value       *int    `json:"value,omitempty"`
	Quantity    *int    `json:"quantity,omitempty"`
	Actual      *int    `json:"actual,omitempty"`
	ClearActual bool    `json:"clearActual,omitempty"`
}

// ReorderItemRequest places an item either between two neighbors or at an
// explicit key. orderKey, when set, takes precedence.
type ReorderItemRequest struct {
	PrevID   *string  `json:"prevId,omitempty"`
	NextID   *string  `json:"nextId,omitempty"`
	OrderKey *float64 `json:"orderKey,omitempty"`
}

type ItemResponse struct {
	ID           string    `json:"id"`
	EstimationID string    `json:"estimationId"`
	Title        string    `json:"title"`
	Value        int       `json:"value"`
	Quantity     int       `json:"quantity"`
	Actual       *int      `json:"actual,omitempty"`
	Total        int       `json:"total"`
	OrderKey     float64   `json:"orderKey"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type ItemWriteResponse struct {
	Item    ItemResponse     `json:"item"`
	Summary estimate.Summary `json:"summary"`
	Band    string           `json:"band"`
}

type SummaryResponse struct {
	Summary estimate.Summary `json:"summary"`
	Band    string           `json:"band"`
}

// ============================================
// Share DTOs
// ============================================

type CreateShareRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required,oneof=viewer editor"`
}

type UpdateShareRequest struct {
	Role string `json:"role" binding:"required,oneof=viewer editor"`
}

type ShareResponse struct {
	ID             string     `json:"id"`
	EstimationID   string     `json:"estimationId"`
	UserID         *string    `json:"userId,omitempty"`
	Email          *string    `json:"email,omitempty"`
	Status         string     `json:"status"`
	Role           string     `json:"role"`
	LastAccessedAt *time.Time `json:"lastAccessedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type PublicTokenResponse struct {
	PublicToken string `json:"publicToken"`
}
