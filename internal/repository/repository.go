// internal/repository/repository.go
package repository

import (
	"context"
	"errors"
	"time"
)

// ============================================
// Models / Entities
// ============================================

type User struct {
	ID           string
	Email        string
	Password     string
	Name         string
	Status       string
	LastActiveAt *time.Time
	BannedAt     *time.Time
	BannedByID   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Banned reports whether the user is currently banned.
func (u *User) Banned() bool {
	return u.BannedAt != nil
}

type RefreshToken struct {
	ID        string
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Estimation is the shared document being collaboratively edited.
type Estimation struct {
	ID          string
	Title       string
	OwnerID     string
	Tracking    bool
	PublicToken *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EstimationItem is one weighted line entry within an estimation.
type EstimationItem struct {
	ID           string
	EstimationID string
	Title        string
	Value        int
	Quantity     int
	Actual       *int
	OrderKey     float64
	Fixed        bool // reserved
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ShareStatus is the explicit lifecycle tag of a share. A share is pending
// while only an email is known and active once resolved to a user; no other
// transitions exist.
type ShareStatus string

const (
	ShareStatusPending ShareStatus = "pending"
	ShareStatusActive  ShareStatus = "active"
)

// ShareRole is the granted right.
type ShareRole string

const (
	ShareRoleViewer ShareRole = "viewer"
	ShareRoleEditor ShareRole = "editor"
)

// Share grants a (possibly not-yet-registered) person access to an
// estimation. Exactly one of UserID/Email is set, matching Status.
type Share struct {
	ID             string
	EstimationID   string
	UserID         *string
	Email          *string
	Status         ShareStatus
	Role           ShareRole
	LastAccessedAt *time.Time
	ReminderSentAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (s *Share) Pending() bool {
	return s.Status == ShareStatusPending
}

func (s *Share) Active() bool {
	return s.Status == ShareStatusActive
}

// ============================================
// Repository Errors
// ============================================

var (
	// ErrDuplicateShare is returned when a share for the same
	// (estimation, user) or (estimation, email) already exists. The pg
	// implementation maps the unique-index violation, so the guarantee also
	// holds under concurrent writes.
	ErrDuplicateShare = errors.New("share already exists for this estimation and grantee")
)

// ============================================
// Repository Interfaces
// ============================================

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdateLastActive(ctx context.Context, userID string) error
	SaveRefreshToken(ctx context.Context, token *RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
	DeleteUserRefreshTokens(ctx context.Context, userID string) error
	DeleteExpiredRefreshTokens(ctx context.Context) (int, error)
}

type EstimationRepository interface {
	Create(ctx context.Context, est *Estimation) error
	FindByID(ctx context.Context, id string) (*Estimation, error)
	FindByOwner(ctx context.Context, ownerID string) ([]*Estimation, error)
	FindSharedWithUser(ctx context.Context, userID string) ([]*Estimation, error)
	FindByPublicToken(ctx context.Context, token string) (*Estimation, error)
	Update(ctx context.Context, est *Estimation) error
	Delete(ctx context.Context, id string) error
}

type ItemRepository interface {
	Create(ctx context.Context, item *EstimationItem) error
	FindByID(ctx context.Context, id string) (*EstimationItem, error)
	// FindByEstimation lists items ascending by order key, id as the stable
	// tiebreak.
	FindByEstimation(ctx context.Context, estimationID string) ([]*EstimationItem, error)
	// MaxOrderKey returns the highest order key in the estimation and
	// whether any items exist at all.
	MaxOrderKey(ctx context.Context, estimationID string) (float64, bool, error)
	Update(ctx context.Context, item *EstimationItem) error
	UpdateOrderKey(ctx context.Context, id string, key float64) error
	Delete(ctx context.Context, id string) error
}

type ShareRepository interface {
	Create(ctx context.Context, share *Share) error
	FindByID(ctx context.Context, id string) (*Share, error)
	FindByEstimation(ctx context.Context, estimationID string) ([]*Share, error)
	FindActiveByUser(ctx context.Context, estimationID, userID string) (*Share, error)
	FindByEmail(ctx context.Context, estimationID, email string) (*Share, error)
	// FindPendingByEmail sweeps pending shares across all estimations.
	FindPendingByEmail(ctx context.Context, email string) ([]*Share, error)
	// Activate flips a pending share to active for the given user. It only
	// touches rows still in the pending state, which keeps the
	// resolve-on-arrival sweep idempotent; it reports whether a row flipped.
	Activate(ctx context.Context, id, userID string) (bool, error)
	UpdateRole(ctx context.Context, id string, role ShareRole) error
	// TouchAccess updates last_accessed_at without touching updated_at, so
	// "last accessed" and "last edited" stay independently observable.
	TouchAccess(ctx context.Context, id string) error
	MarkReminderSent(ctx context.Context, id string) error
	FindStalePending(ctx context.Context, olderThan time.Time) ([]*Share, error)
	Delete(ctx context.Context, id string) error
	// TransferOwnership commits the three transfer steps as one unit:
	// reassign the estimation's owner, delete the consumed share, grant the
	// former owner a viewer share. Any failure rolls back all of it.
	TransferOwnership(ctx context.Context, estimationID, newOwnerID, consumedShareID, formerOwnerID string) error
}
