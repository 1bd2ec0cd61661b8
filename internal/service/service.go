package service

import (
	"errors"
	"fmt"

	"estimato/internal/config"
	"estimato/internal/db"
	"estimato/internal/email"
	"estimato/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid token")
	ErrBanned             = errors.New("account is banned")
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("resource already exists")
	ErrSharePending       = errors.New("share has not been claimed yet")
	ErrInvalidInput       = errors.New("invalid input")
)

// ValidationError carries the offending field for 400 responses.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Dispatcher pushes estimation events to connected clients. The socket
// package provides the real implementation; tests inject recorders. Publish
// failures are reported to the caller, which logs and moves on, so a dead
// socket layer never fails a write.
type Dispatcher interface {
	PublishNotification(estimationID, payloadType, action, id string) error
	PublishFragment(estimationID string, payload interface{}) error
}

// ============================================
// Services Container
// ============================================

type Services struct {
	Auth       AuthService
	User       UserService
	Estimation EstimationService
	Item       ItemService
	Share      ShareService
}

// ServiceDeps contains all dependencies needed to create services
type ServiceDeps struct {
	Config     *config.Config
	Repos      *repository.Repositories
	Cache      *db.RedisDB
	EmailSvc   *email.Service
	Dispatcher Dispatcher
}

func NewServices(deps *ServiceDeps) *Services {
	shareService := NewShareService(
		deps.Repos.ShareRepo,
		deps.Repos.EstimationRepo,
		deps.Repos.UserRepo,
		deps.EmailSvc,
		deps.Dispatcher,
	)

	estimationService := NewEstimationService(
		deps.Repos.EstimationRepo,
		deps.Repos.ItemRepo,
		deps.Repos.ShareRepo,
		deps.Repos.UserRepo,
		deps.Cache,
		deps.Dispatcher,
	)

	return &Services{
		Auth:       NewAuthService(deps.Config, deps.Repos.UserRepo, shareService),
		User:       NewUserService(deps.Config, deps.Repos.UserRepo),
		Estimation: estimationService,
		Item:       NewItemService(deps.Repos.ItemRepo, deps.Repos.EstimationRepo, deps.Repos.ShareRepo, deps.Dispatcher),
		Share:      shareService,
	}
}
