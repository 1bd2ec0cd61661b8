package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"estimato/internal/config"
	"estimato/internal/repository"
)

// ============================================
// User Service
// ============================================

type UserService interface {
	GetByID(ctx context.Context, id string) (*repository.User, error)
	UpdateProfile(ctx context.Context, userID, name string) (*repository.User, error)
	// IsAdmin is derived from configuration, not stored on the row.
	IsAdmin(user *repository.User) bool
	BanUser(ctx context.Context, actorID, targetID string) error
	UnbanUser(ctx context.Context, actorID, targetID string) error
}

type userService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
}

func NewUserService(cfg *config.Config, userRepo repository.UserRepository) UserService {
	return &userService{cfg: cfg, userRepo: userRepo}
}

func (s *userService) GetByID(ctx context.Context, id string) (*repository.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID, name string) (*repository.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "name is required"}
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Name = name
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (s *userService) IsAdmin(user *repository.User) bool {
	return user != nil && s.cfg.IsAdminEmail(user.Email)
}

func (s *userService) BanUser(ctx context.Context, actorID, targetID string) error {
	actor, err := s.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if !s.IsAdmin(actor) {
		return ErrForbidden
	}
	if actorID == targetID {
		return &ValidationError{Field: "user_id", Message: "cannot ban yourself"}
	}

	target, err := s.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target.Banned() {
		return nil
	}

	now := time.Now()
	target.BannedAt = &now
	target.BannedByID = &actor.ID
	if err := s.userRepo.Update(ctx, target); err != nil {
		return fmt.Errorf("failed to ban user: %w", err)
	}
	// Banned users cannot mint new access tokens either.
	return s.userRepo.DeleteUserRefreshTokens(ctx, targetID)
}

func (s *userService) UnbanUser(ctx context.Context, actorID, targetID string) error {
	actor, err := s.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if !s.IsAdmin(actor) {
		return ErrForbidden
	}

	target, err := s.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	target.BannedAt = nil
	target.BannedByID = nil
	if err := s.userRepo.Update(ctx, target); err != nil {
		return fmt.Errorf("failed to unban user: %w", err)
	}
	return nil
}
