package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/badoux/checkmail"

	"estimato/internal/email"
	"estimato/internal/policy"
	"estimato/internal/repository"
)

// ============================================
// Share Service
// ============================================

type ShareService interface {
	Create(ctx context.Context, actor *repository.User, estimationID, granteeEmail string, role repository.ShareRole) (*repository.Share, error)
	List(ctx context.Context, actor *repository.User, estimationID string) ([]*repository.Share, error)
	UpdateRole(ctx context.Context, actor *repository.User, estimationID, shareID string, role repository.ShareRole) (*repository.Share, error)
	Revoke(ctx context.Context, actor *repository.User, estimationID, shareID string) error
	// Transfer hands the estimation to the grantee of an active share. The
	// consumed share disappears and the former owner keeps viewer access.
	Transfer(ctx context.Context, actor *repository.User, estimationID, shareID string) error
	// ResolveForUser activates every pending share addressed to the email.
	// It runs on registration and on every login; already-active shares are
	// skipped, so repeats are harmless.
	ResolveForUser(ctx context.Context, userID, userEmail string) error
	// RemindStalePending emails pending grantees who never claimed their
	// share. Returns how many reminders went out.
	RemindStalePending(ctx context.Context, olderThan time.Duration) (int, error)
}

type shareService struct {
	shareRepo repository.ShareRepository
	estRepo   repository.EstimationRepository
	userRepo  repository.UserRepository
	emailSvc  *email.Service
	dispatch  Dispatcher
}

func NewShareService(
	shareRepo repository.ShareRepository,
	estRepo repository.EstimationRepository,
	userRepo repository.UserRepository,
	emailSvc *email.Service,
	dispatch Dispatcher,
) ShareService {
	return &shareService{
		shareRepo: shareRepo,
		estRepo:   estRepo,
		userRepo:  userRepo,
		emailSvc:  emailSvc,
		dispatch:  dispatch,
	}
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// requireOwner loads the estimation and checks the share-management right.
func (s *shareService) requireOwner(ctx context.Context, actor *repository.User, estimationID string) (*repository.Estimation, error) {
	est, err := s.estRepo.FindByID(ctx, estimationID)
	if err != nil {
		return nil, fmt.Errorf("failed to find estimation: %w", err)
	}
	if est == nil {
		return nil, ErrNotFound
	}
	if !policy.CanManageShares(policyActor(actor), policyDoc(est)) {
		return nil, ErrForbidden
	}
	return est, nil
}

// requireTransfer checks the ownership-transfer right, which is its own
// decision and not implied by share management.
func (s *shareService) requireTransfer(ctx context.Context, actor *repository.User, estimationID string) (*repository.Estimation, error) {
	est, err := s.estRepo.FindByID(ctx, estimationID)
	if err != nil {
		return nil, fmt.Errorf("failed to find estimation: %w", err)
	}
	if est == nil {
		return nil, ErrNotFound
	}
	if !policy.CanTransferOwnership(policyActor(actor), policyDoc(est)) {
		return nil, ErrForbidden
	}
	return est, nil
}

func (s *shareService) Create(ctx context.Context, actor *repository.User, estimationID, granteeEmail string, role repository.ShareRole) (*repository.Share, error) {
	est, err := s.requireOwner(ctx, actor, estimationID)
	if err != nil {
		return nil, err
	}

	granteeEmail = normalizeEmail(granteeEmail)
	if err := checkmail.ValidateFormat(granteeEmail); err != nil {
		return nil, &ValidationError{Field: "email", Message: "invalid email address"}
	}
	if role != repository.ShareRoleViewer && role != repository.ShareRoleEditor {
		return nil, &ValidationError{Field: "role", Message: "role must be viewer or editor"}
	}
	if granteeEmail == normalizeEmail(actor.Email) {
		return nil, &ValidationError{Field: "email", Message: "cannot share with yourself"}
	}

	share := &repository.Share{
		EstimationID: estimationID,
		Role:         role,
	}

	grantee, err := s.userRepo.FindByEmail(ctx, granteeEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to look up grantee: %w", err)
	}
	if grantee != nil {
		if grantee.ID == est.OwnerID {
			return nil, &ValidationError{Field: "email", Message: "cannot share with the owner"}
		}
		share.UserID = &grantee.ID
		share.Status = repository.ShareStatusActive
	} else {
		share.Email = &granteeEmail
		share.Status = repository.ShareStatusPending
	}

	if err := s.shareRepo.Create(ctx, share); err != nil {
		if errors.Is(err, repository.ErrDuplicateShare) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create share: %w", err)
	}

	// Send the invite off the request path, like any other notification.
	if s.emailSvc != nil {
		inviter, title := actor.Name, est.Title
		go func() {
			if err := s.emailSvc.SendShareInvite(granteeEmail, inviter, title); err != nil {
				log.Printf("[Share] invite email to %s failed: %v", granteeEmail, err)
			}
		}()
	}

	s.notify(estimationID, "document_update", "update", estimationID)
	return share, nil
}

func (s *shareService) List(ctx context.Context, actor *repository.User, estimationID string) ([]*repository.Share, error) {
	if _, err := s.requireOwner(ctx, actor, estimationID); err != nil {
		return nil, err
	}
	return s.shareRepo.FindByEstimation(ctx, estimationID)
}

func (s *shareService) UpdateRole(ctx context.Context, actor *repository.User, estimationID, shareID string, role repository.ShareRole) (*repository.Share, error) {
	if _, err := s.requireOwner(ctx, actor, estimationID); err != nil {
		return nil, err
	}
	if role != repository.ShareRoleViewer && role != repository.ShareRoleEditor {
		return nil, &ValidationError{Field: "role", Message: "role must be viewer or editor"}
	}

	share, err := s.findShare(ctx, estimationID, shareID)
	if err != nil {
		return nil, err
	}

	// Role lives on the row regardless of state, so pending shares can be
	// promoted before they are claimed.
	if err := s.shareRepo.UpdateRole(ctx, share.ID, role); err != nil {
		return nil, fmt.Errorf("failed to update share: %w", err)
	}
	share.Role = role

	s.notify(estimationID, "document_update", "update", estimationID)
	return share, nil
}

func (s *shareService) Revoke(ctx context.Context, actor *repository.User, estimationID, shareID string) error {
	if _, err := s.requireOwner(ctx, actor, estimationID); err != nil {
		return err
	}
	share, err := s.findShare(ctx, estimationID, shareID)
	if err != nil {
		return err
	}
	if err := s.shareRepo.Delete(ctx, share.ID); err != nil {
		return fmt.Errorf("failed to revoke share: %w", err)
	}

	s.notify(estimationID, "document_update", "update", estimationID)
	return nil
}

func (s *shareService) Transfer(ctx context.Context, actor *repository.User, estimationID, shareID string) error {
	est, err := s.requireTransfer(ctx, actor, estimationID)
	if err != nil {
		return err
	}
	share, err := s.findShare(ctx, estimationID, shareID)
	if err != nil {
		return err
	}
	// A pending share has nobody to hand the document to yet.
	if share.Pending() || share.UserID == nil {
		return ErrSharePending
	}

	err = s.shareRepo.TransferOwnership(ctx, estimationID, *share.UserID, share.ID, est.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to transfer ownership: %w", err)
	}

	s.notify(estimationID, "document_update", "update", estimationID)
	return nil
}

func (s *shareService) ResolveForUser(ctx context.Context, userID, userEmail string) error {
	pending, err := s.shareRepo.FindPendingByEmail(ctx, normalizeEmail(userEmail))
	if err != nil {
		return fmt.Errorf("failed to find pending shares: %w", err)
	}
	for _, share := range pending {
		flipped, err := s.shareRepo.Activate(ctx, share.ID, userID)
		if err != nil {
			// A duplicate means the user already holds an active share on
			// this estimation; the redundant pending one is dropped.
			if errors.Is(err, repository.ErrDuplicateShare) {
				if derr := s.shareRepo.Delete(ctx, share.ID); derr != nil {
					log.Printf("[Share] failed to drop redundant share %s: %v", share.ID, derr)
				}
				continue
			}
			return fmt.Errorf("failed to activate share %s: %w", share.ID, err)
		}
		if flipped {
			s.notify(share.EstimationID, "document_update", "update", share.EstimationID)
		}
	}
	return nil
}

func (s *shareService) RemindStalePending(ctx context.Context, olderThan time.Duration) (int, error) {
	stale, err := s.shareRepo.FindStalePending(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to find stale shares: %w", err)
	}

	sent := 0
	for _, share := range stale {
		if share.Email == nil {
			continue
		}
		est, err := s.estRepo.FindByID(ctx, share.EstimationID)
		if err != nil || est == nil {
			continue
		}
		if s.emailSvc != nil {
			if err := s.emailSvc.SendShareReminder(*share.Email, est.Title); err != nil {
				log.Printf("[Share] reminder email to %s failed: %v", *share.Email, err)
				continue
			}
		}
		if err := s.shareRepo.MarkReminderSent(ctx, share.ID); err != nil {
			log.Printf("[Share] failed to mark reminder for %s: %v", share.ID, err)
		}
		sent++
	}
	return sent, nil
}

func (s *shareService) findShare(ctx context.Context, estimationID, shareID string) (*repository.Share, error) {
	share, err := s.shareRepo.FindByID(ctx, shareID)
	if err != nil {
		return nil, fmt.Errorf("failed to find share: %w", err)
	}
	if share == nil || share.EstimationID != estimationID {
		return nil, ErrNotFound
	}
	return share, nil
}

func (s *shareService) notify(estimationID, payloadType, action, id string) {
	if s.dispatch == nil {
		return
	}
	if err := s.dispatch.PublishNotification(estimationID, payloadType, action, id); err != nil {
		log.Printf("[Share] broadcast failed for %s: %v", estimationID, err)
	}
}
