package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"estimato/internal/db"
	"estimato/internal/estimate"
	"estimato/internal/policy"
	"estimato/internal/repository"
)

// ============================================
// Estimation Service
// ============================================

// EstimationDetail is the full read view of one estimation: the row, its
// items in list order, and the computed aggregate.
type EstimationDetail struct {
	Estimation *repository.Estimation
	Items      []*repository.EstimationItem
	Summary    estimate.Summary
	Role       string // owner, editor, viewer
}

type EstimationService interface {
	Create(ctx context.Context, ownerID, title string, tracking bool) (*repository.Estimation, error)
	ListOwned(ctx context.Context, userID string) ([]*repository.Estimation, error)
	ListShared(ctx context.Context, userID string) ([]*repository.Estimation, error)
	Get(ctx context.Context, actor *repository.User, id string) (*EstimationDetail, error)
	GetPublic(ctx context.Context, token string) (*EstimationDetail, error)
	Update(ctx context.Context, actor *repository.User, id string, title *string, tracking *bool) (*repository.Estimation, error)
	Delete(ctx context.Context, actor *repository.User, id string) error
	EnablePublicToken(ctx context.Context, actor *repository.User, id string) (string, error)
	DisablePublicToken(ctx context.Context, actor *repository.User, id string) error
	Summary(ctx context.Context, actor *repository.User, id string) (estimate.Summary, error)
	// CanAccess is the subscribe-time authorization hook for the socket layer.
	CanAccess(ctx context.Context, userID, estimationID string) bool
}

type estimationService struct {
	estRepo    repository.EstimationRepository
	itemRepo   repository.ItemRepository
	shareRepo  repository.ShareRepository
	userRepo   repository.UserRepository
	cache      *db.RedisDB
	dispatcher Dispatcher
}

func NewEstimationService(
	estRepo repository.EstimationRepository,
	itemRepo repository.ItemRepository,
	shareRepo repository.ShareRepository,
	userRepo repository.UserRepository,
	cache *db.RedisDB,
	dispatcher Dispatcher,
) EstimationService {
	return &estimationService{
		estRepo:    estRepo,
		itemRepo:   itemRepo,
		shareRepo:  shareRepo,
		userRepo:   userRepo,
		cache:      cache,
		dispatcher: dispatcher,
	}
}

func (s *estimationService) Create(ctx context.Context, ownerID, title string, tracking bool) (*repository.Estimation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &ValidationError{Field: "title", Message: "title is required"}
	}

	est := &repository.Estimation{
		Title:    title,
		OwnerID:  ownerID,
		Tracking: tracking,
	}
	if err := s.estRepo.Create(ctx, est); err != nil {
		return nil, fmt.Errorf("failed to create estimation: %w", err)
	}
	return est, nil
}

func (s *estimationService) ListOwned(ctx context.Context, userID string) ([]*repository.Estimation, error) {
	return s.estRepo.FindByOwner(ctx, userID)
}

func (s *estimationService) ListShared(ctx context.Context, userID string) ([]*repository.Estimation, error) {
	return s.estRepo.FindSharedWithUser(ctx, userID)
}

// loadForView fetches the estimation plus its grants and checks the view
// right. Missing rows are ErrNotFound; a real row the actor may not see is
// ErrForbidden, never disguised as missing.
func (s *estimationService) loadForView(ctx context.Context, actor *repository.User, id string) (*repository.Estimation, []*repository.Share, error) {
	est, err := s.estRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find estimation: %w", err)
	}
	if est == nil {
		return nil, nil, ErrNotFound
	}

	shares, err := s.shareRepo.FindByEstimation(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load shares: %w", err)
	}

	if !policy.CanView(policyActor(actor), policyDoc(est), policyGrants(shares)) {
		return nil, nil, ErrForbidden
	}
	return est, shares, nil
}

func (s *estimationService) loadForEdit(ctx context.Context, actor *repository.User, id string) (*repository.Estimation, error) {
	est, shares, err := s.loadForView(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanEdit(policyActor(actor), policyDoc(est), policyGrants(shares)) {
		return nil, ErrForbidden
	}
	return est, nil
}

func (s *estimationService) Get(ctx context.Context, actor *repository.User, id string) (*EstimationDetail, error) {
	est, shares, err := s.loadForView(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	// Record the visit on the grantee's share. Owners have no share row.
	if actor != nil && est.OwnerID != actor.ID {
		for _, sh := range shares {
			if sh.Active() && sh.UserID != nil && *sh.UserID == actor.ID {
				if err := s.shareRepo.TouchAccess(ctx, sh.ID); err != nil {
					log.Printf("[Estimation] failed to touch share %s: %v", sh.ID, err)
				}
				break
			}
		}
	}

	items, err := s.itemRepo.FindByEstimation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}

	return &EstimationDetail{
		Estimation: est,
		Items:      items,
		Summary:    estimate.Summarize(toEstimateItems(items)),
		Role:       s.roleFor(actor, est, shares),
	}, nil
}

func (s *estimationService) GetPublic(ctx context.Context, token string) (*EstimationDetail, error) {
	if token == "" {
		return nil, ErrNotFound
	}

	est, err := s.resolvePublicToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if est == nil {
		return nil, ErrNotFound
	}

	items, err := s.itemRepo.FindByEstimation(ctx, est.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}

	return &EstimationDetail{
		Estimation: est,
		Items:      items,
		Summary:    estimate.Summarize(toEstimateItems(items)),
		Role:       "viewer",
	}, nil
}

// resolvePublicToken maps a share-link token to its estimation, consulting
// the token cache first. A cached id is re-verified against the row so a
// token revoked within the TTL never resolves.
func (s *estimationService) resolvePublicToken(ctx context.Context, token string) (*repository.Estimation, error) {
	if id, found, err := s.cache.GetPublicToken(ctx, token); err != nil {
		log.Printf("[Estimation] token cache read failed: %v", err)
	} else if found {
		est, err := s.estRepo.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to find estimation: %w", err)
		}
		if est != nil && est.PublicToken != nil && *est.PublicToken == token {
			return est, nil
		}
		if err := s.cache.InvalidatePublicToken(ctx, token); err != nil {
			log.Printf("[Estimation] token cache invalidation failed: %v", err)
		}
	}

	est, err := s.estRepo.FindByPublicToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to find estimation: %w", err)
	}
	if est != nil {
		if err := s.cache.SetPublicToken(ctx, token, est.ID); err != nil {
			log.Printf("[Estimation] token cache write failed: %v", err)
		}
	}
	return est, nil
}

func (s *estimationService) Update(ctx context.Context, actor *repository.User, id string, title *string, tracking *bool) (*repository.Estimation, error) {
	est, err := s.loadForEdit(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if title != nil {
		t := strings.TrimSpace(*title)
		if t == "" {
			return nil, &ValidationError{Field: "title", Message: "title is required"}
		}
		est.Title = t
	}
	if tracking != nil {
		est.Tracking = *tracking
	}

	if err := s.estRepo.Update(ctx, est); err != nil {
		return nil, fmt.Errorf("failed to update estimation: %w", err)
	}

	s.notify(est.ID, "document_update", "update", est.ID)
	return est, nil
}

func (s *estimationService) Delete(ctx context.Context, actor *repository.User, id string) error {
	est, _, err := s.loadForView(ctx, actor, id)
	if err != nil {
		return err
	}
	if !policy.CanDestroy(policyActor(actor), policyDoc(est)) {
		return ErrForbidden
	}

	if err := s.estRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete estimation: %w", err)
	}
	if est.PublicToken != nil {
		if err := s.cache.InvalidatePublicToken(ctx, *est.PublicToken); err != nil {
			log.Printf("[Estimation] token cache invalidation failed: %v", err)
		}
	}

	s.notify(id, "document_update", "destroy", id)
	return nil
}

func (s *estimationService) EnablePublicToken(ctx context.Context, actor *repository.User, id string) (string, error) {
	est, _, err := s.loadForView(ctx, actor, id)
	if err != nil {
		return "", err
	}
	if !policy.CanManageShares(policyActor(actor), policyDoc(est)) {
		return "", ErrForbidden
	}

	if est.PublicToken != nil {
		return *est.PublicToken, nil
	}
	token := uuid.New().String()
	est.PublicToken = &token
	if err := s.estRepo.Update(ctx, est); err != nil {
		return "", fmt.Errorf("failed to update estimation: %w", err)
	}
	if err := s.cache.SetPublicToken(ctx, token, est.ID); err != nil {
		log.Printf("[Estimation] token cache write failed: %v", err)
	}
	return token, nil
}

func (s *estimationService) DisablePublicToken(ctx context.Context, actor *repository.User, id string) error {
	est, _, err := s.loadForView(ctx, actor, id)
	if err != nil {
		return err
	}
	if !policy.CanManageShares(policyActor(actor), policyDoc(est)) {
		return ErrForbidden
	}

	old := est.PublicToken
	est.PublicToken = nil
	if err := s.estRepo.Update(ctx, est); err != nil {
		return fmt.Errorf("failed to update estimation: %w", err)
	}
	if old != nil {
		if err := s.cache.InvalidatePublicToken(ctx, *old); err != nil {
			log.Printf("[Estimation] token cache invalidation failed: %v", err)
		}
	}
	return nil
}

func (s *estimationService) Summary(ctx context.Context, actor *repository.User, id string) (estimate.Summary, error) {
	_, _, err := s.loadForView(ctx, actor, id)
	if err != nil {
		return estimate.Summary{}, err
	}
	items, err := s.itemRepo.FindByEstimation(ctx, id)
	if err != nil {
		return estimate.Summary{}, fmt.Errorf("failed to load items: %w", err)
	}
	return estimate.Summarize(toEstimateItems(items)), nil
}

func (s *estimationService) CanAccess(ctx context.Context, userID, estimationID string) bool {
	actor, err := s.userRepo.FindByID(ctx, userID)
	if err != nil || actor == nil {
		return false
	}
	_, _, err = s.loadForView(ctx, actor, estimationID)
	return err == nil
}

func (s *estimationService) roleFor(actor *repository.User, est *repository.Estimation, shares []*repository.Share) string {
	if actor == nil {
		return "viewer"
	}
	if est.OwnerID == actor.ID {
		return "owner"
	}
	for _, sh := range shares {
		if sh.Active() && sh.UserID != nil && *sh.UserID == actor.ID {
			return string(sh.Role)
		}
	}
	return "viewer"
}

func (s *estimationService) notify(estimationID, payloadType, action, id string) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.PublishNotification(estimationID, payloadType, action, id); err != nil {
		log.Printf("[Estimation] broadcast failed for %s: %v", estimationID, err)
	}
}

func toEstimateItems(items []*repository.EstimationItem) []estimate.Item {
	out := make([]estimate.Item, 0, len(items))
	for _, it := range items {
		out = append(out, estimate.Item{
			Value:    it.Value,
			Quantity: it.Quantity,
			Actual:   it.Actual,
		})
	}
	return out
}
