package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"

	"estimato/internal/estimate"
	"estimato/internal/ordering"
	"estimato/internal/policy"
	"estimato/internal/repository"
)

// ============================================
// Item Service
// ============================================

// ItemUpdate is a partial patch; nil fields are left alone. ClearActual
// resets the actual back to unset.
type ItemUpdate struct {
	Title       *string
	Value       *int
	Quantity    *int
	Actual      *int
	ClearActual bool
}

// ItemResult pairs the written row with its computed total and the fresh
// aggregate of the whole estimation, so one round trip repaints the row and
// the totals bar.
type ItemResult struct {
	Item    *repository.EstimationItem
	Total   int
	Summary estimate.Summary
}

// ItemFragment is the rendered-fragment broadcast payload for co-present
// editors. It mirrors the write response: the changed row, the recomputed
// figures, and what to do with the row (append, replace, remove).
type ItemFragment struct {
	Action  string           `json:"action"`
	Item    ItemRow          `json:"item"`
	Summary estimate.Summary `json:"summary"`
	Band    string           `json:"band"`
}

type ItemRow struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Value    int     `json:"value"`
	Quantity int     `json:"quantity"`
	Actual   *int    `json:"actual,omitempty"`
	Total    int     `json:"total"`
	OrderKey float64 `json:"orderKey"`
}

type ItemService interface {
	Create(ctx context.Context, actor *repository.User, estimationID, title string, value, quantity int) (*ItemResult, error)
	Update(ctx context.Context, actor *repository.User, estimationID, itemID string, patch ItemUpdate) (*ItemResult, error)
	// Reorder moves the item between its new neighbors. Nil prev means the
	// top of the list, nil next means the bottom. An explicit key, when
	// given, wins over the neighbor context.
	Reorder(ctx context.Context, actor *repository.User, estimationID, itemID string, prevID, nextID *string, orderKey *float64) (*repository.EstimationItem, error)
	Delete(ctx context.Context, actor *repository.User, estimationID, itemID string) (estimate.Summary, error)
}

type itemService struct {
	itemRepo   repository.ItemRepository
	estRepo    repository.EstimationRepository
	shareRepo  repository.ShareRepository
	dispatcher Dispatcher
}

func NewItemService(
	itemRepo repository.ItemRepository,
	estRepo repository.EstimationRepository,
	shareRepo repository.ShareRepository,
	dispatcher Dispatcher,
) ItemService {
	return &itemService{
		itemRepo:   itemRepo,
		estRepo:    estRepo,
		shareRepo:  shareRepo,
		dispatcher: dispatcher,
	}
}

// requireEdit loads the estimation and checks the actor's edit right.
func (s *itemService) requireEdit(ctx context.Context, actor *repository.User, estimationID string) (*repository.Estimation, error) {
	est, err := s.estRepo.FindByID(ctx, estimationID)
	if err != nil {
		return nil, fmt.Errorf("failed to find estimation: %w", err)
	}
	if est == nil {
		return nil, ErrNotFound
	}
	shares, err := s.shareRepo.FindByEstimation(ctx, estimationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shares: %w", err)
	}
	if !policy.CanView(policyActor(actor), policyDoc(est), policyGrants(shares)) {
		return nil, ErrForbidden
	}
	if !policy.CanEdit(policyActor(actor), policyDoc(est), policyGrants(shares)) {
		return nil, ErrForbidden
	}
	return est, nil
}

func (s *itemService) Create(ctx context.Context, actor *repository.User, estimationID, title string, value, quantity int) (*ItemResult, error) {
	if _, err := s.requireEdit(ctx, actor, estimationID); err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &ValidationError{Field: "title", Message: "title is required"}
	}
	if value < 0 {
		return nil, &ValidationError{Field: "value", Message: "value must not be negative"}
	}
	if quantity <= 0 {
		return nil, &ValidationError{Field: "quantity", Message: "quantity must be positive"}
	}

	maxKey, hasItems, err := s.itemRepo.MaxOrderKey(ctx, estimationID)
	if err != nil {
		return nil, fmt.Errorf("failed to read order keys: %w", err)
	}

	item := &repository.EstimationItem{
		EstimationID: estimationID,
		Title:        title,
		Value:        value,
		Quantity:     quantity,
		OrderKey:     ordering.NextKey(maxKey, hasItems),
	}
	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	summary, err := s.refreshSummary(ctx, estimationID)
	if err != nil {
		return nil, err
	}

	result := &ItemResult{
		Item:    item,
		Total:   estimate.ItemTotal(item.Value, item.Quantity),
		Summary: summary,
	}

	s.notify(estimationID, "item_update", "create", item.ID)
	s.fragment(estimationID, "append", result)
	return result, nil
}

func (s *itemService) Update(ctx context.Context, actor *repository.User, estimationID, itemID string, patch ItemUpdate) (*ItemResult, error) {
	if _, err := s.requireEdit(ctx, actor, estimationID); err != nil {
		return nil, err
	}

	item, err := s.findItem(ctx, estimationID, itemID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		if t == "" {
			return nil, &ValidationError{Field: "title", Message: "title is required"}
		}
		item.Title = t
	}
	if patch.Value != nil {
		if *patch.Value < 0 {
			return nil, &ValidationError{Field: "value", Message: "value must not be negative"}
		}
		item.Value = *patch.Value
	}
	if patch.Quantity != nil {
		if *patch.Quantity <= 0 {
			return nil, &ValidationError{Field: "quantity", Message: "quantity must be positive"}
		}
		item.Quantity = *patch.Quantity
	}
	if patch.ClearActual {
		item.Actual = nil
	} else if patch.Actual != nil {
		if *patch.Actual < 0 {
			return nil, &ValidationError{Field: "actual", Message: "actual must not be negative"}
		}
		item.Actual = patch.Actual
	}

	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	summary, err := s.refreshSummary(ctx, estimationID)
	if err != nil {
		return nil, err
	}

	result := &ItemResult{
		Item:    item,
		Total:   estimate.ItemTotal(item.Value, item.Quantity),
		Summary: summary,
	}

	s.notify(estimationID, "item_update", "update", item.ID)
	s.fragment(estimationID, "replace", result)
	return result, nil
}

func (s *itemService) Reorder(ctx context.Context, actor *repository.User, estimationID, itemID string, prevID, nextID *string, orderKey *float64) (*repository.EstimationItem, error) {
	if _, err := s.requireEdit(ctx, actor, estimationID); err != nil {
		return nil, err
	}

	item, err := s.findItem(ctx, estimationID, itemID)
	if err != nil {
		return nil, err
	}

	var key float64
	switch {
	case orderKey != nil:
		if math.IsNaN(*orderKey) || math.IsInf(*orderKey, 0) {
			return nil, &ValidationError{Field: "orderKey", Message: "order key must be a finite number"}
		}
		key = *orderKey
	default:
		var prevKey, nextKey *float64
		if prevID != nil {
			prev, err := s.findItem(ctx, estimationID, *prevID)
			if err != nil {
				return nil, err
			}
			prevKey = &prev.OrderKey
		}
		if nextID != nil {
			next, err := s.findItem(ctx, estimationID, *nextID)
			if err != nil {
				return nil, err
			}
			nextKey = &next.OrderKey
		}
		key = ordering.Midpoint(prevKey, nextKey)
	}
	if err := s.itemRepo.UpdateOrderKey(ctx, item.ID, key); err != nil {
		return nil, fmt.Errorf("failed to reorder item: %w", err)
	}
	item.OrderKey = key

	s.notify(estimationID, "item_update", "update", item.ID)
	return item, nil
}

func (s *itemService) Delete(ctx context.Context, actor *repository.User, estimationID, itemID string) (estimate.Summary, error) {
	if _, err := s.requireEdit(ctx, actor, estimationID); err != nil {
		return estimate.Summary{}, err
	}

	item, err := s.findItem(ctx, estimationID, itemID)
	if err != nil {
		return estimate.Summary{}, err
	}

	if err := s.itemRepo.Delete(ctx, item.ID); err != nil {
		return estimate.Summary{}, fmt.Errorf("failed to delete item: %w", err)
	}

	summary, err := s.refreshSummary(ctx, estimationID)
	if err != nil {
		return estimate.Summary{}, err
	}

	s.notify(estimationID, "item_update", "destroy", item.ID)
	s.fragment(estimationID, "remove", &ItemResult{
		Item:    item,
		Total:   estimate.ItemTotal(item.Value, item.Quantity),
		Summary: summary,
	})
	return summary, nil
}

// findItem guards against cross-estimation item ids in the URL.
func (s *itemService) findItem(ctx context.Context, estimationID, itemID string) (*repository.EstimationItem, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	if item == nil || item.EstimationID != estimationID {
		return nil, ErrNotFound
	}
	return item, nil
}

// refreshSummary recomputes the aggregate from the current rows after a write.
func (s *itemService) refreshSummary(ctx context.Context, estimationID string) (estimate.Summary, error) {
	items, err := s.itemRepo.FindByEstimation(ctx, estimationID)
	if err != nil {
		return estimate.Summary{}, fmt.Errorf("failed to load items: %w", err)
	}
	return estimate.Summarize(toEstimateItems(items)), nil
}

func (s *itemService) notify(estimationID, payloadType, action, id string) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.PublishNotification(estimationID, payloadType, action, id); err != nil {
		log.Printf("[Item] broadcast failed for %s: %v", estimationID, err)
	}
}

func (s *itemService) fragment(estimationID, action string, result *ItemResult) {
	if s.dispatcher == nil {
		return
	}
	payload := ItemFragment{
		Action: action,
		Item: ItemRow{
			ID:       result.Item.ID,
			Title:    result.Item.Title,
			Value:    result.Item.Value,
			Quantity: result.Item.Quantity,
			Actual:   result.Item.Actual,
			Total:    result.Total,
			OrderKey: result.Item.OrderKey,
		},
		Summary: result.Summary,
		Band:    estimate.HealthBand(result.Summary.BufferHealth),
	}
	if err := s.dispatcher.PublishFragment(estimationID, payload); err != nil {
		log.Printf("[Item] fragment broadcast failed for %s: %v", estimationID, err)
	}
}
