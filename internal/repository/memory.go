package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryStore backs the in-memory repositories. All four repositories share
// one store so cross-entity operations (ownership transfer) stay atomic
// under a single lock.
type memoryStore struct {
	mu            sync.RWMutex
	users         map[string]*User
	refreshTokens map[string]*RefreshToken
	estimations   map[string]*Estimation
	items         map[string]*EstimationItem
	shares        map[string]*Share
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:         make(map[string]*User),
		refreshTokens: make(map[string]*RefreshToken),
		estimations:   make(map[string]*Estimation),
		items:         make(map[string]*EstimationItem),
		shares:        make(map[string]*Share),
	}
}

func normEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

func copyUser(u *User) *User {
	c := *u
	return &c
}

func copyEstimation(e *Estimation) *Estimation {
	c := *e
	return &c
}

func copyItem(i *EstimationItem) *EstimationItem {
	c := *i
	return &c
}

func copyShare(s *Share) *Share {
	c := *s
	return &c
}

// ============================================
// Users
// ============================================

type memUserRepository struct {
	store *memoryStore
}

func (r *memUserRepository) Create(ctx context.Context, user *User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now()
	user.ID = uuid.New().String()
	user.Email = normEmail(user.Email)
	if user.Status == "" {
		user.Status = "online"
	}
	user.LastActiveAt = &now
	user.CreatedAt = now
	user.UpdatedAt = now
	r.store.users[user.ID] = copyUser(user)
	return nil
}

func (r *memUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if u, ok := r.store.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, nil
}

func (r *memUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	email = normEmail(email)
	for _, u := range r.store.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *memUserRepository) Update(ctx context.Context, user *User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.users[user.ID]
	if !ok {
		return nil
	}
	stored.Name = user.Name
	stored.Status = user.Status
	stored.BannedAt = user.BannedAt
	stored.BannedByID = user.BannedByID
	stored.UpdatedAt = time.Now()
	user.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *memUserRepository) UpdateLastActive(ctx context.Context, userID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if u, ok := r.store.users[userID]; ok {
		now := time.Now()
		u.LastActiveAt = &now
	}
	return nil
}

func (r *memUserRepository) SaveRefreshToken(ctx context.Context, token *RefreshToken) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	token.ID = uuid.New().String()
	token.CreatedAt = time.Now()
	r.store.refreshTokens[token.Token] = &RefreshToken{
		ID: token.ID, Token: token.Token, UserID: token.UserID,
		ExpiresAt: token.ExpiresAt, CreatedAt: token.CreatedAt,
	}
	return nil
}

func (r *memUserRepository) FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if rt, ok := r.store.refreshTokens[token]; ok {
		c := *rt
		return &c, nil
	}
	return nil, nil
}

func (r *memUserRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.refreshTokens, token)
	return nil
}

func (r *memUserRepository) DeleteUserRefreshTokens(ctx context.Context, userID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for k, rt := range r.store.refreshTokens {
		if rt.UserID == userID {
			delete(r.store.refreshTokens, k)
		}
	}
	return nil
}

func (r *memUserRepository) DeleteExpiredRefreshTokens(ctx context.Context) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	n := 0
	now := time.Now()
	for k, rt := range r.store.refreshTokens {
		if rt.ExpiresAt.Before(now) {
			delete(r.store.refreshTokens, k)
			n++
		}
	}
	return n, nil
}

// ============================================
// Estimations
// ============================================

type memEstimationRepository struct {
	store *memoryStore
}

func (r *memEstimationRepository) Create(ctx context.Context, est *Estimation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now()
	est.ID = uuid.New().String()
	est.CreatedAt = now
	est.UpdatedAt = now
	r.store.estimations[est.ID] = copyEstimation(est)
	return nil
}

func (r *memEstimationRepository) FindByID(ctx context.Context, id string) (*Estimation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if e, ok := r.store.estimations[id]; ok {
		return copyEstimation(e), nil
	}
	return nil, nil
}

func (r *memEstimationRepository) FindByOwner(ctx context.Context, ownerID string) ([]*Estimation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var ests []*Estimation
	for _, e := range r.store.estimations {
		if e.OwnerID == ownerID {
			ests = append(ests, copyEstimation(e))
		}
	}
	sortEstimations(ests)
	return ests, nil
}

func (r *memEstimationRepository) FindSharedWithUser(ctx context.Context, userID string) ([]*Estimation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var ests []*Estimation
	for _, s := range r.store.shares {
		if s.Status == ShareStatusActive && s.UserID != nil && *s.UserID == userID {
			if e, ok := r.store.estimations[s.EstimationID]; ok {
				ests = append(ests, copyEstimation(e))
			}
		}
	}
	sortEstimations(ests)
	return ests, nil
}

func (r *memEstimationRepository) FindByPublicToken(ctx context.Context, token string) (*Estimation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, e := range r.store.estimations {
		if e.PublicToken != nil && *e.PublicToken == token {
			return copyEstimation(e), nil
		}
	}
	return nil, nil
}

func (r *memEstimationRepository) Update(ctx context.Context, est *Estimation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.estimations[est.ID]
	if !ok {
		return nil
	}
	stored.Title = est.Title
	stored.Tracking = est.Tracking
	stored.PublicToken = est.PublicToken
	stored.UpdatedAt = time.Now()
	est.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *memEstimationRepository) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.estimations, id)
	for k, it := range r.store.items {
		if it.EstimationID == id {
			delete(r.store.items, k)
		}
	}
	for k, s := range r.store.shares {
		if s.EstimationID == id {
			delete(r.store.shares, k)
		}
	}
	return nil
}

func sortEstimations(ests []*Estimation) {
	sort.Slice(ests, func(i, j int) bool {
		if ests[i].CreatedAt.Equal(ests[j].CreatedAt) {
			return ests[i].ID < ests[j].ID
		}
		return ests[i].CreatedAt.Before(ests[j].CreatedAt)
	})
}

// ============================================
// Items
// ============================================

type memItemRepository struct {
	store *memoryStore
}

func (r *memItemRepository) Create(ctx context.Context, item *EstimationItem) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now()
	item.ID = uuid.New().String()
	item.CreatedAt = now
	item.UpdatedAt = now
	r.store.items[item.ID] = copyItem(item)
	return nil
}

func (r *memItemRepository) FindByID(ctx context.Context, id string) (*EstimationItem, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if it, ok := r.store.items[id]; ok {
		return copyItem(it), nil
	}
	return nil, nil
}

func (r *memItemRepository) FindByEstimation(ctx context.Context, estimationID string) ([]*EstimationItem, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var items []*EstimationItem
	for _, it := range r.store.items {
		if it.EstimationID == estimationID {
			items = append(items, copyItem(it))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].OrderKey == items[j].OrderKey {
			return items[i].ID < items[j].ID
		}
		return items[i].OrderKey < items[j].OrderKey
	})
	return items, nil
}

func (r *memItemRepository) MaxOrderKey(ctx context.Context, estimationID string) (float64, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	max, found := 0.0, false
	for _, it := range r.store.items {
		if it.EstimationID == estimationID && (!found || it.OrderKey > max) {
			max, found = it.OrderKey, true
		}
	}
	return max, found, nil
}

func (r *memItemRepository) Update(ctx context.Context, item *EstimationItem) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.items[item.ID]
	if !ok {
		return nil
	}
	stored.Title = item.Title
	stored.Value = item.Value
	stored.Quantity = item.Quantity
	stored.Actual = item.Actual
	stored.Fixed = item.Fixed
	stored.UpdatedAt = time.Now()
	item.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *memItemRepository) UpdateOrderKey(ctx context.Context, id string, key float64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if it, ok := r.store.items[id]; ok {
		it.OrderKey = key
		it.UpdatedAt = time.Now()
	}
	return nil
}

func (r *memItemRepository) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.items, id)
	return nil
}

// ============================================
// Shares
// ============================================

type memShareRepository struct {
	store *memoryStore
}

// duplicateLocked mirrors the partial unique indexes of the pg schema.
// Caller holds the lock.
func (r *memShareRepository) duplicateLocked(estimationID string, userID *string, email *string, excludeID string) bool {
	for _, s := range r.store.shares {
		if s.EstimationID != estimationID || s.ID == excludeID {
			continue
		}
		if userID != nil && s.UserID != nil && *s.UserID == *userID {
			return true
		}
		if email != nil && s.Email != nil && normEmail(*s.Email) == normEmail(*email) {
			return true
		}
	}
	return false
}

func (r *memShareRepository) Create(ctx context.Context, share *Share) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if share.Email != nil {
		n := normEmail(*share.Email)
		share.Email = &n
	}
	if r.duplicateLocked(share.EstimationID, share.UserID, share.Email, "") {
		return ErrDuplicateShare
	}

	now := time.Now()
	share.ID = uuid.New().String()
	share.CreatedAt = now
	share.UpdatedAt = now
	r.store.shares[share.ID] = copyShare(share)
	return nil
}

func (r *memShareRepository) FindByID(ctx context.Context, id string) (*Share, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if s, ok := r.store.shares[id]; ok {
		return copyShare(s), nil
	}
	return nil, nil
}

func (r *memShareRepository) FindByEstimation(ctx context.Context, estimationID string) ([]*Share, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var shares []*Share
	for _, s := range r.store.shares {
		if s.EstimationID == estimationID {
			shares = append(shares, copyShare(s))
		}
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].CreatedAt.Equal(shares[j].CreatedAt) {
			return shares[i].ID < shares[j].ID
		}
		return shares[i].CreatedAt.Before(shares[j].CreatedAt)
	})
	return shares, nil
}

func (r *memShareRepository) FindActiveByUser(ctx context.Context, estimationID, userID string) (*Share, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, s := range r.store.shares {
		if s.EstimationID == estimationID && s.Status == ShareStatusActive &&
			s.UserID != nil && *s.UserID == userID {
			return copyShare(s), nil
		}
	}
	return nil, nil
}

func (r *memShareRepository) FindByEmail(ctx context.Context, estimationID, email string) (*Share, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	email = normEmail(email)
	for _, s := range r.store.shares {
		if s.EstimationID == estimationID && s.Email != nil && normEmail(*s.Email) == email {
			return copyShare(s), nil
		}
	}
	return nil, nil
}

func (r *memShareRepository) FindPendingByEmail(ctx context.Context, email string) ([]*Share, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	email = normEmail(email)
	var shares []*Share
	for _, s := range r.store.shares {
		if s.Status == ShareStatusPending && s.Email != nil && normEmail(*s.Email) == email {
			shares = append(shares, copyShare(s))
		}
	}
	sort.Slice(shares, func(i, j int) bool { return shares[i].ID < shares[j].ID })
	return shares, nil
}

func (r *memShareRepository) Activate(ctx context.Context, id, userID string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	s, ok := r.store.shares[id]
	if !ok || s.Status != ShareStatusPending {
		return false, nil
	}
	if r.duplicateLocked(s.EstimationID, &userID, nil, id) {
		return false, ErrDuplicateShare
	}
	uid := userID
	s.UserID = &uid
	s.Email = nil
	s.Status = ShareStatusActive
	s.UpdatedAt = time.Now()
	return true, nil
}

func (r *memShareRepository) UpdateRole(ctx context.Context, id string, role ShareRole) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if s, ok := r.store.shares[id]; ok {
		s.Role = role
		s.UpdatedAt = time.Now()
	}
	return nil
}

func (r *memShareRepository) TouchAccess(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if s, ok := r.store.shares[id]; ok {
		now := time.Now()
		s.LastAccessedAt = &now
		// UpdatedAt deliberately untouched.
	}
	return nil
}

func (r *memShareRepository) MarkReminderSent(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if s, ok := r.store.shares[id]; ok {
		now := time.Now()
		s.ReminderSentAt = &now
	}
	return nil
}

func (r *memShareRepository) FindStalePending(ctx context.Context, olderThan time.Time) ([]*Share, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var shares []*Share
	for _, s := range r.store.shares {
		if s.Status != ShareStatusPending || !s.CreatedAt.Before(olderThan) {
			continue
		}
		if s.ReminderSentAt != nil && !s.ReminderSentAt.Before(olderThan) {
			continue
		}
		shares = append(shares, copyShare(s))
	}
	return shares, nil
}

func (r *memShareRepository) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.shares, id)
	return nil
}

func (r *memShareRepository) TransferOwnership(ctx context.Context, estimationID, newOwnerID, consumedShareID, formerOwnerID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	est, ok := r.store.estimations[estimationID]
	if !ok {
		return errNotFoundInStore
	}
	if _, ok := r.store.shares[consumedShareID]; !ok {
		return errNotFoundInStore
	}
	if r.duplicateLocked(estimationID, &formerOwnerID, nil, consumedShareID) {
		return ErrDuplicateShare
	}

	now := time.Now()
	est.OwnerID = newOwnerID
	est.UpdatedAt = now
	delete(r.store.shares, consumedShareID)

	uid := formerOwnerID
	s := &Share{
		ID:           uuid.New().String(),
		EstimationID: estimationID,
		UserID:       &uid,
		Status:       ShareStatusActive,
		Role:         ShareRoleViewer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.store.shares[s.ID] = s
	return nil
}

var errNotFoundInStore = errors.New("row not found")
