package service

import (
	"context"
	"sync"
	"testing"

	"estimato/internal/config"
	"estimato/internal/repository"
)

type publishedEvent struct {
	EstimationID string
	PayloadType  string
	Action       string
	ID           string
}

// recordingDispatcher captures publishes for assertions.
type recordingDispatcher struct {
	mu        sync.Mutex
	events    []publishedEvent
	fragments []interface{}
}

func (d *recordingDispatcher) PublishNotification(estimationID, payloadType, action, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, publishedEvent{estimationID, payloadType, action, id})
	return nil
}

func (d *recordingDispatcher) PublishFragment(estimationID string, payload interface{}) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fragments = append(d.fragments, payload)
	return nil
}

func (d *recordingDispatcher) eventCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.events)
}

func newTestServices(t *testing.T) (*Services, *repository.Repositories, *recordingDispatcher) {
	t.Helper()
	repos := repository.NewMemoryRepositories()
	dispatcher := &recordingDispatcher{}
	cfg := &config.Config{
		JWTSecret:     "test-secret",
		JWTExpiry:     1,
		RefreshExpiry: 1,
		AdminEmails:   []string{"admin@example.com"},
	}
	services := NewServices(&ServiceDeps{
		Config:     cfg,
		Repos:      repos,
		Cache:      nil,
		EmailSvc:   nil,
		Dispatcher: dispatcher,
	})
	return services, repos, dispatcher
}

func registerUser(t *testing.T, services *Services, name, email string) *repository.User {
	t.Helper()
	user, _, _, err := services.Auth.Register(context.Background(), name, email, "password123")
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", email, err)
	}
	return user
}

func createEstimation(t *testing.T, services *Services, ownerID, title string) *repository.Estimation {
	t.Helper()
	est, err := services.Estimation.Create(context.Background(), ownerID, title, false)
	if err != nil {
		t.Fatalf("Create estimation failed: %v", err)
	}
	return est
}
