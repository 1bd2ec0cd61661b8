package cron

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"estimato/internal/repository"
	"estimato/internal/service"
)

// Scheduler handles scheduled tasks
type Scheduler struct {
	cron     *cron.Cron
	services *service.Services
	userRepo repository.UserRepository
}

// NewScheduler creates a new scheduler
func NewScheduler(services *service.Services, userRepo repository.UserRepository) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		services: services,
		userRepo: userRepo,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	// Run every hour - purge expired refresh tokens
	s.cron.AddFunc("0 * * * *", func() {
		log.Println("[Cron] Running refresh token cleanup...")
		s.cleanupExpiredTokens()
	})

	// Run every day at 9 AM - remind unclaimed share grantees
	s.cron.AddFunc("0 9 * * *", func() {
		log.Println("[Cron] Running pending share reminder check...")
		s.remindPendingShares()
	})

	s.cron.Start()
	log.Println("[Cron] Scheduler started")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[Cron] Scheduler stopped")
}

func (s *Scheduler) cleanupExpiredTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.userRepo.DeleteExpiredRefreshTokens(ctx)
	if err != nil {
		log.Printf("[Cron] Token cleanup failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[Cron] Deleted %d expired refresh tokens", n)
	}
}

func (s *Scheduler) remindPendingShares() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Shares unclaimed for three days get a reminder, repeated at most
	// every three days after that.
	sent, err := s.services.Share.RemindStalePending(ctx, 72*time.Hour)
	if err != nil {
		log.Printf("[Cron] Pending share reminders failed: %v", err)
		return
	}
	if sent > 0 {
		log.Printf("[Cron] Sent %d pending share reminders", sent)
	}
}
