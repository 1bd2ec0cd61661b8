// internal/seed/seed.go
package seed

import (
	"context"
	"log"

	"golang.org/x/crypto/bcrypt"

	"estimato/internal/ordering"
	"estimato/internal/repository"
)

func SeedData(repos *repository.Repositories) {
	ctx := context.Background()

	existing, _ := repos.UserRepo.FindByEmail(ctx, "ana@estimato.app")
	if existing != nil {
		log.Println("[Seed] Data already exists, skipping...")
		return
	}

	log.Println("[Seed] 🌱 Creating initial data...")

	password, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	// Ana owns the demo estimation
	ana := &repository.User{
		Email:    "ana@estimato.app",
		Password: string(password),
		Name:     "Ana Silva",
		Status:   "online",
	}
	repos.UserRepo.Create(ctx, ana)

	// Bruno holds an editor share
	bruno := &repository.User{
		Email:    "bruno@estimato.app",
		Password: string(password),
		Name:     "Bruno Costa",
		Status:   "online",
	}
	repos.UserRepo.Create(ctx, bruno)

	est := &repository.Estimation{
		Title:    "Storefront Rebuild",
		OwnerID:  ana.ID,
		Tracking: true,
	}
	repos.EstimationRepo.Create(ctx, est)

	actual := 10
	items := []*repository.EstimationItem{
		{EstimationID: est.ID, Title: "Auth and session handling", Value: 8, Quantity: 1, Actual: &actual},
		{EstimationID: est.ID, Title: "Product catalog pages", Value: 5, Quantity: 3},
		{EstimationID: est.ID, Title: "Checkout flow", Value: 13, Quantity: 1},
	}
	key := 0.0
	hasItems := false
	for _, it := range items {
		key = ordering.NextKey(key, hasItems)
		hasItems = true
		it.OrderKey = key
		repos.ItemRepo.Create(ctx, it)
	}

	// Bruno claimed his share already; Carla's is still waiting on signup.
	repos.ShareRepo.Create(ctx, &repository.Share{
		EstimationID: est.ID,
		UserID:       &bruno.ID,
		Status:       repository.ShareStatusActive,
		Role:         repository.ShareRoleEditor,
	})
	carla := "carla@example.com"
	repos.ShareRepo.Create(ctx, &repository.Share{
		EstimationID: est.ID,
		Email:        &carla,
		Status:       repository.ShareStatusPending,
		Role:         repository.ShareRoleViewer,
	})

	log.Println("[Seed] ✅ Created 2 users, 1 estimation, 3 items, 2 shares")
}
