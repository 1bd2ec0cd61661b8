package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repositories struct {
	UserRepo       UserRepository
	EstimationRepo EstimationRepository
	ItemRepo       ItemRepository
	ShareRepo      ShareRepository
}

// NewRepositories creates PostgreSQL-backed repositories.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepo:       NewUserRepository(pool),
		EstimationRepo: NewEstimationRepository(pool),
		ItemRepo:       NewItemRepository(pool),
		ShareRepo:      NewShareRepository(pool),
	}
}

// NewMemoryRepositories creates in-memory repositories sharing one store,
// used by tests and as a fallback when no database is configured.
func NewMemoryRepositories() *Repositories {
	store := newMemoryStore()
	return &Repositories{
		UserRepo:       &memUserRepository{store: store},
		EstimationRepo: &memEstimationRepository{store: store},
		ItemRepo:       &memItemRepository{store: store},
		ShareRepo:      &memShareRepository{store: store},
	}
}
