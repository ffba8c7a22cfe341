package refill

import (
	"context"

	"github.com/pixelmuse/server/internal/module/credit"
	"github.com/pixelmuse/server/internal/module/subscription"
	"gorm.io/gorm"
)

// Store gives the sweeper both repositories over one connection, so a grant
// and its schedule update commit together.
type Store interface {
	Subscriptions() subscription.Repository
	Ledger() credit.Repository
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a gorm-backed Store.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

var _ Store = (*gormStore)(nil)

func (s *gormStore) Subscriptions() subscription.Repository {
	return subscription.NewRepository(s.db)
}

func (s *gormStore) Ledger() credit.Repository {
	return credit.NewRepository(s.db)
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
