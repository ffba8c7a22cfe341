package credit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pixelmuse/server/internal/shared/database"
	"gorm.io/gorm"
)

// Repository defines ledger persistence. There is no update or delete.
type Repository interface {
	// Append inserts a validated entry. A taken idempotency key yields ErrDuplicateEntry.
	Append(ctx context.Context, entry *CreditEntry) error
	// UsableBalance sums every entry except positive grants expired at at.
	UsableBalance(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
	// NextExpiry returns the earliest grant expiry strictly after at, or nil.
	NextExpiry(ctx context.Context, userID uuid.UUID, at time.Time) (*time.Time, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*CreditEntry, int64, error)
	// LatestRefillGrant returns the subscription's refill grant with the
	// latest expiry, or ErrEntryNotFound.
	LatestRefillGrant(ctx context.Context, userID, subscriptionID uuid.UUID) (*CreditEntry, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*CreditEntry, error)

	// LockUser serialises balance-checked writes for a user until the
	// surrounding transaction ends.
	LockUser(ctx context.Context, userID uuid.UUID) error
	Transaction(ctx context.Context, fn func(repo Repository) error) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new ledger repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

var _ Repository = (*repository)(nil)

func (r *repository) Append(ctx context.Context, entry *CreditEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", ErrDuplicateEntry, derefKey(entry.IdempotencyKey))
		}
		return fmt.Errorf("append credit entry: %w", err)
	}
	return nil
}

func (r *repository) UsableBalance(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&CreditEntry{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userID).
		Where("NOT (amount > 0 AND expires_at IS NOT NULL AND expires_at <= ?)", at).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum usable balance: %w", err)
	}
	return total, nil
}

func (r *repository) NextExpiry(ctx context.Context, userID uuid.UUID, at time.Time) (*time.Time, error) {
	var entry CreditEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND amount > 0 AND expires_at IS NOT NULL AND expires_at > ?", userID, at).
		Order("expires_at ASC").
		Take(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find next expiry: %w", err)
	}
	return entry.ExpiresAt, nil
}

func (r *repository) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*CreditEntry, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&CreditEntry{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count credit entries: %w", err)
	}

	var entries []*CreditEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list credit entries: %w", err)
	}
	return entries, total, nil
}

func (r *repository) LatestRefillGrant(ctx context.Context, userID, subscriptionID uuid.UUID) (*CreditEntry, error) {
	var entry CreditEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND related_entity_id = ?", userID, subscriptionID).
		Where("transaction_type = ? AND amount > 0 AND expires_at IS NOT NULL", TransactionTypeSubscriptionRefill).
		Order("expires_at DESC").
		Take(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("find latest refill grant: %w", err)
	}
	return &entry, nil
}

func (r *repository) FindByIdempotencyKey(ctx context.Context, key string) (*CreditEntry, error) {
	var entry CreditEntry
	err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).Take(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("find credit entry by key: %w", err)
	}
	return &entry, nil
}

func (r *repository) LockUser(ctx context.Context, userID uuid.UUID) error {
	if !database.IsPostgres(r.db) {
		// SQLite serialises writers on its own.
		return nil
	}
	if err := r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", userID.String()).Error; err != nil {
		return fmt.Errorf("lock user credits: %w", err)
	}
	return nil
}

func (r *repository) Transaction(ctx context.Context, fn func(repo Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: tx})
	})
}

func derefKey(key *string) string {
	if key == nil {
		return ""
	}
	return *key
}
