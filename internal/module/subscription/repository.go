package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines subscription persistence.
type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Subscription, error)

	// ListDueAnnual returns active annual subscriptions with a refill due at now.
	ListDueAnnual(ctx context.Context, now time.Time) ([]*Subscription, error)
	// ListOwingCarryOver returns active subscriptions with unactivated months.
	ListOwingCarryOver(ctx context.Context) ([]*Subscription, error)

	// AdvanceAnnual records one annual disbursement: one fewer remaining
	// refill, the next refill date moved, the sequence bumped. It only
	// applies if the row still carries sub.DisbursementSeq and returns
	// ErrConcurrentUpdate otherwise. sub is updated in place on success.
	AdvanceAnnual(ctx context.Context, sub *Subscription, nextRefill, now time.Time) error
	// ConsumeCarryOver records one released month, under the same guard.
	ConsumeCarryOver(ctx context.Context, sub *Subscription, now time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new subscription repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

var _ Repository = (*repository)(nil)

func (r *repository) Create(ctx context.Context, sub *Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(sub).Error; err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	var sub Subscription
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return &sub, nil
}

func (r *repository) ListDueAnnual(ctx context.Context, now time.Time) ([]*Subscription, error) {
	var subs []*Subscription
	err := r.db.WithContext(ctx).
		Where("status = ? AND billing_cycle = ?", StatusActive, BillingCycleAnnual).
		Where("next_refill_date IS NOT NULL AND next_refill_date <= ?", now).
		Where("remaining_refills > 0").
		Order("next_refill_date ASC").
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("list due annual subscriptions: %w", err)
	}
	return subs, nil
}

func (r *repository) ListOwingCarryOver(ctx context.Context) ([]*Subscription, error) {
	var subs []*Subscription
	err := r.db.WithContext(ctx).
		Where("status = ? AND unactivated_months > 0", StatusActive).
		Order("created_at ASC").
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("list subscriptions owing carry-over: %w", err)
	}
	return subs, nil
}

func (r *repository) AdvanceAnnual(ctx context.Context, sub *Subscription, nextRefill, now time.Time) error {
	res := r.db.WithContext(ctx).Model(&Subscription{}).
		Where("id = ? AND disbursement_seq = ? AND remaining_refills > 0", sub.ID, sub.DisbursementSeq).
		Updates(map[string]any{
			"remaining_refills": gorm.Expr("remaining_refills - 1"),
			"next_refill_date":  nextRefill,
			"disbursement_seq":  gorm.Expr("disbursement_seq + 1"),
			"updated_at":        now,
		})
	if res.Error != nil {
		return fmt.Errorf("advance annual refill: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}

	sub.RemainingRefills--
	sub.NextRefillDate = &nextRefill
	sub.DisbursementSeq++
	sub.UpdatedAt = now
	return nil
}

func (r *repository) ConsumeCarryOver(ctx context.Context, sub *Subscription, now time.Time) error {
	res := r.db.WithContext(ctx).Model(&Subscription{}).
		Where("id = ? AND disbursement_seq = ? AND unactivated_months > 0", sub.ID, sub.DisbursementSeq).
		Updates(map[string]any{
			"unactivated_months": gorm.Expr("unactivated_months - 1"),
			"disbursement_seq":   gorm.Expr("disbursement_seq + 1"),
			"updated_at":         now,
		})
	if res.Error != nil {
		return fmt.Errorf("consume unactivated month: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}

	sub.UnactivatedMonths--
	sub.DisbursementSeq++
	sub.UpdatedAt = now
	return nil
}
