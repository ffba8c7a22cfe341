package subscription

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BillingCycle is how often the subscription is billed.
type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleAnnual  BillingCycle = "annual"
)

// Status is the lifecycle state of a subscription.
type Status string

const (
	StatusActive   Status = "active"
	StatusCanceled Status = "canceled"
	StatusExpired  Status = "expired"
)

// Subscription is a user's plan and its refill schedule.
//
// UnactivatedMonths and RemainingRefills are raised by purchase flows and only
// lowered by the refill scheduler. DisbursementSeq counts scheduler
// disbursements; every grant the scheduler writes is keyed by the sequence
// value it advances to.
type Subscription struct {
	ID                uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            uuid.UUID    `gorm:"type:uuid;not null;index" json:"user_id"`
	PlanTier          PlanTier     `gorm:"type:varchar(16);not null" json:"plan_tier"`
	BillingCycle      BillingCycle `gorm:"type:varchar(16);not null" json:"billing_cycle"`
	Status            Status       `gorm:"type:varchar(16);not null;index" json:"status"`
	UnactivatedMonths int          `gorm:"not null" json:"unactivated_months"`
	NextRefillDate    *time.Time   `gorm:"index" json:"next_refill_date,omitempty"`
	RemainingRefills  int          `gorm:"not null" json:"remaining_refills"`
	DisbursementSeq   int64        `gorm:"not null" json:"disbursement_seq"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// TableName returns the table name.
func (Subscription) TableName() string {
	return "user_subscriptions"
}

// IsActive reports whether the subscription is active.
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

// AnnualRefillDue reports whether an annual disbursement is owed at now.
func (s *Subscription) AnnualRefillDue(now time.Time) bool {
	return s.IsActive() &&
		s.BillingCycle == BillingCycleAnnual &&
		s.RemainingRefills > 0 &&
		s.NextRefillDate != nil &&
		!s.NextRefillDate.After(now)
}

// OwesCarryOver reports whether released months are still pending.
func (s *Subscription) OwesCarryOver() bool {
	return s.IsActive() && s.UnactivatedMonths > 0
}

// Validate checks the invariants a stored row must satisfy.
func (s *Subscription) Validate() error {
	if s.UserID == uuid.Nil {
		return fmt.Errorf("%w: user id is required", ErrInvalidSubscription)
	}
	if !s.PlanTier.IsValid() {
		return fmt.Errorf("%w: %v", ErrUnknownPlanTier, s.PlanTier)
	}
	if s.BillingCycle != BillingCycleMonthly && s.BillingCycle != BillingCycleAnnual {
		return fmt.Errorf("%w: unknown billing cycle %q", ErrInvalidSubscription, s.BillingCycle)
	}
	switch s.Status {
	case StatusActive, StatusCanceled, StatusExpired:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidSubscription, s.Status)
	}
	if s.UnactivatedMonths < 0 || s.RemainingRefills < 0 {
		return fmt.Errorf("%w: counters must not be negative", ErrInvalidSubscription)
	}
	return nil
}
