package credit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TransactionTypePurchase           TransactionType = "purchase"
	TransactionTypeSubscriptionRefill TransactionType = "subscription_refill"
	TransactionTypeConsumption        TransactionType = "consumption"
	TransactionTypeAdjustment         TransactionType = "adjustment"
	TransactionTypeRefund             TransactionType = "refund"
)

// IsValid reports whether t is a known type.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypePurchase, TransactionTypeSubscriptionRefill, TransactionTypeConsumption,
		TransactionTypeAdjustment, TransactionTypeRefund:
		return true
	}
	return false
}

// IsGrant reports whether entries of this type add credits.
func (t TransactionType) IsGrant() bool {
	return t == TransactionTypePurchase || t == TransactionTypeRefund || t == TransactionTypeSubscriptionRefill
}

// CreditEntry is one immutable row of the credit ledger. A user's balance is
// always derived from these rows and never stored.
type CreditEntry struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID       `gorm:"type:uuid;not null;index:idx_credit_tx_user_created,priority:1" json:"user_id"`
	Amount          int64           `gorm:"not null" json:"amount"`
	TransactionType TransactionType `gorm:"type:varchar(32);not null;index" json:"transaction_type"`
	ExpiresAt       *time.Time      `gorm:"index" json:"expires_at,omitempty"`
	RelatedEntityID *uuid.UUID      `gorm:"type:uuid;index" json:"related_entity_id,omitempty"`
	IdempotencyKey  *string         `gorm:"type:varchar(128);uniqueIndex" json:"-"`
	Description     string          `gorm:"type:varchar(255)" json:"description,omitempty"`
	Metadata        string          `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt       time.Time       `gorm:"not null;index:idx_credit_tx_user_created,priority:2" json:"created_at"`
}

// TableName returns the table name.
func (CreditEntry) TableName() string {
	return "credit_transactions"
}

// IsUsableAt reports whether the entry counts toward the balance at t.
// Only positive grants expire; debits always count.
func (e *CreditEntry) IsUsableAt(t time.Time) bool {
	if e.Amount > 0 && e.ExpiresAt != nil && !e.ExpiresAt.After(t) {
		return false
	}
	return true
}

// Validate checks the ledger invariants.
func (e *CreditEntry) Validate() error {
	if e.UserID == uuid.Nil {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if !e.TransactionType.IsValid() {
		return fmt.Errorf("%w: unknown transaction type %q", ErrValidation, e.TransactionType)
	}
	if e.Amount == 0 {
		return fmt.Errorf("%w: amount must not be zero", ErrValidation)
	}
	if e.Amount > 0 && !e.TransactionType.IsGrant() {
		return fmt.Errorf("%w: %s entries must be negative", ErrValidation, e.TransactionType)
	}
	if e.Amount < 0 && e.TransactionType.IsGrant() {
		return fmt.Errorf("%w: %s entries must be positive", ErrValidation, e.TransactionType)
	}
	if e.ExpiresAt != nil {
		if e.Amount < 0 {
			return fmt.Errorf("%w: negative entries cannot expire", ErrValidation)
		}
		if !e.ExpiresAt.After(e.CreatedAt) {
			return fmt.Errorf("%w: expires_at must be after created_at", ErrValidation)
		}
	}
	if e.IdempotencyKey != nil && *e.IdempotencyKey == "" {
		return fmt.Errorf("%w: idempotency key must not be empty", ErrValidation)
	}
	return nil
}

// EntryInput describes a ledger entry to record.
type EntryInput struct {
	UserID          uuid.UUID
	Amount          int64
	Type            TransactionType
	ExpiresAt       *time.Time
	RelatedEntityID *uuid.UUID
	IdempotencyKey  string
	Description     string
	Metadata        string
}

// NewEntry builds and validates an entry created at now.
func NewEntry(in EntryInput, now time.Time) (*CreditEntry, error) {
	e := &CreditEntry{
		ID:              uuid.New(),
		UserID:          in.UserID,
		Amount:          in.Amount,
		TransactionType: in.Type,
		ExpiresAt:       in.ExpiresAt,
		RelatedEntityID: in.RelatedEntityID,
		Description:     in.Description,
		Metadata:        in.Metadata,
		CreatedAt:       now,
	}
	if in.IdempotencyKey != "" {
		key := in.IdempotencyKey
		e.IdempotencyKey = &key
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// RefillKey is the idempotency key of the scheduler grant that advances a
// subscription to disbursement sequence seq.
func RefillKey(subscriptionID uuid.UUID, seq int64) string {
	return fmt.Sprintf("refill:%s:%d", subscriptionID, seq)
}
