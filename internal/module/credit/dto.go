package credit

import (
	"time"

	"github.com/google/uuid"
)

// BalanceResponse is returned by GET /users/:user_id/credits/balance.
type BalanceResponse struct {
	UserID  uuid.UUID `json:"user_id"`
	Balance int64     `json:"balance"`
}

// ConsumeRequest spends credits for a generation.
type ConsumeRequest struct {
	Amount  int64  `json:"amount" binding:"required"`
	Context string `json:"context"`
}

// ConsumeResponse carries the written entry and the balance after it.
type ConsumeResponse struct {
	Entry   *CreditEntry `json:"entry"`
	Balance int64        `json:"balance"`
}

// RecordEntryRequest is an operator-issued ledger entry.
type RecordEntryRequest struct {
	UserID          uuid.UUID  `json:"user_id"`
	Amount          int64      `json:"amount"`
	TransactionType string     `json:"transaction_type" binding:"required"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	RelatedEntityID *uuid.UUID `json:"related_entity_id,omitempty"`
	IdempotencyKey  string     `json:"idempotency_key,omitempty"`
	Description     string     `json:"description,omitempty"`
	Metadata        string     `json:"metadata,omitempty"`
}

// ToInput converts the request to an EntryInput.
func (r *RecordEntryRequest) ToInput() EntryInput {
	return EntryInput{
		UserID:          r.UserID,
		Amount:          r.Amount,
		Type:            TransactionType(r.TransactionType),
		ExpiresAt:       r.ExpiresAt,
		RelatedEntityID: r.RelatedEntityID,
		IdempotencyKey:  r.IdempotencyKey,
		Description:     r.Description,
		Metadata:        r.Metadata,
	}
}

// TransactionsResponse is a page of ledger entries.
type TransactionsResponse struct {
	Transactions []*CreditEntry `json:"transactions"`
	Total        int64          `json:"total"`
	Limit        int            `json:"limit"`
	Offset       int            `json:"offset"`
}
