package events

import (
	"time"

	"github.com/google/uuid"
)

// CreditsGrantedType is published after a refill grant commits.
const CreditsGrantedType = "CreditsGranted"

// CreditsGrantedEvent reports a committed subscription refill grant.
// It lives here so the credit and refill modules need not import each other.
type CreditsGrantedEvent struct {
	BaseEvent

	UserID         uuid.UUID `json:"user_id"`
	SubscriptionID uuid.UUID `json:"subscription_id"`
	EntryID        uuid.UUID `json:"entry_id"`
	Amount         int64     `json:"amount"`
	ExpiresAt      time.Time `json:"expires_at"`
	Phase          string    `json:"phase"`
}

// NewCreditsGrantedEvent creates the event with the subscription as aggregate.
func NewCreditsGrantedEvent(userID, subscriptionID, entryID uuid.UUID, amount int64, expiresAt time.Time, phase string, at time.Time) *CreditsGrantedEvent {
	return &CreditsGrantedEvent{
		BaseEvent:      NewBaseEvent(CreditsGrantedType, subscriptionID, "Subscription", at),
		UserID:         userID,
		SubscriptionID: subscriptionID,
		EntryID:        entryID,
		Amount:         amount,
		ExpiresAt:      expiresAt,
		Phase:          phase,
	}
}
