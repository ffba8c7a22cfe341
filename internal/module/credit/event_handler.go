package credit

import (
	"context"
	"fmt"
	"time"

	"github.com/pixelmuse/server/internal/shared/events"
	"go.uber.org/zap"
)

// EventHandler keeps the balance cache consistent with grants written
// outside this service.
type EventHandler struct {
	service *Service
	logger  *zap.Logger
}

// NewEventHandler creates a new credit event handler.
func NewEventHandler(service *Service, logger *zap.Logger) *EventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventHandler{service: service, logger: logger}
}

var _ events.Handler = (*EventHandler)(nil)

// Handles returns the event types this handler processes.
func (h *EventHandler) Handles() []string {
	return []string{events.CreditsGrantedType}
}

// Handle invalidates the granted user's cached balance.
func (h *EventHandler) Handle(event events.Event) error {
	granted, ok := event.(*events.CreditsGrantedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := h.service.InvalidateBalance(ctx, granted.UserID); err != nil {
		return fmt.Errorf("invalidate balance for %s: %w", granted.UserID, err)
	}
	h.logger.Debug("balance cache invalidated",
		zap.String("user_id", granted.UserID.String()),
		zap.String("subscription_id", granted.SubscriptionID.String()),
	)
	return nil
}
