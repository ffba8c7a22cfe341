package credit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/pixelmuse/server/internal/shared/events"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEventHandler_InvalidatesOnGrant(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := NewRedisBalanceCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	f := newFixture(t, cache)
	user := uuid.New()

	require.NoError(t, cache.Set(context.Background(), user, 10, 0, time.Minute))

	bus := events.NewBus(zap.NewNop())
	bus.Register(NewEventHandler(f.service, zap.NewNop()))
	bus.Publish(events.NewCreditsGrantedEvent(user, uuid.New(), uuid.New(), 150, f.now.Add(time.Hour), "annual_refill", f.now))

	assert.False(t, mr.Exists(balanceKey(user)))
}

func TestEventHandler_RejectsForeignEvents(t *testing.T) {
	h := NewEventHandler(newFixture(t, nil).service, nil)
	err := h.Handle(events.NewBaseEvent(events.CreditsGrantedType, uuid.New(), "Subscription", time.Now()))
	assert.Error(t, err)
	assert.Equal(t, []string{events.CreditsGrantedType}, h.Handles())
}
