package credit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pixelmuse/server/internal/shared/metrics"
	"go.uber.org/zap"
)

// ServiceInterface defines the ledger operations used by the HTTP layer.
type ServiceInterface interface {
	RecordEntry(ctx context.Context, in EntryInput) (*CreditEntry, error)
	RecordConsumption(ctx context.Context, userID uuid.UUID, amount int64, metadata string) (*CreditEntry, error)
	UsableBalance(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
	GetUsableBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*CreditEntry, int64, error)
}

// Service implements the credit ledger.
type Service struct {
	repo     Repository
	cache    BalanceCache
	metrics  *metrics.Metrics
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

var _ ServiceInterface = (*Service)(nil)

// NewService creates a ledger service. cache may be nil.
func NewService(repo Repository, cache BalanceCache, m *metrics.Metrics, cacheTTL time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		cache:    cache,
		metrics:  m,
		cacheTTL: cacheTTL,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// RecordEntry validates and appends an entry.
func (s *Service) RecordEntry(ctx context.Context, in EntryInput) (*CreditEntry, error) {
	entry, err := NewEntry(in, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, entry)
	s.logger.Info("credit entry recorded",
		zap.String("entry_id", entry.ID.String()),
		zap.String("user_id", entry.UserID.String()),
		zap.String("type", string(entry.TransactionType)),
		zap.Int64("amount", entry.Amount),
	)
	return entry, nil
}

// RecordConsumption spends amount credits. The balance check and the write
// happen in one transaction holding the user's lock, so two concurrent spends
// cannot both pass against the same balance.
func (s *Service) RecordConsumption(ctx context.Context, userID uuid.UUID, amount int64, metadata string) (*CreditEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: consumption amount must be positive", ErrValidation)
	}

	now := s.now()
	var entry *CreditEntry
	err := s.repo.Transaction(ctx, func(repo Repository) error {
		if err := repo.LockUser(ctx, userID); err != nil {
			return err
		}
		balance, err := repo.UsableBalance(ctx, userID, now)
		if err != nil {
			return err
		}
		if balance < amount {
			return fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, balance, amount)
		}

		e, err := NewEntry(EntryInput{
			UserID:   userID,
			Amount:   -amount,
			Type:     TransactionTypeConsumption,
			Metadata: metadata,
		}, now)
		if err != nil {
			return err
		}
		if err := repo.Append(ctx, e); err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			s.metrics.RecordInsufficientBalance()
		}
		return nil, err
	}

	s.afterWrite(ctx, entry)
	return entry, nil
}

// UsableBalance derives the balance at the given instant from the ledger.
func (s *Service) UsableBalance(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	return s.repo.UsableBalance(ctx, userID, at)
}

// GetUsableBalance returns the current balance, read through the cache. A
// value computed across a concurrent write is not cached.
func (s *Service) GetUsableBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	var (
		generation int64
		cacheable  bool
	)
	if s.cache != nil {
		balance, gen, err := s.cache.Get(ctx, userID)
		switch {
		case err == nil:
			s.metrics.RecordBalanceCache("hit")
			return balance, nil
		case errors.Is(err, ErrCacheMiss):
			s.metrics.RecordBalanceCache("miss")
			generation, cacheable = gen, true
		default:
			s.metrics.RecordBalanceCache("error")
			s.logger.Debug("balance cache unavailable", zap.Error(err))
		}
	}

	now := s.now()
	balance, err := s.repo.UsableBalance(ctx, userID, now)
	if err != nil {
		return 0, err
	}

	if cacheable {
		ttl, err := s.balanceTTL(ctx, userID, now)
		if err != nil {
			s.logger.Warn("compute balance ttl", zap.String("user_id", userID.String()), zap.Error(err))
			return balance, nil
		}
		if ttl > 0 {
			if err := s.cache.Set(ctx, userID, balance, generation, ttl); err != nil {
				s.logger.Debug("cache balance", zap.Error(err))
			}
		}
	}
	return balance, nil
}

// balanceTTL caps the cache lifetime at the next grant expiry, when the
// balance changes without a ledger write.
func (s *Service) balanceTTL(ctx context.Context, userID uuid.UUID, now time.Time) (time.Duration, error) {
	ttl := s.cacheTTL
	next, err := s.repo.NextExpiry(ctx, userID, now)
	if err != nil {
		return 0, err
	}
	if next != nil {
		if until := next.Sub(now); until < ttl {
			ttl = until
		}
	}
	return ttl, nil
}

// ListTransactions returns the user's entries, newest first.
func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*CreditEntry, int64, error) {
	return s.repo.List(ctx, userID, limit, offset)
}

// InvalidateBalance drops the cached balance for userID.
func (s *Service) InvalidateBalance(ctx context.Context, userID uuid.UUID) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, userID)
}

func (s *Service) afterWrite(ctx context.Context, entry *CreditEntry) {
	s.metrics.RecordLedgerEntry(string(entry.TransactionType), entry.Amount)
	if err := s.InvalidateBalance(ctx, entry.UserID); err != nil {
		s.logger.Warn("invalidate cached balance",
			zap.String("user_id", entry.UserID.String()),
			zap.Error(err),
		)
	}
}
