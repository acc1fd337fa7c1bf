package wallet

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	cacheKeyPrefix = "wallet:"
	cacheTTL       = 30 * time.Second
)

// Service exposes the ledger operations. The Redis client is optional:
// when present, wallet reads are served from a short-lived cache that is
// dropped on every mutation.
type Service struct {
	repo  *Repository
	cache *redis.Client
}

// NewService creates wallet service
func NewService(repo *Repository, cache *redis.Client) *Service {
	return &Service{repo: repo, cache: cache}
}

// GetWallet returns the user's wallet, creating it on first touch
func (s *Service) GetWallet(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	if w := s.cachedWallet(ctx, userID); w != nil {
		return w, nil
	}

	w, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cacheWallet(ctx, w)
	return w, nil
}

// Credit adds coins to the wallet. Replays of the same idempotency key
// return the current wallet without a second credit.
func (s *Service) Credit(ctx context.Context, userID uuid.UUID, amount int64, txType TransactionType, opts MutationOpts) (*Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	w, err := s.repo.Credit(ctx, userID, amount, txType, opts)
	if err != nil {
		return nil, err
	}

	s.InvalidateCache(ctx, userID)
	log.Info().
		Str("user_id", userID.String()).
		Int64("amount", amount).
		Str("type", string(txType)).
		Str("reference_id", opts.ReferenceID).
		Msg("wallet credit applied")
	return w, nil
}

// Debit removes coins from the wallet
func (s *Service) Debit(ctx context.Context, userID uuid.UUID, amount int64, txType TransactionType, opts MutationOpts) (*Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	w, err := s.repo.Debit(ctx, userID, amount, txType, opts)
	if err != nil {
		return nil, err
	}

	s.InvalidateCache(ctx, userID)
	log.Info().
		Str("user_id", userID.String()).
		Int64("amount", amount).
		Str("type", string(txType)).
		Str("reference_id", opts.ReferenceID).
		Msg("wallet debit applied")
	return w, nil
}

// CreditTx applies a credit inside a caller-owned transaction. The caller
// must invalidate the wallet cache after committing.
func (s *Service) CreditTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, txType TransactionType, opts MutationOpts) (*Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.repo.CreditTx(ctx, tx, userID, amount, txType, opts)
}

// DebitTx applies a debit inside a caller-owned transaction
func (s *Service) DebitTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, txType TransactionType, opts MutationOpts) (*Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.repo.DebitTx(ctx, tx, userID, amount, txType, opts)
}

// Freeze blocks all balance mutations on the wallet
func (s *Service) Freeze(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	w, err := s.repo.SetStatus(ctx, userID, StatusFrozen)
	if err != nil {
		return nil, err
	}
	s.InvalidateCache(ctx, userID)
	log.Info().Str("user_id", userID.String()).Msg("wallet frozen")
	return w, nil
}

// Unfreeze re-enables balance mutations on the wallet
func (s *Service) Unfreeze(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	w, err := s.repo.SetStatus(ctx, userID, StatusActive)
	if err != nil {
		return nil, err
	}
	s.InvalidateCache(ctx, userID)
	log.Info().Str("user_id", userID.String()).Msg("wallet unfrozen")
	return w, nil
}

// ListTransactions returns a reverse-chronological page of the ledger
func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Transaction, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListTransactions(ctx, userID, limit, offset)
}

// InvalidateCache drops the cached wallet. Sibling services call this
// after committing a transaction that contains a CreditTx/DebitTx.
func (s *Service) InvalidateCache(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKeyPrefix+userID.String()).Err(); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("wallet cache invalidation failed")
	}
}

func (s *Service) cachedWallet(ctx context.Context, userID uuid.UUID) *Wallet {
	if s.cache == nil {
		return nil
	}

	raw, err := s.cache.Get(ctx, cacheKeyPrefix+userID.String()).Bytes()
	if err != nil {
		return nil
	}

	var w Wallet
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil
	}
	return &w
}

func (s *Service) cacheWallet(ctx context.Context, w *Wallet) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(w)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKeyPrefix+w.UserID.String(), raw, cacheTTL).Err(); err != nil {
		log.Warn().Err(err).Str("user_id", w.UserID.String()).Msg("wallet cache write failed")
	}
}
