package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/worklink/worklink-api/internal/domain/wallet"
)

// WalletService is the ledger surface the store needs: a debit that
// composes into the purchase transaction, plus cache invalidation once it
// commits.
type WalletService interface {
	DebitTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, txType wallet.TransactionType, opts wallet.MutationOpts) (*wallet.Wallet, error)
	InvalidateCache(ctx context.Context, userID uuid.UUID)
}

type Service struct {
	db      *sqlx.DB
	repo    *Repository
	wallets WalletService
}

// NewService creates store service
func NewService(db *sqlx.DB, repo *Repository, wallets WalletService) *Service {
	return &Service{db: db, repo: repo, wallets: wallets}
}

// ListItems returns active items, cheapest first
func (s *Service) ListItems(ctx context.Context) ([]*Item, error) {
	return s.repo.ListActiveItems(ctx)
}

// CreateItem creates a store item (admin)
func (s *Service) CreateItem(ctx context.Context, item *Item) (*Item, error) {
	item.ID = uuid.New()
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	return s.repo.GetItem(ctx, item.ID)
}

// UpdateItem updates a store item (admin)
func (s *Service) UpdateItem(ctx context.Context, item *Item) (*Item, error) {
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return s.repo.GetItem(ctx, item.ID)
}

// Purchase debits the item price from the caller's wallet and grants the
// entitlement, both in one transaction. Insufficient balance or a frozen
// wallet surfaces as the corresponding wallet error with nothing applied.
func (s *Service) Purchase(ctx context.Context, userID, itemID uuid.UUID) (*Entitlement, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || !item.IsActive {
		return nil, ErrItemNotFound
	}

	now := time.Now()
	var endsAt *time.Time
	if item.DurationDays != nil {
		t := now.AddDate(0, 0, *item.DurationDays)
		endsAt = &t
	}

	entitlement := &Entitlement{
		ID:       uuid.New(),
		UserID:   userID,
		ItemID:   itemID,
		StartsAt: now,
		EndsAt:   endsAt,
		Status:   EntitlementActive,
	}

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := s.wallets.DebitTx(ctx, tx, userID, item.Price, wallet.TransactionTypeStorePurchase, wallet.MutationOpts{
		ReferenceID: itemID.String(),
		Description: "Store purchase: " + item.Name,
	}); err != nil {
		return nil, err
	}

	if err := s.repo.createEntitlementTx(ctx, tx, entitlement); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.wallets.InvalidateCache(ctx, userID)

	log.Info().
		Str("user_id", userID.String()).
		Str("item_id", itemID.String()).
		Int64("price", item.Price).
		Str("entitlement_id", entitlement.ID.String()).
		Msg("store item purchased")
	return s.repo.GetEntitlement(ctx, entitlement.ID)
}

// ListEntitlements returns the user's grants, optionally filtered
func (s *Service) ListEntitlements(ctx context.Context, userID uuid.UUID, filter EntitlementFilter) ([]*Entitlement, error) {
	return s.repo.ListEntitlements(ctx, userID, filter)
}

// HasActiveEntitlement reports whether the user holds an unexpired grant
// for the item type
func (s *Service) HasActiveEntitlement(ctx context.Context, userID uuid.UUID, itemType ItemType) (bool, error) {
	return s.repo.HasActiveEntitlement(ctx, userID, itemType)
}

// ExpireEntitlements runs the periodic sweep over past-due grants
func (s *Service) ExpireEntitlements(ctx context.Context) (int64, error) {
	count, err := s.repo.ExpireDue(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.Info().Int64("count", count).Msg("entitlements expired")
	}
	return count, nil
}
