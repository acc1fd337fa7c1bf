package coins

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/worklink/worklink-api/internal/domain/wallet"
)

// WalletService is the ledger surface this service needs: a credit that
// composes into the order-completion transaction, plus cache invalidation
// once that transaction commits.
type WalletService interface {
	CreditTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, txType wallet.TransactionType, opts wallet.MutationOpts) (*wallet.Wallet, error)
	InvalidateCache(ctx context.Context, userID uuid.UUID)
}

type Service struct {
	db      *sqlx.DB
	repo    *Repository
	wallets WalletService
}

// NewService creates coins service
func NewService(db *sqlx.DB, repo *Repository, wallets WalletService) *Service {
	return &Service{db: db, repo: repo, wallets: wallets}
}

// ListPackages returns active packages, cheapest bundle first
func (s *Service) ListPackages(ctx context.Context) ([]*Package, error) {
	return s.repo.ListActivePackages(ctx)
}

// CreatePackage creates a coin package (admin). TotalCoins is always
// recomputed from base and bonus.
func (s *Service) CreatePackage(ctx context.Context, p *Package) (*Package, error) {
	p.ID = uuid.New()
	p.TotalCoins = p.BaseCoins + p.BonusCoins
	if err := s.repo.CreatePackage(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.GetPackage(ctx, p.ID)
}

// UpdatePackage updates a coin package (admin), recomputing TotalCoins
func (s *Service) UpdatePackage(ctx context.Context, p *Package) (*Package, error) {
	p.TotalCoins = p.BaseCoins + p.BonusCoins
	if err := s.repo.UpdatePackage(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.GetPackage(ctx, p.ID)
}

// GetPackage returns one package
func (s *Service) GetPackage(ctx context.Context, id uuid.UUID) (*Package, error) {
	p, err := s.repo.GetPackage(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPackageNotFound
	}
	return p, nil
}

// CreateOrder opens a pending order for a coin package purchase
func (s *Service) CreateOrder(ctx context.Context, userID, packageID uuid.UUID, method PaymentMethod) (*Order, error) {
	pkg, err := s.repo.GetPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if pkg == nil || !pkg.IsActive {
		return nil, ErrPackageNotFound
	}

	order := &Order{
		ID:            uuid.New(),
		UserID:        userID,
		PackageID:     packageID,
		Amount:        pkg.Price,
		CoinsCredited: 0,
		Status:        OrderPending,
		PaymentMethod: method,
	}
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	log.Info().
		Str("order_id", order.ID.String()).
		Str("user_id", userID.String()).
		Str("package_id", packageID.String()).
		Int64("amount", order.Amount).
		Msg("coin order created")
	return s.repo.GetOrder(ctx, order.ID)
}

// GetOrder returns one order
func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// ListOrders returns the user's orders, newest first
func (s *Service) ListOrders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Order, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListOrdersByUser(ctx, userID, limit, offset)
}

// ProcessPaymentCallback applies a payment-provider result to a pending
// order. A terminal order rejects the callback with ErrAlreadyProcessed.
// On success the order completion and the wallet credit commit in the
// same transaction; the idempotency key ties the credit to the order so a
// replay slipping past the status check still cannot credit twice.
func (s *Service) ProcessPaymentCallback(ctx context.Context, orderID uuid.UUID, paymentRef string, success bool) (*Order, error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	order, err := s.repo.getOrderForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status.IsTerminal() {
		return nil, ErrAlreadyProcessed
	}

	if !success {
		if err := s.repo.markOrderTerminal(ctx, tx, orderID, OrderFailed, 0, paymentRef); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}

		log.Info().
			Str("order_id", orderID.String()).
			Str("payment_ref", paymentRef).
			Msg("coin order failed")
		return s.GetOrder(ctx, orderID)
	}

	pkg, err := s.repo.getPackageTx(ctx, tx, order.PackageID)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, fmt.Errorf("order %s references missing package %s", orderID, order.PackageID)
	}

	if err := s.repo.markOrderTerminal(ctx, tx, orderID, OrderCompleted, pkg.TotalCoins, paymentRef); err != nil {
		return nil, err
	}

	if _, err := s.wallets.CreditTx(ctx, tx, order.UserID, pkg.TotalCoins, wallet.TransactionTypePurchase, wallet.MutationOpts{
		ReferenceID:    orderID.String(),
		IdempotencyKey: "order:" + orderID.String(),
		Description:    "Coin package purchase: " + pkg.Name,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.wallets.InvalidateCache(ctx, order.UserID)

	log.Info().
		Str("order_id", orderID.String()).
		Str("user_id", order.UserID.String()).
		Int64("coins", pkg.TotalCoins).
		Str("payment_ref", paymentRef).
		Msg("coin order completed")
	return s.GetOrder(ctx, orderID)
}
