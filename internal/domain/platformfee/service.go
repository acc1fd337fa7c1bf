package platformfee

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrInvalidAmount = errors.New("invalid amount")

// Service computes and records the platform's cut of contract
// settlements. Recording a fee does not move wallet balance; the
// settlement path owns the money movement.
type Service struct {
	repo *Repository

	// fee rate in basis points so fee arithmetic stays integral
	basisPoints int64
	percent     float64
}

// NewService creates platform fee service with the given fee percentage
func NewService(repo *Repository, percent float64) *Service {
	return &Service{
		repo:        repo,
		basisPoints: int64(math.Round(percent * 100)),
		percent:     percent,
	}
}

// CalculateFee returns the platform fee and the net amount. The fee is
// rounded to the nearest whole coin unit.
func (s *Service) CalculateFee(amount int64) (fee, net int64) {
	fee = (amount*s.basisPoints + 5000) / 10000
	return fee, amount - fee
}

// DeductFee computes the fee for a settlement amount and appends a fee
// record.
func (s *Service) DeductFee(ctx context.Context, contractID uuid.UUID, amount int64) (*Fee, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	feeAmount, _ := s.CalculateFee(amount)
	fee := &Fee{
		ID:         uuid.New(),
		ContractID: contractID,
		Amount:     feeAmount,
		Percent:    s.percent,
	}
	if err := s.repo.Create(ctx, fee); err != nil {
		return nil, err
	}

	log.Info().
		Str("contract_id", contractID.String()).
		Int64("settlement_amount", amount).
		Int64("fee", feeAmount).
		Float64("percent", s.percent).
		Msg("platform fee recorded")
	return s.repo.Get(ctx, fee.ID)
}

// FeesByContract returns all fee records for one contract
func (s *Service) FeesByContract(ctx context.Context, contractID uuid.UUID) ([]*Fee, error) {
	return s.repo.ListByContract(ctx, contractID)
}

// TotalFees returns the lifetime fee sum
func (s *Service) TotalFees(ctx context.Context) (int64, error) {
	return s.repo.Total(ctx)
}

// FeeStats aggregates the fee log over an optional date range
func (s *Service) FeeStats(ctx context.Context, from, to *time.Time) (*Stats, error) {
	return s.repo.Stats(ctx, from, to)
}
