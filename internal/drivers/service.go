package drivers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dialadrink/ledger/internal/shared"
)

// Service owns driver lookups and savings movements.
type Service struct {
	repo      Repository
	audit     *shared.AuditLogger
	opTimeout time.Duration
}

// NewService constructs the driver service.
func NewService(repo Repository, audit *shared.AuditLogger, opTimeout time.Duration) *Service {
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}
	return &Service{repo: repo, audit: audit, opTimeout: opTimeout}
}

// Get returns the driver with their wallet.
func (s *Service) Get(ctx context.Context, id int64) (Driver, DriverWallet, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	d, err := s.repo.Get(opCtx, id)
	if err != nil {
		return Driver{}, DriverWallet{}, shared.StorageErr(err)
	}
	w, err := s.repo.GetWallet(opCtx, id)
	if err != nil {
		return Driver{}, DriverWallet{}, shared.StorageErr(err)
	}
	return d, w, nil
}

// WithholdSavings adds a delivery-fee withholding to the driver's savings.
func (s *Service) WithholdSavings(ctx context.Context, driverID int64, req SavingsRequest) (DriverWallet, error) {
	return s.moveSavings(ctx, driverID, SavingsWithhold, req)
}

// PayoutSavings releases accrued savings back to the driver. It fails with
// ErrInsufficientSavings rather than letting savings go negative.
func (s *Service) PayoutSavings(ctx context.Context, driverID int64, req SavingsRequest) (DriverWallet, error) {
	return s.moveSavings(ctx, driverID, SavingsPayout, req)
}

// SavingsHistory lists recent savings movements, newest first.
func (s *Service) SavingsHistory(ctx context.Context, driverID int64, limit int) ([]SavingsEntry, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	entries, err := s.repo.ListSavingsEntries(opCtx, driverID, limit)
	return entries, shared.StorageErr(err)
}

func (s *Service) moveSavings(ctx context.Context, driverID int64, entry SavingsEntryType, req SavingsRequest) (DriverWallet, error) {
	if !req.Amount.IsPositive() {
		return DriverWallet{}, fmt.Errorf("%w: savings %s must be positive, got %s", shared.ErrInvalidAmount, entry, req.Amount)
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if _, err := s.repo.Get(opCtx, driverID); err != nil {
		return DriverWallet{}, shared.StorageErr(err)
	}

	wallet, err := s.repo.MoveSavings(opCtx, driverID, entry, req.Amount, req.Reference)
	if err != nil {
		return DriverWallet{}, shared.StorageErr(err)
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  &req.ActorID,
			Action:   "savings." + string(entry),
			Entity:   "driver_wallet",
			EntityID: strconv.FormatInt(driverID, 10),
			Meta:     map[string]any{"amount": req.Amount.String(), "reference": req.Reference},
		})
	}
	return wallet, nil
}
