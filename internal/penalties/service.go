package penalties

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dialadrink/ledger/internal/shared"
)

// Events receives domain events after a penalty mutation commits.
type Events interface {
	PenaltyCreated(ctx context.Context, penaltyID, driverID int64, amount decimal.Decimal, reason string)
}

// Service owns penalty issuance and reporting. Amortization itself runs inside
// the submission approval transaction, see Amortize.
type Service struct {
	repo      Repository
	audit     *shared.AuditLogger
	events    Events
	opTimeout time.Duration
}

// NewService constructs the penalty service.
func NewService(repo Repository, audit *shared.AuditLogger, events Events, opTimeout time.Duration) *Service {
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}
	return &Service{repo: repo, audit: audit, events: events, opTimeout: opTimeout}
}

// Create issues a new penalty against a driver. The balance starts equal to
// the amount and is only ever reduced by amortization.
func (s *Service) Create(ctx context.Context, driverID int64, req CreatePenaltyRequest) (Penalty, error) {
	if !req.Amount.IsPositive() {
		return Penalty{}, fmt.Errorf("%w: penalty amount must be positive, got %s", shared.ErrInvalidAmount, req.Amount)
	}
	if req.Reason == "" {
		return Penalty{}, fmt.Errorf("%w: penalty reason is mandatory", shared.ErrMissingReason)
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	exists, err := s.repo.DriverExists(opCtx, driverID)
	if err != nil {
		return Penalty{}, shared.StorageErr(err)
	}
	if !exists {
		return Penalty{}, fmt.Errorf("%w: driver %d", shared.ErrNotFound, driverID)
	}

	p, err := s.repo.Create(opCtx, driverID, req.Amount, req.Reason, req.CreatedBy)
	if err != nil {
		return Penalty{}, shared.StorageErr(err)
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  &req.CreatedBy,
			Action:   "penalty.create",
			Entity:   "penalty",
			EntityID: strconv.FormatInt(p.ID, 10),
			Meta:     map[string]any{"driver_id": driverID, "amount": p.Amount.String()},
		})
	}
	if s.events != nil {
		s.events.PenaltyCreated(ctx, p.ID, driverID, p.Amount, p.Reason)
	}
	return p, nil
}

// Get returns a single penalty.
func (s *Service) Get(ctx context.Context, id int64) (Penalty, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	p, err := s.repo.Get(opCtx, id)
	return p, shared.StorageErr(err)
}

// ListByDriver returns the driver's penalties with open/settled totals.
// Settled penalties stay listed; the audit trail never loses an entry.
func (s *Service) ListByDriver(ctx context.Context, driverID int64) (Summary, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	list, err := s.repo.ListByDriver(opCtx, driverID)
	if err != nil {
		return Summary{}, shared.StorageErr(err)
	}

	sum := Summary{
		Penalties:    list,
		OpenBalance:  decimal.Zero,
		TotalIssued:  decimal.Zero,
		TotalSettled: decimal.Zero,
	}
	for _, p := range list {
		sum.TotalIssued = sum.TotalIssued.Add(p.Amount)
		sum.OpenBalance = sum.OpenBalance.Add(p.Balance)
		sum.TotalSettled = sum.TotalSettled.Add(p.Amount.Sub(p.Balance))
	}
	return sum, nil
}
