package wallet

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/dialadrink/ledger/internal/shared"
)

// Service derives driver balances and answers the credit gate.
type Service struct {
	logger    *slog.Logger
	repo      Repository
	cache     *StatementCache
	opTimeout time.Duration
}

// NewService constructs the wallet service. The cache may be nil.
func NewService(logger *slog.Logger, repo Repository, cache *StatementCache, opTimeout time.Duration) *Service {
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}
	return &Service{logger: logger, repo: repo, cache: cache, opTimeout: opTimeout}
}

// Statement computes the driver's position. A cached snapshot is served when
// fresh enough; the aggregates fan out concurrently on a miss.
func (s *Service) Statement(ctx context.Context, driverID int64) (Statement, error) {
	if st, ok := s.cache.Get(ctx, driverID); ok {
		return st, nil
	}
	st, err := s.compute(ctx, driverID)
	if err != nil {
		return Statement{}, err
	}
	s.cache.Set(ctx, st)
	return st, nil
}

// CanAcceptDelivery is the credit gate. It always recomputes from storage so a
// stale snapshot can never let an over-extended driver take another delivery.
// A driver is blocked once their balance falls to the credit limit or below.
func (s *Service) CanAcceptDelivery(ctx context.Context, driverID int64) (Decision, error) {
	st, err := s.compute(ctx, driverID)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		DriverID:    driverID,
		CanAccept:   st.Balance.GreaterThan(st.CreditLimit),
		Balance:     st.Balance,
		CreditLimit: st.CreditLimit,
		ComputedAt:  st.ComputedAt,
	}, nil
}

// Invalidate drops the cached snapshot for a driver.
func (s *Service) Invalidate(ctx context.Context, driverID int64) {
	s.cache.Invalidate(ctx, driverID)
}

// Office reports the aggregate cash routed to the office, split by channel.
func (s *Service) Office(ctx context.Context) (OfficeBalance, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	total, byAccount, err := s.repo.OfficeTotals(opCtx)
	if err != nil {
		return OfficeBalance{}, shared.StorageErr(err)
	}
	return OfficeBalance{Total: total, ByAccount: byAccount, ComputedAt: time.Now().UTC()}, nil
}

func (s *Service) compute(ctx context.Context, driverID int64) (Statement, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	var (
		fin       Financials
		approved  decimal.Decimal
		penalties decimal.Decimal
	)
	g, gCtx := errgroup.WithContext(opCtx)
	g.Go(func() error {
		var err error
		fin, err = s.repo.DriverFinancials(gCtx, driverID)
		return err
	})
	g.Go(func() error {
		var err error
		approved, err = s.repo.ApprovedSubmissionTotal(gCtx, driverID)
		return err
	})
	g.Go(func() error {
		var err error
		penalties, err = s.repo.OpenPenaltyTotal(gCtx, driverID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Statement{}, shared.StorageErr(err)
	}

	balance := fin.CashAtHand.Sub(approved).Sub(penalties)
	return Statement{
		DriverID:         driverID,
		CashAtHand:       fin.CashAtHand,
		ApprovedTotal:    approved,
		OpenPenaltyTotal: penalties,
		Balance:          balance,
		CreditLimit:      fin.CreditLimit,
		Savings:          fin.Savings,
		ComputedAt:       time.Now().UTC(),
	}, nil
}
