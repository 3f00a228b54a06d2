package submissions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dialadrink/ledger/internal/penalties"
	"github.com/dialadrink/ledger/internal/shared"
)

var (
	// ErrInvalidType indicates an unknown submission type.
	ErrInvalidType = errors.New("unknown submission type")
	// ErrInvalidDetails indicates a details payload that does not match the
	// submission type's required shape.
	ErrInvalidDetails = errors.New("invalid details payload")
)

// Events receives domain events after a submission transaction commits.
type Events interface {
	SubmissionApproved(ctx context.Context, submissionID int64, driverID *int64, amount decimal.Decimal, submissionType string)
	SubmissionRejected(ctx context.Context, submissionID int64, driverID *int64, amount decimal.Decimal, reason string)
}

// Service owns the submission lifecycle: pending → approved | rejected, with
// approval side effects (penalty amortization) in the same transaction.
type Service struct {
	repo      Repository
	events    Events
	opTimeout time.Duration
}

// NewService constructs the submission service.
func NewService(repo Repository, events Events, opTimeout time.Duration) *Service {
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}
	return &Service{repo: repo, events: events, opTimeout: opTimeout}
}

// Create validates and persists a new pending submission, atomically claiming
// any linked orders. A single already-claimed order fails the whole create.
func (s *Service) Create(ctx context.Context, req CreateSubmissionRequest) (CashSubmission, error) {
	if (req.DriverID == nil) == (req.AdminID == nil) {
		return CashSubmission{}, shared.ErrInvalidActor
	}
	if !req.SubmissionType.Valid() {
		return CashSubmission{}, fmt.Errorf("%w: %q", ErrInvalidType, req.SubmissionType)
	}
	if !req.Amount.IsPositive() {
		return CashSubmission{}, fmt.Errorf("%w: amount must be strictly positive, got %s", shared.ErrInvalidAmount, req.Amount)
	}
	if err := validateDetails(req.SubmissionType, req.Details); err != nil {
		return CashSubmission{}, err
	}

	sub := CashSubmission{
		DriverID:       req.DriverID,
		AdminID:        req.AdminID,
		SubmissionType: req.SubmissionType,
		Status:         StatusPending,
		Amount:         req.Amount,
		Details:        req.Details,
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	var id int64
	err := s.repo.WithTx(opCtx, func(ctx context.Context, tx TxRepository) error {
		var err error
		id, err = tx.Insert(ctx, sub)
		if err != nil {
			return fmt.Errorf("insert submission: %w", err)
		}
		for _, orderID := range req.OrderIDs {
			if err := tx.LinkOrder(ctx, id, orderID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return CashSubmission{}, shared.StorageErr(err)
	}

	created, err := s.repo.Get(opCtx, id)
	return created, shared.StorageErr(err)
}

// Approve moves a pending submission to approved and applies its financial
// effect. The status compare-and-swap, penalty amortization and audit entry
// share one transaction: a failed side effect rolls the status back too.
func (s *Service) Approve(ctx context.Context, id, approverAdminID int64) (CashSubmission, AmortizationResult, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	var sub CashSubmission
	result := AmortizationResult{Applied: decimal.Zero, Remainder: decimal.Zero}

	err := s.repo.WithTx(opCtx, func(ctx context.Context, tx TxRepository) error {
		ok, err := tx.MarkApproved(ctx, id, approverAdminID)
		if err != nil {
			return fmt.Errorf("mark approved: %w", err)
		}
		if !ok {
			existing, err := tx.Get(ctx, id)
			if err != nil {
				return err
			}
			return fmt.Errorf("%w: submission %d is already %s", shared.ErrInvalidStateTransition, id, existing.Status)
		}

		sub, err = tx.Get(ctx, id)
		if err != nil {
			return err
		}

		if sub.DriverID != nil && sub.SubmissionType.IsSettlement() {
			res, err := penalties.Amortize(ctx, tx, *sub.DriverID, sub.Amount)
			if err != nil {
				return err
			}
			result = AmortizationResult{Applied: res.Applied, Remainder: res.Remainder}
		}

		return tx.RecordAudit(ctx, shared.AuditLog{
			ActorID:  &approverAdminID,
			Action:   "submission.approve",
			Entity:   "cash_submission",
			EntityID: strconv.FormatInt(id, 10),
			Meta: map[string]any{
				"amount":               sub.Amount.String(),
				"submission_type":      string(sub.SubmissionType),
				"applied_to_penalties": result.Applied.String(),
			},
		})
	})
	if err != nil {
		return CashSubmission{}, AmortizationResult{}, shared.StorageErr(err)
	}

	if s.events != nil {
		s.events.SubmissionApproved(ctx, sub.ID, sub.DriverID, sub.Amount, string(sub.SubmissionType))
	}
	return sub, result, nil
}

// Reject moves a pending submission to rejected. A reason is mandatory and no
// wallet or penalty effect takes place.
func (s *Service) Reject(ctx context.Context, id, rejecterAdminID int64, reason string) (CashSubmission, error) {
	if reason == "" {
		return CashSubmission{}, shared.ErrMissingReason
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	var sub CashSubmission
	err := s.repo.WithTx(opCtx, func(ctx context.Context, tx TxRepository) error {
		ok, err := tx.MarkRejected(ctx, id, rejecterAdminID, reason)
		if err != nil {
			return fmt.Errorf("mark rejected: %w", err)
		}
		if !ok {
			existing, err := tx.Get(ctx, id)
			if err != nil {
				return err
			}
			return fmt.Errorf("%w: submission %d is already %s", shared.ErrInvalidStateTransition, id, existing.Status)
		}

		sub, err = tx.Get(ctx, id)
		if err != nil {
			return err
		}

		return tx.RecordAudit(ctx, shared.AuditLog{
			ActorID:  &rejecterAdminID,
			Action:   "submission.reject",
			Entity:   "cash_submission",
			EntityID: strconv.FormatInt(id, 10),
			Meta:     map[string]any{"reason": reason},
		})
	})
	if err != nil {
		return CashSubmission{}, shared.StorageErr(err)
	}

	if s.events != nil {
		s.events.SubmissionRejected(ctx, sub.ID, sub.DriverID, sub.Amount, reason)
	}
	return sub, nil
}

// Amend updates amount/details on a still-pending submission. Terminal
// submissions are immutable.
func (s *Service) Amend(ctx context.Context, id int64, req AmendSubmissionRequest) (CashSubmission, error) {
	if req.Amount != nil && !req.Amount.IsPositive() {
		return CashSubmission{}, fmt.Errorf("%w: amount must be strictly positive, got %s", shared.ErrInvalidAmount, req.Amount)
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	err := s.repo.WithTx(opCtx, func(ctx context.Context, tx TxRepository) error {
		ok, err := tx.Amend(ctx, id, req.Amount, req.Details)
		if err != nil {
			return fmt.Errorf("amend submission: %w", err)
		}
		if !ok {
			existing, err := tx.Get(ctx, id)
			if err != nil {
				return err
			}
			return fmt.Errorf("%w: submission %d is %s and immutable", shared.ErrInvalidStateTransition, id, existing.Status)
		}
		return nil
	})
	if err != nil {
		return CashSubmission{}, shared.StorageErr(err)
	}

	sub, err := s.repo.Get(opCtx, id)
	return sub, shared.StorageErr(err)
}

// Get returns a single submission with its linked orders.
func (s *Service) Get(ctx context.Context, id int64) (CashSubmission, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	sub, err := s.repo.Get(opCtx, id)
	return sub, shared.StorageErr(err)
}

// List returns a driver's submissions plus per-status counts.
func (s *Service) List(ctx context.Context, req ListSubmissionsRequest) ([]CashSubmission, StatusCounts, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	subs, counts, err := s.repo.List(opCtx, req)
	return subs, counts, shared.StorageErr(err)
}

// validateDetails enforces the per-type payload shape carried over from the
// mobile clients: purchases itemize what was bought, office payments name the
// receiving account, and so on.
func validateDetails(t SubmissionType, raw json.RawMessage) error {
	if len(raw) == 0 {
		if t == TypeWalkInSale || t == TypeOrderPayment {
			return nil
		}
		return fmt.Errorf("%w: details required for %s submissions", ErrInvalidDetails, t)
	}

	var details struct {
		Items         []json.RawMessage `json:"items"`
		Supplier      string            `json:"supplier"`
		Item          string            `json:"item"`
		Price         *float64          `json:"price"`
		RecipientName string            `json:"recipientName"`
		Nature        string            `json:"nature"`
		AccountType   string            `json:"accountType"`
	}
	if err := json.Unmarshal(raw, &details); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDetails, err)
	}
	hasItems := len(details.Items) > 0

	switch t {
	case TypePurchases:
		if details.Supplier == "" || (!hasItems && (details.Item == "" || details.Price == nil)) {
			return fmt.Errorf("%w: purchases need supplier and items (or item+price)", ErrInvalidDetails)
		}
	case TypeCash:
		if !hasItems && details.RecipientName == "" {
			return fmt.Errorf("%w: cash submissions need recipientName or items", ErrInvalidDetails)
		}
	case TypeGeneralExpense:
		if !hasItems && details.Nature == "" {
			return fmt.Errorf("%w: general expenses need nature or items", ErrInvalidDetails)
		}
	case TypePaymentToOffice:
		switch details.AccountType {
		case "mpesa", "till", "bank", "paybill", "pdq":
		default:
			return fmt.Errorf("%w: payment_to_office accountType must be one of mpesa, till, bank, paybill, pdq", ErrInvalidDetails)
		}
	case TypeWalkInSale, TypeOrderPayment:
		// Optional payloads.
	}
	return nil
}
