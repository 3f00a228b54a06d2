package submissions

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dialadrink/ledger/internal/penalties"
	"github.com/dialadrink/ledger/internal/shared"
)

type memorySubmissionRepo struct {
	submissions map[int64]CashSubmission
	orderClaims map[int64]int64
	penalties   []penalties.Penalty
	auditTrail  []shared.AuditLog
	nextID      int64
}

type memorySubmissionTx struct {
	repo *memorySubmissionRepo
}

func newMemorySubmissionRepo() *memorySubmissionRepo {
	return &memorySubmissionRepo{
		submissions: make(map[int64]CashSubmission),
		orderClaims: make(map[int64]int64),
	}
}

func (r *memorySubmissionRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memorySubmissionTx{repo: r})
}

func (r *memorySubmissionRepo) Get(ctx context.Context, id int64) (CashSubmission, error) {
	sub, ok := r.submissions[id]
	if !ok {
		return CashSubmission{}, shared.ErrNotFound
	}
	for orderID, subID := range r.orderClaims {
		if subID == id {
			sub.OrderIDs = append(sub.OrderIDs, orderID)
		}
	}
	return sub, nil
}

func (r *memorySubmissionRepo) List(ctx context.Context, req ListSubmissionsRequest) ([]CashSubmission, StatusCounts, error) {
	var out []CashSubmission
	var counts StatusCounts
	for id := int64(1); id <= r.nextID; id++ {
		sub, ok := r.submissions[id]
		if !ok || sub.DriverID == nil || *sub.DriverID != req.DriverID {
			continue
		}
		switch sub.Status {
		case StatusPending:
			counts.Pending++
		case StatusApproved:
			counts.Approved++
		case StatusRejected:
			counts.Rejected++
		}
		if req.Status != nil && sub.Status != *req.Status {
			continue
		}
		out = append(out, sub)
	}
	return out, counts, nil
}

func (t *memorySubmissionTx) Insert(ctx context.Context, sub CashSubmission) (int64, error) {
	t.repo.nextID++
	sub.ID = t.repo.nextID
	sub.CreatedAt = time.Now()
	sub.UpdatedAt = sub.CreatedAt
	t.repo.submissions[sub.ID] = sub
	return sub.ID, nil
}

func (t *memorySubmissionTx) LinkOrder(ctx context.Context, submissionID, orderID int64) error {
	if _, claimed := t.repo.orderClaims[orderID]; claimed {
		return fmt.Errorf("%w: order %d", shared.ErrDuplicateOrderClaim, orderID)
	}
	t.repo.orderClaims[orderID] = submissionID
	return nil
}

func (t *memorySubmissionTx) Get(ctx context.Context, id int64) (CashSubmission, error) {
	return t.repo.Get(ctx, id)
}

func (t *memorySubmissionTx) MarkApproved(ctx context.Context, id, adminID int64) (bool, error) {
	sub, ok := t.repo.submissions[id]
	if !ok || sub.Status != StatusPending {
		return false, nil
	}
	now := time.Now()
	sub.Status = StatusApproved
	sub.ApprovedBy = &adminID
	sub.ApprovedAt = &now
	t.repo.submissions[id] = sub
	return true, nil
}

func (t *memorySubmissionTx) MarkRejected(ctx context.Context, id, adminID int64, reason string) (bool, error) {
	sub, ok := t.repo.submissions[id]
	if !ok || sub.Status != StatusPending {
		return false, nil
	}
	now := time.Now()
	sub.Status = StatusRejected
	sub.RejectedBy = &adminID
	sub.RejectedAt = &now
	sub.RejectionReason = &reason
	t.repo.submissions[id] = sub
	return true, nil
}

func (t *memorySubmissionTx) Amend(ctx context.Context, id int64, amount *decimal.Decimal, details json.RawMessage) (bool, error) {
	sub, ok := t.repo.submissions[id]
	if !ok || sub.Status != StatusPending {
		return false, nil
	}
	if amount != nil {
		sub.Amount = *amount
	}
	if len(details) > 0 {
		sub.Details = details
	}
	t.repo.submissions[id] = sub
	return true, nil
}

func (t *memorySubmissionTx) ListOpenForUpdate(ctx context.Context, driverID int64) ([]penalties.Penalty, error) {
	var out []penalties.Penalty
	for _, p := range t.repo.penalties {
		if p.DriverID == driverID && p.Balance.IsPositive() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (t *memorySubmissionTx) ReduceBalance(ctx context.Context, penaltyID int64, by decimal.Decimal) error {
	for i := range t.repo.penalties {
		if t.repo.penalties[i].ID == penaltyID {
			t.repo.penalties[i].Balance = t.repo.penalties[i].Balance.Sub(by)
			return nil
		}
	}
	return fmt.Errorf("penalty %d not found", penaltyID)
}

func (t *memorySubmissionTx) RecordAudit(ctx context.Context, log shared.AuditLog) error {
	t.repo.auditTrail = append(t.repo.auditTrail, log)
	return nil
}

type capturedEvents struct {
	approved []int64
	rejected []int64
}

func (e *capturedEvents) SubmissionApproved(ctx context.Context, submissionID int64, driverID *int64, amount decimal.Decimal, submissionType string) {
	e.approved = append(e.approved, submissionID)
}

func (e *capturedEvents) SubmissionRejected(ctx context.Context, submissionID int64, driverID *int64, amount decimal.Decimal, reason string) {
	e.rejected = append(e.rejected, submissionID)
}

func dec(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

func ptr(v int64) *int64 { return &v }

func newTestService(repo *memorySubmissionRepo) (*Service, *capturedEvents) {
	events := &capturedEvents{}
	return NewService(repo, events, time.Second), events
}

func TestCreateRequiresExactlyOneActor(t *testing.T) {
	svc, _ := newTestService(newMemorySubmissionRepo())

	_, err := svc.Create(context.Background(), CreateSubmissionRequest{
		SubmissionType: TypeCash,
		Amount:         dec("100"),
		Details:        json.RawMessage(`{"recipientName":"office"}`),
	})
	require.ErrorIs(t, err, shared.ErrInvalidActor)

	_, err = svc.Create(context.Background(), CreateSubmissionRequest{
		DriverID:       ptr(1),
		AdminID:        ptr(2),
		SubmissionType: TypeCash,
		Amount:         dec("100"),
		Details:        json.RawMessage(`{"recipientName":"office"}`),
	})
	require.ErrorIs(t, err, shared.ErrInvalidActor)
}

func TestCreateRejectsUnknownTypeAndBadAmount(t *testing.T) {
	svc, _ := newTestService(newMemorySubmissionRepo())

	_, err := svc.Create(context.Background(), CreateSubmissionRequest{
		DriverID:       ptr(1),
		SubmissionType: "bribe",
		Amount:         dec("100"),
	})
	require.ErrorIs(t, err, ErrInvalidType)

	_, err = svc.Create(context.Background(), CreateSubmissionRequest{
		DriverID:       ptr(1),
		SubmissionType: TypeCash,
		Amount:         dec("0"),
	})
	require.ErrorIs(t, err, shared.ErrInvalidAmount)
}

func TestCreateValidatesDetailsPerType(t *testing.T) {
	svc, _ := newTestService(newMemorySubmissionRepo())

	cases := []struct {
		name    string
		subType SubmissionType
		details string
		wantErr bool
	}{
		{"purchases with supplier and item", TypePurchases, `{"supplier":"Westlands Wines","item":"gin","price":1200}`, false},
		{"purchases without supplier", TypePurchases, `{"item":"gin","price":1200}`, true},
		{"cash with recipient", TypeCash, `{"recipientName":"office"}`, false},
		{"cash empty payload", TypeCash, `{}`, true},
		{"expense with nature", TypeGeneralExpense, `{"nature":"fuel"}`, false},
		{"office payment to till", TypePaymentToOffice, `{"accountType":"till"}`, false},
		{"office payment to unknown channel", TypePaymentToOffice, `{"accountType":"cheque"}`, true},
		{"order payment without details", TypeOrderPayment, ``, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := CreateSubmissionRequest{
				DriverID:       ptr(1),
				SubmissionType: tc.subType,
				Amount:         dec("500"),
			}
			if tc.details != "" {
				req.Details = json.RawMessage(tc.details)
			}
			_, err := svc.Create(context.Background(), req)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidDetails)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestCreateClaimsOrdersAtomically(t *testing.T) {
	repo := newMemorySubmissionRepo()
	svc, _ := newTestService(repo)

	first, err := svc.Create(context.Background(), CreateSubmissionRequest{
		DriverID:       ptr(1),
		SubmissionType: TypeOrderPayment,
		Amount:         dec("1200"),
		OrderIDs:       []int64{11, 12},
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{11, 12}, first.OrderIDs)

	_, err = svc.Create(context.Background(), CreateSubmissionRequest{
		DriverID:       ptr(2),
		SubmissionType: TypeOrderPayment,
		Amount:         dec("800"),
		OrderIDs:       []int64{12, 13},
	})
	require.ErrorIs(t, err, shared.ErrDuplicateOrderClaim)
}

func TestApproveSettlementAmortizesPenalties(t *testing.T) {
	repo := newMemorySubmissionRepo()
	repo.penalties = []penalties.Penalty{
		{ID: 1, DriverID: 1, Amount: dec("300"), Balance: dec("300")},
		{ID: 2, DriverID: 1, Amount: dec("500"), Balance: dec("500")},
	}
	svc, events := newTestService(repo)

	sub, err := svc.Create(context.Background(), CreateSubmissionRequest{
		DriverID:       ptr(1),
		SubmissionType: TypeCash,
		Amount:         dec("600"),
		Details:        json.RawMessage(`{"recipientName":"office"}`),
	})
	require.NoError(t, err)

	approved, result, err := svc.Approve(context.Background(), sub.ID, 9)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status)
	require.True(t, result.Applied.Equal(dec("600")))
	require.True(t, result.Remainder.IsZero())

	require.True(t, repo.penalties[0].Balance.IsZero())
	require.True(t, repo.penalties[1].Balance.Equal(dec("200")))
	require.Equal(t, []int64{sub.ID}, events.approved)
	require.Len(t, repo.auditTrail, 1)
	require.Equal(t, "submission.approve", repo.auditTrail[0].Action)
}

func TestApproveExpenseSkipsAmortization(t *testing.T) {
	repo := newMemorySubmissionRepo()
	repo.penalties = []penalties.Penalty{
		{ID: 1, DriverID: 1, Amount: dec("300"), Balance: dec("300")},
	}
	svc, _ := newTestService(repo)

	sub, err := svc.Create(context.Background(), CreateSubmissionRequest{
		DriverID:       ptr(1),
		SubmissionType: TypePurchases,
		Amount:         dec("600"),
		Details:        json.RawMessage(`{"supplier":"Karen Depot","item":"vodka","price":600}`),
	})
	require.NoError(t, err)

	_, result, err := svc.Approve(context.Background(), sub.ID, 9)
	require.NoError(t, err)
	require.True(t, result.Applied.IsZero())
	require.True(t, repo.penalties[0].Balance.Equal(dec("300")), "expenses never touch penalties")
}

func TestApproveIsOneWay(t *testing.T) {
	repo := newMemorySubmissionRepo()
	svc, events := newTestService(repo)

	sub, err := svc.Create(context.Background(), CreateSubmissionRequest{
		DriverID:       ptr(1),
		SubmissionType: TypeCash,
		Amount:         dec("100"),
		Details:        json.RawMessage(`{"recipientName":"office"}`),
	})
	require.NoError(t, err)

	_, _, err = svc.Approve(context.Background(), sub.ID, 9)
	require.NoError(t, err)

	_, _, err = svc.Approve(context.Background(), sub.ID, 9)
	require.ErrorIs(t, err, shared.ErrInvalidStateTransition)

	_, err = svc.Reject(context.Background(), sub.ID, 9, "changed my mind")
	require.ErrorIs(t, err, shared.ErrInvalidStateTransition)

	require.Len(t, events.approved, 1, "only the winning transition emits an event")
}

func TestRejectRequiresReason(t *testing.T) {
	repo := newMemorySubmissionRepo()
	svc, _ := newTestService(repo)

	sub, err := svc.Create(context.Background(), CreateSubmissionRequest{
		DriverID:       ptr(1),
		SubmissionType: TypeCash,
		Amount:         dec("100"),
		Details:        json.RawMessage(`{"recipientName":"office"}`),
	})
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), sub.ID, 9, "")
	require.ErrorIs(t, err, shared.ErrMissingReason)

	rejected, err := svc.Reject(context.Background(), sub.ID, 9, "amount does not match float")
	require.NoError(t, err)
	require.Equal(t, StatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
}

func TestRejectDoesNotTouchPenalties(t *testing.T) {
	repo := newMemorySubmissionRepo()
	repo.penalties = []penalties.Penalty{
		{ID: 1, DriverID: 1, Amount: dec("300"), Balance: dec("300")},
	}
	svc, _ := newTestService(repo)

	sub, err := svc.Create(context.Background(), CreateSubmissionRequest{
		DriverID:       ptr(1),
		SubmissionType: TypeCash,
		Amount:         dec("600"),
		Details:        json.RawMessage(`{"recipientName":"office"}`),
	})
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), sub.ID, 9, "not received")
	require.NoError(t, err)
	require.True(t, repo.penalties[0].Balance.Equal(dec("300")))
}

func TestAmendOnlyWhilePending(t *testing.T) {
	repo := newMemorySubmissionRepo()
	svc, _ := newTestService(repo)

	sub, err := svc.Create(context.Background(), CreateSubmissionRequest{
		DriverID:       ptr(1),
		SubmissionType: TypeCash,
		Amount:         dec("100"),
		Details:        json.RawMessage(`{"recipientName":"office"}`),
	})
	require.NoError(t, err)

	newAmount := dec("150")
	amended, err := svc.Amend(context.Background(), sub.ID, AmendSubmissionRequest{Amount: &newAmount})
	require.NoError(t, err)
	require.True(t, amended.Amount.Equal(newAmount))

	_, _, err = svc.Approve(context.Background(), sub.ID, 9)
	require.NoError(t, err)

	_, err = svc.Amend(context.Background(), sub.ID, AmendSubmissionRequest{Amount: &newAmount})
	require.ErrorIs(t, err, shared.ErrInvalidStateTransition)
}

func TestListCountsPerStatus(t *testing.T) {
	repo := newMemorySubmissionRepo()
	svc, _ := newTestService(repo)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), CreateSubmissionRequest{
			DriverID:       ptr(1),
			SubmissionType: TypeCash,
			Amount:         dec("100"),
			Details:        json.RawMessage(`{"recipientName":"office"}`),
		})
		require.NoError(t, err)
	}
	_, _, err := svc.Approve(context.Background(), 1, 9)
	require.NoError(t, err)
	_, err = svc.Reject(context.Background(), 2, 9, "duplicate")
	require.NoError(t, err)

	subs, counts, err := svc.List(context.Background(), ListSubmissionsRequest{DriverID: 1})
	require.NoError(t, err)
	require.Len(t, subs, 3)
	require.Equal(t, StatusCounts{Pending: 1, Approved: 1, Rejected: 1}, counts)
}
