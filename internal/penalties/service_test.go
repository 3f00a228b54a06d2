package penalties

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dialadrink/ledger/internal/shared"
)

type memoryPenaltyRepo struct {
	drivers   map[int64]bool
	penalties map[int64]Penalty
	nextID    int64
}

func newMemoryPenaltyRepo() *memoryPenaltyRepo {
	return &memoryPenaltyRepo{
		drivers:   map[int64]bool{7: true},
		penalties: make(map[int64]Penalty),
	}
}

func (r *memoryPenaltyRepo) DriverExists(ctx context.Context, driverID int64) (bool, error) {
	return r.drivers[driverID], nil
}

func (r *memoryPenaltyRepo) Create(ctx context.Context, driverID int64, amount decimal.Decimal, reason string, createdBy int64) (Penalty, error) {
	r.nextID++
	p := Penalty{
		ID:        r.nextID,
		DriverID:  driverID,
		Amount:    amount,
		Balance:   amount,
		Reason:    reason,
		CreatedBy: &createdBy,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	r.penalties[p.ID] = p
	return p, nil
}

func (r *memoryPenaltyRepo) Get(ctx context.Context, id int64) (Penalty, error) {
	p, ok := r.penalties[id]
	if !ok {
		return Penalty{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *memoryPenaltyRepo) ListByDriver(ctx context.Context, driverID int64) ([]Penalty, error) {
	var out []Penalty
	for id := int64(1); id <= r.nextID; id++ {
		if p, ok := r.penalties[id]; ok && p.DriverID == driverID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memoryPenaltyRepo) OpenBalance(ctx context.Context, driverID int64) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range r.penalties {
		if p.DriverID == driverID && p.Balance.IsPositive() {
			total = total.Add(p.Balance)
		}
	}
	return total, nil
}

type recordedEvents struct {
	created []int64
}

func (e *recordedEvents) PenaltyCreated(ctx context.Context, penaltyID, driverID int64, amount decimal.Decimal, reason string) {
	e.created = append(e.created, penaltyID)
}

func TestCreatePenaltyStartsFullyOpen(t *testing.T) {
	repo := newMemoryPenaltyRepo()
	events := &recordedEvents{}
	svc := NewService(repo, nil, events, time.Second)

	p, err := svc.Create(context.Background(), 7, CreatePenaltyRequest{
		Amount:    dec("800"),
		Reason:    "lost delivery float",
		CreatedBy: 3,
	})
	require.NoError(t, err)
	require.True(t, p.Balance.Equal(p.Amount))
	require.True(t, p.Open())
	require.Equal(t, []int64{p.ID}, events.created)
}

func TestCreatePenaltyRejectsNonPositiveAmount(t *testing.T) {
	svc := NewService(newMemoryPenaltyRepo(), nil, nil, time.Second)

	_, err := svc.Create(context.Background(), 7, CreatePenaltyRequest{
		Amount:    dec("0"),
		Reason:    "anything",
		CreatedBy: 3,
	})
	require.ErrorIs(t, err, shared.ErrInvalidAmount)

	_, err = svc.Create(context.Background(), 7, CreatePenaltyRequest{
		Amount:    dec("-50"),
		Reason:    "anything",
		CreatedBy: 3,
	})
	require.ErrorIs(t, err, shared.ErrInvalidAmount)
}

func TestCreatePenaltyRequiresReason(t *testing.T) {
	svc := NewService(newMemoryPenaltyRepo(), nil, nil, time.Second)

	_, err := svc.Create(context.Background(), 7, CreatePenaltyRequest{
		Amount:    dec("100"),
		CreatedBy: 3,
	})
	require.ErrorIs(t, err, shared.ErrMissingReason)
}

func TestListByDriverTotals(t *testing.T) {
	repo := newMemoryPenaltyRepo()
	svc := NewService(repo, nil, nil, time.Second)

	p1, err := svc.Create(context.Background(), 7, CreatePenaltyRequest{Amount: dec("300"), Reason: "breakage", CreatedBy: 3})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), 7, CreatePenaltyRequest{Amount: dec("500"), Reason: "shortfall", CreatedBy: 3})
	require.NoError(t, err)

	// Settle the first one partially, as an approval transaction would.
	p1.Balance = dec("100")
	repo.penalties[p1.ID] = p1

	sum, err := svc.ListByDriver(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, sum.Penalties, 2)
	require.True(t, sum.TotalIssued.Equal(dec("800")))
	require.True(t, sum.OpenBalance.Equal(dec("600")))
	require.True(t, sum.TotalSettled.Equal(dec("200")))
}

func TestCreatePenaltyUnknownDriver(t *testing.T) {
	svc := NewService(newMemoryPenaltyRepo(), nil, nil, time.Second)

	_, err := svc.Create(context.Background(), 99, CreatePenaltyRequest{
		Amount:    dec("100"),
		Reason:    "shortfall",
		CreatedBy: 3,
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetUnknownPenalty(t *testing.T) {
	svc := NewService(newMemoryPenaltyRepo(), nil, nil, time.Second)

	_, err := svc.Get(context.Background(), 42)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
