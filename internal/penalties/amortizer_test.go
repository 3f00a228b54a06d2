package penalties

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type memoryTxStore struct {
	penalties []Penalty
	failOn    int64
}

func (s *memoryTxStore) ListOpenForUpdate(ctx context.Context, driverID int64) ([]Penalty, error) {
	var out []Penalty
	for _, p := range s.penalties {
		if p.DriverID == driverID && p.Balance.IsPositive() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memoryTxStore) ReduceBalance(ctx context.Context, penaltyID int64, by decimal.Decimal) error {
	if s.failOn == penaltyID {
		return errors.New("boom")
	}
	for i := range s.penalties {
		if s.penalties[i].ID == penaltyID {
			s.penalties[i].Balance = s.penalties[i].Balance.Sub(by)
			return nil
		}
	}
	return errors.New("penalty not found")
}

func dec(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

func TestAmortizeOldestFirst(t *testing.T) {
	store := &memoryTxStore{penalties: []Penalty{
		{ID: 1, DriverID: 7, Amount: dec("300"), Balance: dec("300")},
		{ID: 2, DriverID: 7, Amount: dec("500"), Balance: dec("500")},
	}}

	res, err := Amortize(context.Background(), store, 7, dec("400"))
	require.NoError(t, err)
	require.True(t, res.Applied.Equal(dec("400")))
	require.True(t, res.Remainder.IsZero())

	require.True(t, store.penalties[0].Balance.IsZero(), "oldest penalty should be cleared first")
	require.True(t, store.penalties[1].Balance.Equal(dec("400")))
}

func TestAmortizeSurplusFlowsToWallet(t *testing.T) {
	store := &memoryTxStore{penalties: []Penalty{
		{ID: 1, DriverID: 7, Amount: dec("250"), Balance: dec("250")},
	}}

	res, err := Amortize(context.Background(), store, 7, dec("1000"))
	require.NoError(t, err)
	require.True(t, res.Applied.Equal(dec("250")))
	require.True(t, res.Remainder.Equal(dec("750")))
	require.True(t, res.Applied.Add(res.Remainder).Equal(dec("1000")), "no money may appear or vanish")
}

func TestAmortizeSkipsOtherDrivers(t *testing.T) {
	store := &memoryTxStore{penalties: []Penalty{
		{ID: 1, DriverID: 9, Amount: dec("100"), Balance: dec("100")},
	}}

	res, err := Amortize(context.Background(), store, 7, dec("100"))
	require.NoError(t, err)
	require.True(t, res.Applied.IsZero())
	require.True(t, res.Remainder.Equal(dec("100")))
	require.True(t, store.penalties[0].Balance.Equal(dec("100")))
}

func TestAmortizeZeroIncomingIsNoop(t *testing.T) {
	store := &memoryTxStore{penalties: []Penalty{
		{ID: 1, DriverID: 7, Amount: dec("100"), Balance: dec("100")},
	}}

	res, err := Amortize(context.Background(), store, 7, decimal.Zero)
	require.NoError(t, err)
	require.True(t, res.Applied.IsZero())
	require.True(t, res.Remainder.IsZero())
}

func TestAmortizeStopsOnStorageError(t *testing.T) {
	store := &memoryTxStore{
		penalties: []Penalty{
			{ID: 1, DriverID: 7, Amount: dec("100"), Balance: dec("100")},
			{ID: 2, DriverID: 7, Amount: dec("100"), Balance: dec("100")},
		},
		failOn: 2,
	}

	_, err := Amortize(context.Background(), store, 7, dec("200"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "reduce balance")
}
