package payment

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulated_AlwaysApproves(t *testing.T) {
	gw := NewSimulated(SimulatedOptions{SuccessRate: 1, Seed: 3})

	receipt, err := gw.Charge(context.Background(), Charge{Tier: "pro", Amount: 2999, Method: "card"})
	require.NoError(t, err)

	assert.Equal(t, int64(2999), receipt.Amount)
	require.True(t, strings.HasPrefix(receipt.TransactionID, "txn_"))
	_, err = uuid.Parse(strings.TrimPrefix(receipt.TransactionID, "txn_"))
	assert.NoError(t, err)
}

func TestSimulated_AlwaysDeclines(t *testing.T) {
	gw := NewSimulated(SimulatedOptions{SuccessRate: 0, Seed: 3})

	_, err := gw.Charge(context.Background(), Charge{Tier: "pro", Amount: 2999})
	require.ErrorIs(t, err, ErrDeclined)
	assert.Equal(t, "Payment failed. Please try again.", err.Error())
}

func TestSimulated_SuccessRate(t *testing.T) {
	gw := NewSimulated(SimulatedOptions{SuccessRate: 0.9, Seed: 11})

	approved := 0
	for range 2000 {
		if _, err := gw.Charge(context.Background(), Charge{}); err == nil {
			approved++
		}
	}
	assert.InDelta(t, 1800, approved, 100)
}

func TestSimulated_UniqueTransactionIDs(t *testing.T) {
	gw := NewSimulated(SimulatedOptions{SuccessRate: 1})

	seen := map[string]bool{}
	for range 50 {
		r, err := gw.Charge(context.Background(), Charge{})
		require.NoError(t, err)
		assert.False(t, seen[r.TransactionID])
		seen[r.TransactionID] = true
	}
}

func TestSimulated_HonorsContext(t *testing.T) {
	gw := NewSimulated(SimulatedOptions{Delay: time.Hour, SuccessRate: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := gw.Charge(ctx, Charge{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSimulated_WaitsForDelay(t *testing.T) {
	gw := NewSimulated(SimulatedOptions{Delay: 20 * time.Millisecond, SuccessRate: 1})

	start := time.Now()
	_, err := gw.Charge(context.Background(), Charge{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestDefaultSimulatedOptions(t *testing.T) {
	opts := DefaultSimulatedOptions()
	assert.Equal(t, 2*time.Second, opts.Delay)
	assert.InDelta(t, 0.9, opts.SuccessRate, 1e-9)
}
