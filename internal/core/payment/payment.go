// Package payment charges for subscription upgrades.
package payment

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrDeclined is returned when the processor rejects a charge.
var ErrDeclined = errors.New("Payment failed. Please try again.") //nolint:staticcheck // user-facing message

// Charge describes a payment request. Amount is in cents.
type Charge struct {
	UserID string
	Tier   string
	Amount int64
	Method string
}

// Receipt is the result of a successful charge.
type Receipt struct {
	TransactionID string
	Amount        int64
	ChargedAt     time.Time
}

// Gateway charges a payment method.
type Gateway interface {
	Charge(ctx context.Context, c Charge) (Receipt, error)
}

// SimulatedOptions configures the Simulated gateway.
type SimulatedOptions struct {
	Delay       time.Duration
	SuccessRate float64
	Seed        uint64
	Now         func() time.Time
}

// DefaultSimulatedOptions mirrors a slow processor with a 10% decline rate.
func DefaultSimulatedOptions() SimulatedOptions {
	return SimulatedOptions{
		Delay:       2 * time.Second,
		SuccessRate: 0.9,
	}
}

// Simulated is a Gateway that waits a fixed delay and then succeeds with
// probability SuccessRate.
type Simulated struct {
	delay time.Duration
	rate  float64
	now   func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

var _ Gateway = (*Simulated)(nil)

// NewSimulated creates a simulated gateway.
func NewSimulated(opts SimulatedOptions) *Simulated {
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Simulated{
		delay: opts.Delay,
		rate:  opts.SuccessRate,
		now:   now,
		rng:   rand.New(rand.NewPCG(seed, seed>>1)),
	}
}

// Charge waits for the configured delay, honoring ctx, and then approves or
// declines the charge.
func (s *Simulated) Charge(ctx context.Context, c Charge) (Receipt, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return Receipt{}, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	s.mu.Lock()
	roll := s.rng.Float64()
	s.mu.Unlock()

	if roll >= s.rate {
		return Receipt{}, ErrDeclined
	}

	return Receipt{
		TransactionID: "txn_" + uuid.NewString(),
		Amount:        c.Amount,
		ChargedAt:     s.now(),
	}, nil
}
