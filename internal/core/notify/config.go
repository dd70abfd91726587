package notify

import (
	"math/rand/v2"
	"time"
)

// PortfolioConfig tunes the portfolio value monitor. Thresholds are absolute
// percentages compared with a strict greater-than.
type PortfolioConfig struct {
	Baseline  float64
	Noise     float64
	AlertPct  float64
	UrgentPct float64
}

// MarketConfig tunes the market movement monitor.
type MarketConfig struct {
	AlertPct  float64
	UrgentPct float64
}

// Config controls producer cadence and alert thresholds.
type Config struct {
	GenerateInterval  time.Duration
	PortfolioInterval time.Duration
	MarketInterval    time.Duration
	Portfolio         PortfolioConfig
	Market            MarketConfig
}

// DefaultConfig returns the stock producer settings.
func DefaultConfig() Config {
	return Config{
		GenerateInterval:  30 * time.Second,
		PortfolioInterval: 60 * time.Second,
		MarketInterval:    45 * time.Second,
		Portfolio: PortfolioConfig{
			Baseline:  125000,
			Noise:     5000,
			AlertPct:  2,
			UrgentPct: 5,
		},
		Market: MarketConfig{
			AlertPct:  5,
			UrgentPct: 10,
		},
	}
}

// Options carries injectable collaborators. Zero values select the real
// clock, a randomly seeded source and no sound.
type Options struct {
	Now   func() time.Time
	Seed  uint64
	Sound SoundInitFunc
}

func (o Options) clock() func() time.Time {
	if o.Now != nil {
		return o.Now
	}
	return time.Now
}

// rng returns an independent source per producer; rand.Rand is not safe for
// concurrent use and producers tick on their own goroutines.
func (o Options) rng(stream uint64) *rand.Rand {
	seed := o.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, stream))
}
