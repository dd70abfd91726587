package notify

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// sink is the subset of Engine the producers depend on.
type sink interface {
	AddNotification(ctx context.Context, r Record)
	Enabled() bool
}

// RandomGenerator emits one of a fixed set of sample notifications per tick
// while the engine is enabled.
type RandomGenerator struct {
	sink sink
	now  func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

func newRandomGenerator(s sink, rng *rand.Rand, now func() time.Time) *RandomGenerator {
	return &RandomGenerator{sink: s, rng: rng, now: now}
}

type template func(rng *rand.Rand) Record

var templates = []template{
	func(rng *rand.Rand) Record {
		change := 10 + rng.IntN(30)
		direction := "up"
		if rng.IntN(2) == 0 {
			direction = "down"
			change = -change
		}
		return Record{
			Type:    TypePriceAlert,
			Title:   "Price Alert: LeBron James Rookie",
			Message: fmt.Sprintf("2003 Topps Chrome #111 is %s %d%% today", direction, abs(change)),
			Urgent:  true,
			Action:  "view_card",
			Data:    map[string]any{"card_id": "lebron-2003-topps-chrome-111", "change": float64(change)},
		}
	},
	func(*rand.Rand) Record {
		return Record{
			Type:    TypeMarket,
			Title:   "Weekly Market Summary",
			Message: "Basketball cards led the market this week",
			Action:  "view_market",
			Data:    map[string]any{"category": "basketball"},
		}
	},
	func(*rand.Rand) Record {
		return Record{
			Type:    TypeGrading,
			Title:   "Grading Update",
			Message: "Your submission has moved to the grading stage",
			Action:  "view_grading",
			Data:    map[string]any{"status": "grading"},
		}
	},
	func(*rand.Rand) Record {
		return Record{
			Type:    TypeAchievement,
			Title:   "Achievement Unlocked",
			Message: "Market Watcher: checked prices 7 days in a row",
			Action:  "view_achievements",
			Data:    map[string]any{"achievement": "market_watcher_7"},
		}
	},
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Tick emits a random notification unless the engine is disabled.
func (g *RandomGenerator) Tick(ctx context.Context) {
	if !g.sink.Enabled() {
		return
	}

	g.mu.Lock()
	r := templates[g.rng.IntN(len(templates))](g.rng)
	g.mu.Unlock()

	r.Timestamp = g.now()
	g.sink.AddNotification(ctx, r)
}

// PortfolioMonitor samples a simulated portfolio value and alerts on large
// moves relative to the previous sample.
type PortfolioMonitor struct {
	sink sink
	cfg  PortfolioConfig

	mu   sync.Mutex
	rng  *rand.Rand
	last float64
}

func newPortfolioMonitor(s sink, cfg PortfolioConfig, rng *rand.Rand) *PortfolioMonitor {
	return &PortfolioMonitor{sink: s, cfg: cfg, rng: rng}
}

// Sample draws a value uniformly within Noise of Baseline.
func (m *PortfolioMonitor) Sample() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.Baseline + (m.rng.Float64()*2-1)*m.cfg.Noise
}

// Tick observes a fresh sample.
func (m *PortfolioMonitor) Tick(ctx context.Context) {
	m.Observe(ctx, m.Sample())
}

// Last returns the previously observed value, zero before the first
// observation.
func (m *PortfolioMonitor) Last() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Observe records value and emits a portfolio alert when the change from the
// previous value exceeds AlertPct. The first observation only records.
// It returns the emitted record, if any.
func (m *PortfolioMonitor) Observe(ctx context.Context, value float64) (Record, bool) {
	m.mu.Lock()
	previous := m.last
	m.last = value
	m.mu.Unlock()

	if previous == 0 {
		return Record{}, false
	}

	pct := (value - previous) * 100 / previous
	if math.Abs(pct) <= m.cfg.AlertPct {
		return Record{}, false
	}

	direction := "up"
	if pct < 0 {
		direction = "down"
	}

	r := Record{
		Type:    TypePortfolio,
		Title:   "Portfolio Alert",
		Message: fmt.Sprintf("Your portfolio is %s %.2f%% to $%.2f", direction, math.Abs(pct), value),
		Urgent:  math.Abs(pct) > m.cfg.UrgentPct,
		Action:  "view_portfolio",
		Data: map[string]any{
			"change":   pct,
			"value":    value,
			"previous": previous,
		},
	}
	m.sink.AddNotification(ctx, r)
	return r, true
}

// Movement is a category price move in percent.
type Movement struct {
	Category string
	Change   float64
}

// Movements are the canned market moves the monitor chooses from.
var Movements = []Movement{
	{Category: "Basketball", Change: 8.5},
	{Category: "Football", Change: -3.2},
	{Category: "Baseball", Change: 12.3},
}

// MarketMonitor picks a market movement per tick and alerts on large ones.
type MarketMonitor struct {
	sink sink
	cfg  MarketConfig

	mu  sync.Mutex
	rng *rand.Rand
}

func newMarketMonitor(s sink, cfg MarketConfig, rng *rand.Rand) *MarketMonitor {
	return &MarketMonitor{sink: s, cfg: cfg, rng: rng}
}

// Tick observes one of Movements chosen uniformly.
func (m *MarketMonitor) Tick(ctx context.Context) {
	m.mu.Lock()
	mv := Movements[m.rng.IntN(len(Movements))]
	m.mu.Unlock()

	m.Observe(ctx, mv)
}

// Observe emits a market alert when the move exceeds AlertPct.
func (m *MarketMonitor) Observe(ctx context.Context, mv Movement) (Record, bool) {
	if math.Abs(mv.Change) <= m.cfg.AlertPct {
		return Record{}, false
	}

	direction := "up"
	if mv.Change < 0 {
		direction = "down"
	}

	r := Record{
		Type:    TypeMarket,
		Title:   "Market Alert: " + mv.Category,
		Message: fmt.Sprintf("%s cards are %s %.1f%% today", mv.Category, direction, math.Abs(mv.Change)),
		Urgent:  math.Abs(mv.Change) > m.cfg.UrgentPct,
		Action:  "view_market",
		Data: map[string]any{
			"category": mv.Category,
			"change":   mv.Change,
		},
	}
	m.sink.AddNotification(ctx, r)
	return r, true
}
