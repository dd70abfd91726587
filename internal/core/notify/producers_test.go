package notify

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu       sync.Mutex
	records  []Record
	disabled bool
}

func (s *recordingSink) AddNotification(_ context.Context, r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
}

func (s *recordingSink) Enabled() bool { return !s.disabled }

func seeded(n uint64) *rand.Rand { return rand.New(rand.NewPCG(n, n)) }

func TestRandomGenerator(t *testing.T) {
	clock := newFakeClock()
	sink := &recordingSink{}
	g := newRandomGenerator(sink, seeded(7), clock.Now)

	for range 200 {
		g.Tick(context.Background())
	}

	require.Len(t, sink.records, 200)

	kinds := map[Type]int{}
	for _, r := range sink.records {
		kinds[r.Type]++
		assert.Equal(t, clock.Now(), r.Timestamp)
		assert.NotEmpty(t, r.Action)
		if r.Type == TypePriceAlert {
			change, ok := r.Data["change"].(float64)
			require.True(t, ok)
			assert.GreaterOrEqual(t, abs(int(change)), 10)
			assert.Less(t, abs(int(change)), 100)
		}
	}
	assert.Len(t, kinds, 4)
	for _, typ := range []Type{TypePriceAlert, TypeMarket, TypeGrading, TypeAchievement} {
		assert.Positive(t, kinds[typ], typ)
	}
}

func TestRandomGenerator_Disabled(t *testing.T) {
	sink := &recordingSink{disabled: true}
	g := newRandomGenerator(sink, seeded(1), newFakeClock().Now)

	for range 10 {
		g.Tick(context.Background())
	}
	assert.Empty(t, sink.records)
}

func TestPortfolioMonitor_Observe(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig().Portfolio

	tests := []struct {
		name      string
		previous  float64
		value     float64
		wantAlert bool
		urgent    bool
	}{
		{name: "small move", previous: 100000, value: 101000},
		{name: "exactly alert threshold", previous: 100000, value: 102000},
		{name: "alert", previous: 100000, value: 103000, wantAlert: true},
		{name: "drop alert", previous: 100000, value: 97000, wantAlert: true},
		{name: "exactly urgent threshold", previous: 100000, value: 105000, wantAlert: true},
		{name: "urgent", previous: 100000, value: 106000, wantAlert: true, urgent: true},
		{name: "urgent drop", previous: 100000, value: 90000, wantAlert: true, urgent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			m := newPortfolioMonitor(sink, cfg, seeded(1))

			_, alerted := m.Observe(ctx, tt.previous)
			assert.False(t, alerted, "first observation only records")

			r, alerted := m.Observe(ctx, tt.value)
			assert.Equal(t, tt.wantAlert, alerted)
			assert.Equal(t, tt.value, m.Last())
			if !tt.wantAlert {
				assert.Empty(t, sink.records)
				return
			}

			require.Len(t, sink.records, 1)
			assert.Equal(t, TypePortfolio, r.Type)
			assert.Equal(t, tt.urgent, r.Urgent)
			assert.Equal(t, tt.value, r.Data["value"])
			assert.Equal(t, tt.previous, r.Data["previous"])
			assert.InDelta(t, (tt.value-tt.previous)*100/tt.previous, r.Data["change"], 1e-9)
		})
	}
}

func TestPortfolioMonitor_SampleRange(t *testing.T) {
	cfg := DefaultConfig().Portfolio
	m := newPortfolioMonitor(&recordingSink{}, cfg, seeded(3))

	for range 1000 {
		v := m.Sample()
		assert.GreaterOrEqual(t, v, cfg.Baseline-cfg.Noise)
		assert.LessOrEqual(t, v, cfg.Baseline+cfg.Noise)
	}
}

func TestPortfolioMonitor_TickRecordsValue(t *testing.T) {
	m := newPortfolioMonitor(&recordingSink{}, DefaultConfig().Portfolio, seeded(3))
	assert.Zero(t, m.Last())

	m.Tick(context.Background())
	assert.NotZero(t, m.Last())
}

func TestMarketMonitor_Observe(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig().Market

	tests := []struct {
		mv        Movement
		wantAlert bool
		urgent    bool
	}{
		{mv: Movement{"Basketball", 8.5}, wantAlert: true},
		{mv: Movement{"Football", -3.2}},
		{mv: Movement{"Baseball", 12.3}, wantAlert: true, urgent: true},
		{mv: Movement{"Hockey", 5}},
		{mv: Movement{"Soccer", -10}, wantAlert: true},
		{mv: Movement{"Soccer", -10.1}, wantAlert: true, urgent: true},
	}

	for _, tt := range tests {
		t.Run(tt.mv.Category, func(t *testing.T) {
			sink := &recordingSink{}
			m := newMarketMonitor(sink, cfg, seeded(1))

			r, alerted := m.Observe(ctx, tt.mv)
			assert.Equal(t, tt.wantAlert, alerted)
			if !tt.wantAlert {
				assert.Empty(t, sink.records)
				return
			}
			assert.Equal(t, TypeMarket, r.Type)
			assert.Equal(t, tt.urgent, r.Urgent)
			assert.Equal(t, tt.mv.Category, r.Data["category"])
			assert.Equal(t, tt.mv.Change, r.Data["change"])
		})
	}
}

func TestMarketMonitor_Tick(t *testing.T) {
	sink := &recordingSink{}
	m := newMarketMonitor(sink, DefaultConfig().Market, seeded(9))

	for range 300 {
		m.Tick(context.Background())
	}

	categories := map[string]bool{}
	for _, r := range sink.records {
		categories[r.Data["category"].(string)] = true
	}
	// Football never crosses the alert threshold.
	assert.Equal(t, map[string]bool{"Basketball": true, "Baseball": true}, categories)
}
