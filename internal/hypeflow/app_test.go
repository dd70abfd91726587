package hypeflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/config"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/entitlement"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/kv"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/notify"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/payment"
)

type approveAll struct{}

func (approveAll) Charge(_ context.Context, c payment.Charge) (payment.Receipt, error) {
	return payment.Receipt{TransactionID: "txn_ok", Amount: c.Amount}, nil
}

func newTestApp(t *testing.T, store kv.KV) *App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()

	app, err := New(context.Background(), &cfg, store, Options{Payments: approveAll{}, Seed: 1})
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app
}

func TestNew_BindsSignedInUser(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()

	first := newTestApp(t, store)
	assert.Nil(t, first.Gate.User())

	_, err := first.Login(ctx, "u1", "Ada")
	require.NoError(t, err)
	_, err = first.Gate.UpgradeSubscription(ctx, entitlement.Pro, "stripe")
	require.NoError(t, err)

	second := newTestApp(t, store)
	require.NotNil(t, second.Gate.User())
	assert.Equal(t, entitlement.Pro, second.Gate.CurrentSubscription().Name)
}

func TestLogout_UnbindsGate(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t, kv.NewMemory())

	_, err := app.Login(ctx, "u1", "Ada")
	require.NoError(t, err)
	require.NoError(t, app.Logout(ctx))

	assert.Nil(t, app.Gate.User())
	assert.Equal(t, entitlement.Free, app.Gate.CurrentSubscription().Name)
}

func TestUse_EnforcesQuota(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t, kv.NewMemory())

	_, err := app.Use(ctx, entitlement.ActionGradeCard, entitlement.UsageGradings, func(context.Context) error { return nil })
	require.ErrorIs(t, err, entitlement.ErrNotAuthenticated)

	_, err = app.Login(ctx, "u1", "Ada")
	require.NoError(t, err)

	performed := 0
	perform := func(context.Context) error { performed++; return nil }

	for i := 1; i <= 5; i++ {
		used, err := app.Use(ctx, entitlement.ActionGradeCard, entitlement.UsageGradings, perform)
		require.NoError(t, err)
		assert.Equal(t, i, used)
	}

	used, err := app.Use(ctx, entitlement.ActionGradeCard, entitlement.UsageGradings, perform)
	require.ErrorIs(t, err, ErrLimitReached)
	var limitErr *LimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, entitlement.Free, limitErr.Tier)
	assert.Equal(t, 5, used)
	assert.Equal(t, 5, performed)
}

func TestUse_FailedActionNotCounted(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t, kv.NewMemory())
	_, err := app.Login(ctx, "u1", "Ada")
	require.NoError(t, err)

	boom := errors.New("boom")
	used, err := app.Use(ctx, entitlement.ActionAskOracle, entitlement.UsageOracle, func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	assert.Zero(t, used)
}

func TestAddPortfolioCard(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t, kv.NewMemory())

	_, err := app.AddPortfolioCard(ctx, "c1")
	require.ErrorIs(t, err, entitlement.ErrNotAuthenticated)

	_, err = app.Login(ctx, "u1", "Ada")
	require.NoError(t, err)

	u, err := app.AddPortfolioCard(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, u.PortfolioSize())
	assert.Equal(t, 1, app.Gate.UsageStats(ctx).Portfolio.Used)
}

func TestUpgrade_NotifiesEngine(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t, kv.NewMemory())
	_, err := app.Login(ctx, "u1", "Ada")
	require.NoError(t, err)

	_, err = app.Gate.UpgradeSubscription(ctx, entitlement.Elite, "stripe")
	require.NoError(t, err)

	latest := app.Notifications.Notifications(1)[0]
	assert.Equal(t, notify.TypeAchievement, latest.Type)
	assert.Equal(t, "elite", latest.Data["tier"])
}

type sweepCounter struct {
	*kv.Memory
	sweeps chan struct{}
}

func (s *sweepCounter) SweepExpired(ctx context.Context) error {
	select {
	case s.sweeps <- struct{}{}:
	default:
	}
	return s.Memory.SweepExpired(ctx)
}

func TestStartSweep(t *testing.T) {
	store := &sweepCounter{Memory: kv.NewMemory(), sweeps: make(chan struct{}, 1)}
	app := newTestApp(t, store)
	app.Config.Billing.SweepInterval = 5 * time.Millisecond

	app.StartSweep(context.Background())

	select {
	case <-store.sweeps:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep never ran")
	}
	app.Close()
}

func TestEngineConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	got := EngineConfig(&cfg)
	assert.Equal(t, notify.DefaultConfig(), got)
}
