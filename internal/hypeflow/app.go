// Package hypeflow wires the notification engine, the entitlement gate and
// their collaborators into a single App.
package hypeflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/config"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/entitlement"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/kv"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/logging"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/notify"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/payment"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/profile"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/schedule"
)

// TaskSweep is the name of the expired-key sweep task.
const TaskSweep = "kv.sweep"

// ErrLimitReached is returned when the gate denies a metered action.
var ErrLimitReached = errors.New("daily limit reached")

// LimitError carries the action and tier that hit a quota.
type LimitError struct {
	Action string
	Tier   entitlement.Name
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s: %s on the %s plan", ErrLimitReached, e.Action, e.Tier)
}

func (e *LimitError) Unwrap() error { return ErrLimitReached }

// Sweeper removes expired keys from a store.
type Sweeper interface {
	SweepExpired(ctx context.Context) error
}

// App is the central entry point for all hypeflow operations.
// Commands consume App instead of cherry-picking raw dependencies.
type App struct {
	Config        *config.Config
	Store         kv.KV
	Profiles      *profile.Store
	Notifications *notify.Engine
	Gate          *entitlement.Gate
	Payments      payment.Gateway

	tasks *schedule.Group
}

// Options overrides collaborators, mainly for tests.
type Options struct {
	Sound    notify.SoundInitFunc
	Payments payment.Gateway
	Now      func() time.Time
	Seed     uint64
}

// EngineConfig converts the notification section of cfg for the engine.
func EngineConfig(cfg *config.Config) notify.Config {
	n := cfg.Notifications
	return notify.Config{
		GenerateInterval:  n.GenerateInterval,
		PortfolioInterval: n.PortfolioInterval,
		MarketInterval:    n.MarketInterval,
		Portfolio: notify.PortfolioConfig{
			Baseline:  n.Portfolio.Baseline,
			Noise:     n.Portfolio.Noise,
			AlertPct:  n.Portfolio.AlertPct,
			UrgentPct: n.Portfolio.UrgentPct,
		},
		Market: notify.MarketConfig{
			AlertPct:  n.Market.AlertPct,
			UrgentPct: n.Market.UrgentPct,
		},
	}
}

// New constructs an App over store and binds the gate to the signed-in user,
// if any.
func New(ctx context.Context, cfg *config.Config, store kv.KV, opts Options) (*App, error) {
	payments := opts.Payments
	if payments == nil {
		payments = payment.NewSimulated(payment.SimulatedOptions{
			Delay:       cfg.Billing.PaymentDelay,
			SuccessRate: cfg.Billing.SuccessRate,
			Now:         opts.Now,
		})
	}

	profiles := profile.NewStore(store)
	if opts.Now != nil {
		profiles.WithClock(opts.Now)
	}

	engine := notify.NewEngine(ctx, store, EngineConfig(cfg), logging.Component("notify"), notify.Options{
		Now:   opts.Now,
		Seed:  opts.Seed,
		Sound: opts.Sound,
	})

	gate := entitlement.NewGate(store, profiles, payments, logging.Component("entitlement"), entitlement.Options{
		Now:      opts.Now,
		Notifier: engine,
		UsageTTL: cfg.Billing.UsageTTL,
	})

	app := &App{
		Config:        cfg,
		Store:         store,
		Profiles:      profiles,
		Notifications: engine,
		Gate:          gate,
		Payments:      payments,
		tasks:         &schedule.Group{},
	}

	if err := app.Refresh(ctx); err != nil {
		return nil, err
	}
	return app, nil
}

// Refresh rebinds the gate to the user currently signed in.
func (a *App) Refresh(ctx context.Context) error {
	u, err := a.Profiles.CurrentUser(ctx)
	switch {
	case err == nil:
		a.Gate.Initialize(u)
	case errors.Is(err, profile.ErrNoUser):
		a.Gate.Initialize(nil)
	default:
		return fmt.Errorf("load current user: %w", err)
	}
	return nil
}

// Login signs in and binds the gate to the user.
func (a *App) Login(ctx context.Context, id, name string) (*profile.User, error) {
	u, err := a.Profiles.Login(ctx, id, name)
	if err != nil {
		return nil, err
	}
	a.Gate.Initialize(u)
	return u, nil
}

// Logout signs out and unbinds the gate.
func (a *App) Logout(ctx context.Context) error {
	if err := a.Profiles.Logout(ctx); err != nil {
		return err
	}
	a.Gate.Initialize(nil)
	return nil
}

// Use runs a metered action: the gate is consulted, perform is called, and
// the daily counter for feature is incremented only when perform succeeds.
// It returns today's usage after the increment.
func (a *App) Use(ctx context.Context, action, feature string, perform func(ctx context.Context) error) (int, error) {
	if !a.Profiles.IsAuthenticated(ctx) {
		return 0, entitlement.ErrNotAuthenticated
	}

	ctx = logging.WithOperation(ctx, action)
	if !a.Gate.CanPerformAction(ctx, action) {
		return a.Gate.DailyUsage(ctx, feature), &LimitError{Action: action, Tier: a.Gate.CurrentSubscription().Name}
	}

	if err := perform(ctx); err != nil {
		return a.Gate.DailyUsage(ctx, feature), err
	}
	return a.Gate.IncrementDailyUsage(ctx, feature), nil
}

// AddPortfolioCard adds cardID if the portfolio quota allows it.
func (a *App) AddPortfolioCard(ctx context.Context, cardID string) (*profile.User, error) {
	if !a.Profiles.IsAuthenticated(ctx) {
		return nil, entitlement.ErrNotAuthenticated
	}

	if !a.Gate.CanPerformAction(ctx, entitlement.ActionAddPortfolioCard) {
		return nil, &LimitError{Action: entitlement.ActionAddPortfolioCard, Tier: a.Gate.CurrentSubscription().Name}
	}

	u, err := a.Profiles.AddPortfolioCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	a.Gate.Initialize(u)
	return u, nil
}

// StartSweep periodically removes expired keys when the store supports it.
func (a *App) StartSweep(ctx context.Context) {
	sweeper, ok := a.Store.(Sweeper)
	if !ok {
		return
	}

	logger := logging.Component("sweep")
	a.tasks.Add(schedule.Start(ctx, schedule.Task{
		Name:     TaskSweep,
		Interval: a.Config.Billing.SweepInterval,
		Run: func(ctx context.Context) {
			if err := sweeper.SweepExpired(ctx); err != nil {
				logger.Warn().Err(err).Msg("kv sweep failed")
			}
		},
	}, logger))
}

// Close stops background tasks and notification producers.
func (a *App) Close() {
	a.tasks.StopAll()
	a.Notifications.Stop()
}
