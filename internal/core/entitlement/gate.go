package entitlement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/kv"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/notify"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/payment"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/profile"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/metrics"
	memkv "github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/pkg/kv"
)

// Actions checked by CanPerformAction.
const (
	ActionGradeCard        = "grade_card"
	ActionAskOracle        = "ask_oracle"
	ActionAddPortfolioCard = "add_portfolio_card"
)

// Usage counter features.
const (
	UsageGradings = "gradings"
	UsageOracle   = "oracle"
)

// Recommendation thresholds for heavy usage.
const (
	HeavyGradings  = 20
	HeavyOracle    = 50
	HeavyPortfolio = 100
)

// DefaultUsageTTL keeps yesterday's counters around long enough to inspect
// before the sweep removes them.
const DefaultUsageTTL = 48 * time.Hour

// ErrNotAuthenticated is returned by mutating operations when no user is
// bound or the profile provider reports the session as signed out.
var ErrNotAuthenticated = errors.New("Not authenticated") //nolint:staticcheck // user-facing message

// PaymentError wraps a failed charge.
type PaymentError struct {
	Tier Name
	Err  error
}

func (e *PaymentError) Error() string { return e.Err.Error() }

func (e *PaymentError) Unwrap() error { return e.Err }

// Notifier receives gate events worth surfacing to the user.
type Notifier interface {
	AddNotification(ctx context.Context, r notify.Record)
}

// Result describes a successful tier transition.
type Result struct {
	Tier    Tier             `json:"tier"`
	Receipt *payment.Receipt `json:"receipt,omitempty"`
}

// Options carries optional collaborators.
type Options struct {
	Now      func() time.Time
	Notifier Notifier
	UsageTTL time.Duration
}

// Gate answers capability and quota questions for the bound user, records
// daily usage, and performs tier transitions.
type Gate struct {
	usage    *kv.TypedKV[int]
	profiles profile.Provider
	payments payment.Gateway
	notifier Notifier
	log      zerolog.Logger
	now      func() time.Time
	ttl      time.Duration

	// counts mirrors today's usage counters written this process so a failed
	// write does not lose the increment. Earlier days are dropped on write.
	counts  *memkv.Store[string, int]
	usageMu sync.Mutex

	mu   sync.RWMutex
	user *profile.User
}

// NewGate creates a gate with no bound user.
func NewGate(usage kv.KV, profiles profile.Provider, payments payment.Gateway, logger zerolog.Logger, opts Options) *Gate {
	g := &Gate{
		usage:    kv.Scoped[int](usage, "usage"),
		profiles: profiles,
		payments: payments,
		notifier: opts.Notifier,
		log:      logger,
		now:      opts.Now,
		ttl:      opts.UsageTTL,
		counts:   memkv.New[string, int](),
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.ttl <= 0 {
		g.ttl = DefaultUsageTTL
	}
	return g
}

// Initialize binds the gate to u, replacing any previous binding. A nil user
// unbinds the gate.
func (g *Gate) Initialize(u *profile.User) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.user = u.Clone()
}

// User returns a copy of the bound user, or nil.
func (g *Gate) User() *profile.User {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.user.Clone()
}

func (g *Gate) bound() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.user != nil
}

func (g *Gate) authenticated(ctx context.Context) (*profile.User, bool) {
	u := g.User()
	if u == nil || !g.profiles.IsAuthenticated(ctx) {
		return nil, false
	}
	return u, true
}

// SubscriptionTiers returns the three tier definitions.
func (g *Gate) SubscriptionTiers() []Tier {
	return Tiers()
}

// CurrentSubscription returns the bound user's tier, or Free when no user is
// bound or the stored tier name is not recognized.
func (g *Gate) CurrentSubscription() Tier {
	g.mu.RLock()
	var name Name
	if g.user != nil {
		name = Name(g.user.Subscription)
	}
	g.mu.RUnlock()

	if t, ok := Lookup(name); ok {
		return t
	}
	free, _ := Lookup(Free)
	return free
}

// HasFeatureAccess reports whether the current tier grants feature.
func (g *Gate) HasFeatureAccess(feature string) bool {
	return g.CurrentSubscription().Limits.Allows(feature)
}

// NeedsUpgradeForFeature reports whether the caller must upgrade to use
// feature. Usage is not considered.
func (g *Gate) NeedsUpgradeForFeature(ctx context.Context, feature string) bool {
	if _, ok := g.authenticated(ctx); !ok {
		return true
	}
	return !g.HasFeatureAccess(feature)
}

func (g *Gate) today() string {
	return g.now().Format(time.DateOnly)
}

func usageKey(feature, day string) string {
	return feature + ":" + day
}

// CanPerformAction checks action against the current tier's quotas. Unknown
// actions are always allowed.
func (g *Gate) CanPerformAction(ctx context.Context, action string) bool {
	limits := g.CurrentSubscription().Limits

	var quota Quota
	var used int
	switch action {
	case ActionGradeCard:
		quota = limits.DailyGradings
		if !quota.IsUnlimited() {
			used = g.DailyUsage(ctx, UsageGradings)
		}
	case ActionAskOracle:
		quota = limits.DailyOracleQuestions
		if !quota.IsUnlimited() {
			used = g.DailyUsage(ctx, UsageOracle)
		}
	case ActionAddPortfolioCard:
		quota = limits.PortfolioCards
		used = g.portfolioSize()
	default:
		return true
	}

	if quota.Allows(used) {
		return true
	}

	metrics.ActionDenied(action, string(g.CurrentSubscription().Name))
	g.log.Debug().
		Str("action", action).
		Int("used", used).
		Int("limit", quota.Max()).
		Msg("action denied by quota")
	return false
}

func (g *Gate) portfolioSize() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.user == nil {
		return 0
	}
	return g.user.PortfolioSize()
}

// DailyUsage returns today's count for feature, zero when none is recorded.
func (g *Gate) DailyUsage(ctx context.Context, feature string) int {
	return g.usageOn(ctx, feature, g.today())
}

func (g *Gate) usageOn(ctx context.Context, feature, day string) int {
	key := usageKey(feature, day)
	if n, ok := g.counts.Get(key); ok {
		return n
	}

	n, err := g.usage.GetOr(ctx, key, 0)
	if err != nil {
		g.log.Warn().Err(err).Str("key", key).Msg("failed to read usage counter")
	}
	return n
}

// IncrementDailyUsage adds one to today's counter for feature and returns the
// new count. It is a no-op returning zero when no user is bound. Storage
// failures are logged; the in-process count still advances.
func (g *Gate) IncrementDailyUsage(ctx context.Context, feature string) int {
	if !g.bound() {
		return 0
	}

	day := g.today()
	key := usageKey(feature, day)

	g.usageMu.Lock()
	defer g.usageMu.Unlock()

	g.counts.DeleteFunc(func(k string, _ int) bool {
		return !strings.HasSuffix(k, ":"+day)
	})

	n := g.usageOn(ctx, feature, day) + 1
	g.counts.Set(key, n)

	if err := g.usage.SetTTL(ctx, key, n, g.ttl); err != nil {
		metrics.PersistFailed("usage:" + key)
		g.log.Warn().Err(err).Str("key", key).Msg("failed to persist usage counter")
	}
	metrics.UsageIncrements.WithLabelValues(feature).Inc()
	return n
}

// Usage is one row of UsageStats.
type Usage struct {
	Used      int   `json:"used"`
	Limit     Quota `json:"limit"`
	Unlimited bool  `json:"unlimited"`
}

func newUsage(used int, q Quota) Usage {
	return Usage{Used: used, Limit: q, Unlimited: q.IsUnlimited()}
}

// Remaining returns how many uses are left, or -1 for unlimited quotas.
func (u Usage) Remaining() int {
	if u.Unlimited {
		return -1
	}
	return max(u.Limit.Max()-u.Used, 0)
}

// UsageStats reports today's usage against the current tier's quotas.
type UsageStats struct {
	Gradings  Usage `json:"gradings"`
	Oracle    Usage `json:"oracle"`
	Portfolio Usage `json:"portfolio"`
}

// UsageStats returns today's usage for gradings, oracle questions and the
// portfolio size.
func (g *Gate) UsageStats(ctx context.Context) UsageStats {
	limits := g.CurrentSubscription().Limits
	return UsageStats{
		Gradings:  newUsage(g.DailyUsage(ctx, UsageGradings), limits.DailyGradings),
		Oracle:    newUsage(g.DailyUsage(ctx, UsageOracle), limits.DailyOracleQuestions),
		Portfolio: newUsage(g.portfolioSize(), limits.PortfolioCards),
	}
}

// RecommendedTier suggests a tier from today's usage. Hitting any finite
// limit recommends Pro; heavy usage otherwise recommends Elite.
func (g *Gate) RecommendedTier(ctx context.Context) Name {
	if !g.bound() {
		return Free
	}

	s := g.UsageStats(ctx)
	switch {
	case s.Gradings.Limit.Reached(s.Gradings.Used),
		s.Oracle.Limit.Reached(s.Oracle.Used),
		s.Portfolio.Limit.Reached(s.Portfolio.Used):
		return Pro
	case s.Gradings.Used > HeavyGradings,
		s.Oracle.Used > HeavyOracle,
		s.Portfolio.Used > HeavyPortfolio:
		return Elite
	default:
		return Free
	}
}

// BillingInfo is a snapshot of the bound user's billing state.
type BillingInfo struct {
	Tier            Name       `json:"tier"`
	Price           Money      `json:"price"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	NextBillingDate *time.Time `json:"next_billing_date,omitempty"`
	PaymentMethod   string     `json:"payment_method,omitempty"`
}

// BillingInfo returns nil when no user is bound.
func (g *Gate) BillingInfo() *BillingInfo {
	u := g.User()
	if u == nil {
		return nil
	}

	tier := g.CurrentSubscription()
	info := &BillingInfo{
		Tier:          tier.Name,
		Price:         tier.Price,
		StartDate:     u.SubscriptionStartDate,
		EndDate:       u.SubscriptionEndDate,
		PaymentMethod: u.PaymentMethod,
	}
	if u.SubscriptionStartDate != nil {
		next := u.SubscriptionStartDate.AddDate(0, 1, 0)
		info.NextBillingDate = &next
	}
	return info
}

// UpgradeSubscription charges method for tier and, on success, moves the
// bound user to it. On payment failure nothing changes and a *PaymentError is
// returned.
func (g *Gate) UpgradeSubscription(ctx context.Context, tier Name, method string) (Result, error) {
	u, ok := g.authenticated(ctx)
	if !ok {
		return Result{}, ErrNotAuthenticated
	}

	target, ok := Lookup(tier)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownTier, tier)
	}

	receipt, err := g.payments.Charge(ctx, payment.Charge{
		UserID: u.ID,
		Tier:   string(target.Name),
		Amount: int64(target.Price),
		Method: method,
	})
	if err != nil {
		metrics.PaymentFailed(string(target.Name))
		g.log.Info().Err(err).Str("tier", string(target.Name)).Msg("payment failed")
		return Result{}, &PaymentError{Tier: target.Name, Err: err}
	}
	metrics.PaymentSucceeded(string(target.Name))

	now := g.now()
	name := string(target.Name)
	g.apply(ctx, profile.Update{
		Subscription:          &name,
		SubscriptionStartDate: &now,
		ClearEndDate:          true,
		PaymentMethod:         &method,
	})

	g.log.Info().
		Str("tier", name).
		Str("transaction_id", receipt.TransactionID).
		Msg("subscription upgraded")

	if g.notifier != nil {
		g.notifier.AddNotification(ctx, notify.Record{
			Type:    notify.TypeAchievement,
			Title:   "Welcome to " + target.DisplayName,
			Message: fmt.Sprintf("Your %s subscription is active", target.DisplayName),
			Action:  "view_subscription",
			Data: map[string]any{
				"tier":           name,
				"transaction_id": receipt.TransactionID,
			},
		})
	}

	return Result{Tier: target, Receipt: &receipt}, nil
}

// CancelSubscription returns the bound user to Free and stamps the end date.
func (g *Gate) CancelSubscription(ctx context.Context) (Result, error) {
	if _, ok := g.authenticated(ctx); !ok {
		return Result{}, ErrNotAuthenticated
	}

	now := g.now()
	name := string(Free)
	g.apply(ctx, profile.Update{
		Subscription:        &name,
		SubscriptionEndDate: &now,
	})

	g.log.Info().Msg("subscription cancelled")

	free, _ := Lookup(Free)
	return Result{Tier: free}, nil
}

// apply updates the bound user and propagates the change to the profile
// provider. A provider failure is logged; the bound user keeps the change.
func (g *Gate) apply(ctx context.Context, up profile.Update) {
	g.mu.Lock()
	if g.user != nil {
		up.Apply(g.user)
	}
	g.mu.Unlock()

	if _, err := g.profiles.UpdateProfile(ctx, up); err != nil {
		metrics.PersistFailed(profile.KeyCurrent)
		g.log.Warn().Err(err).Msg("failed to propagate subscription change to profile")
	}
}
