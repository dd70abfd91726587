package notify

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/kv"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/schedule"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/metrics"
)

// Producer task names.
const (
	TaskGenerate  = "notify.generate"
	TaskPortfolio = "notify.portfolio"
	TaskMarket    = "notify.market"
)

// Subscriber receives every notification added to the engine.
type Subscriber func(Record)

// Subscription identifies a registered subscriber. The zero value matches
// nothing.
type Subscription struct {
	id uint64
}

type subscriber struct {
	id uint64
	fn Subscriber
}

// delivery is a persisted record waiting for fan-out, with the subscribers
// and sound player that were current when it was added.
type delivery struct {
	record Record
	subs   []subscriber
	player Player
}

// Engine owns the notification history. It persists every mutation to the
// KV store and fans new records out to subscribers in subscription order.
//
// Storage and audio failures are logged and swallowed; the in-memory state
// stays authoritative for the life of the process.
type Engine struct {
	store kv.KV
	cfg   Config
	log   zerolog.Logger
	now   func() time.Time

	// dispatch guards pending and draining. It is never held while a
	// subscriber runs, so subscribers may call back into the engine.
	dispatch sync.Mutex
	pending  []delivery
	draining bool

	mu       sync.RWMutex
	records  []Record
	lastID   int64
	subs     []subscriber
	nextSub  uint64
	settings Settings
	player   Player

	generator *RandomGenerator
	portfolio *PortfolioMonitor
	market    *MarketMonitor
	tasks     schedule.Group
}

// NewEngine loads the persisted history and settings, seeding example
// records when no history exists.
func NewEngine(ctx context.Context, store kv.KV, cfg Config, logger zerolog.Logger, opts Options) *Engine {
	e := &Engine{
		store:    store,
		cfg:      cfg,
		log:      logger,
		now:      opts.clock(),
		settings: Settings{Enabled: true, Sound: true},
	}

	e.initSound(opts.Sound)
	e.loadSettings(ctx)
	e.loadRecords(ctx)

	e.generator = newRandomGenerator(e, opts.rng(1), e.now)
	e.portfolio = newPortfolioMonitor(e, cfg.Portfolio, opts.rng(2))
	e.market = newMarketMonitor(e, cfg.Market, opts.rng(3))

	return e
}

func (e *Engine) initSound(init SoundInitFunc) {
	if init == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			e.log.Warn().Interface("panic", r).Msg("sound init panicked, continuing without sound")
		}
	}()

	player, err := init()
	if err != nil {
		e.log.Debug().Err(err).Msg("sound unavailable")
		return
	}
	e.player = player
}

func (e *Engine) loadSettings(ctx context.Context) {
	var s Settings
	err := e.store.Get(ctx, KeySettings, &s)
	switch {
	case err == nil:
		e.settings = s
	case kv.IsNotFound(err):
	default:
		e.log.Warn().Err(err).Str("key", KeySettings).Msg("failed to load notification settings, using defaults")
	}
}

func (e *Engine) loadRecords(ctx context.Context) {
	var records []Record
	err := e.store.Get(ctx, KeyNotifications, &records)
	switch {
	case err == nil:
		if len(records) > MaxRecords {
			records = records[:MaxRecords]
		}
		e.records = records
		for _, r := range records {
			e.lastID = max(e.lastID, r.ID)
		}
		return
	case kv.IsNotFound(err):
	case kv.IsDecodeError(err):
		e.log.Warn().Err(err).Str("key", KeyNotifications).Msg("stored notifications are corrupt, reseeding")
	default:
		// The value may still exist; seed in memory without overwriting it.
		e.log.Warn().Err(err).Str("key", KeyNotifications).Msg("failed to load notifications")
		e.seed()
		return
	}

	e.seed()
	e.persistLocked(ctx)
}

func (e *Engine) seed() {
	e.records = seedRecords(e.now())
	for _, r := range e.records {
		e.lastID = max(e.lastID, r.ID)
	}
}

// nextIDLocked returns a millisecond timestamp forced strictly above every
// id handed out so far.
func (e *Engine) nextIDLocked(ts time.Time) int64 {
	id := max(ts.UnixMilli(), e.lastID+1)
	e.lastID = id
	return id
}

func (e *Engine) persistLocked(ctx context.Context) {
	if err := e.store.Set(ctx, KeyNotifications, e.records); err != nil {
		metrics.PersistFailed(KeyNotifications)
		e.log.Warn().Err(err).Str("key", KeyNotifications).Msg("failed to persist notifications")
	}
}

func (e *Engine) persistSettingsLocked(ctx context.Context) {
	if err := e.store.Set(ctx, KeySettings, e.settings); err != nil {
		metrics.PersistFailed(KeySettings)
		e.log.Warn().Err(err).Str("key", KeySettings).Msg("failed to persist notification settings")
	}
}

// AddNotification assigns an id and timestamp when missing, prepends the
// record, truncates the history to MaxRecords, persists and then delivers the
// record to every subscriber. It never fails.
//
// Records are delivered in insertion order by whichever caller is already
// fanning out. A subscriber that adds a notification gets it queued behind
// the current record and the nested call returns without delivering.
func (e *Engine) AddNotification(ctx context.Context, r Record) {
	e.dispatch.Lock()

	e.mu.Lock()
	if r.Timestamp.IsZero() {
		r.Timestamp = e.now()
	}
	if r.ID == 0 {
		r.ID = e.nextIDLocked(r.Timestamp)
	} else {
		e.lastID = max(e.lastID, r.ID)
	}

	e.records = slices.Insert(e.records, 0, r.clone())
	if dropped := len(e.records) - MaxRecords; dropped > 0 {
		e.records = e.records[:MaxRecords]
		metrics.NotificationsTruncated.Add(float64(dropped))
	}
	e.persistLocked(ctx)

	d := delivery{record: r.clone(), subs: slices.Clone(e.subs)}
	if e.settings.Sound {
		d.player = e.player
	}
	e.mu.Unlock()

	metrics.NotificationAdded(string(r.Type), r.Urgent)

	e.pending = append(e.pending, d)
	if e.draining {
		e.dispatch.Unlock()
		return
	}
	e.draining = true

	for len(e.pending) > 0 {
		next := e.pending[0]
		e.pending = e.pending[1:]
		e.dispatch.Unlock()

		e.fanOut(next)

		e.dispatch.Lock()
	}
	e.pending = nil
	e.draining = false
	e.dispatch.Unlock()
}

func (e *Engine) fanOut(d delivery) {
	for _, s := range d.subs {
		e.deliver(s, d.record.clone())
	}

	if d.player != nil {
		if err := d.player.Play(); err != nil {
			e.log.Debug().Err(err).Msg("failed to play notification sound")
		}
	}
}

func (e *Engine) deliver(s subscriber, r Record) {
	defer func() {
		if p := recover(); p != nil {
			metrics.SubscriberPanics.Inc()
			e.log.Error().
				Uint64("subscriber", s.id).
				Int64("notification_id", r.ID).
				Interface("panic", p).
				Msg("subscriber panicked")
		}
	}()
	s.fn(r)
}

// Subscribe registers fn for every future notification. Subscribing the same
// function twice yields two independent subscriptions.
func (e *Engine) Subscribe(fn Subscriber) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextSub++
	e.subs = append(e.subs, subscriber{id: e.nextSub, fn: fn})
	return Subscription{id: e.nextSub}
}

// Unsubscribe removes the subscription. Unknown handles are ignored.
func (e *Engine) Unsubscribe(sub Subscription) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.subs = slices.DeleteFunc(e.subs, func(s subscriber) bool { return s.id == sub.id })
}

func (e *Engine) indexLocked(id int64) int {
	return slices.IndexFunc(e.records, func(r Record) bool { return r.ID == id })
}

// MarkAsRead marks the record with id as read. It reports whether the record
// exists.
func (e *Engine) MarkAsRead(ctx context.Context, id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexLocked(id)
	if i < 0 {
		return false
	}
	e.records[i].Read = true
	e.persistLocked(ctx)
	return true
}

// MarkAllAsRead marks every record as read.
func (e *Engine) MarkAllAsRead(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.records {
		e.records[i].Read = true
	}
	e.persistLocked(ctx)
}

// DeleteNotification removes the record with id. It reports whether the
// record existed.
func (e *Engine) DeleteNotification(ctx context.Context, id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexLocked(id)
	if i < 0 {
		return false
	}
	e.records = slices.Delete(e.records, i, i+1)
	e.persistLocked(ctx)
	return true
}

// ClearAll empties the history.
func (e *Engine) ClearAll(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.records = []Record{}
	e.persistLocked(ctx)
}

// UnreadCount returns the number of unread records.
func (e *Engine) UnreadCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	n := 0
	for _, r := range e.records {
		if !r.Read {
			n++
		}
	}
	return n
}

// Notifications returns a copy of the newest limit records. A limit <= 0
// selects DefaultLimit.
func (e *Engine) Notifications(limit int) []Record {
	if limit <= 0 {
		limit = DefaultLimit
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	return cloneRecords(e.records[:min(limit, len(e.records))])
}

// Get returns the record with id.
func (e *Engine) Get(id int64) (Record, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	i := e.indexLocked(id)
	if i < 0 {
		return Record{}, false
	}
	return e.records[i].clone(), true
}

// Enable turns the random generator on.
func (e *Engine) Enable(ctx context.Context) { e.setEnabled(ctx, true) }

// Disable turns the random generator off. Monitors and external callers may
// still add records.
func (e *Engine) Disable(ctx context.Context) { e.setEnabled(ctx, false) }

func (e *Engine) setEnabled(ctx context.Context, on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.settings.Enabled = on
	e.persistSettingsLocked(ctx)
}

// Enabled reports whether the random generator is active.
func (e *Engine) Enabled() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings.Enabled
}

// ToggleSound flips the sound setting and returns the new value.
func (e *Engine) ToggleSound(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.settings.Sound = !e.settings.Sound
	e.persistSettingsLocked(ctx)
	return e.settings.Sound
}

// SoundEnabled reports the sound setting. Sound is effectively off when no
// player could be initialized; see SoundAvailable.
func (e *Engine) SoundEnabled() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings.Sound
}

// SoundAvailable reports whether audio initialized successfully.
func (e *Engine) SoundAvailable() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.player != nil
}

// Generator returns the random notification producer.
func (e *Engine) Generator() *RandomGenerator { return e.generator }

// Portfolio returns the portfolio value monitor.
func (e *Engine) Portfolio() *PortfolioMonitor { return e.portfolio }

// Market returns the market movement monitor.
func (e *Engine) Market() *MarketMonitor { return e.market }

// Start launches the three producers as independent scheduled tasks.
func (e *Engine) Start(ctx context.Context) {
	e.tasks.Add(schedule.Start(ctx, schedule.Task{
		Name:     TaskGenerate,
		Interval: e.cfg.GenerateInterval,
		Run:      e.generator.Tick,
	}, e.log))
	e.tasks.Add(schedule.Start(ctx, schedule.Task{
		Name:     TaskPortfolio,
		Interval: e.cfg.PortfolioInterval,
		Run:      e.portfolio.Tick,
	}, e.log))
	e.tasks.Add(schedule.Start(ctx, schedule.Task{
		Name:     TaskMarket,
		Interval: e.cfg.MarketInterval,
		Run:      e.market.Tick,
	}, e.log))

	e.log.Info().
		Dur("generate", e.cfg.GenerateInterval).
		Dur("portfolio", e.cfg.PortfolioInterval).
		Dur("market", e.cfg.MarketInterval).
		Msg("notification producers started")
}

// Producer returns the handle of a running producer by task name.
func (e *Engine) Producer(name string) (*schedule.Handle, bool) {
	return e.tasks.Get(name)
}

// Stop cancels every running producer and waits for them to exit.
func (e *Engine) Stop() {
	e.tasks.StopAll()
}
