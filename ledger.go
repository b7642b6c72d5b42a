package progression

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xraph/progression/bonus"
	"github.com/xraph/progression/catalog"
	"github.com/xraph/progression/entitlement"
	"github.com/xraph/progression/milestone"
	"github.com/xraph/progression/notify"
	"github.com/xraph/progression/plugin"
	"github.com/xraph/progression/purchase"
	"github.com/xraph/progression/store"
	"github.com/xraph/progression/unlock"
	"github.com/xraph/progression/workflow"
)

// DefaultLearnerID keys persistence when no learner is configured.
const DefaultLearnerID = "default"

// Ledger is the per-learner progression engine. A purchase flows through
// append, projection, milestone diff, bonus issue and workflow sequencing.
type Ledger struct {
	store    store.Store
	source   catalog.Source
	provider purchase.Provider
	plugins  *plugin.Registry
	logger   *slog.Logger

	learnerID string
	catalog   *catalog.Catalog

	entitlements *entitlement.Store
	detector     *milestone.Detector
	milestones   *milestone.Registry
	emitter      *bonus.Emitter
	sequencer    *workflow.Sequencer

	// mu serializes the purchase pipeline and guards projection.
	mu         sync.Mutex
	projection *unlock.Set
	started    bool
	stopped    bool

	// Persistence state
	persistMu        sync.Mutex
	dirty            atomic.Bool
	persistedRecords int
	persistedBonuses int

	// Background workers
	persistSignal chan struct{}
	events        chan hookEvent
	stopChan      chan struct{}
	wg            sync.WaitGroup

	// Configuration
	celebrationDelay  time.Duration
	scope             milestone.Scope
	policy            bonus.Policy
	persistInterval   time.Duration
	persistMaxTries   uint
	persistBackoff    time.Duration
	persistMaxBackoff time.Duration
	eventBuffer       int
	resumeWorkflow    bool
	autoMigrate       bool
}

// New creates a new Ledger instance. The catalog is fetched from source on
// Start.
func New(s store.Store, source catalog.Source, opts ...Option) *Ledger {
	l := &Ledger{
		store:             s,
		source:            source,
		plugins:           plugin.NewRegistry(),
		logger:            slog.Default(),
		learnerID:         DefaultLearnerID,
		entitlements:      entitlement.NewStore(),
		milestones:        milestone.NewRegistry(),
		projection:        unlock.Empty(),
		persistSignal:     make(chan struct{}, 1),
		stopChan:          make(chan struct{}),
		celebrationDelay:  workflow.DefaultMinimumDelay,
		scope:             milestone.ScopeAll,
		policy:            bonus.DefaultPolicy(),
		persistInterval:   5 * time.Second,
		persistMaxTries:   5,
		persistBackoff:    200 * time.Millisecond,
		persistMaxBackoff: 10 * time.Second,
		eventBuffer:       256,
		autoMigrate:       true,
	}

	for _, opt := range opts {
		opt(l)
	}

	l.events = make(chan hookEvent, l.eventBuffer)
	l.detector = milestone.NewDetector(milestone.WithScope(l.scope))
	l.emitter = bonus.NewEmitter(bonus.WithPolicy(l.policy))
	l.sequencer = workflow.NewSequencer(
		workflow.WithMinimumDelay(l.celebrationDelay),
		workflow.WithListener(l.onTransition),
	)

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithSink forwards milestone, reward and workflow events to sink.
func WithSink(sink notify.Sink) Option {
	return WithPlugin(notify.NewPlugin(sink))
}

// WithLearner sets the learner whose ledger this instance owns.
func WithLearner(learnerID string) Option {
	return func(l *Ledger) { l.learnerID = learnerID }
}

// WithPurchaseProvider sets the checkout flow used by Purchase.
func WithPurchaseProvider(p purchase.Provider) Option {
	return func(l *Ledger) { l.provider = p }
}

// WithCelebrationDelay sets the minimum delay between an acknowledged
// celebration and the onboarding prompt.
func WithCelebrationDelay(d time.Duration) Option {
	return func(l *Ledger) { l.celebrationDelay = d }
}

// WithMilestoneScope selects how many entities the detector evaluates.
func WithMilestoneScope(s milestone.Scope) Option {
	return func(l *Ledger) { l.scope = s }
}

// WithBonusPolicy sets the reward amounts.
func WithBonusPolicy(p bonus.Policy) Option {
	return func(l *Ledger) { l.policy = p }
}

// WithPersistRetry configures retries of a failed write: at most maxTries
// attempts with exponential backoff starting at initial.
func WithPersistRetry(maxTries uint, initial time.Duration) Option {
	return func(l *Ledger) {
		l.persistMaxTries = maxTries
		l.persistBackoff = initial
	}
}

// WithPersistInterval sets how often dirty state is written when no
// mutation triggers a write.
func WithPersistInterval(d time.Duration) Option {
	return func(l *Ledger) { l.persistInterval = d }
}

// WithEventBuffer sets the capacity of the notification queue.
func WithEventBuffer(n int) Option {
	return func(l *Ledger) { l.eventBuffer = n }
}

// WithResumeWorkflow restores the persisted workflow checkpoint on Start
// instead of resetting to idle.
func WithResumeWorkflow(resume bool) Option {
	return func(l *Ledger) { l.resumeWorkflow = resume }
}

// WithAutoMigrate controls whether Start runs store migrations.
func WithAutoMigrate(enabled bool) Option {
	return func(l *Ledger) { l.autoMigrate = enabled }
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Start loads the catalog, replays the persisted ledger and begins
// background workers.
func (l *Ledger) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started {
		return nil
	}

	if l.autoMigrate {
		if err := l.store.Migrate(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
		}
	}

	cat, err := l.source.GetCatalog(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	l.catalog = cat

	l.plugins.EmitInit(ctx, l)

	// A failed Start closes its stop channel, so each attempt gets its own.
	l.stopChan = make(chan struct{})
	bg := context.WithoutCancel(ctx)
	l.wg.Add(1)
	go l.notifyWorker(bg)

	if err := l.replay(ctx); err != nil {
		close(l.stopChan)
		l.wg.Wait()
		return err
	}

	l.wg.Add(1)
	go l.persistWorker(bg)

	l.started = true
	l.logger.Info("progression ledger started",
		"learner_id", l.learnerID,
		"catalog_items", cat.Len(),
		"entitlements", l.entitlements.Len(),
		"scope", l.scope.String(),
		"celebration_delay", l.celebrationDelay,
	)

	return nil
}

// Stop cancels workflow timers, writes pending state and closes the store.
func (l *Ledger) Stop() error {
	l.mu.Lock()
	if !l.started || l.stopped {
		l.mu.Unlock()
		return nil
	}
	l.stopped = true
	l.mu.Unlock()

	l.sequencer.Close()
	close(l.stopChan)
	l.wg.Wait()

	ctx := context.Background()
	l.plugins.EmitShutdown(ctx)

	return l.store.Close()
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

// LearnerID returns the learner this ledger belongs to.
func (l *Ledger) LearnerID() string { return l.learnerID }

// Catalog returns the catalog loaded on Start.
func (l *Ledger) Catalog() *catalog.Catalog {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.catalog
}

// Unlocked returns the sorted ids of every unlocked item.
func (l *Ledger) Unlocked() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.projection.Items()
}

// IsUnlocked reports whether the item is unlocked.
func (l *Ledger) IsUnlocked(itemID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.projection.Has(itemID)
}

// Provenance returns the purchases that unlocked the item.
func (l *Ledger) Provenance(itemID string) []unlock.Grant {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.projection.Provenance(itemID)
}

// Entitlements returns the ledger in append order.
func (l *Ledger) Entitlements() []entitlement.Record {
	return l.entitlements.List()
}

// Milestones returns achieved milestones in achievement order.
func (l *Ledger) Milestones() []milestone.Milestone {
	return l.milestones.List()
}

// Bonuses returns issued bonuses in issue order.
func (l *Ledger) Bonuses() []bonus.Record {
	return l.emitter.List()
}

// CourseProgress returns how many lessons of the course are unlocked.
func (l *Ledger) CourseProgress(courseID string) (owned, total int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.catalog == nil {
		return 0, 0, ErrNotStarted
	}
	item, ok := l.catalog.Get(courseID)
	if !ok || item.Kind != catalog.KindCourse {
		return 0, 0, fmt.Errorf("%w: course %q", ErrNotFound, courseID)
	}
	owned, total = unlock.Progress(l.catalog, l.projection, courseID)
	return owned, total, nil
}

// Workflow returns the sequencer the presentation layer drives.
func (l *Ledger) Workflow() *workflow.Sequencer {
	return l.sequencer
}
