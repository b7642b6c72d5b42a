package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// DefaultHookTimeout bounds a single plugin call.
const DefaultHookTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// Hook implementations are discovered once at registration.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit                 []OnInit
	onShutdown             []OnShutdown
	onLedgerReplayed       []OnLedgerReplayed
	onPurchaseRecorded     []OnPurchaseRecorded
	onUnknownItem          []OnUnknownItem
	onMilestoneAchieved    []OnMilestoneAchieved
	onRewardIssued         []OnRewardIssued
	onWorkflowStageChanged []OnWorkflowStageChanged
	onLedgerPersisted      []OnLedgerPersisted
	onPersistFailed        []OnPersistFailed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultHookTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-call plugin timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	r.timeout = d
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnLedgerReplayed); ok {
		r.onLedgerReplayed = append(r.onLedgerReplayed, v)
	}
	if v, ok := p.(OnPurchaseRecorded); ok {
		r.onPurchaseRecorded = append(r.onPurchaseRecorded, v)
	}
	if v, ok := p.(OnUnknownItem); ok {
		r.onUnknownItem = append(r.onUnknownItem, v)
	}
	if v, ok := p.(OnMilestoneAchieved); ok {
		r.onMilestoneAchieved = append(r.onMilestoneAchieved, v)
	}
	if v, ok := p.(OnRewardIssued); ok {
		r.onRewardIssued = append(r.onRewardIssued, v)
	}
	if v, ok := p.(OnWorkflowStageChanged); ok {
		r.onWorkflowStageChanged = append(r.onWorkflowStageChanged, v)
	}
	if v, ok := p.(OnLedgerPersisted); ok {
		r.onLedgerPersisted = append(r.onLedgerPersisted, v)
	}
	if v, ok := p.(OnPersistFailed); ok {
		r.onPersistFailed = append(r.onPersistFailed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	name string
	typ  reflect.Type
}{
	{"OnInit", reflect.TypeOf((*OnInit)(nil)).Elem()},
	{"OnShutdown", reflect.TypeOf((*OnShutdown)(nil)).Elem()},
	{"OnLedgerReplayed", reflect.TypeOf((*OnLedgerReplayed)(nil)).Elem()},
	{"OnPurchaseRecorded", reflect.TypeOf((*OnPurchaseRecorded)(nil)).Elem()},
	{"OnUnknownItem", reflect.TypeOf((*OnUnknownItem)(nil)).Elem()},
	{"OnMilestoneAchieved", reflect.TypeOf((*OnMilestoneAchieved)(nil)).Elem()},
	{"OnRewardIssued", reflect.TypeOf((*OnRewardIssued)(nil)).Elem()},
	{"OnWorkflowStageChanged", reflect.TypeOf((*OnWorkflowStageChanged)(nil)).Elem()},
	{"OnLedgerPersisted", reflect.TypeOf((*OnLedgerPersisted)(nil)).Elem()},
	{"OnPersistFailed", reflect.TypeOf((*OnPersistFailed)(nil)).Elem()},
}

// implementedInterfaces returns the hook names a plugin implements.
func implementedInterfaces(p Plugin) []string {
	var out []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.typ) {
			out = append(out, h.name)
		}
	}
	return out
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, l interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnInit", p.Name(), func() error { return p.OnInit(ctx, l) })
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnShutdown", p.Name(), func() error { return p.OnShutdown(ctx) })
	}
}

// EmitLedgerReplayed emits a replay completed event.
func (r *Registry) EmitLedgerReplayed(ctx context.Context, records, milestones int, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onLedgerReplayed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnLedgerReplayed", p.Name(), func() error {
			return p.OnLedgerReplayed(ctx, records, milestones, elapsed)
		})
	}
}

// EmitPurchaseRecorded emits a purchase recorded event.
func (r *Registry) EmitPurchaseRecorded(ctx context.Context, rec interface{}, accepted bool) {
	r.mu.RLock()
	plugins := r.onPurchaseRecorded
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnPurchaseRecorded", p.Name(), func() error {
			return p.OnPurchaseRecorded(ctx, rec, accepted)
		})
	}
}

// EmitUnknownItem emits an unknown catalog item event.
func (r *Registry) EmitUnknownItem(ctx context.Context, rec interface{}) {
	r.mu.RLock()
	plugins := r.onUnknownItem
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnUnknownItem", p.Name(), func() error { return p.OnUnknownItem(ctx, rec) })
	}
}

// EmitMilestoneAchieved emits a milestone achieved event.
func (r *Registry) EmitMilestoneAchieved(ctx context.Context, m interface{}) {
	r.mu.RLock()
	plugins := r.onMilestoneAchieved
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnMilestoneAchieved", p.Name(), func() error { return p.OnMilestoneAchieved(ctx, m) })
	}
}

// EmitRewardIssued emits a reward issued event.
func (r *Registry) EmitRewardIssued(ctx context.Context, b interface{}) {
	r.mu.RLock()
	plugins := r.onRewardIssued
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnRewardIssued", p.Name(), func() error { return p.OnRewardIssued(ctx, b) })
	}
}

// EmitWorkflowStageChanged emits a workflow transition event.
func (r *Registry) EmitWorkflowStageChanged(ctx context.Context, t interface{}) {
	r.mu.RLock()
	plugins := r.onWorkflowStageChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnWorkflowStageChanged", p.Name(), func() error {
			return p.OnWorkflowStageChanged(ctx, t)
		})
	}
}

// EmitLedgerPersisted emits a persistence success event.
func (r *Registry) EmitLedgerPersisted(ctx context.Context, records int, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onLedgerPersisted
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnLedgerPersisted", p.Name(), func() error {
			return p.OnLedgerPersisted(ctx, records, elapsed)
		})
	}
}

// EmitPersistFailed emits a persistence failure event.
func (r *Registry) EmitPersistFailed(ctx context.Context, attempts int, err error) {
	r.mu.RLock()
	plugins := r.onPersistFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnPersistFailed", p.Name(), func() error {
			return p.OnPersistFailed(ctx, attempts, err)
		})
	}
}

func (r *Registry) dispatch(ctx context.Context, hook, pluginName string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the purchase flow.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(r.timeout):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
