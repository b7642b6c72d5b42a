package extension

import (
	"time"

	"github.com/xraph/progression"
	"github.com/xraph/progression/catalog"
	"github.com/xraph/progression/plugin"
	"github.com/xraph/progression/purchase"
	"github.com/xraph/progression/store"
)

// Option configures the progression Forge extension.
type Option func(*Extension)

// WithStore sets the store for the ledger engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithCatalogSource sets where the engine loads its catalog from.
// It takes precedence over Config.CatalogPath.
func WithCatalogSource(src catalog.Source) Option {
	return func(e *Extension) {
		e.source = src
	}
}

// WithPurchaseProvider sets the checkout flow used by Ledger.Purchase.
func WithPurchaseProvider(p purchase.Provider) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, progression.WithPurchaseProvider(p))
	}
}

// WithLedgerOption passes a progression.Option through to the underlying engine.
func WithLedgerOption(opt progression.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a ledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, progression.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithLearner sets the learner whose ledger the engine owns.
func WithLearner(learnerID string) Option {
	return func(e *Extension) { e.config.LearnerID = learnerID }
}

// WithCatalogPath loads the catalog from a YAML document.
func WithCatalogPath(path string) Option {
	return func(e *Extension) { e.config.CatalogPath = path }
}

// WithCelebrationDelay sets the minimum delay before the onboarding prompt.
func WithCelebrationDelay(d time.Duration) Option {
	return func(e *Extension) { e.config.CelebrationDelay = d }
}

// WithResumeWorkflow restores the persisted workflow stage on start.
func WithResumeWorkflow() Option {
	return func(e *Extension) { e.config.ResumeWorkflow = true }
}

// WithRedis publishes progression events to the Redis server at url.
func WithRedis(url string) Option {
	return func(e *Extension) { e.config.RedisURL = url }
}
