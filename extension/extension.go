// Package extension provides the Forge extension adapter for the
// progression ledger.
//
// It implements the forge.Extension interface to integrate the ledger
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.progression" or
// "progression" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/progression"
	"github.com/xraph/progression/bonus"
	"github.com/xraph/progression/catalog"
	"github.com/xraph/progression/milestone"
	"github.com/xraph/progression/notify/redisnotify"
	"github.com/xraph/progression/store"
	"github.com/xraph/progression/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "progression"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Entitlement and progression ledger"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the progression ledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *progression.Ledger
	store      store.Store
	source     catalog.Source
	redis      *redis.Client
	ledgerOpts []progression.Option
}

// New creates a new progression Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger instance.
// This is nil until Register is called.
func (e *Extension) Engine() *progression.Ledger { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the ledger engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	if e.source == nil {
		if e.config.CatalogPath == "" {
			return errors.New("progression: no catalog source; set catalog_path or use WithCatalogSource")
		}
		e.source = catalog.File{Path: e.config.CatalogPath}
	}

	opts, err := e.buildLedgerOpts()
	if err != nil {
		return err
	}

	e.engine = progression.New(e.store, e.source, opts...)

	return vessel.Provide(fapp.Container(), func() (*progression.Ledger, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("progression: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	var errs []error
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if e.redis != nil {
		if err := e.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("progression: close redis: %w", err))
		}
	}
	e.MarkStopped()
	return errors.Join(errs...)
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("progression: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildLedgerOpts constructs progression.Option values from the resolved config.
func (e *Extension) buildLedgerOpts() ([]progression.Option, error) {
	cfg := e.config
	opts := make([]progression.Option, 0, len(e.ledgerOpts)+9)

	opts = append(opts,
		progression.WithLearner(cfg.LearnerID),
		progression.WithAutoMigrate(!cfg.DisableMigrate),
		progression.WithCelebrationDelay(cfg.CelebrationDelay),
		progression.WithMilestoneScope(milestone.ParseScope(cfg.MilestoneScope)),
		progression.WithBonusPolicy(bonus.Policy{Course: cfg.CourseBonus, Pack: cfg.PackBonus}),
		progression.WithPersistInterval(cfg.PersistInterval),
		progression.WithPersistRetry(cfg.PersistMaxTries, cfg.PersistBackoff),
		progression.WithResumeWorkflow(cfg.ResumeWorkflow),
	)

	if cfg.RedisURL != "" {
		var sinkOpts []redisnotify.Option
		if cfg.RedisChannel != "" {
			sinkOpts = append(sinkOpts, redisnotify.WithChannel(cfg.RedisChannel))
		}
		sink, client, err := redisnotify.NewFromURL(cfg.RedisURL, sinkOpts...)
		if err != nil {
			return nil, err
		}
		e.redis = client
		opts = append(opts, progression.WithSink(sink))
	}

	// Append any pass-through ledger options.
	opts = append(opts, e.ledgerOpts...)

	return opts, nil
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("progression: configuration is required but not found in config files; " +
				"ensure 'extensions.progression' or 'progression' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("progression: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("learner_id", e.config.LearnerID),
		forge.F("catalog_path", e.config.CatalogPath),
		forge.F("celebration_delay", e.config.CelebrationDelay),
		forge.F("milestone_scope", e.config.MilestoneScope),
		forge.F("persist_interval", e.config.PersistInterval),
		forge.F("resume_workflow", e.config.ResumeWorkflow),
		forge.F("redis", e.config.RedisURL != ""),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.progression" first (namespaced pattern).
	if cm.IsSet("extensions.progression") {
		if err := cm.Bind("extensions.progression", &cfg); err == nil {
			e.Logger().Debug("progression: loaded config from file",
				forge.F("key", "extensions.progression"),
			)
			return cfg, true
		}
		e.Logger().Warn("progression: failed to bind extensions.progression config",
			forge.F("error", "bind failed"),
		)
	}

	// Try short "progression" key.
	if cm.IsSet("progression") {
		if err := cm.Bind("progression", &cfg); err == nil {
			e.Logger().Debug("progression: loaded config from file",
				forge.F("key", "progression"),
			)
			return cfg, true
		}
		e.Logger().Warn("progression: failed to bind progression config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}
