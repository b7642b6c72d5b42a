package extension

import "time"

// Config holds the progression extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.progression" or "progression" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// LearnerID keys the persisted ledger (default: "default").
	LearnerID string `json:"learner_id" mapstructure:"learner_id" yaml:"learner_id"`

	// CatalogPath is a YAML catalog document used when no catalog source
	// was provided programmatically.
	CatalogPath string `json:"catalog_path" mapstructure:"catalog_path" yaml:"catalog_path"`

	// CelebrationDelay is the minimum time between an acknowledged
	// celebration and the onboarding prompt (default: 1.5s).
	CelebrationDelay time.Duration `json:"celebration_delay" mapstructure:"celebration_delay" yaml:"celebration_delay"`

	// MilestoneScope is "all" or "ancestors" (default: "all").
	MilestoneScope string `json:"milestone_scope" mapstructure:"milestone_scope" yaml:"milestone_scope"`

	// CourseBonus and PackBonus are the reward amounts in credits
	// (defaults: 100 and 500).
	CourseBonus int64 `json:"course_bonus" mapstructure:"course_bonus" yaml:"course_bonus"`
	PackBonus   int64 `json:"pack_bonus" mapstructure:"pack_bonus" yaml:"pack_bonus"`

	// PersistInterval is how often dirty state is written when no mutation
	// triggers a write (default: 5s).
	PersistInterval time.Duration `json:"persist_interval" mapstructure:"persist_interval" yaml:"persist_interval"`

	// PersistMaxTries bounds the attempts of a single write (default: 5).
	PersistMaxTries uint `json:"persist_max_tries" mapstructure:"persist_max_tries" yaml:"persist_max_tries"`

	// PersistBackoff is the initial retry delay (default: 200ms).
	PersistBackoff time.Duration `json:"persist_backoff" mapstructure:"persist_backoff" yaml:"persist_backoff"`

	// ResumeWorkflow restores the persisted workflow stage on start instead
	// of resetting to idle.
	ResumeWorkflow bool `json:"resume_workflow" mapstructure:"resume_workflow" yaml:"resume_workflow"`

	// RedisURL enables publishing progression events to Redis.
	RedisURL string `json:"redis_url" mapstructure:"redis_url" yaml:"redis_url"`

	// RedisChannel overrides the pub/sub channel (default: "progression:events").
	RedisChannel string `json:"redis_channel" mapstructure:"redis_channel" yaml:"redis_channel"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LearnerID:        "default",
		CelebrationDelay: 1500 * time.Millisecond,
		MilestoneScope:   "all",
		CourseBonus:      100,
		PackBonus:        500,
		PersistInterval:  5 * time.Second,
		PersistMaxTries:  5,
		PersistBackoff:   200 * time.Millisecond,
	}
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.LearnerID == "" {
		cfg.LearnerID = defaults.LearnerID
	}
	if cfg.CelebrationDelay == 0 {
		cfg.CelebrationDelay = defaults.CelebrationDelay
	}
	if cfg.MilestoneScope == "" {
		cfg.MilestoneScope = defaults.MilestoneScope
	}
	if cfg.CourseBonus == 0 {
		cfg.CourseBonus = defaults.CourseBonus
	}
	if cfg.PackBonus == 0 {
		cfg.PackBonus = defaults.PackBonus
	}
	if cfg.PersistInterval == 0 {
		cfg.PersistInterval = defaults.PersistInterval
	}
	if cfg.PersistMaxTries == 0 {
		cfg.PersistMaxTries = defaults.PersistMaxTries
	}
	if cfg.PersistBackoff == 0 {
		cfg.PersistBackoff = defaults.PersistBackoff
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.ResumeWorkflow {
		yamlConfig.ResumeWorkflow = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.LearnerID == "" {
		yamlConfig.LearnerID = programmaticConfig.LearnerID
	}
	if yamlConfig.CatalogPath == "" {
		yamlConfig.CatalogPath = programmaticConfig.CatalogPath
	}
	if yamlConfig.MilestoneScope == "" {
		yamlConfig.MilestoneScope = programmaticConfig.MilestoneScope
	}
	if yamlConfig.RedisURL == "" {
		yamlConfig.RedisURL = programmaticConfig.RedisURL
	}
	if yamlConfig.RedisChannel == "" {
		yamlConfig.RedisChannel = programmaticConfig.RedisChannel
	}

	// Duration/int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.CelebrationDelay == 0 {
		yamlConfig.CelebrationDelay = programmaticConfig.CelebrationDelay
	}
	if yamlConfig.CourseBonus == 0 {
		yamlConfig.CourseBonus = programmaticConfig.CourseBonus
	}
	if yamlConfig.PackBonus == 0 {
		yamlConfig.PackBonus = programmaticConfig.PackBonus
	}
	if yamlConfig.PersistInterval == 0 {
		yamlConfig.PersistInterval = programmaticConfig.PersistInterval
	}
	if yamlConfig.PersistMaxTries == 0 {
		yamlConfig.PersistMaxTries = programmaticConfig.PersistMaxTries
	}
	if yamlConfig.PersistBackoff == 0 {
		yamlConfig.PersistBackoff = programmaticConfig.PersistBackoff
	}

	// Fill remaining zeros with defaults.
	return mergeWithDefaults(yamlConfig)
}
