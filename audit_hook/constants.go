package audithook

// Action constants for audit events.
const (
	// Purchase actions
	ActionPurchaseRecorded  = "purchase.recorded"
	ActionPurchaseDuplicate = "purchase.duplicate"
	ActionPurchaseUnknown   = "purchase.unknown_item"

	// Progression actions
	ActionMilestoneAchieved = "milestone.achieved"
	ActionRewardIssued      = "reward.issued"

	// Workflow actions
	ActionWorkflowChanged     = "workflow.changed"
	ActionOnboardingPostponed = "workflow.onboarding_postponed"

	// Ledger actions
	ActionLedgerReplayed = "ledger.replayed"
	ActionPersistFailed  = "ledger.persist_failed"
)

// Resource constants for audit events.
const (
	ResourceEntitlement = "entitlement"
	ResourceMilestone   = "milestone"
	ResourceBonus       = "bonus"
	ResourceWorkflow    = "workflow"
	ResourceLedger      = "ledger"
)

// Category constants for audit events.
const (
	CategoryPurchase    = "purchase"
	CategoryProgression = "progression"
	CategoryReward      = "reward"
	CategoryWorkflow    = "workflow"
	CategoryStorage     = "storage"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
