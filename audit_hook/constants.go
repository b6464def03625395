package audithook

// Action constants for audit events.
const (
	// Subscription actions
	ActionSubscriptionCreated  = "subscription.created"
	ActionSubscriptionCanceled = "subscription.canceled"
	ActionSubscriptionPaused   = "subscription.paused"
	ActionSubscriptionResumed  = "subscription.resumed"
	ActionStatusChanged        = "subscription.status_changed"

	// Charge actions
	ActionChargeSucceeded = "charge.succeeded"
	ActionChargeFailed    = "charge.failed"
	ActionBatchCompleted  = "charge.batch_completed"

	// Funding actions
	ActionDeposit    = "funds.deposit"
	ActionWithdrawal = "funds.withdrawal"
	ActionPayout     = "funds.payout"

	// Administrative actions
	ActionVaultInitialized = "admin.vault_initialized"
	ActionAdminRotated     = "admin.rotated"
	ActionFundsRecovered   = "admin.funds_recovered"
)

// Resource constants for audit events.
const (
	ResourceSubscription = "subscription"
	ResourceCharge       = "charge"
	ResourceFunds        = "funds"
	ResourceVault        = "vault"
)

// Category constants for audit events.
const (
	CategoryBilling      = "billing"
	CategorySubscription = "subscription"
	CategoryPayment      = "payment"
	CategoryAdmin        = "admin"
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
