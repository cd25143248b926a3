package observability

// Metric name prefixes
const (
	MetricPrefix = "wingo"
)

// Metric names
const (
	// Round metrics
	RoundsSettledTotal     = MetricPrefix + ".rounds.settled_total"
	RoundSettlementSeconds = MetricPrefix + ".rounds.settlement_duration"

	// Bet metrics
	BetsPlacedTotal            = MetricPrefix + ".bets.placed_total"
	BetSettlementFailuresTotal = MetricPrefix + ".bets.settlement_failures_total"
	PayoutsTotal               = MetricPrefix + ".bets.payouts_total"

	// Wallet metrics
	WithdrawalsTotal = MetricPrefix + ".wallet.withdrawals_total"
	DepositsTotal    = MetricPrefix + ".wallet.deposits_total"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"
)

// Label keys
const (
	LabelColor     = "color"
	LabelStatus    = "status"
	LabelEventType = "event_type"
	LabelTrigger   = "trigger"
)

// Settlement triggers
const (
	TriggerScheduler = "scheduler"
	TriggerAdmin     = "admin"
	TriggerRecovery  = "recovery"
)
