// Package store is AgentWallet's single data gateway: every other
// component reads and writes entities exclusively through the Store
// interface defined here. The layering
// (entity + repository-style interface + boltdb/inmemory backends) is
// grounded on hivemind/service/agents/domain/entity, .../domain/repo and
// .../store/{boltdb,inmemory} (internal/hivemind/service/agents/module.go
// selects between them the same way Store's constructors do here).
package store

import "time"

// AgentStatus is the lifecycle state of an Agent.
type AgentStatus string

const (
	AgentActive     AgentStatus = "Active"
	AgentPaused     AgentStatus = "Paused"
	AgentSuspended  AgentStatus = "Suspended"
	AgentFrozen     AgentStatus = "Frozen"
	AgentTerminated AgentStatus = "Terminated"
	AgentKilled     AgentStatus = "Killed"
)

// WalletStatus is the lifecycle state of a Wallet.
type WalletStatus string

const (
	WalletActive       WalletStatus = "Active"
	WalletFrozen       WalletStatus = "Frozen"
	WalletClosed       WalletStatus = "Closed"
	WalletKillSwitched WalletStatus = "KillSwitched"
)

// RuleKind is the closed enumeration of spend-rule kinds.
type RuleKind string

const (
	RulePerTransactionLimit RuleKind = "PerTransactionLimit"
	RuleDailyLimit          RuleKind = "DailyLimit"
	RuleWeeklyLimit         RuleKind = "WeeklyLimit"
	RuleMonthlyLimit        RuleKind = "MonthlyLimit"
	RuleCategoryWhitelist   RuleKind = "CategoryWhitelist"
	RuleCategoryBlacklist   RuleKind = "CategoryBlacklist"
	RuleRecipientWhitelist  RuleKind = "RecipientWhitelist"
	RuleRecipientBlacklist  RuleKind = "RecipientBlacklist"
	RuleTimeWindow          RuleKind = "TimeWindow"
	RuleApprovalThreshold   RuleKind = "ApprovalThreshold"
	RuleSignalFilter        RuleKind = "SignalFilter"
)

// RecipientType classifies the destination of a Transaction.
type RecipientType string

const (
	RecipientExternal    RecipientType = "External"
	RecipientAgentWallet RecipientType = "AgentWallet"
	RecipientEscrow      RecipientType = "Escrow"
)

// TransactionStatus is the lifecycle state of a Transaction.
type TransactionStatus string

const (
	TxPending          TransactionStatus = "Pending"
	TxApproved         TransactionStatus = "Approved"
	TxAwaitingApproval TransactionStatus = "AwaitingApproval"
	TxRejected         TransactionStatus = "Rejected"
	TxCompleted        TransactionStatus = "Completed"
	TxFailed           TransactionStatus = "Failed"
	TxCancelled        TransactionStatus = "Cancelled"
	TxKillSwitched     TransactionStatus = "KillSwitched"
)

// DepositCategory is the reserved category for balance-crediting transactions
// (deposits are modeled as a category=deposit Completed
// transaction and do not count against spend rules").
const DepositCategory = "deposit"

// KillSwitchKind is the closed enumeration of circuit-breaker trigger kinds
// of a per-wallet latching circuit breaker.
type KillSwitchKind string

const (
	KillDrawdownPercent   KillSwitchKind = "DrawdownPercent"
	KillLossAmount        KillSwitchKind = "LossAmount"
	KillConsecutiveLosses KillSwitchKind = "ConsecutiveLosses"
	KillDailyLossLimit    KillSwitchKind = "DailyLossLimit"
)

// LineageStatus mirrors AgentStatus for the lineage tree's own bookkeeping.
type LineageStatus string

const (
	LineageActive     LineageStatus = "Active"
	LineageFrozen     LineageStatus = "Frozen"
	LineageTerminated LineageStatus = "Terminated"
)

// SettlementMode controls how an authorized cross-agent transaction settles.
type SettlementMode string

const (
	SettlementImmediate SettlementMode = "immediate"
	SettlementBatched   SettlementMode = "batched"
	SettlementEscrow    SettlementMode = "escrow"
)

// SettlementStatus is the outcome of settlement for a CrossAgentTransaction.
type SettlementStatus string

const (
	SettlementPending SettlementStatus = "pending"
	SettlementSettled SettlementStatus = "settled"
	SettlementFailed  SettlementStatus = "failed"
)

// AuthorizationMethod records how a cross-agent transaction was authorized.
type AuthorizationMethod string

const (
	AuthAuto          AuthorizationMethod = "auto"
	AuthEscalated     AuthorizationMethod = "escalated"
	AuthHumanApproved AuthorizationMethod = "human_approved"
)

// DeadManAction is a rung on the dead-man switch's action ladder
// ordered alert < throttle < freeze < terminate.
type DeadManAction string

const (
	ActionAlert     DeadManAction = "alert"
	ActionThrottle  DeadManAction = "throttle"
	ActionFreeze    DeadManAction = "freeze"
	ActionTerminate DeadManAction = "terminate"
)

// Severity returns the action's rank on the ladder, higher is stricter.
func (a DeadManAction) Severity() int {
	switch a {
	case ActionAlert:
		return 0
	case ActionThrottle:
		return 1
	case ActionFreeze:
		return 2
	case ActionTerminate:
		return 3
	default:
		return -1
	}
}

// AuditDecision classifies the outcome an AuditLog entry records.
type AuditDecision string

const (
	DecisionAllowed   AuditDecision = "Allowed"
	DecisionBlocked   AuditDecision = "Blocked"
	DecisionEscalated AuditDecision = "Escalated"
	DecisionSystem    AuditDecision = "System"
)

// Owner is the root principal that owns agents and, transitively, wallets.
type Owner struct {
	ID        string    `json:"id"`
	APIKey    string    `json:"api_key"`
	Contact   string    `json:"contact"`
	CreatedAt time.Time `json:"created_at"`
}

// Agent is an autonomous principal whose spending is governed.
type Agent struct {
	ID        string            `json:"id"`
	OwnerID   string            `json:"owner_id"`
	APIKey    string            `json:"api_key"`
	Status    AgentStatus       `json:"status"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Wallet is a balance-bearing ledger entry owned by exactly one agent.
type Wallet struct {
	ID        string       `json:"id"`
	AgentID   string       `json:"agent_id"`
	Balance   int64        `json:"balance_cents"`
	Currency  string       `json:"currency"`
	Status    WalletStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// SpendRule is a predicate-plus-effect applied during admission.
type SpendRule struct {
	ID        string         `json:"id"`
	WalletID  string         `json:"wallet_id"`
	Kind      RuleKind       `json:"kind"`
	Params    map[string]any `json:"params"`
	Active    bool           `json:"active"`
	Priority  int            `json:"priority"`
	Throttled bool           `json:"throttled,omitempty"`
}

// RuleResult is one rule's outcome in a rules-engine verdict.
type RuleResult struct {
	RuleID  string   `json:"rule_id"`
	Kind    RuleKind `json:"kind"`
	Passed  bool     `json:"passed"`
	Reason  string   `json:"reason"`
	Details string   `json:"details,omitempty"`
	Skipped bool     `json:"skipped,omitempty"`
}

// Transaction is a candidate or completed spend against a Wallet.
type Transaction struct {
	ID              string            `json:"id"`
	WalletID        string            `json:"wallet_id"`
	Amount          int64             `json:"amount_cents"`
	RecipientID     string            `json:"recipient_id"`
	RecipientType   RecipientType     `json:"recipient_type"`
	Category        string            `json:"category"`
	Description     string            `json:"description,omitempty"`
	Metadata        map[string]any    `json:"metadata,omitempty"`
	Status          TransactionStatus `json:"status"`
	RuleCheckResults []RuleResult     `json:"rule_check_results,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
}

// KillSwitch is a per-wallet latching circuit breaker.
type KillSwitch struct {
	ID           string         `json:"id"`
	WalletID     string         `json:"wallet_id"`
	Kind         KillSwitchKind `json:"kind"`
	Threshold    float64        `json:"threshold"`
	WindowHours  int            `json:"window_hours"`
	Active       bool           `json:"active"`
	Triggered    bool           `json:"triggered"`
	TriggeredAt  *time.Time     `json:"triggered_at,omitempty"`
	ResetAt      *time.Time     `json:"reset_at,omitempty"`
	CurrentValue float64        `json:"current_value"`
}

// SpawnPolicy is the inherited, monotonically-tightening policy envelope a
// spawned child's limits are derived from.
type SpawnPolicy struct {
	MaxSpendRatio       float64           `json:"max_spend_ratio"`
	MaxTransactionRatio float64           `json:"max_transaction_ratio"`
	MaxSpawnDepth       int               `json:"max_spawn_depth"`
	MaxChildren         int               `json:"max_children"`
	ChildrenCanSpawn    bool              `json:"children_can_spawn"`
	RuleOverrides       map[string]int64 `json:"rule_overrides,omitempty"`
	VendorAllowlist     []string         `json:"vendor_allowlist,omitempty"`
}

// DefaultSpawnPolicy is the root policy envelope assigned
// when no ancestor lineage defines one.
func DefaultSpawnPolicy() SpawnPolicy {
	return SpawnPolicy{
		MaxSpendRatio:       1.0,
		MaxTransactionRatio: 1.0,
		MaxSpawnDepth:       3,
		MaxChildren:         10,
		ChildrenCanSpawn:    true,
	}
}

// AgentLineage is one node of the spawn tree rooted at a distinguished agent.
type AgentLineage struct {
	AgentID     string        `json:"agent_id"`
	ParentID    string        `json:"parent_id,omitempty"`
	RootID      string        `json:"root_id"`
	Depth       int           `json:"depth"`
	ChildrenIDs []string      `json:"children_ids,omitempty"`
	Status      LineageStatus `json:"status"`
	SpawnPolicy SpawnPolicy   `json:"spawn_policy"`
}

// SpawnEvent is an append-only record of one authorized spawn attempt.
type SpawnEvent struct {
	ID              string      `json:"id"`
	ParentID        string      `json:"parent_id"`
	ChildID         string      `json:"child_id"`
	Depth           int         `json:"depth"`
	InheritedPolicy SpawnPolicy `json:"inherited_policy"`
	Authorized      bool        `json:"authorized"`
	CreatedAt       time.Time   `json:"created_at"`
}

// CrossAgentLimits bounds one CrossAgentPolicy's authorized throughput.
type CrossAgentLimits struct {
	AllowedPaymentTypes       []string `json:"allowed_payment_types"`
	MaxPerTransaction         int64    `json:"max_per_transaction_cents"`
	MaxDailyToTarget          int64    `json:"max_daily_to_target_cents"`
	MaxDailyAllAgents         int64    `json:"max_daily_all_agents_cents"`
	RequireHumanApprovalAbove int64    `json:"require_human_approval_above_cents"`
}

// CrossAgentPolicy governs payments between an ordered agent pair, a group,
// or (if both target fields are empty) a wildcard fallback.
type CrossAgentPolicy struct {
	ID                        string           `json:"id"`
	OwnerID                   string           `json:"owner_id"`
	SourceAgentID             string           `json:"source_agent_id"`
	TargetAgentID             string           `json:"target_agent_id,omitempty"`
	TargetAgentGroup          string           `json:"target_agent_group,omitempty"`
	Limits                    CrossAgentLimits `json:"limits"`
	RequireMutualPolicy       bool             `json:"require_mutual_policy"`
	SettlementMode            SettlementMode   `json:"settlement_mode"`
	MinCounterpartyTrustScore float64          `json:"min_counterparty_trust_score"`
	Enabled                   bool             `json:"enabled"`
}

// CrossAgentTransaction is one agent-to-agent payment authorization attempt.
type CrossAgentTransaction struct {
	ID                  string              `json:"id"`
	SourceAgentID       string              `json:"source_agent_id"`
	TargetAgentID       string              `json:"target_agent_id"`
	Amount              int64               `json:"amount_cents"`
	PaymentType         string              `json:"payment_type"`
	Authorized          bool                `json:"authorized"`
	AuthorizationMethod AuthorizationMethod `json:"authorization_method,omitempty"`
	SettlementStatus    SettlementStatus    `json:"settlement_status"`
	RequiresHuman       bool                `json:"requires_human"`
	CreatedAt           time.Time           `json:"created_at"`
}

// DeadManSwitchConfig holds one agent's liveness/velocity/anomaly thresholds
// and action ladder.
type DeadManSwitchConfig struct {
	AgentID                  string        `json:"agent_id"`
	HeartbeatIntervalSeconds int           `json:"heartbeat_interval_seconds"`
	MissedHeartbeatThreshold float64       `json:"missed_heartbeat_threshold"`
	AnomalyWindowMinutes     int           `json:"anomaly_window_minutes"`
	AnomalySpendMultiplier   float64       `json:"anomaly_spend_multiplier"`
	AnomalyTxCountMultiplier float64       `json:"anomaly_tx_count_multiplier"`
	MaxTxPerMinute           int           `json:"max_tx_per_minute"`
	MaxUniqueVendorsPerHour  int           `json:"max_unique_vendors_per_hour"`
	OnAnomaly                DeadManAction `json:"on_anomaly"`
	OnMissedHeartbeat        DeadManAction `json:"on_missed_heartbeat"`
	OnManualTrigger          DeadManAction `json:"on_manual_trigger"`
	CascadeToChildren        bool          `json:"cascade_to_children"`
	RecoveryRequiresHuman    bool          `json:"recovery_requires_human"`
}

// DeadManSwitchEvent is an append-only record of one trigger/action/cascade.
type DeadManSwitchEvent struct {
	ID           string        `json:"id"`
	AgentID      string        `json:"agent_id"`
	TriggerType  string        `json:"trigger_type"`
	ActionTaken  DeadManAction `json:"action_taken"`
	Details      string        `json:"details,omitempty"`
	CascadedTo   []string      `json:"cascaded_to,omitempty"`
	Resolved     bool          `json:"resolved"`
	CreatedAt    time.Time     `json:"created_at"`
}

// AgentGroup is a named set of agents, used only as a CrossAgentPolicy
// targetAgentGroup resolution anchor.
type AgentGroup struct {
	ID        string   `json:"id"`
	OwnerID   string   `json:"owner_id"`
	Name      string   `json:"name"`
	AgentIDs  []string `json:"agent_ids"`
}

// AuditLog is one append-only, never-updated record of a state-changing
// operation or decision.
type AuditLog struct {
	ID         string        `json:"id"`
	AgentID    string        `json:"agent_id"`
	Action     string        `json:"action"`
	Resource   string        `json:"resource"`
	ResourceID string        `json:"resource_id"`
	Decision   AuditDecision `json:"decision"`
	Reasoning  string        `json:"reasoning"`
	Timestamp  time.Time     `json:"timestamp"`
}
