package store

import "context"

// Store is the narrow data gateway every other
// component talks to the database only through it, and it carries no
// business logic of its own. The composite methods (CompleteDebit,
// LatchKillSwitch, ResetKillSwitch, CreateSpawnRecord) exist because certain writes
// require those specific write pairs to commit atomically; everything
// else is a single-entity read or write.
type Store interface {
	// Owners.
	CreateOwner(ctx context.Context, o *Owner) error
	GetOwner(ctx context.Context, id string) (*Owner, error)
	GetOwnerByAPIKey(ctx context.Context, apiKey string) (*Owner, error)
	RotateOwnerAPIKey(ctx context.Context, ownerID, newKey string) error

	// Agents.
	CreateAgent(ctx context.Context, a *Agent) error
	GetAgent(ctx context.Context, id string) (*Agent, error)
	GetAgentByAPIKey(ctx context.Context, apiKey string) (*Agent, error)
	UpdateAgent(ctx context.Context, a *Agent) error
	ListAgentsByOwner(ctx context.Context, ownerID string) ([]*Agent, error)

	// Wallets.
	CreateWallet(ctx context.Context, w *Wallet) error
	GetWallet(ctx context.Context, id string) (*Wallet, error)
	UpdateWallet(ctx context.Context, w *Wallet) error
	ListWalletsByAgent(ctx context.Context, agentID string) ([]*Wallet, error)
	ListAllWallets(ctx context.Context) ([]*Wallet, error)

	// Spend rules.
	CreateRule(ctx context.Context, r *SpendRule) error
	GetRule(ctx context.Context, id string) (*SpendRule, error)
	UpdateRule(ctx context.Context, r *SpendRule) error
	DeleteRule(ctx context.Context, id string) error
	ListActiveRulesByWallet(ctx context.Context, walletID string) ([]*SpendRule, error)

	// Transactions.
	CreateTransaction(ctx context.Context, t *Transaction) error
	GetTransaction(ctx context.Context, id string) (*Transaction, error)
	UpdateTransaction(ctx context.Context, t *Transaction) error
	ListTransactionsByWallet(ctx context.Context, walletID string) ([]*Transaction, error)
	ListPendingApproval(ctx context.Context, walletID string) ([]*Transaction, error)

	// CompleteDebit atomically decrements the wallet balance and marks the
	// transaction Completed, a pairing that must commit
	// a single commit.
	CompleteDebit(ctx context.Context, walletID string, amount int64, tx *Transaction) error

	// Kill switches.
	CreateKillSwitch(ctx context.Context, k *KillSwitch) error
	GetKillSwitch(ctx context.Context, id string) (*KillSwitch, error)
	DeleteKillSwitch(ctx context.Context, id string) error
	ListKillSwitchesByWallet(ctx context.Context, walletID string) ([]*KillSwitch, error)

	// LatchKillSwitch atomically marks a kill switch triggered and the
	// wallet KillSwitched, atomically.
	LatchKillSwitch(ctx context.Context, k *KillSwitch, walletID string) error
	// ResetKillSwitch atomically clears a kill switch's triggered state and
	// restores the wallet to Active.
	ResetKillSwitch(ctx context.Context, k *KillSwitch, walletID string) error

	// Lineage.
	CreateLineage(ctx context.Context, l *AgentLineage) error
	GetLineage(ctx context.Context, agentID string) (*AgentLineage, error)
	UpdateLineage(ctx context.Context, l *AgentLineage) error
	CreateSpawnEvent(ctx context.Context, e *SpawnEvent) error

	// CreateSpawnRecord atomically creates the child's lineage, updates the
	// parent's lineage (children list), and appends the spawn event — the
	// three-way commit this must make atomically.
	CreateSpawnRecord(ctx context.Context, child *AgentLineage, parent *AgentLineage, event *SpawnEvent) error

	// Agent groups.
	CreateGroup(ctx context.Context, g *AgentGroup) error
	GetGroup(ctx context.Context, id string) (*AgentGroup, error)
	ListGroupsByOwner(ctx context.Context, ownerID string) ([]*AgentGroup, error)

	// Cross-agent policies and transactions.
	CreatePolicy(ctx context.Context, p *CrossAgentPolicy) error
	GetPolicy(ctx context.Context, id string) (*CrossAgentPolicy, error)
	ListPoliciesByOwner(ctx context.Context, ownerID string) ([]*CrossAgentPolicy, error)
	ListPoliciesBySource(ctx context.Context, sourceAgentID string) ([]*CrossAgentPolicy, error)
	CreateCrossTx(ctx context.Context, x *CrossAgentTransaction) error
	GetCrossTx(ctx context.Context, id string) (*CrossAgentTransaction, error)
	UpdateCrossTx(ctx context.Context, x *CrossAgentTransaction) error
	ListCrossTxBySource(ctx context.Context, sourceAgentID string) ([]*CrossAgentTransaction, error)
	ListCrossTxByTarget(ctx context.Context, targetAgentID string) ([]*CrossAgentTransaction, error)

	// Dead-man switch.
	PutDeadManConfig(ctx context.Context, c *DeadManSwitchConfig) error
	GetDeadManConfig(ctx context.Context, agentID string) (*DeadManSwitchConfig, error)
	CreateDeadManEvent(ctx context.Context, e *DeadManSwitchEvent) error
	ListDeadManEvents(ctx context.Context, agentID string) ([]*DeadManSwitchEvent, error)

	// Audit.
	AppendAudit(ctx context.Context, e *AuditLog) error
	ListAuditByAgent(ctx context.Context, agentID string, limit int) ([]*AuditLog, error)
	ListAuditAll(ctx context.Context, limit int) ([]*AuditLog, error)

	Close() error
}
