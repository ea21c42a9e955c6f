// Package errno collects the sentinel errors every AgentWallet component
// returns. Generalized from hivemind/service/agents/pkg/errno/errno.go's
// flat var block of errors.New sentinels.
package errno

import "errors"

var (
	// Not found.
	ErrOwnerNotFound        = errors.New("owner not found")
	ErrAgentNotFound        = errors.New("agent not found")
	ErrWalletNotFound       = errors.New("wallet not found")
	ErrRuleNotFound         = errors.New("spend rule not found")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrKillSwitchNotFound   = errors.New("kill switch not found")
	ErrLineageNotFound      = errors.New("lineage not found")
	ErrGroupNotFound        = errors.New("agent group not found")
	ErrPolicyNotFound       = errors.New("cross-agent policy not found")
	ErrCrossTxNotFound      = errors.New("cross-agent transaction not found")
	ErrDeadManConfigMissing = errors.New("dead-man switch config not found")

	// Validation.
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrInvalidRuleParams    = errors.New("invalid rule parameters")
	ErrUnknownRuleKind      = errors.New("unknown rule kind")
	ErrInvalidPolicy        = errors.New("invalid cross-agent policy")
	ErrSpawnPolicyViolation = errors.New("rule exceeds the limit inherited from the agent's spawn policy")

	// State conflicts.
	ErrWalletNotActive     = errors.New("wallet is not active")
	ErrAgentNotActive      = errors.New("agent is not active")
	ErrTxNotAwaiting       = errors.New("transaction is not awaiting approval")
	ErrLineageExists       = errors.New("lineage already exists for child")
	ErrSpawnDepthExceeded  = errors.New("maximum spawn depth exceeded")
	ErrSpawnChildrenFull   = errors.New("parent has reached maximum children")
	ErrSpawnNotAllowed     = errors.New("children of this agent may not spawn")
	ErrKillSwitchTriggered = errors.New("kill switch already triggered")
	ErrKillSwitchActive    = errors.New("kill switch is not triggered")
	ErrCrossTxNotEscalated = errors.New("cross-agent transaction is not pending human approval")

	// Funds / policy.
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrPolicyBlocked     = errors.New("blocked by policy")
	ErrLatchedCircuit    = errors.New("wallet or agent is latched")
)
