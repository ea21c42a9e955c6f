// Package admission is the single entry point every spend request passes
// through: preconditions, dead-man, kill switch, rules, ledger debit, and
// audit, composed in that fixed order with a per-wallet serialization
// claim held across the whole path.
package admission

import (
	"context"
	"sync"
	"time"

	"github.com/agentwallet/agentwallet/internal/audit"
	"github.com/agentwallet/agentwallet/internal/deadman"
	"github.com/agentwallet/agentwallet/internal/killswitch"
	"github.com/agentwallet/agentwallet/internal/pkg/codec"
	"github.com/agentwallet/agentwallet/internal/pkg/errno"
	"github.com/agentwallet/agentwallet/internal/pkg/idgen"
	"github.com/agentwallet/agentwallet/internal/rules"
	"github.com/agentwallet/agentwallet/internal/store"
)

// Candidate is one spend attempt, prior to a Transaction id being minted.
type Candidate struct {
	Amount        int64
	Category      string
	RecipientID   string
	RecipientType store.RecipientType
	Description   string
	Metadata      map[string]any
}

// Controller composes the gates and owns the per-wallet serialization.
type Controller struct {
	store     store.Store
	rules     *rules.Engine
	kill      *killswitch.Engine
	deadman   *deadman.Monitor
	audit     *audit.Recorder

	walletLocks sync.Map // walletID -> *sync.Mutex
}

// New constructs a Controller wiring all gate engines over s.
func New(s store.Store, ks *killswitch.Engine, dm *deadman.Monitor) *Controller {
	return &Controller{
		store:   s,
		rules:   rules.New(s),
		kill:    ks,
		deadman: dm,
		audit:   audit.New(s),
	}
}

func (c *Controller) lockFor(walletID string) *sync.Mutex {
	v, _ := c.walletLocks.LoadOrStore(walletID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Submit runs candidate through the full admission path for walletID.
func (c *Controller) Submit(ctx context.Context, walletID string, candidate Candidate, now time.Time) (*store.Transaction, error) {
	lock := c.lockFor(walletID)
	lock.Lock()
	defer lock.Unlock()

	wallet, err := c.store.GetWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if candidate.Amount <= 0 {
		return nil, errno.ErrInvalidAmount
	}
	if wallet.Status != store.WalletActive {
		return nil, errno.ErrWalletNotActive
	}
	if wallet.Balance < candidate.Amount {
		tx := c.newTransaction(walletID, candidate, store.TxRejected, now)
		if err := c.store.CreateTransaction(ctx, tx); err != nil {
			return nil, err
		}
		c.recordOutcome(ctx, wallet.AgentID, tx, store.DecisionBlocked, "insufficient balance", now)
		return tx, errno.ErrInsufficientFunds
	}

	agent, err := c.store.GetAgent(ctx, wallet.AgentID)
	if err != nil {
		return nil, err
	}

	if c.deadman != nil {
		ok, err := c.deadman.Evaluate(ctx, agent.ID, candidate.Amount, candidate.RecipientID, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			tx := c.newTransaction(walletID, candidate, store.TxRejected, now)
			if err := c.store.CreateTransaction(ctx, tx); err != nil {
				return nil, err
			}
			c.recordOutcome(ctx, agent.ID, tx, store.DecisionBlocked, "blocked by dead-man switch", now)
			return tx, errno.ErrLatchedCircuit
		}
	}

	if c.kill != nil {
		fired, err := c.kill.Evaluate(ctx, walletID, now)
		if err != nil {
			return nil, err
		}
		if fired != nil {
			tx := c.newTransaction(walletID, candidate, store.TxKillSwitched, now)
			if err := c.store.CreateTransaction(ctx, tx); err != nil {
				return nil, err
			}
			if !fired.Triggered {
				if err := c.kill.Latch(ctx, fired, walletID, now); err != nil {
					return nil, err
				}
			}
			c.recordOutcome(ctx, agent.ID, tx, store.DecisionBlocked, "kill switch "+string(fired.Kind), now)
			return tx, errno.ErrLatchedCircuit
		}
	}

	verdict, err := c.rules.Evaluate(ctx, walletID, rules.Candidate{
		Amount:      candidate.Amount,
		Category:    candidate.Category,
		RecipientID: candidate.RecipientID,
		Metadata:    candidate.Metadata,
		Now:         now,
	})
	if err != nil {
		return nil, err
	}

	switch {
	case !verdict.Approved:
		tx := c.newTransaction(walletID, candidate, store.TxRejected, now)
		tx.RuleCheckResults = verdict.Results
		if err := c.store.CreateTransaction(ctx, tx); err != nil {
			return nil, err
		}
		c.recordOutcome(ctx, agent.ID, tx, store.DecisionBlocked, "rejected by rules engine", now)
		return tx, errno.ErrPolicyBlocked

	case verdict.RequiresApproval:
		tx := c.newTransaction(walletID, candidate, store.TxAwaitingApproval, now)
		tx.RuleCheckResults = verdict.Results
		if err := c.store.CreateTransaction(ctx, tx); err != nil {
			return nil, err
		}
		c.recordOutcome(ctx, agent.ID, tx, store.DecisionEscalated, "awaiting approval threshold", now)
		return tx, nil

	default:
		tx := c.newTransaction(walletID, candidate, store.TxApproved, now)
		tx.RuleCheckResults = verdict.Results
		if err := c.store.CompleteDebit(ctx, walletID, candidate.Amount, completed(tx, now)); err != nil {
			return nil, err
		}
		tx.Status = store.TxCompleted
		tx.CompletedAt = &now
		c.recordOutcome(ctx, agent.ID, tx, store.DecisionAllowed, "approved", now)
		return tx, nil
	}
}

func completed(tx *store.Transaction, now time.Time) *store.Transaction {
	cp := *tx
	cp.Status = store.TxCompleted
	cp.CompletedAt = &now
	return &cp
}

func (c *Controller) newTransaction(walletID string, candidate Candidate, status store.TransactionStatus, now time.Time) *store.Transaction {
	return &store.Transaction{
		ID:            idgen.NewPrefixed("tx"),
		WalletID:      walletID,
		Amount:        candidate.Amount,
		RecipientID:   candidate.RecipientID,
		RecipientType: candidate.RecipientType,
		Category:      candidate.Category,
		Description:   candidate.Description,
		Metadata:      candidate.Metadata,
		Status:        status,
		CreatedAt:     now,
	}
}

func (c *Controller) recordOutcome(ctx context.Context, agentID string, tx *store.Transaction, decision store.AuditDecision, reason string, now time.Time) {
	_ = c.audit.Record(ctx, agentID, "submit", "transaction", tx.ID, decision, reasoning(tx, reason), now)
}

// reasoning builds the audit entry's reasoning field. Every outcome that
// passed through the rules engine carries its full RuleCheckResults, JSON-
// encoded via the sonic-backed codec, appended to the short label — the
// audit trail records what every rule decided, not just a one-line gloss.
// Outcomes that never reached the rules engine (insufficient balance,
// dead-man, kill switch, deposit) have no results to encode and fall back
// to the label alone.
func reasoning(tx *store.Transaction, reason string) string {
	if len(tx.RuleCheckResults) == 0 {
		return reason
	}
	encoded, err := codec.Marshal(tx.RuleCheckResults)
	if err != nil {
		return reason
	}
	return reason + ": " + string(encoded)
}

// Approve transitions an AwaitingApproval transaction to Completed,
// re-checking balance at execute time.
func (c *Controller) Approve(ctx context.Context, txID, operator string, now time.Time) (*store.Transaction, error) {
	tx, err := c.store.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	if tx.Status != store.TxAwaitingApproval {
		return nil, errno.ErrTxNotAwaiting
	}
	lock := c.lockFor(tx.WalletID)
	lock.Lock()
	defer lock.Unlock()

	wallet, err := c.store.GetWallet(ctx, tx.WalletID)
	if err != nil {
		return nil, err
	}
	if wallet.Balance < tx.Amount {
		return nil, errno.ErrInsufficientFunds
	}
	if err := c.store.CompleteDebit(ctx, tx.WalletID, tx.Amount, completed(tx, now)); err != nil {
		return nil, err
	}
	tx.Status = store.TxCompleted
	tx.CompletedAt = &now
	c.recordOutcome(ctx, wallet.AgentID, tx, store.DecisionAllowed, "approved by "+operator, now)
	return tx, nil
}

// Reject transitions an AwaitingApproval transaction to Rejected.
func (c *Controller) Reject(ctx context.Context, txID, operator, reason string, now time.Time) (*store.Transaction, error) {
	tx, err := c.store.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	if tx.Status != store.TxAwaitingApproval {
		return nil, errno.ErrTxNotAwaiting
	}
	if tx.Metadata == nil {
		tx.Metadata = make(map[string]any)
	}
	tx.Metadata["rejection_reason"] = reason
	tx.Metadata["rejected_by"] = operator
	tx.Status = store.TxRejected
	if err := c.store.UpdateTransaction(ctx, tx); err != nil {
		return nil, err
	}
	wallet, err := c.store.GetWallet(ctx, tx.WalletID)
	if err == nil {
		c.recordOutcome(ctx, wallet.AgentID, tx, store.DecisionBlocked, "rejected by "+operator+": "+reason, now)
	}
	return tx, nil
}

// Deposit bypasses the rules engine entirely: it increments the balance
// and writes a Completed deposit transaction directly.
func (c *Controller) Deposit(ctx context.Context, walletID string, amount int64, description string, now time.Time) (*store.Transaction, error) {
	if amount <= 0 {
		return nil, errno.ErrInvalidAmount
	}
	lock := c.lockFor(walletID)
	lock.Lock()
	defer lock.Unlock()

	wallet, err := c.store.GetWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}
	wallet.Balance += amount
	wallet.UpdatedAt = now
	tx := &store.Transaction{
		ID:            idgen.NewPrefixed("tx"),
		WalletID:      walletID,
		Amount:        amount,
		RecipientType: store.RecipientAgentWallet,
		Category:      store.DepositCategory,
		Description:   description,
		Status:        store.TxCompleted,
		CreatedAt:     now,
		CompletedAt:   &now,
	}
	if err := c.store.UpdateWallet(ctx, wallet); err != nil {
		return nil, err
	}
	if err := c.store.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}
	c.recordOutcome(ctx, wallet.AgentID, tx, store.DecisionAllowed, "deposit", now)
	return tx, nil
}
