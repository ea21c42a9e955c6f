// Package killswitch implements the per-wallet latching circuit breaker of
// four trigger kinds evaluated against transaction history,
// an atomic latch (wallet.status=KillSwitched + switch.triggered=true) via
// the Store's composite write, and an operator-only reset.
package killswitch

import (
	"context"
	"sort"
	"time"

	"github.com/agentwallet/agentwallet/internal/pkg/errno"
	"github.com/agentwallet/agentwallet/internal/pkg/timewindow"
	"github.com/agentwallet/agentwallet/internal/store"
)

// Engine evaluates and latches kill switches for a wallet.
type Engine struct {
	store store.Store
}

// New constructs a killswitch Engine over s.
func New(s store.Store) *Engine {
	return &Engine{store: s}
}

// Evaluate checks every active kill switch on walletID against history.
// The first switch whose trigger condition fires is returned with
// CurrentValue set; Evaluate does not latch it. Callers latch it with
// Latch and mark the offending Transaction KillSwitched themselves (the
// admission controller owns both writes). If any
// switch is already Triggered with no resetAt, it is returned immediately
// without re-evaluating the rest.
func (e *Engine) Evaluate(ctx context.Context, walletID string, now time.Time) (*store.KillSwitch, error) {
	switches, err := e.store.ListKillSwitchesByWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}
	for _, k := range switches {
		if k.Triggered && k.ResetAt == nil {
			return k, nil
		}
	}
	txs, err := e.store.ListTransactionsByWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}
	wallet, err := e.store.GetWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}
	for _, k := range switches {
		if !k.Active || k.Triggered {
			continue
		}
		fired, value := e.fires(k, txs, wallet.Balance, now)
		if fired {
			k.CurrentValue = value
			return k, nil
		}
	}
	return nil, nil
}

// Latch atomically triggers k for walletID.
func (e *Engine) Latch(ctx context.Context, k *store.KillSwitch, walletID string, now time.Time) error {
	k.Triggered = true
	k.TriggeredAt = &now
	return e.store.LatchKillSwitch(ctx, k, walletID)
}

// Reset clears a triggered kill switch and restores the wallet to Active.
// Operator-only.
func (e *Engine) Reset(ctx context.Context, switchID string, now time.Time) error {
	k, err := e.store.GetKillSwitch(ctx, switchID)
	if err != nil {
		return err
	}
	if !k.Triggered {
		return errno.ErrKillSwitchActive
	}
	k.Triggered = false
	k.TriggeredAt = nil
	k.CurrentValue = 0
	k.ResetAt = &now
	return e.store.ResetKillSwitch(ctx, k, k.WalletID)
}

func (e *Engine) fires(k *store.KillSwitch, txs []*store.Transaction, balance int64, now time.Time) (bool, float64) {
	switch k.Kind {
	case store.KillDrawdownPercent:
		return drawdownPercent(k, txs, balance, now)
	case store.KillLossAmount:
		return lossAmount(k, txs, now)
	case store.KillConsecutiveLosses:
		return consecutiveLosses(k, txs)
	case store.KillDailyLossLimit:
		return dailyLossLimit(k, txs, now)
	default:
		return false, 0
	}
}

func completedInWindow(txs []*store.Transaction, since time.Time) []*store.Transaction {
	var out []*store.Transaction
	for _, t := range txs {
		if t.Status == store.TxCompleted && !t.CreatedAt.Before(since) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// signedEffect reports tx's effect on the wallet balance: positive for
// deposits, negative for debits.
func signedEffect(t *store.Transaction) int64 {
	if t.Category == store.DepositCategory {
		return t.Amount
	}
	return -t.Amount
}

func drawdownPercent(k *store.KillSwitch, txs []*store.Transaction, balance int64, now time.Time) (bool, float64) {
	since := now.Add(-time.Duration(k.WindowHours) * time.Hour)
	window := completedInWindow(txs, since)
	var windowEffect int64
	for _, t := range window {
		windowEffect += signedEffect(t)
	}
	running := balance - windowEffect
	peak := running
	for _, t := range window {
		running += signedEffect(t)
		if running > peak {
			peak = running
		}
	}
	if peak <= 0 {
		return false, 0
	}
	drawdown := float64(peak-balance) / float64(peak)
	return drawdown >= k.Threshold, drawdown
}

func pnl(t *store.Transaction) float64 {
	v, _ := t.Metadata["pnl"].(float64)
	return v
}

func lossAmount(k *store.KillSwitch, txs []*store.Transaction, now time.Time) (bool, float64) {
	since := now.Add(-time.Duration(k.WindowHours) * time.Hour)
	var total float64
	for _, t := range completedInWindow(txs, since) {
		if loss := -pnl(t); loss > 0 {
			total += loss
		}
	}
	return total >= k.Threshold, total
}

func dailyLossLimit(k *store.KillSwitch, txs []*store.Transaction, now time.Time) (bool, float64) {
	since := timewindow.StartOfDay(now)
	var total float64
	for _, t := range completedInWindow(txs, since) {
		if loss := -pnl(t); loss > 0 {
			total += loss
		}
	}
	return total >= k.Threshold, total
}

func consecutiveLosses(k *store.KillSwitch, txs []*store.Transaction) (bool, float64) {
	var trading []*store.Transaction
	for _, t := range txs {
		if t.Status == store.TxCompleted && t.Category == "trading" {
			trading = append(trading, t)
		}
	}
	sort.Slice(trading, func(i, j int) bool { return trading[i].CreatedAt.After(trading[j].CreatedAt) })
	var streak int
	for _, t := range trading {
		if pnl(t) < 0 {
			streak++
			continue
		}
		break
	}
	return float64(streak) >= k.Threshold, float64(streak)
}

// EmergencyStop forces walletID to KillSwitched and agentID to Killed
// without evaluating any trigger.
func (e *Engine) EmergencyStop(ctx context.Context, walletID, agentID string, now time.Time) error {
	wallet, err := e.store.GetWallet(ctx, walletID)
	if err != nil {
		return err
	}
	wallet.Status = store.WalletKillSwitched
	wallet.UpdatedAt = now
	if err := e.store.UpdateWallet(ctx, wallet); err != nil {
		return err
	}
	agent, err := e.store.GetAgent(ctx, agentID)
	if err != nil {
		return err
	}
	agent.Status = store.AgentKilled
	agent.UpdatedAt = now
	if err := e.store.UpdateAgent(ctx, agent); err != nil {
		return err
	}
	return nil
}

// GlobalStop forces every agent an owner controls, and every wallet each of
// those agents holds, into the same KillSwitched/Killed state EmergencyStop
// puts a single wallet/agent pair into. It keeps going across agents after a
// per-agent failure, returning a per-agent error map the way
// AgentWalletManager.global_kill_switch's per-agent results dict does.
func (e *Engine) GlobalStop(ctx context.Context, ownerID string, now time.Time) (map[string]error, error) {
	agents, err := e.store.ListAgentsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	results := make(map[string]error, len(agents))
	for _, agent := range agents {
		results[agent.ID] = e.stopAgent(ctx, agent, now)
	}
	return results, nil
}

func (e *Engine) stopAgent(ctx context.Context, agent *store.Agent, now time.Time) error {
	wallets, err := e.store.ListWalletsByAgent(ctx, agent.ID)
	if err != nil {
		return err
	}
	for _, w := range wallets {
		w.Status = store.WalletKillSwitched
		w.UpdatedAt = now
		if err := e.store.UpdateWallet(ctx, w); err != nil {
			return err
		}
	}
	agent.Status = store.AgentKilled
	agent.UpdatedAt = now
	return e.store.UpdateAgent(ctx, agent)
}
