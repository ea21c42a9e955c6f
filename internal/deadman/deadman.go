// Package deadman implements the dead-man switch: a
// synchronous pre-transaction gate plus a periodic background sweep for
// missed heartbeats. In-process liveness state (frozen set, heartbeats,
// recent-transaction windows) lives behind a single sync.RWMutex-guarded
// struct, a concurrency-safe map abstraction —
// soft state, rebuildable from the Store's event log after a restart.
package deadman

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/agentwallet/agentwallet/internal/lineage"
	"github.com/agentwallet/agentwallet/internal/pkg/applog"
	"github.com/agentwallet/agentwallet/internal/pkg/errno"
	"github.com/agentwallet/agentwallet/internal/pkg/idgen"
	"github.com/agentwallet/agentwallet/internal/store"
)

type txRecord struct {
	at     time.Time
	vendor string
}

// NotifyFunc is a best-effort external hook invoked on every triggered
// event. Its failure never blocks admission.
type NotifyFunc func(ctx context.Context, event *store.DeadManSwitchEvent)

// Monitor is the per-process dead-man switch state machine.
type Monitor struct {
	store    store.Store
	lineage  *lineage.Governor
	notify   NotifyFunc

	mu            sync.RWMutex
	frozen        map[string]bool
	lastHeartbeat map[string]time.Time
	recent        map[string][]txRecord
}

// New constructs a Monitor over s. notify may be nil.
func New(s store.Store, notify NotifyFunc) *Monitor {
	if notify == nil {
		notify = func(context.Context, *store.DeadManSwitchEvent) {}
	}
	return &Monitor{
		store:         s,
		lineage:       lineage.New(s),
		notify:        notify,
		frozen:        make(map[string]bool),
		lastHeartbeat: make(map[string]time.Time),
		recent:        make(map[string][]txRecord),
	}
}

// Heartbeat refreshes agentID's last-seen time and reports whether it is
// frozen (in which case the agent must cease all transactions) along with
// the next deadline it must check in by.
func (m *Monitor) Heartbeat(ctx context.Context, agentID string, now time.Time) (nextDeadline time.Time, blocked bool, err error) {
	if m.isFrozen(agentID) {
		return time.Time{}, true, nil
	}
	cfg, err := m.store.GetDeadManConfig(ctx, agentID)
	if err != nil {
		return time.Time{}, false, err
	}
	m.mu.Lock()
	m.lastHeartbeat[agentID] = now
	m.mu.Unlock()
	return now.Add(time.Duration(cfg.HeartbeatIntervalSeconds) * time.Second), false, nil
}

func (m *Monitor) isFrozen(agentID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frozen[agentID]
}

// Evaluate is the synchronous pre-transaction gate: it
// returns false when the candidate must be blocked, after recording the
// triggering event if one fired.
func (m *Monitor) Evaluate(ctx context.Context, agentID string, amount int64, vendor string, now time.Time) (bool, error) {
	if m.isFrozen(agentID) {
		return false, nil
	}
	cfg, err := m.store.GetDeadManConfig(ctx, agentID)
	if err == errno.ErrDeadManConfigMissing {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	m.pruneRecent(agentID, now)

	if count := m.countSince(agentID, now.Add(-time.Minute)); count >= cfg.MaxTxPerMinute && cfg.MaxTxPerMinute > 0 {
		if _, err := m.trigger(ctx, agentID, cfg, "velocity", "tx/min exceeded maxTxPerMinute", cfg.OnAnomaly, now); err != nil {
			return false, err
		}
		return false, nil
	}

	if vendor != "" {
		unique, err := m.uniqueVendorsSince(ctx, agentID, now.Add(-time.Hour))
		if err != nil {
			return false, err
		}
		if !unique[vendor] {
			if len(unique)+1 > cfg.MaxUniqueVendorsPerHour && cfg.MaxUniqueVendorsPerHour > 0 {
				if _, err := m.trigger(ctx, agentID, cfg, "vendor_diversity", "unique vendors/hour exceeded maxUniqueVendorsPerHour", cfg.OnAnomaly, now); err != nil {
					return false, err
				}
				return false, nil
			}
		}
	}

	current, baseline, err := m.spendAnomaly(ctx, agentID, cfg, amount, now)
	if err != nil {
		return false, err
	}
	if baseline > 0 && current > baseline*cfg.AnomalySpendMultiplier {
		if _, err := m.trigger(ctx, agentID, cfg, "spend_anomaly", "spend exceeded anomaly baseline", cfg.OnAnomaly, now); err != nil {
			return false, err
		}
		if cfg.OnAnomaly.Severity() >= store.ActionFreeze.Severity() {
			return false, nil
		}
	}

	m.record(agentID, now, vendor)
	return true, nil
}

func (m *Monitor) record(agentID string, now time.Time, vendor string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recent[agentID] = append(m.recent[agentID], txRecord{at: now, vendor: vendor})
}

func (m *Monitor) pruneRecent(agentID string, now time.Time) {
	cutoff := now.Add(-time.Hour)
	m.mu.Lock()
	defer m.mu.Unlock()
	records := m.recent[agentID]
	kept := records[:0]
	for _, r := range records {
		if !r.at.Before(cutoff) {
			kept = append(kept, r)
		}
	}
	m.recent[agentID] = kept
}

func (m *Monitor) countSince(agentID string, since time.Time) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int
	for _, r := range m.recent[agentID] {
		if !r.at.Before(since) {
			n++
		}
	}
	return n
}

// uniqueVendorsSince counts unique vendor identifiers in the trailing
// window by joining the in-process recent-transaction cache with Store
// history, the same way spendAnomaly reads through to Store rather than
// relying solely on what this process has observed since it started.
func (m *Monitor) uniqueVendorsSince(ctx context.Context, agentID string, since time.Time) (map[string]bool, error) {
	out := make(map[string]bool)

	m.mu.RLock()
	for _, r := range m.recent[agentID] {
		if r.vendor != "" && !r.at.Before(since) {
			out[r.vendor] = true
		}
	}
	m.mu.RUnlock()

	wallets, err := m.store.ListWalletsByAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	for _, w := range wallets {
		txs, err := m.store.ListTransactionsByWallet(ctx, w.ID)
		if err != nil {
			return nil, err
		}
		for _, t := range txs {
			if t.RecipientID == "" || t.CreatedAt.Before(since) {
				continue
			}
			out[t.RecipientID] = true
		}
	}
	return out, nil
}

// spendAnomaly computes S_current (completed spend in the trailing
// anomaly window plus this candidate amount) and B (mean spend of up to 7
// preceding non-empty equal-width windows).
func (m *Monitor) spendAnomaly(ctx context.Context, agentID string, cfg *store.DeadManSwitchConfig, amount int64, now time.Time) (current, baseline float64, err error) {
	wallets, err := m.store.ListWalletsByAgent(ctx, agentID)
	if err != nil {
		return 0, 0, err
	}
	windowLen := time.Duration(cfg.AnomalyWindowMinutes) * time.Minute
	if windowLen <= 0 {
		return 0, 0, nil
	}

	spendInWindow := func(start, end time.Time) (int64, error) {
		var total int64
		for _, w := range wallets {
			txs, err := m.store.ListTransactionsByWallet(ctx, w.ID)
			if err != nil {
				return 0, err
			}
			for _, t := range txs {
				if t.Status != store.TxCompleted || t.Category == store.DepositCategory {
					continue
				}
				if t.CreatedAt.Before(start) || t.CreatedAt.After(end) {
					continue
				}
				total += t.Amount
			}
		}
		return total, nil
	}

	currentSpend, err := spendInWindow(now.Add(-windowLen), now)
	if err != nil {
		return 0, 0, err
	}
	current = float64(currentSpend + amount)

	var sum float64
	var nonEmpty int
	for i := 1; i <= 7; i++ {
		end := now.Add(-windowLen * time.Duration(i))
		start := end.Add(-windowLen)
		spent, err := spendInWindow(start, end)
		if err != nil {
			return 0, 0, err
		}
		if spent > 0 {
			sum += float64(spent)
			nonEmpty++
		}
	}
	if nonEmpty > 0 {
		baseline = sum / float64(nonEmpty)
	}
	return current, baseline, nil
}

// trigger runs the action ladder and emits a DeadManSwitchEvent.
func (m *Monitor) trigger(ctx context.Context, agentID string, cfg *store.DeadManSwitchConfig, triggerType, details string, action store.DeadManAction, now time.Time) (*store.DeadManSwitchEvent, error) {
	var cascadedTo []string
	switch action {
	case store.ActionAlert:
		// no state change
	case store.ActionThrottle:
		if err := m.throttle(ctx, agentID); err != nil {
			return nil, err
		}
	case store.ActionFreeze:
		ids, err := m.freeze(ctx, agentID, cfg.CascadeToChildren, now)
		if err != nil {
			return nil, err
		}
		cascadedTo = ids
	case store.ActionTerminate:
		ids, err := m.terminate(ctx, agentID, cfg.CascadeToChildren, now)
		if err != nil {
			return nil, err
		}
		cascadedTo = ids
	}

	event := &store.DeadManSwitchEvent{
		ID:          idgen.NewPrefixed("dme"),
		AgentID:     agentID,
		TriggerType: triggerType,
		ActionTaken: action,
		Details:     details,
		CascadedTo:  cascadedTo,
		CreatedAt:   now,
	}
	if err := m.store.CreateDeadManEvent(ctx, event); err != nil {
		return nil, err
	}
	applog.Warn("dead-man switch triggered: agent=%s trigger=%s action=%s", agentID, triggerType, action)
	m.notify(ctx, event)
	return event, nil
}

func (m *Monitor) throttle(ctx context.Context, agentID string) error {
	wallets, err := m.store.ListWalletsByAgent(ctx, agentID)
	if err != nil {
		return err
	}
	for _, w := range wallets {
		rules, err := m.store.ListActiveRulesByWallet(ctx, w.ID)
		if err != nil {
			return err
		}
		for _, r := range rules {
			if r.Kind != store.RuleDailyLimit {
				continue
			}
			if limit, ok := r.Params["limit"].(float64); ok {
				r.Params["limit"] = limit * 0.1
			}
			r.Throttled = true
			if err := m.store.UpdateRule(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Monitor) freeze(ctx context.Context, agentID string, cascade bool, now time.Time) ([]string, error) {
	ids, err := m.lineage.FreezeLineage(ctx, agentID, cascade, now)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	for _, id := range ids {
		m.frozen[id] = true
	}
	m.mu.Unlock()
	return ids, nil
}

func (m *Monitor) terminate(ctx context.Context, agentID string, cascade bool, now time.Time) ([]string, error) {
	ids, err := m.lineage.TerminateLineage(ctx, agentID, cascade, now)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	for _, id := range ids {
		m.frozen[id] = true
	}
	m.mu.Unlock()
	return ids, nil
}

// Trigger runs the action ladder for a manual operator-initiated trigger
// (onManualTrigger), bypassing the synchronous checks.
func (m *Monitor) Trigger(ctx context.Context, agentID string, now time.Time) (*store.DeadManSwitchEvent, error) {
	cfg, err := m.store.GetDeadManConfig(ctx, agentID)
	if err != nil {
		return nil, err
	}
	return m.trigger(ctx, agentID, cfg, "manual", "operator-initiated trigger", cfg.OnManualTrigger, now)
}

// Unfreeze is the operator-only recovery path. Terminated agents are never
// recoverable.
func (m *Monitor) Unfreeze(ctx context.Context, agentID string, now time.Time) (*store.DeadManSwitchEvent, error) {
	agent, err := m.store.GetAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if agent.Status == store.AgentTerminated {
		return nil, errno.ErrAgentNotActive
	}
	agent.Status = store.AgentActive
	agent.UpdatedAt = now
	if err := m.store.UpdateAgent(ctx, agent); err != nil {
		return nil, err
	}
	m.mu.Lock()
	delete(m.frozen, agentID)
	m.mu.Unlock()

	event := &store.DeadManSwitchEvent{
		ID:          idgen.NewPrefixed("dme"),
		AgentID:     agentID,
		TriggerType: "recovery",
		ActionTaken: store.ActionFreeze,
		Resolved:    true,
		CreatedAt:   now,
	}
	if err := m.store.CreateDeadManEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// Sweep runs one pass of the background missed-heartbeat check. It
// snapshots the known agent set before doing any I/O, honoring the
// "MUST NOT hold any lock across I/O" requirement.
func (m *Monitor) Sweep(ctx context.Context, now time.Time) error {
	ids := m.snapshotAgentIDs()
	sort.Strings(ids)
	for _, id := range ids {
		if err := m.sweepOne(ctx, id, now); err != nil {
			applog.Error("dead-man sweep failed for agent %s: %v", id, err)
		}
	}
	return nil
}

func (m *Monitor) snapshotAgentIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.lastHeartbeat))
	for id := range m.lastHeartbeat {
		ids = append(ids, id)
	}
	return ids
}

func (m *Monitor) sweepOne(ctx context.Context, agentID string, now time.Time) error {
	if m.isFrozen(agentID) {
		return nil
	}
	cfg, err := m.store.GetDeadManConfig(ctx, agentID)
	if err != nil {
		return err
	}
	m.mu.RLock()
	last := m.lastHeartbeat[agentID]
	m.mu.RUnlock()
	if last.IsZero() {
		return nil
	}
	deadline := time.Duration(float64(cfg.HeartbeatIntervalSeconds)*cfg.MissedHeartbeatThreshold) * time.Second
	if now.Sub(last) > deadline {
		_, err := m.trigger(ctx, agentID, cfg, "missed_heartbeat", "heartbeat deadline exceeded", cfg.OnMissedHeartbeat, now)
		return err
	}
	return nil
}

// RunLoop runs Sweep on a ~10s cadence until ctx is cancelled.
func (m *Monitor) RunLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-ticker.C:
			if err := m.Sweep(ctx, t); err != nil {
				applog.Error("dead-man sweep error: %v", err)
			}
		}
	}
}
