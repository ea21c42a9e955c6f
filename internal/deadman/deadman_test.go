package deadman

import (
	"context"
	"testing"
	"time"

	"github.com/agentwallet/agentwallet/internal/pkg/errno"
	"github.com/agentwallet/agentwallet/internal/store"
	"github.com/agentwallet/agentwallet/internal/store/inmemory"
)

func setupAgent(t *testing.T, s store.Store, agentID, walletID string, cfg *store.DeadManSwitchConfig) {
	t.Helper()
	ctx := context.Background()
	if err := s.CreateAgent(ctx, &store.Agent{ID: agentID, Status: store.AgentActive}); err != nil {
		t.Fatalf("create agent: %v", err)
	}
	if err := s.CreateWallet(ctx, &store.Wallet{ID: walletID, AgentID: agentID, Balance: 1000000, Status: store.WalletActive}); err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	cfg.AgentID = agentID
	if err := s.PutDeadManConfig(ctx, cfg); err != nil {
		t.Fatalf("put deadman config: %v", err)
	}
}

func TestEvaluateVelocityGateBlocksOnFourthTransaction(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()
	now := time.Now().UTC()

	setupAgent(t, s, "a1", "w1", &store.DeadManSwitchConfig{
		MaxTxPerMinute: 3,
		OnAnomaly:      store.ActionFreeze,
	})

	m := New(s, nil)
	for i := 0; i < 3; i++ {
		ok, err := m.Evaluate(ctx, "a1", 100, "vendor-1", now)
		if err != nil {
			t.Fatalf("evaluate %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("transaction %d should be admitted, maxTxPerMinute not yet exceeded", i+1)
		}
	}

	ok, err := m.Evaluate(ctx, "a1", 100, "vendor-1", now)
	if err != nil {
		t.Fatalf("evaluate 4th: %v", err)
	}
	if ok {
		t.Fatal("4th transaction within the same minute should be blocked by the velocity gate")
	}

	agent, err := s.GetAgent(ctx, "a1")
	if err != nil {
		t.Fatalf("get agent: %v", err)
	}
	if agent.Status != store.AgentFrozen {
		t.Fatalf("agent status = %s, want Frozen after velocity trigger with action=freeze", agent.Status)
	}

	events, err := s.ListDeadManEvents(ctx, "a1")
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 || events[0].TriggerType != "velocity" {
		t.Fatalf("expected exactly one velocity event, got %+v", events)
	}
}

func TestHeartbeatMissThresholdBoundary(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()
	now := time.Now().UTC()

	setupAgent(t, s, "a1", "w1", &store.DeadManSwitchConfig{
		HeartbeatIntervalSeconds: 60,
		MissedHeartbeatThreshold: 2.0,
		OnMissedHeartbeat:        store.ActionAlert,
	})

	m := New(s, nil)
	if _, _, err := m.Heartbeat(ctx, "a1", now); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}

	deadline := now.Add(120 * time.Second)
	if err := m.sweepOne(ctx, "a1", deadline); err != nil {
		t.Fatalf("sweep at deadline: %v", err)
	}
	events, err := s.ListDeadManEvents(ctx, "a1")
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("heartbeat exactly at the miss threshold must not trigger, got %d events", len(events))
	}

	beyond := deadline.Add(time.Nanosecond)
	if err := m.sweepOne(ctx, "a1", beyond); err != nil {
		t.Fatalf("sweep beyond deadline: %v", err)
	}
	events, err = s.ListDeadManEvents(ctx, "a1")
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 || events[0].TriggerType != "missed_heartbeat" {
		t.Fatalf("heartbeat strictly beyond the miss threshold must trigger exactly once, got %+v", events)
	}
}

func TestThrottleActionCutsDailyLimitToTenPercent(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()

	setupAgent(t, s, "a1", "w1", &store.DeadManSwitchConfig{})
	rule := &store.SpendRule{ID: "r1", WalletID: "w1", Kind: store.RuleDailyLimit, Params: map[string]any{"limit": 1000.0}, Active: true}
	if err := s.CreateRule(ctx, rule); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	m := New(s, nil)
	if err := m.throttle(ctx, "a1"); err != nil {
		t.Fatalf("throttle: %v", err)
	}

	got, err := s.GetRule(ctx, "r1")
	if err != nil {
		t.Fatalf("get rule: %v", err)
	}
	if !got.Throttled {
		t.Fatal("rule should be marked Throttled")
	}
	if limit := got.Params["limit"].(float64); limit != 100 {
		t.Fatalf("throttled daily limit = %v, want 100 (10%% of 1000)", limit)
	}
}

func TestFreezeActionCascadesToChildren(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()
	now := time.Now().UTC()

	setupAgent(t, s, "p", "wp", &store.DeadManSwitchConfig{OnAnomaly: store.ActionFreeze, CascadeToChildren: true})
	if err := s.CreateAgent(ctx, &store.Agent{ID: "c", Status: store.AgentActive}); err != nil {
		t.Fatalf("create child agent: %v", err)
	}
	if err := s.CreateLineage(ctx, &store.AgentLineage{AgentID: "p", RootID: "p", Depth: 0, Status: store.LineageActive, ChildrenIDs: []string{"c"}, SpawnPolicy: store.DefaultSpawnPolicy()}); err != nil {
		t.Fatalf("create parent lineage: %v", err)
	}
	if err := s.CreateLineage(ctx, &store.AgentLineage{AgentID: "c", ParentID: "p", RootID: "p", Depth: 1, Status: store.LineageActive, SpawnPolicy: store.DefaultSpawnPolicy()}); err != nil {
		t.Fatalf("create child lineage: %v", err)
	}

	m := New(s, nil)
	cfg, err := s.GetDeadManConfig(ctx, "p")
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if _, err := m.trigger(ctx, "p", cfg, "manual", "test", store.ActionFreeze, now); err != nil {
		t.Fatalf("trigger freeze: %v", err)
	}

	for _, id := range []string{"p", "c"} {
		agent, err := s.GetAgent(ctx, id)
		if err != nil {
			t.Fatalf("get agent %s: %v", id, err)
		}
		if agent.Status != store.AgentFrozen {
			t.Fatalf("agent %s status = %s, want Frozen", id, agent.Status)
		}
		if !m.isFrozen(id) {
			t.Fatalf("agent %s should be marked frozen in-process", id)
		}
	}
}

func TestTerminateActionCascadesAndIsIrreversible(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()
	now := time.Now().UTC()

	setupAgent(t, s, "p", "wp", &store.DeadManSwitchConfig{OnManualTrigger: store.ActionTerminate, CascadeToChildren: true})
	if err := s.CreateAgent(ctx, &store.Agent{ID: "c", Status: store.AgentActive}); err != nil {
		t.Fatalf("create child agent: %v", err)
	}
	if err := s.CreateLineage(ctx, &store.AgentLineage{AgentID: "p", RootID: "p", Depth: 0, Status: store.LineageActive, ChildrenIDs: []string{"c"}, SpawnPolicy: store.DefaultSpawnPolicy()}); err != nil {
		t.Fatalf("create parent lineage: %v", err)
	}
	if err := s.CreateLineage(ctx, &store.AgentLineage{AgentID: "c", ParentID: "p", RootID: "p", Depth: 1, Status: store.LineageActive, SpawnPolicy: store.DefaultSpawnPolicy()}); err != nil {
		t.Fatalf("create child lineage: %v", err)
	}

	m := New(s, nil)
	if _, err := m.Trigger(ctx, "p", now); err != nil {
		t.Fatalf("manual trigger: %v", err)
	}

	for _, id := range []string{"p", "c"} {
		agent, err := s.GetAgent(ctx, id)
		if err != nil {
			t.Fatalf("get agent %s: %v", id, err)
		}
		if agent.Status != store.AgentTerminated {
			t.Fatalf("agent %s status = %s, want Terminated", id, agent.Status)
		}
	}

	if _, err := m.Unfreeze(ctx, "p", now); err != errno.ErrAgentNotActive {
		t.Fatalf("unfreeze of a terminated agent should be rejected, got %v", err)
	}
}
