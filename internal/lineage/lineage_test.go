package lineage

import (
	"context"
	"testing"
	"time"

	"github.com/agentwallet/agentwallet/internal/store"
	"github.com/agentwallet/agentwallet/internal/store/inmemory"
)

func setupAgentWithWallet(t *testing.T, s store.Store, agentID, walletID string, dailyLimit float64) {
	t.Helper()
	ctx := context.Background()
	if err := s.CreateAgent(ctx, &store.Agent{ID: agentID, Status: store.AgentActive}); err != nil {
		t.Fatalf("create agent: %v", err)
	}
	if err := s.CreateWallet(ctx, &store.Wallet{ID: walletID, AgentID: agentID, Balance: 1000000, Status: store.WalletActive}); err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	if err := s.CreateRule(ctx, &store.SpendRule{ID: walletID + "-daily", WalletID: walletID, Kind: store.RuleDailyLimit, Params: map[string]any{"limit": dailyLimit}, Active: true}); err != nil {
		t.Fatalf("create rule: %v", err)
	}
}

func TestSpawnDerivesMonotonicallyTighterDailyLimit(t *testing.T) {
	s := inmemory.New()
	setupAgentWithWallet(t, s, "P", "wP", 1000)

	g := New(s)
	now := time.Now()
	childLineage, event, err := g.Spawn(context.Background(), "P", "C", Request{
		MaxSpendRatio: 0.5,
		RuleOverrides: map[string]int64{"DailyLimit": 800},
	}, now)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	got := childLineage.SpawnPolicy.RuleOverrides["DailyLimit"]
	if got != 500 {
		t.Fatalf("effective child DailyLimit = %d, want 500 (min(800, 1000*0.5))", got)
	}
	if event.Depth != 1 {
		t.Errorf("event depth = %d, want 1", event.Depth)
	}
}

func TestEffectiveLimitNeverLoosens(t *testing.T) {
	tests := []struct {
		name        string
		parentLimit int64
		ratio       float64
		override    int64
		want        int64
	}{
		{"no override", 1000, 0.5, 0, 500},
		{"override tighter than ratio", 1000, 0.5, 300, 300},
		{"override looser than ratio is clamped", 1000, 0.5, 800, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectiveLimit(tt.parentLimit, tt.ratio, tt.override)
			if got != tt.want {
				t.Errorf("EffectiveLimit(%d, %v, %d) = %d, want %d", tt.parentLimit, tt.ratio, tt.override, got, tt.want)
			}
		})
	}
}

func TestSpawnRejectsWhenDepthExceeded(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()
	if err := s.CreateAgent(ctx, &store.Agent{ID: "P", Status: store.AgentActive}); err != nil {
		t.Fatalf("create agent: %v", err)
	}
	policy := store.DefaultSpawnPolicy()
	policy.MaxSpawnDepth = 0
	if err := s.CreateLineage(ctx, &store.AgentLineage{AgentID: "P", RootID: "P", Depth: 0, Status: store.LineageActive, SpawnPolicy: policy}); err != nil {
		t.Fatalf("create lineage: %v", err)
	}

	g := New(s)
	_, _, err := g.Spawn(ctx, "P", "C", Request{}, time.Now())
	if err == nil {
		t.Fatal("expected spawn to be rejected when depth >= maxSpawnDepth")
	}
}

func TestEnforceRuleOverrideRejectsLooserLimit(t *testing.T) {
	s := inmemory.New()
	setupAgentWithWallet(t, s, "P", "wP", 1000)
	g := New(s)

	childLineage, _, err := g.Spawn(context.Background(), "P", "C", Request{MaxSpendRatio: 0.5}, time.Now())
	if err != nil {
		t.Fatalf("spawn child: %v", err)
	}
	ceiling := childLineage.SpawnPolicy.RuleOverrides["DailyLimit"]

	if err := EnforceRuleOverride(childLineage.SpawnPolicy, store.RuleDailyLimit, map[string]any{"limit": float64(ceiling) + 1}); err == nil {
		t.Fatalf("expected a DailyLimit rule above the inherited ceiling %d to be rejected", ceiling)
	}
	if err := EnforceRuleOverride(childLineage.SpawnPolicy, store.RuleDailyLimit, map[string]any{"limit": float64(ceiling)}); err != nil {
		t.Fatalf("rule at the inherited ceiling should be allowed: %v", err)
	}
	if err := EnforceRuleOverride(childLineage.SpawnPolicy, store.RuleDailyLimit, map[string]any{"limit": float64(ceiling) - 1}); err != nil {
		t.Fatalf("rule tighter than the inherited ceiling should be allowed: %v", err)
	}
	if err := EnforceRuleOverride(childLineage.SpawnPolicy, store.RuleCategoryWhitelist, map[string]any{"limit": float64(ceiling) + 1}); err != nil {
		t.Fatalf("a rule kind with no override on file should pass through: %v", err)
	}
}

func TestGrandchildInheritsTighterLimit(t *testing.T) {
	s := inmemory.New()
	setupAgentWithWallet(t, s, "P", "wP", 1000)
	g := New(s)
	now := time.Now()

	childLineage, _, err := g.Spawn(context.Background(), "P", "C", Request{MaxSpendRatio: 0.5}, now)
	if err != nil {
		t.Fatalf("spawn child: %v", err)
	}
	setupAgentWithWallet(t, s, "C", "wC", float64(childLineage.SpawnPolicy.RuleOverrides["DailyLimit"]))

	grandLineage, _, err := g.Spawn(context.Background(), "C", "G", Request{}, now)
	if err != nil {
		t.Fatalf("spawn grandchild: %v", err)
	}
	if grandLineage.SpawnPolicy.RuleOverrides["DailyLimit"] > childLineage.SpawnPolicy.RuleOverrides["DailyLimit"] {
		t.Fatalf("grandchild DailyLimit %d exceeds child's %d", grandLineage.SpawnPolicy.RuleOverrides["DailyLimit"], childLineage.SpawnPolicy.RuleOverrides["DailyLimit"])
	}
}

// TestGrandchildCeilingHoldsWithoutIntermediateRule spawns a grandchild from
// a child that never materialized a SpendRule matching its own inherited
// ceiling. The ceiling must still hold — derived from the child's own
// SpawnPolicy.RuleOverrides, not from a live rule query that would find
// nothing for this agent and let the request through unclamped.
func TestGrandchildCeilingHoldsWithoutIntermediateRule(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()
	setupAgentWithWallet(t, s, "P", "wP", 1000)
	if err := s.CreateAgent(ctx, &store.Agent{ID: "C", Status: store.AgentActive}); err != nil {
		t.Fatalf("create agent C: %v", err)
	}

	g := New(s)
	now := time.Now()

	childLineage, _, err := g.Spawn(ctx, "P", "C", Request{MaxSpendRatio: 0.5}, now)
	if err != nil {
		t.Fatalf("spawn child: %v", err)
	}
	ceiling := childLineage.SpawnPolicy.RuleOverrides["DailyLimit"]
	if ceiling != 500 {
		t.Fatalf("child DailyLimit ceiling = %d, want 500", ceiling)
	}

	grandLineage, _, err := g.Spawn(ctx, "C", "G", Request{RuleOverrides: map[string]int64{"DailyLimit": 100000}}, now)
	if err != nil {
		t.Fatalf("spawn grandchild: %v", err)
	}
	if got := grandLineage.SpawnPolicy.RuleOverrides["DailyLimit"]; got > ceiling {
		t.Fatalf("grandchild DailyLimit %d exceeds the inherited ceiling %d even though C never materialized a matching rule", got, ceiling)
	}
}
