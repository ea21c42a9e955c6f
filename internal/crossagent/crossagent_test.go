package crossagent

import (
	"context"
	"testing"
	"time"

	"github.com/agentwallet/agentwallet/internal/store"
	"github.com/agentwallet/agentwallet/internal/store/inmemory"
)

func TestAuthorizeNoPolicyRequiresHuman(t *testing.T) {
	s := inmemory.New()
	g := New(s)
	tx, outcome, err := g.Authorize(context.Background(), "A", "B", 1000, "transfer", nil, time.Now())
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if outcome != OutcomeNoPolicy {
		t.Errorf("outcome = %v, want %v", outcome, OutcomeNoPolicy)
	}
	if tx.Authorized || !tx.RequiresHuman {
		t.Errorf("tx.Authorized=%v tx.RequiresHuman=%v, want false/true", tx.Authorized, tx.RequiresHuman)
	}
}

func TestAuthorizeWithinLimitsSettlesImmediately(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()
	policy := &store.CrossAgentPolicy{
		ID: "p1", OwnerID: "o1", SourceAgentID: "A", TargetAgentID: "B",
		Limits: store.CrossAgentLimits{
			AllowedPaymentTypes:       []string{"transfer"},
			MaxPerTransaction:         5000,
			MaxDailyToTarget:          10000,
			MaxDailyAllAgents:         10000,
			RequireHumanApprovalAbove: 0,
		},
		SettlementMode: store.SettlementImmediate,
		Enabled:        true,
	}
	if err := s.CreatePolicy(ctx, policy); err != nil {
		t.Fatalf("create policy: %v", err)
	}

	g := New(s)
	tx, outcome, err := g.Authorize(ctx, "A", "B", 1000, "transfer", nil, time.Now())
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if outcome != OutcomeAuthorized {
		t.Fatalf("outcome = %v, want %v", outcome, OutcomeAuthorized)
	}
	if !tx.Authorized || tx.SettlementStatus != store.SettlementSettled {
		t.Errorf("tx.Authorized=%v tx.SettlementStatus=%v", tx.Authorized, tx.SettlementStatus)
	}
}

func TestAuthorizeEscalatesAboveApprovalThreshold(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()
	policy := &store.CrossAgentPolicy{
		ID: "p1", OwnerID: "o1", SourceAgentID: "A", TargetAgentID: "B",
		Limits: store.CrossAgentLimits{
			AllowedPaymentTypes:       []string{"transfer"},
			MaxPerTransaction:         100000,
			MaxDailyToTarget:          100000,
			MaxDailyAllAgents:         100000,
			RequireHumanApprovalAbove: 5000,
		},
		Enabled: true,
	}
	if err := s.CreatePolicy(ctx, policy); err != nil {
		t.Fatalf("create policy: %v", err)
	}

	g := New(s)
	tx, outcome, err := g.Authorize(ctx, "A", "B", 6000, "transfer", nil, time.Now())
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if outcome != OutcomeEscalated {
		t.Fatalf("outcome = %v, want %v", outcome, OutcomeEscalated)
	}
	if tx.Authorized || !tx.RequiresHuman {
		t.Errorf("tx.Authorized=%v tx.RequiresHuman=%v, want false/true", tx.Authorized, tx.RequiresHuman)
	}

	approved, err := g.Approve(ctx, tx.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !approved.Authorized || approved.AuthorizationMethod != store.AuthHumanApproved {
		t.Errorf("approved.Authorized=%v method=%v", approved.Authorized, approved.AuthorizationMethod)
	}
}

func TestExactPolicyBeatsWildcard(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()
	wildcard := &store.CrossAgentPolicy{
		ID: "wild", OwnerID: "o1", SourceAgentID: "A",
		Limits: store.CrossAgentLimits{AllowedPaymentTypes: []string{"transfer"}, MaxPerTransaction: 100, MaxDailyToTarget: 100, MaxDailyAllAgents: 100},
		Enabled: true,
	}
	exact := &store.CrossAgentPolicy{
		ID: "exact", OwnerID: "o1", SourceAgentID: "A", TargetAgentID: "B",
		Limits: store.CrossAgentLimits{AllowedPaymentTypes: []string{"transfer"}, MaxPerTransaction: 100000, MaxDailyToTarget: 100000, MaxDailyAllAgents: 100000},
		Enabled: true,
	}
	if err := s.CreatePolicy(ctx, wildcard); err != nil {
		t.Fatalf("create wildcard: %v", err)
	}
	if err := s.CreatePolicy(ctx, exact); err != nil {
		t.Fatalf("create exact: %v", err)
	}

	g := New(s)
	_, outcome, err := g.Authorize(ctx, "A", "B", 5000, "transfer", nil, time.Now())
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if outcome != OutcomeAuthorized {
		t.Fatalf("outcome = %v, want %v (exact policy's higher limit should apply)", outcome, OutcomeAuthorized)
	}
}
