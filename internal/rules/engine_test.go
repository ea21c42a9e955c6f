package rules

import (
	"context"
	"testing"
	"time"

	"github.com/agentwallet/agentwallet/internal/store"
	"github.com/agentwallet/agentwallet/internal/store/inmemory"
)

func newWallet(t *testing.T, s store.Store, balance int64) *store.Wallet {
	t.Helper()
	w := &store.Wallet{ID: "w1", AgentID: "a1", Balance: balance, Currency: "USD", Status: store.WalletActive}
	if err := s.CreateWallet(context.Background(), w); err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	return w
}

func TestEvaluatePerTransactionLimit(t *testing.T) {
	s := inmemory.New()
	newWallet(t, s, 100000)
	ctx := context.Background()
	rule := &store.SpendRule{ID: "r1", WalletID: "w1", Kind: store.RulePerTransactionLimit, Params: map[string]any{"limit": 20000.0}, Active: true}
	if err := s.CreateRule(ctx, rule); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	tests := []struct {
		name   string
		amount int64
		want   bool
	}{
		{"under limit", 15000, true},
		{"at limit", 20000, true},
		{"over limit", 25000, false},
	}

	eng := New(s)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := eng.Evaluate(ctx, "w1", Candidate{Amount: tt.amount, Now: time.Now()})
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if verdict.Approved != tt.want {
				t.Errorf("approved = %v, want %v (results: %+v)", verdict.Approved, tt.want, verdict.Results)
			}
		})
	}
}

func TestEvaluateDailyLimitAggregatesCompletedSpend(t *testing.T) {
	s := inmemory.New()
	newWallet(t, s, 1000000)
	ctx := context.Background()
	rule := &store.SpendRule{ID: "r1", WalletID: "w1", Kind: store.RuleDailyLimit, Params: map[string]any{"limit": 50000.0}, Active: true}
	if err := s.CreateRule(ctx, rule); err != nil {
		t.Fatalf("create rule: %v", err)
	}
	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		tx := &store.Transaction{ID: "t" + string(rune('a'+i)), WalletID: "w1", Amount: 20000, Status: store.TxCompleted, Category: "advertising", CreatedAt: now}
		if err := s.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("create transaction: %v", err)
		}
	}

	eng := New(s)
	verdict, err := eng.Evaluate(ctx, "w1", Candidate{Amount: 15000, Now: now})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if verdict.Approved {
		t.Fatalf("expected rejection: 60000 spent + 15000 projected > 50000 limit, results: %+v", verdict.Results)
	}

	verdict, err = eng.Evaluate(ctx, "w1", Candidate{Amount: 5000, Now: now})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if verdict.Approved {
		t.Fatalf("expected rejection: 60000 spent + 5000 projected > 50000 limit, results: %+v", verdict.Results)
	}
}

func TestEvaluateDailyLimitIgnoresDeposits(t *testing.T) {
	s := inmemory.New()
	newWallet(t, s, 1000000)
	ctx := context.Background()
	rule := &store.SpendRule{ID: "r1", WalletID: "w1", Kind: store.RuleDailyLimit, Params: map[string]any{"limit": 10000.0}, Active: true}
	if err := s.CreateRule(ctx, rule); err != nil {
		t.Fatalf("create rule: %v", err)
	}
	now := time.Now().UTC()
	deposit := &store.Transaction{ID: "d1", WalletID: "w1", Amount: 500000, Status: store.TxCompleted, Category: store.DepositCategory, CreatedAt: now}
	if err := s.CreateTransaction(ctx, deposit); err != nil {
		t.Fatalf("create deposit: %v", err)
	}

	eng := New(s)
	verdict, err := eng.Evaluate(ctx, "w1", Candidate{Amount: 5000, Now: now})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !verdict.Approved {
		t.Fatalf("deposit must not count against DailyLimit, results: %+v", verdict.Results)
	}
}

func TestEvaluateApprovalThresholdAlwaysPassesButFlagsApproval(t *testing.T) {
	s := inmemory.New()
	newWallet(t, s, 1000000)
	ctx := context.Background()
	rule := &store.SpendRule{ID: "r1", WalletID: "w1", Kind: store.RuleApprovalThreshold, Params: map[string]any{"threshold": 7500.0}, Active: true}
	if err := s.CreateRule(ctx, rule); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	eng := New(s)
	below, err := eng.Evaluate(ctx, "w1", Candidate{Amount: 5000, Now: time.Now()})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !below.Approved || below.RequiresApproval {
		t.Errorf("below threshold: approved=%v requiresApproval=%v, want true/false", below.Approved, below.RequiresApproval)
	}

	above, err := eng.Evaluate(ctx, "w1", Candidate{Amount: 8000, Now: time.Now()})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !above.Approved || !above.RequiresApproval {
		t.Errorf("above threshold: approved=%v requiresApproval=%v, want true/true", above.Approved, above.RequiresApproval)
	}
}

func TestEvaluateDoesNotShortCircuit(t *testing.T) {
	s := inmemory.New()
	newWallet(t, s, 1000000)
	ctx := context.Background()
	rules := []*store.SpendRule{
		{ID: "r1", WalletID: "w1", Kind: store.RulePerTransactionLimit, Params: map[string]any{"limit": 1000.0}, Active: true},
		{ID: "r2", WalletID: "w1", Kind: store.RuleCategoryWhitelist, Params: map[string]any{"categories": []any{"advertising"}}, Active: true},
	}
	for _, r := range rules {
		if err := s.CreateRule(ctx, r); err != nil {
			t.Fatalf("create rule: %v", err)
		}
	}

	eng := New(s)
	verdict, err := eng.Evaluate(ctx, "w1", Candidate{Amount: 50000, Category: "groceries", Now: time.Now()})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(verdict.Results) != 2 {
		t.Fatalf("expected a result from every rule even after the first fails, got %d", len(verdict.Results))
	}
	if verdict.Approved {
		t.Fatalf("expected rejection from both failing rules")
	}
}

func TestValidateParams(t *testing.T) {
	tests := []struct {
		name    string
		kind    store.RuleKind
		params  map[string]any
		wantErr bool
	}{
		{"valid limit", store.RuleDailyLimit, map[string]any{"limit": 100.0}, false},
		{"zero limit", store.RuleDailyLimit, map[string]any{"limit": 0.0}, true},
		{"missing limit", store.RuleDailyLimit, map[string]any{}, true},
		{"valid categories", store.RuleCategoryWhitelist, map[string]any{"categories": []any{"a"}}, false},
		{"empty categories", store.RuleCategoryWhitelist, map[string]any{"categories": []any{}}, true},
		{"valid hours", store.RuleTimeWindow, map[string]any{"startHour": 9.0, "endHour": 17.0}, false},
		{"out of range hour", store.RuleTimeWindow, map[string]any{"startHour": 9.0, "endHour": 24.0}, true},
		{"unknown kind", store.RuleKind("Bogus"), map[string]any{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateParams(tt.kind, tt.params)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateParams(%v, %v) error = %v, wantErr %v", tt.kind, tt.params, err, tt.wantErr)
			}
		})
	}
}
