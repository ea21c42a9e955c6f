package killswitch

import (
	"context"
	"testing"
	"time"

	"github.com/agentwallet/agentwallet/internal/store"
	"github.com/agentwallet/agentwallet/internal/store/inmemory"
)

func TestEvaluateDrawdownPercentFires(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()
	now := time.Now().UTC()

	wallet := &store.Wallet{ID: "w1", AgentID: "a1", Balance: 40000, Status: store.WalletActive}
	if err := s.CreateWallet(ctx, wallet); err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	// Peak was 100000 two hours ago; a debit of 60000 one hour ago brought it to 40000.
	tx := &store.Transaction{ID: "t1", WalletID: "w1", Amount: 60000, Status: store.TxCompleted, Category: "trading", CreatedAt: now.Add(-time.Hour)}
	if err := s.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("create tx: %v", err)
	}
	ks := &store.KillSwitch{ID: "k1", WalletID: "w1", Kind: store.KillDrawdownPercent, Threshold: 0.3, WindowHours: 24, Active: true}
	if err := s.CreateKillSwitch(ctx, ks); err != nil {
		t.Fatalf("create kill switch: %v", err)
	}

	eng := New(s)
	fired, err := eng.Evaluate(ctx, "w1", now)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if fired == nil {
		t.Fatal("expected drawdown kill switch to fire")
	}
	if fired.CurrentValue < 0.3 {
		t.Errorf("currentValue = %v, want >= 0.3", fired.CurrentValue)
	}
}

func TestLatchedSwitchBlocksWithoutReevaluation(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()
	now := time.Now().UTC()

	wallet := &store.Wallet{ID: "w1", AgentID: "a1", Balance: 100000, Status: store.WalletKillSwitched}
	if err := s.CreateWallet(ctx, wallet); err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	triggeredAt := now.Add(-time.Minute)
	ks := &store.KillSwitch{ID: "k1", WalletID: "w1", Kind: store.KillLossAmount, Threshold: 100, Active: true, Triggered: true, TriggeredAt: &triggeredAt}
	if err := s.CreateKillSwitch(ctx, ks); err != nil {
		t.Fatalf("create kill switch: %v", err)
	}

	eng := New(s)
	fired, err := eng.Evaluate(ctx, "w1", now)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if fired == nil || fired.ID != "k1" {
		t.Fatal("expected already-latched switch to be returned immediately")
	}
}

func TestResetRequiresTriggeredSwitch(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()
	wallet := &store.Wallet{ID: "w1", AgentID: "a1", Balance: 100000, Status: store.WalletActive}
	if err := s.CreateWallet(ctx, wallet); err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	ks := &store.KillSwitch{ID: "k1", WalletID: "w1", Kind: store.KillLossAmount, Threshold: 100, Active: true}
	if err := s.CreateKillSwitch(ctx, ks); err != nil {
		t.Fatalf("create kill switch: %v", err)
	}

	eng := New(s)
	if err := eng.Reset(ctx, "k1", time.Now()); err == nil {
		t.Fatal("expected error resetting a switch that was never triggered")
	}
}
